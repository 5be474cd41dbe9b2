// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"

	"github.com/studykitio/studykit/models"
)

type (
	// SurveyLookup fetches published survey versions. Implementations
	// return models.ErrNotFound when no published version exists.
	SurveyLookup interface {
		GetMostRecentlyPublishedVersion(
			ctx context.Context, studyId string, surveyGuid string,
		) (models.Survey, error)
	}

	// SchemaLookup fetches data-collection schema revisions. The latest
	// revision can depend on the requesting client's app version.
	// Implementations return models.ErrNotFound when the schema id is
	// unknown or no revision applies to the client.
	SchemaLookup interface {
		GetLatestRevisionForAppVersion(
			ctx context.Context, studyId string, schemaId string, client models.ClientInfo,
		) (models.Schema, error)
	}

	// CompoundActivityDefinitionLookup fetches the stored definition
	// behind a compound activity reference. Implementations return
	// models.ErrNotFound for an unknown task id.
	CompoundActivityDefinitionLookup interface {
		GetCompoundActivityDefinition(
			ctx context.Context, studyId string, taskId string,
		) (models.CompoundActivityDefinition, error)
	}
)

// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/studykitio/studykit/common/log"
	"github.com/studykitio/studykit/common/log/tag"
	"github.com/studykitio/studykit/common/ptr"
	"github.com/studykitio/studykit/config"
	"github.com/studykitio/studykit/models"
)

// Factory builds per-request reference resolvers. The lookups and the
// seed maps are shared; the caches are not, so one slow or failing
// request can never poison another request's view of the references.
type Factory struct {
	surveys   SurveyLookup
	schemas   SchemaLookup
	compounds CompoundActivityDefinitionLookup

	seedSurveysByGuid map[string]models.Survey
	seedSchemasById   map[string]models.Schema

	logger log.Logger
}

func NewFactory(
	surveys SurveyLookup,
	schemas SchemaLookup,
	compounds CompoundActivityDefinitionLookup,
	seedSurveysByGuid map[string]models.Survey,
	seedSchemasById map[string]models.Schema,
	logger log.Logger,
) *Factory {
	return &Factory{
		surveys:           surveys,
		schemas:           schemas,
		compounds:         compounds,
		seedSurveysByGuid: seedSurveysByGuid,
		seedSchemasById:   seedSchemasById,
		logger:            logger,
	}
}

// NewResolver returns a resolver scoped to one request. It caches every
// lookup result, including misses, so each survey guid, schema id and
// task id is fetched at most once per request.
func (f *Factory) NewResolver(studyId string, client models.ClientInfo) *ReferenceResolver {
	return &ReferenceResolver{
		factory:       f,
		studyId:       studyId,
		client:        client,
		surveyCache:   map[string]*models.Survey{},
		schemaCache:   map[string]*models.Schema{},
		compoundCache: map[string]*models.CompoundActivityDefinition{},
	}
}

// ReferenceResolver fills in the unresolved references inside activity
// templates: a survey reference without a version timestamp, a schema
// reference without a revision, a compound activity naming only its task
// id. A reference whose target does not exist stays unresolved and the
// activity is still returned; resolution failure is never a request
// failure unless the lookup itself errors.
type ReferenceResolver struct {
	factory *Factory
	studyId string
	client  models.ClientInfo

	// nil entry = known miss, cached so it is logged and fetched once
	surveyCache   map[string]*models.Survey
	schemaCache   map[string]*models.Schema
	compoundCache map[string]*models.CompoundActivityDefinition
}

// Resolve returns a copy of the activity with its references resolved as
// far as the lookups allow
func (r *ReferenceResolver) Resolve(ctx context.Context, activity models.Activity) (models.Activity, error) {
	switch activity.Type() {
	case models.ActivityTypeSurvey:
		ref, err := r.resolveSurvey(ctx, *activity.Survey)
		if err != nil {
			return activity, err
		}
		activity.Survey = &ref
	case models.ActivityTypeTask:
		if activity.Task.Schema != nil {
			task := *activity.Task
			schema, err := r.resolveSchema(ctx, *task.Schema)
			if err != nil {
				return activity, err
			}
			task.Schema = &schema
			activity.Task = &task
		}
	case models.ActivityTypeCompound:
		compound, err := r.resolveCompound(ctx, *activity.Compound)
		if err != nil {
			return activity, err
		}
		activity.Compound = &compound
	}
	return activity, nil
}

func (r *ReferenceResolver) resolveSurvey(
	ctx context.Context, ref models.SurveyReference,
) (models.SurveyReference, error) {
	if ref.IsResolved() && ref.Identifier != "" {
		return ref, nil
	}
	survey, found, err := r.lookupSurvey(ctx, ref.Guid)
	if err != nil || !found {
		return ref, err
	}
	if ref.CreatedOn == nil {
		ref.CreatedOn = ptr.Any(survey.CreatedOn)
	}
	if ref.Identifier == "" {
		ref.Identifier = survey.Identifier
	}
	return ref, nil
}

func (r *ReferenceResolver) resolveSchema(
	ctx context.Context, ref models.SchemaReference,
) (models.SchemaReference, error) {
	if ref.IsResolved() {
		return ref, nil
	}
	schema, found, err := r.lookupSchema(ctx, ref.Id)
	if err != nil || !found {
		return ref, err
	}
	ref.Revision = ptr.Any(schema.Revision)
	return ref, nil
}

func (r *ReferenceResolver) resolveCompound(
	ctx context.Context, compound models.CompoundActivity,
) (models.CompoundActivity, error) {
	if compound.IsReference() {
		definition, found, err := r.lookupCompound(ctx, compound.TaskIdentifier)
		if err != nil || !found {
			return compound, err
		}
		compound.SchemaList = append([]models.SchemaReference(nil), definition.SchemaList...)
		compound.SurveyList = append([]models.SurveyReference(nil), definition.SurveyList...)
	}

	schemaList := make([]models.SchemaReference, 0, len(compound.SchemaList))
	for _, schemaRef := range compound.SchemaList {
		resolved, err := r.resolveSchema(ctx, schemaRef)
		if err != nil {
			return compound, err
		}
		schemaList = append(schemaList, resolved)
	}
	surveyList := make([]models.SurveyReference, 0, len(compound.SurveyList))
	for _, surveyRef := range compound.SurveyList {
		resolved, err := r.resolveSurvey(ctx, surveyRef)
		if err != nil {
			return compound, err
		}
		surveyList = append(surveyList, resolved)
	}
	compound.SchemaList = schemaList
	compound.SurveyList = surveyList
	return compound, nil
}

func (r *ReferenceResolver) lookupSurvey(ctx context.Context, surveyGuid string) (models.Survey, bool, error) {
	if cached, ok := r.surveyCache[surveyGuid]; ok {
		if cached == nil {
			return models.Survey{}, false, nil
		}
		return *cached, true, nil
	}
	if seeded, ok := r.factory.seedSurveysByGuid[surveyGuid]; ok {
		r.surveyCache[surveyGuid] = &seeded
		return seeded, true, nil
	}
	if r.factory.surveys == nil {
		r.surveyCache[surveyGuid] = nil
		return models.Survey{}, false, nil
	}
	survey, err := r.factory.surveys.GetMostRecentlyPublishedVersion(ctx, r.studyId, surveyGuid)
	if errors.Is(err, models.ErrNotFound) {
		r.surveyCache[surveyGuid] = nil
		r.factory.logger.Warn("survey reference cannot be resolved",
			tag.StudyId(r.studyId), tag.SurveyGuid(surveyGuid))
		return models.Survey{}, false, nil
	}
	if err != nil {
		return models.Survey{}, false, err
	}
	r.surveyCache[surveyGuid] = &survey
	return survey, true, nil
}

func (r *ReferenceResolver) lookupSchema(ctx context.Context, schemaId string) (models.Schema, bool, error) {
	if cached, ok := r.schemaCache[schemaId]; ok {
		if cached == nil {
			return models.Schema{}, false, nil
		}
		return *cached, true, nil
	}
	if seeded, ok := r.factory.seedSchemasById[schemaId]; ok {
		r.schemaCache[schemaId] = &seeded
		return seeded, true, nil
	}
	if r.factory.schemas == nil {
		r.schemaCache[schemaId] = nil
		return models.Schema{}, false, nil
	}
	schema, err := r.factory.schemas.GetLatestRevisionForAppVersion(ctx, r.studyId, schemaId, r.client)
	if errors.Is(err, models.ErrNotFound) {
		r.schemaCache[schemaId] = nil
		r.factory.logger.Warn("schema reference cannot be resolved",
			tag.StudyId(r.studyId), tag.SchemaId(schemaId))
		return models.Schema{}, false, nil
	}
	if err != nil {
		return models.Schema{}, false, err
	}
	r.schemaCache[schemaId] = &schema
	return schema, true, nil
}

func (r *ReferenceResolver) lookupCompound(
	ctx context.Context, taskId string,
) (models.CompoundActivityDefinition, bool, error) {
	if cached, ok := r.compoundCache[taskId]; ok {
		if cached == nil {
			return models.CompoundActivityDefinition{}, false, nil
		}
		return *cached, true, nil
	}
	if r.factory.compounds == nil {
		r.compoundCache[taskId] = nil
		return models.CompoundActivityDefinition{}, false, nil
	}
	definition, err := r.factory.compounds.GetCompoundActivityDefinition(ctx, r.studyId, taskId)
	if errors.Is(err, models.ErrNotFound) {
		r.compoundCache[taskId] = nil
		r.factory.logger.Warn("compound activity definition cannot be resolved",
			tag.StudyId(r.studyId), tag.TaskId(taskId))
		return models.CompoundActivityDefinition{}, false, nil
	}
	if err != nil {
		return models.CompoundActivityDefinition{}, false, err
	}
	r.compoundCache[taskId] = &definition
	return definition, true, nil
}

// SeedsFromConfig converts the references section of the config into the
// seed maps of a Factory. A malformed createdOn timestamp is a fatal
// config error.
func SeedsFromConfig(cfg config.ReferencesConfig) (map[string]models.Survey, map[string]models.Schema, error) {
	surveysByGuid := make(map[string]models.Survey, len(cfg.Surveys))
	for _, survey := range cfg.Surveys {
		createdOn, err := time.Parse(time.RFC3339, survey.CreatedOn)
		if err != nil {
			return nil, nil, models.NewConfigError(
				"invalid createdOn for seeded survey " + survey.Guid + ": " + err.Error())
		}
		surveysByGuid[survey.Guid] = models.Survey{
			Guid:       survey.Guid,
			Identifier: survey.Identifier,
			CreatedOn:  createdOn,
		}
	}
	schemasById := make(map[string]models.Schema, len(cfg.Schemas))
	for _, schema := range cfg.Schemas {
		schemasById[schema.Id] = models.Schema{
			Id:       schema.Id,
			Revision: schema.Revision,
		}
	}
	return surveysByGuid, schemasById, nil
}

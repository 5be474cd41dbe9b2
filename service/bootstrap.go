// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"fmt"

	"github.com/studykitio/studykit/common/log"
	"github.com/studykitio/studykit/config"
	"github.com/studykitio/studykit/persistence"
	persistencesql "github.com/studykitio/studykit/persistence/sql"
	"github.com/studykitio/studykit/resolver"
)

// Lookups are the reference lookup collaborators of the resolver. Any of
// them can be nil, the matching reference kind then resolves only from
// the config seeds.
type Lookups struct {
	Surveys   resolver.SurveyLookup
	Schemas   resolver.SchemaLookup
	Compounds resolver.CompoundActivityDefinitionLookup
}

// NewServiceFromConfig wires a ScheduledActivityService from the yaml
// config: the SQL activity store, the Pulsar event sink (or a no-op one
// when not configured), and a resolver factory seeded from the
// references section. The returned service owns the store and the sink;
// call Close to release them.
func NewServiceFromConfig(
	cfg *config.Config,
	plans SchedulePlanProvider,
	consents ConsentStatusProvider,
	lookups Lookups,
	logger log.Logger,
) (*ScheduledActivityService, error) {
	if cfg.Database.SQL == nil {
		return nil, fmt.Errorf("a SQL database config is required")
	}
	store, err := persistencesql.NewSQLActivityStore(*cfg.Database.SQL, logger)
	if err != nil {
		return nil, err
	}

	eventSink := persistence.NewNoopActivityEventSink()
	if cfg.EventSink.Pulsar != nil {
		eventSink, err = persistence.NewPulsarActivityEventSink(*cfg.EventSink.Pulsar, logger)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	seedSurveys, seedSchemas, err := resolver.SeedsFromConfig(cfg.References)
	if err != nil {
		eventSink.Close()
		store.Close()
		return nil, err
	}
	resolverFactory := resolver.NewFactory(
		lookups.Surveys, lookups.Schemas, lookups.Compounds, seedSurveys, seedSchemas, logger)

	return NewScheduledActivityService(cfg.Scheduling, Dependencies{
		Store:           store,
		EventSink:       eventSink,
		Plans:           plans,
		Consents:        consents,
		ResolverFactory: resolverFactory,
	}, logger), nil
}

// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type (
	Config struct {
		// Log is the logging config
		Log Logger `yaml:"log"`

		// Database is the database holding persisted scheduled activities
		Database DatabaseConfig `yaml:"database"`

		// Scheduling holds the knobs of the activity scheduling engine
		Scheduling SchedulingConfig `yaml:"scheduling"`

		// EventSink is the config for publishing activity finished events
		EventSink EventSinkConfig `yaml:"eventSink"`

		// References pre-seeds the reference resolver, typically from the
		// study's app config, so that well-known survey/schema references
		// never need a lookup call
		References ReferencesConfig `yaml:"references"`
	}

	DatabaseConfig struct {
		// SQL is the SQL database config. Only SQL is supported for now.
		SQL *SQL `yaml:"sql"`
	}

	SchedulingConfig struct {
		// MaxScheduleWindowDays caps the requested visibility window
		// (endsOn - now). Requests beyond the cap are rejected.
		// If not specified then the default value of 15 days is used.
		MaxScheduleWindowDays int `yaml:"maxScheduleWindowDays"`
		// DailyLookbackFloor is the minimum lookback applied before "now"
		// when generating recurring activities, so that a prior-day
		// instance that has not expired yet still appears. The effective
		// lookback per schedule is the larger of this floor and the
		// schedule's expiration period.
		DailyLookbackFloor time.Duration `yaml:"dailyLookbackFloor"`
		// MaxActivitiesPerSchedule is a hard cap on the number of
		// candidates a single schedule may generate in one request.
		// If not specified then the default value of 250 is used.
		MaxActivitiesPerSchedule int `yaml:"maxActivitiesPerSchedule"`
	}

	EventSinkConfig struct {
		// Pulsar configures the Pulsar producer for finished events.
		// When nil, a no-op sink is used.
		Pulsar *PulsarConfig `yaml:"pulsar"`
	}

	PulsarConfig struct {
		// ServiceURL is the Pulsar broker URL, e.g. pulsar://localhost:6650
		ServiceURL string `yaml:"serviceURL"`
		// Topic is the topic that finished events are published to
		Topic string `yaml:"topic"`
		// ConnectionTimeout for establishing the client connection.
		// If not specified then the default value of 10 seconds is used.
		ConnectionTimeout time.Duration `yaml:"connectionTimeout"`
	}

	ReferencesConfig struct {
		Surveys []SurveyReferenceConfig `yaml:"surveys"`
		Schemas []SchemaReferenceConfig `yaml:"schemas"`
	}

	SurveyReferenceConfig struct {
		Guid       string `yaml:"guid"`
		Identifier string `yaml:"identifier"`
		// CreatedOn is the published version timestamp, in RFC3339
		CreatedOn string `yaml:"createdOn"`
	}

	SchemaReferenceConfig struct {
		Id       string `yaml:"id"`
		Revision int    `yaml:"revision"`
	}
)

// NewConfig returns a new decoded Config struct
func NewConfig(configPath string) (*Config, error) {
	log.Printf("Loading configFile=%v\n", configPath)

	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)

	if err := d.Decode(&config); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) ValidateAndSetDefaults() error {
	if c.Database.SQL != nil {
		sql := c.Database.SQL
		if anyAbsent(sql.DatabaseName, sql.DBExtensionName, sql.ConnectAddr, sql.User) {
			return fmt.Errorf("some required configs are missing: sql.DatabaseName, sql.DBExtensionName, sql.ConnectAddr, sql.User")
		}
	}
	scheduling := &c.Scheduling
	if scheduling.MaxScheduleWindowDays == 0 {
		scheduling.MaxScheduleWindowDays = 15
	}
	if scheduling.MaxScheduleWindowDays < 0 {
		return fmt.Errorf("scheduling.maxScheduleWindowDays must be positive")
	}
	if scheduling.MaxActivitiesPerSchedule == 0 {
		scheduling.MaxActivitiesPerSchedule = 250
	}
	if c.EventSink.Pulsar != nil {
		pulsar := c.EventSink.Pulsar
		if anyAbsent(pulsar.ServiceURL, pulsar.Topic) {
			return fmt.Errorf("some required configs are missing: pulsar.ServiceURL, pulsar.Topic")
		}
		if pulsar.ConnectionTimeout == 0 {
			pulsar.ConnectionTimeout = 10 * time.Second
		}
	}
	return nil
}

func anyAbsent(fields ...string) bool {
	for _, f := range fields {
		if f == "" {
			return true
		}
	}
	return false
}

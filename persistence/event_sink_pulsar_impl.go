// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package persistence

import (
	"context"
	"encoding/json"

	"github.com/apache/pulsar-client-go/pulsar"

	"github.com/studykitio/studykit/common/log"
	"github.com/studykitio/studykit/common/log/tag"
	"github.com/studykitio/studykit/config"
)

type activityEventSinkPulsar struct {
	client   pulsar.Client
	producer pulsar.Producer
	logger   log.Logger
}

var _ ActivityEventSink = (*activityEventSinkPulsar)(nil)

func NewPulsarActivityEventSink(cfg config.PulsarConfig, logger log.Logger) (ActivityEventSink, error) {
	client, err := pulsar.NewClient(pulsar.ClientOptions{
		URL:               cfg.ServiceURL,
		ConnectionTimeout: cfg.ConnectionTimeout,
	})
	if err != nil {
		return nil, err
	}
	producer, err := client.CreateProducer(pulsar.ProducerOptions{
		Topic: cfg.Topic,
	})
	if err != nil {
		client.Close()
		return nil, err
	}
	return &activityEventSinkPulsar{
		client:   client,
		producer: producer,
		logger:   logger,
	}, nil
}

func (s *activityEventSinkPulsar) PublishActivityFinished(
	ctx context.Context, event ActivityFinishedEvent,
) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	// keyed by health code so one participant's events stay ordered
	_, err = s.producer.Send(ctx, &pulsar.ProducerMessage{
		Key:     event.HealthCode,
		Payload: payload,
	})
	if err != nil {
		s.logger.Error("failed to publish activity finished event",
			tag.Error(err),
			tag.StudyId(event.StudyId),
			tag.ActivityGuid(event.ActivityGuid))
		return err
	}
	return nil
}

func (s *activityEventSinkPulsar) Close() error {
	s.producer.Close()
	s.client.Close()
	return nil
}

//go:build integration

package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"cornerstone/pkg/testutil/containers"
)

const testTopic = "cornerstone.audit.test"

type KafkaPublisherSuite struct {
	suite.Suite
	redpanda  *containers.RedpandaContainer
	publisher *KafkaPublisher
	ctx       context.Context
}

func TestKafkaPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaPublisherSuite))
}

func (s *KafkaPublisherSuite) SetupSuite() {
	s.ctx = context.Background()
	s.redpanda = containers.NewRedpandaContainer(s.T())
	s.redpanda.CreateTopic(s.T(), testTopic)

	publisher, err := NewKafkaPublisher(s.redpanda.Brokers, testTopic, slog.Default())
	s.Require().NoError(err)
	s.publisher = publisher
}

func (s *KafkaPublisherSuite) TearDownSuite() {
	if s.publisher != nil {
		s.Require().NoError(s.publisher.Close())
	}
}

func (s *KafkaPublisherSuite) TestEmitRoundTrip() {
	sent := Event{
		RegistrationID: "reg-integration",
		Action:         EventRegistrationCompleted,
		Detail:         map[string]string{"confirmation_number": "GI2026-000007"},
		At:             time.Now().UTC().Truncate(time.Millisecond),
	}
	s.Require().NoError(s.publisher.Emit(s.ctx, sent))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumeTopics(testTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()

	fetches := consumer.PollFetches(ctx)
	s.Require().NoError(fetches.Err())

	records := fetches.Records()
	s.Require().NotEmpty(records)

	var got Event
	s.Require().NoError(json.Unmarshal(records[0].Value, &got))
	s.Equal(sent, got)
	s.Equal("reg-integration", string(records[0].Key))
}

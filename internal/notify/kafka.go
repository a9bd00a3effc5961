package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink delivers case events to a kafka topic, keyed by case code so
// all events for one case land on the same partition in order.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

// NewKafkaSink connects to the brokers and ensures the topic exists.
func NewKafkaSink(ctx context.Context, brokers []string, topic string) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(1<<20),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, res := range resp {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			client.Close()
			return nil, fmt.Errorf("create topic %s: %w", topic, res.Err)
		}
	}

	return &KafkaSink{client: client, topic: topic}, nil
}

// eventRecord is the wire shape published to the topic.
type eventRecord struct {
	Kind       string    `json:"kind"`
	CaseID     string    `json:"case_id"`
	CaseCode   string    `json:"case_code"`
	Actor      string    `json:"actor,omitempty"`
	StepNumber int       `json:"step_number,omitempty"`
	StepName   string    `json:"step_name,omitempty"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Note       string    `json:"note,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func (s *KafkaSink) Deliver(ctx context.Context, event Event) error {
	actor := ""
	if !event.Actor.IsZero() {
		actor = event.Actor.String()
	}
	payload, err := json.Marshal(eventRecord{
		Kind:       string(event.Kind),
		CaseID:     event.CaseID.String(),
		CaseCode:   event.CaseCode,
		Actor:      actor,
		StepNumber: event.StepNumber,
		StepName:   event.StepName,
		FromStatus: event.FromStatus,
		ToStatus:   event.ToStatus,
		Reason:     event.Reason,
		Note:       event.Note,
		Timestamp:  event.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.CaseCode),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce event: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() { s.client.Close() }

// LogSink writes events to the structured log. Used when kafka is not
// configured (local development) so the event stream stays observable.
type LogSink struct {
	Logger interface {
		InfoContext(ctx context.Context, msg string, args ...any)
	}
}

func (s LogSink) Deliver(ctx context.Context, event Event) error {
	s.Logger.InfoContext(ctx, "case event",
		"kind", string(event.Kind),
		"case_code", event.CaseCode,
		"from_status", event.FromStatus,
		"to_status", event.ToStatus,
		"step_number", event.StepNumber,
	)
	return nil
}

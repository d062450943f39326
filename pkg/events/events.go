package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pershin-daniil/MeetBot/pkg/models"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const (
	TypeMeetingCreated = "meeting.created.v1"
	TypeMeetingDeleted = "meeting.deleted.v1"
)

type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event is the payload published for every meeting lifecycle change.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurredAt"`
	Meeting    models.Meeting `json:"meeting"`
}

// Publisher writes meeting lifecycle events to Kafka.
type Publisher struct {
	log    *logrus.Entry
	writer Writer
	topic  string
	now    func() time.Time
}

func NewPublisher(log *logrus.Logger, brokers, topic string) (*Publisher, error) {
	list := SplitBrokers(brokers)
	if len(list) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(list...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return NewPublisherWithWriter(log, writer, topic), nil
}

func NewPublisherWithWriter(log *logrus.Logger, writer Writer, topic string) *Publisher {
	return &Publisher{
		log:    log.WithField("component", "events"),
		writer: writer,
		topic:  topic,
		now:    time.Now,
	}
}

func (p *Publisher) MeetingCreated(ctx context.Context, meeting models.Meeting) error {
	return p.publish(ctx, TypeMeetingCreated, meeting)
}

func (p *Publisher) MeetingDeleted(ctx context.Context, meeting models.Meeting) error {
	return p.publish(ctx, TypeMeetingDeleted, meeting)
}

func (p *Publisher) publish(ctx context.Context, eventType string, meeting models.Meeting) error {
	msg, err := p.Message(eventType, meeting)
	if err != nil {
		return err
	}
	if err = p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("err publishing %s for meeting %d: %w", eventType, meeting.ID, err)
	}
	p.log.Debugf("published %s for meeting %d", eventType, meeting.ID)
	return nil
}

// Message builds the Kafka message for a lifecycle event. Messages are keyed
// by meeting id so that events of one meeting stay ordered.
func (p *Publisher) Message(eventType string, meeting models.Meeting) (kafka.Message, error) {
	event := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: p.now().UTC(),
		Meeting:    meeting,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("err encoding %s: %w", eventType, err)
	}
	return kafka.Message{
		Key:   []byte(strconv.Itoa(meeting.ID)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "event_type", Value: []byte(eventType)},
		},
	}, nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

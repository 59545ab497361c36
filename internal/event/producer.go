package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cjuarezoax-byte/hello-api-mas/internal/domain"
	pkgkafka "github.com/cjuarezoax-byte/hello-api-mas/pkg/kafka"
	"github.com/cjuarezoax-byte/hello-api-mas/pkg/logger"
)

// Aggregate type constants.
const (
	AggregateTypeUser = "user"
	AggregateTypeTask = "task"
)

// Event type constants. They double as topic names.
var (
	TopicUserRegistered = pkgkafka.Topic(AggregateTypeUser, "registered")
	TopicTaskCreated    = pkgkafka.Topic(AggregateTypeTask, "created")
	TopicTaskUpdated    = pkgkafka.Topic(AggregateTypeTask, "updated")
	TopicTaskDeleted    = pkgkafka.Topic(AggregateTypeTask, "deleted")
)

// SourceTasksAPI identifies events originating from this service.
const SourceTasksAPI = "tasks-api"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// TaskData is the payload for task.created and task.updated events.
type TaskData struct {
	ID   string `json:"id"`
	Task string `json:"task"`
	Done bool   `json:"done"`
}

// TaskDeletedData is the payload for a task.deleted event.
type TaskDeletedData struct {
	ID string `json:"id"`
}

// Publisher sends an event envelope to a topic. *pkgkafka.Producer
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes domain events. A nil *Producer, or one built over a nil
// Publisher, silently drops every event, which is how the service runs with
// Kafka disabled.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewProducer creates a new event producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{ID: user.ID, Username: user.Username, Roles: user.Roles}
	return p.publish(ctx, TopicUserRegistered, AggregateTypeUser, user.ID, user.ID, data)
}

// PublishTaskCreated publishes a task.created event.
func (p *Producer) PublishTaskCreated(ctx context.Context, task *domain.Task) error {
	data := TaskData{ID: task.ID, Task: task.Task, Done: task.Done}
	return p.publish(ctx, TopicTaskCreated, AggregateTypeTask, task.ID, task.UserID, data)
}

// PublishTaskUpdated publishes a task.updated event.
func (p *Producer) PublishTaskUpdated(ctx context.Context, task *domain.Task) error {
	data := TaskData{ID: task.ID, Task: task.Task, Done: task.Done}
	return p.publish(ctx, TopicTaskUpdated, AggregateTypeTask, task.ID, task.UserID, data)
}

// PublishTaskDeleted publishes a task.deleted event.
func (p *Producer) PublishTaskDeleted(ctx context.Context, userID, taskID string) error {
	return p.publish(ctx, TopicTaskDeleted, AggregateTypeTask, taskID, userID, TaskDeletedData{ID: taskID})
}

func (p *Producer) publish(ctx context.Context, topic, aggregateType, aggregateID, userID string, data any) error {
	if p == nil || p.publisher == nil {
		return nil
	}

	evt, err := pkgkafka.NewEvent(topic, aggregateType, aggregateID, userID, SourceTasksAPI, p.now(), data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	evt.WithRequestID(logger.RequestIDFromContext(ctx))

	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

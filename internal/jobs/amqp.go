package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/SscSPs/receipt_budget_app/internal/core/domain"
	"github.com/SscSPs/receipt_budget_app/internal/core/ports"
)

const publishTimeout = 5 * time.Second

// AMQPQueue publishes jobs to a durable RabbitMQ queue and consumes them on workers.
type AMQPQueue struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	executor     *Executor
	logger       *slog.Logger
}

var _ ports.JobQueue = (*AMQPQueue)(nil)

// NewAMQPQueue dials the broker and declares the exchange, queue and binding.
func NewAMQPQueue(url, exchangeName, queueName string, executor *Executor, logger *slog.Logger) (*AMQPQueue, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	q := &AMQPQueue{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
		executor:     executor,
		logger:       logger,
	}

	if err := q.setup(); err != nil {
		q.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return q, nil
}

func (q *AMQPQueue) setup() error {
	if err := q.channel.ExchangeDeclare(
		q.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := q.channel.QueueDeclare(
		q.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// routing key is the queue name
	if err := q.channel.QueueBind(q.queueName, q.queueName, q.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Enqueue records the job as PENDING and publishes its envelope.
// A publish failure marks the job FAILURE and is returned to the caller.
func (q *AMQPQueue) Enqueue(ctx context.Context, req domain.JobRequest) (string, error) {
	env, err := q.executor.Prepare(ctx, req)
	if err != nil {
		return "", err
	}

	msg, err := newPublishing(env, time.Now())
	if err != nil {
		q.executor.Abandon(ctx, env.JobID, err)
		return "", err
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := q.channel.PublishWithContext(pubCtx, q.exchangeName, q.queueName, false, false, msg); err != nil {
		q.executor.Abandon(ctx, env.JobID, err)
		return "", fmt.Errorf("publish message: %w", err)
	}

	q.logger.InfoContext(ctx, "Published job",
		slog.String("job_id", env.JobID),
		slog.String("task", env.TaskName),
		slog.String("queue", q.queueName))
	return env.JobID, nil
}

func newPublishing(env Envelope, now time.Time) (amqp091.Publishing, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("marshal job envelope: %w", err)
	}
	return amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    env.JobID,
		Type:         env.TaskName,
		Timestamp:    now,
		Body:         body,
	}, nil
}

func decodeDelivery(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal job envelope: %w", err)
	}
	if env.JobID == "" || env.TaskName == "" {
		return Envelope{}, fmt.Errorf("job envelope is missing job id or task name")
	}
	return env, nil
}

// Consume hands deliveries to the executor until ctx is cancelled. Every delivery is acked
// once its terminal state is recorded; malformed ones are rejected without requeue.
func (q *AMQPQueue) Consume(ctx context.Context, prefetch int) error {
	if prefetch > 0 {
		if err := q.channel.Qos(prefetch, 0, false); err != nil {
			return fmt.Errorf("set prefetch: %w", err)
		}
	}

	msgs, err := q.channel.Consume(
		q.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	q.logger.InfoContext(ctx, "Started consuming jobs", slog.String("queue", q.queueName))

	for {
		select {
		case <-ctx.Done():
			q.logger.InfoContext(ctx, "Stopping job consumption", slog.Any("reason", ctx.Err()))
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			env, err := decodeDelivery(delivery.Body)
			if err != nil {
				q.logger.ErrorContext(ctx, "Rejecting malformed delivery",
					slog.String("message_id", delivery.MessageId),
					slog.String("error", err.Error()))
				_ = delivery.Nack(false, false)
				continue
			}

			// A job already taken is finished even if shutdown starts meanwhile.
			if err := q.executor.Handle(context.WithoutCancel(ctx), env); err != nil {
				q.logger.ErrorContext(ctx, "Job bookkeeping failed", slog.String("job_id", env.JobID), slog.String("error", err.Error()))
			}
			_ = delivery.Ack(false)
		}
	}
}

// Close releases the channel and the connection.
func (q *AMQPQueue) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/piwi3910/CargoLoad/internal/config"
	"github.com/piwi3910/CargoLoad/internal/model"
)

// ErrClosed is returned by Consume when the broker closes the delivery channel.
var ErrClosed = errors.New("delivery channel closed")

// Job asks a worker to solve a stored problem and update its run.
type Job struct {
	RunID       string              `json:"run_id"`
	ProblemID   string              `json:"problem_id"`
	Settings    model.SolveSettings `json:"settings"`
	NotifyEmail string              `json:"notify_email,omitempty"`
}

// Publisher enqueues solve jobs.
type Publisher interface {
	Publish(ctx context.Context, job Job) error
}

// HandlerFunc processes one job. Errors wrapped with Permanent are dropped,
// any other error puts the job back on the queue.
type HandlerFunc func(ctx context.Context, job Job) error

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Client is a RabbitMQ connection bound to the solve job queue.
type Client struct {
	conn           *amqp.Connection
	ch             *amqp.Channel
	queue          string
	publishTimeout time.Duration
	logger         *slog.Logger
}

// Dial connects to the broker and declares the durable job queue.
func Dial(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		cfg.RabbitMQ.Queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.RabbitMQ.Queue, err)
	}

	if cfg.RabbitMQ.Prefetch > 0 {
		if err := ch.Qos(cfg.RabbitMQ.Prefetch, 0, false); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("failed to set prefetch: %w", err)
		}
	}

	return &Client{
		conn:           conn,
		ch:             ch,
		queue:          q.Name,
		publishTimeout: config.Seconds(cfg.RabbitMQ.PublishTimeout),
		logger:         logger,
	}, nil
}

// Close closes the channel and the connection.
func (c *Client) Close() error {
	chErr := c.ch.Close()
	connErr := c.conn.Close()
	return errors.Join(chErr, connErr)
}

func (c *Client) Publish(ctx context.Context, job Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.publishTimeout)
	defer cancel()

	err = c.ch.PublishWithContext(
		ctx,
		"",      // default exchange
		c.queue, // routing key
		true,    // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    job.RunID,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish job %s: %w", job.RunID, err)
	}
	return nil
}

// Consume delivers jobs to handle until ctx is done or the broker closes the channel.
func (c *Client) Consume(ctx context.Context, handle HandlerFunc) error {
	msgs, err := c.ch.Consume(
		c.queue,
		"",    // consumer tag assigned by the broker
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", c.queue, err)
	}
	return consumeLoop(ctx, msgs, handle, c.logger)
}

func consumeLoop(ctx context.Context, msgs <-chan amqp.Delivery, handle HandlerFunc, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return ErrClosed
			}
			dispatch(ctx, msg, handle, logger)
		}
	}
}

// dispatch runs handle for one delivery and settles it.
func dispatch(ctx context.Context, msg amqp.Delivery, handle HandlerFunc, logger *slog.Logger) {
	var job Job
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		logger.Error("failed to decode job", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	logger.Info("job received", "run", job.RunID, "problem", job.ProblemID)
	if err := handle(ctx, job); err != nil {
		requeue := !IsPermanent(err)
		logger.Error("job failed", "run", job.RunID, "error", err, "requeue", requeue)
		_ = msg.Nack(false, requeue)
		return
	}
	_ = msg.Ack(false)
}

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SeakMengs/AutoCertLMS/internal/mailer"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// MailPublisher hands a mail job to the consumer instead of sending it inline.
type MailPublisher interface {
	PublishMailJob(job MailJobPayload) error
}

type MailJobPayload struct {
	ToEmail      string          `json:"to_email"`
	ToUsername   string          `json:"to_username"`
	TemplateFile string          `json:"template_file"`
	Data         json.RawMessage `json:"data"`
	CreatedAt    string          `json:"created_at"`
	Try          int             `json:"try"`
}

func NewMailJobPayload[T any](toUsername, toEmail, templateFile string, data T) (MailJobPayload, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return MailJobPayload{}, fmt.Errorf("failed to marshal data: %w", err)
	}

	return MailJobPayload{
		ToEmail:      toEmail,
		ToUsername:   toUsername,
		TemplateFile: templateFile,
		Data:         dataBytes,
		CreatedAt:    time.Now().Format(time.RFC3339),
	}, nil
}

func NewRunSummaryMailJob(toUsername, toEmail string, data mailer.RunSummaryData) (MailJobPayload, error) {
	return NewMailJobPayload(toUsername, toEmail, mailer.RUN_SUMMARY_TEMPLATE, data)
}

func (r *RabbitMQ) PublishMailJob(job MailJobPayload) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal mail job: %w", err)
	}
	return r.Publish(QueueMail, body)
}

// MailJobHandler reports whether a failed job is worth another attempt.
type MailJobHandler func(ctx context.Context, job MailJobPayload) (bool, error)

type jobAction int

const (
	jobAck jobAction = iota
	jobRequeue
	jobDrop
)

func decideMailJob(job MailJobPayload, shouldRequeue bool, err error) jobAction {
	switch {
	case err == nil:
		return jobAck
	case shouldRequeue && job.Try < MAX_QUEUE_RETRY:
		return jobRequeue
	default:
		return jobDrop
	}
}

func (r *RabbitMQ) ConsumeMailJob(ctx context.Context, handler MailJobHandler, maxWorker int, logger *zap.SugaredLogger) error {
	msgs, err := r.Consume(QueueMail)
	if err != nil {
		return fmt.Errorf("failed to start consuming mail jobs: %w", err)
	}

	for i := range maxWorker {
		go r.runMailWorker(ctx, i+1, msgs, handler, logger)
	}

	return nil
}

func (r *RabbitMQ) runMailWorker(ctx context.Context, workerNumber int, msgs <-chan amqp.Delivery, handler MailJobHandler, logger *zap.SugaredLogger) {
	for {
		select {
		case <-ctx.Done():
			logger.Infof("[Mail Worker %d] Shutting down", workerNumber)
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Infof("[Mail Worker %d] Message channel closed", workerNumber)
				return
			}
			r.processMailJob(ctx, workerNumber, msg, handler, logger)
		}
	}
}

func (r *RabbitMQ) processMailJob(ctx context.Context, workerNumber int, msg amqp.Delivery, handler MailJobHandler, logger *zap.SugaredLogger) {
	var job MailJobPayload
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		logger.Errorf("[Mail Worker %d] Invalid payload: %v", workerNumber, err)
		msg.Nack(false, false)
		return
	}

	prefix := fmt.Sprintf("[Mail Worker %d: Retry %d]", workerNumber, job.Try)
	shouldRequeue, err := handler(ctx, job)

	switch decideMailJob(job, shouldRequeue, err) {
	case jobAck:
		logger.Infof("%s Sent %s to %s", prefix, job.TemplateFile, job.ToEmail)
		msg.Ack(false)
	case jobRequeue:
		logger.Warnf("%s Requeue %s to %s: %v", prefix, job.TemplateFile, job.ToEmail, err)
		job.Try++
		if err := r.PublishMailJob(job); err != nil {
			logger.Errorf("%s Failed to requeue mail job: %v", prefix, err)
			msg.Nack(false, false)
			return
		}
		msg.Ack(false)
	case jobDrop:
		logger.Errorf("%s Drop %s to %s: %v", prefix, job.TemplateFile, job.ToEmail, err)
		msg.Nack(false, false)
	}
}

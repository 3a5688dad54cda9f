package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/SeakMengs/AutoCertLMS/internal/config"
	"github.com/SeakMengs/AutoCertLMS/internal/env"
	"github.com/SeakMengs/AutoCertLMS/internal/mailer"
	"github.com/SeakMengs/AutoCertLMS/internal/queue"
	"github.com/SeakMengs/AutoCertLMS/internal/util"
)

// this function run before main
func init() {
	env.LoadEnv(".env")
}

const (
	MAX_WORKER = 3
)

func main() {
	cfg := config.GetConfig()
	logger := util.NewLogger(cfg.ENV)
	defer logger.Sync()

	if !cfg.RabbitMQ.Enabled() {
		logger.Fatal("RABBITMQ_URL is required to consume mail jobs")
	}

	mail := mailer.NewSendgrid(cfg.Mail.SEND_GRID.API_KEY, cfg.Mail.FROM_EMAIL, cfg.IsProduction(), logger)

	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Panic("Error connecting to RabbitMQ: ", err)
	}
	logger.Info("RabbitMQ connected \n")
	defer func() {
		if err := rabbitMQ.Close(); err != nil {
			logger.Errorf("Failed to close RabbitMQ connection: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := func(ctx context.Context, job queue.MailJobPayload) (bool, error) {
		return handleMailJob(mail, job)
	}

	if err := rabbitMQ.ConsumeMailJob(ctx, handler, MAX_WORKER, logger); err != nil {
		logger.Fatalf("Failed to consume mail job: %v", err)
	}

	logger.Infof("Started consuming mail job")
	<-ctx.Done()
}

func handleMailJob(mail mailer.Client, job queue.MailJobPayload) (bool, error) {
	switch job.TemplateFile {
	case mailer.RUN_SUMMARY_TEMPLATE:
		var data mailer.RunSummaryData
		if err := json.Unmarshal(job.Data, &data); err != nil {
			return false, fmt.Errorf("failed to unmarshal RunSummaryData: %w", err)
		}

		status, err := mail.Send(job.TemplateFile, job.ToUsername, job.ToEmail, data)
		if err != nil {
			return true, fmt.Errorf("failed to send email: %w", err)
		}

		// 0 means the mailer is not configured
		if status != 0 && status != http.StatusOK && status != http.StatusAccepted {
			return true, fmt.Errorf("email sending failed with status: %d", status)
		}

		return false, nil
	default:
		return false, fmt.Errorf("unsupported template: %s", job.TemplateFile)
	}
}

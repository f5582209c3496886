package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"jobportal/internal/notify"
)

// WorkerAction consumes notification tasks from the asynq queue and mails them.
func WorkerAction(ctx context.Context, cmd *cli.Command) error {
	ac, err := newAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer ac.Close()
	if ac.redis == nil {
		return fmt.Errorf("REDIS_URL is required to run the worker")
	}

	var mailer notify.Mailer = notify.NewLogMailer(ac.logger)
	if ac.cfg.SMTPHost != "" {
		mailer = notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     ac.cfg.SMTPHost,
			Port:     ac.cfg.SMTPPort,
			Username: ac.cfg.SMTPUsername,
			Password: ac.cfg.SMTPPassword,
			From:     ac.cfg.SMTPFrom,
		})
	}

	worker := notify.NewWorker(ac.users, mailer, ac.logger)
	server := notify.NewServer(ac.redis, int(cmd.Int("concurrency")), ac.logger)
	if err := server.Start(worker.Mux()); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}
	ac.logger.Info("worker started")
	<-ctx.Done()
	server.Shutdown()
	return nil
}

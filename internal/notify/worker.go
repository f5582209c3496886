package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"jobportal/internal/common"
	"jobportal/internal/domain/user"
)

type UserLookup interface {
	GetByID(ctx context.Context, id common.UUID) (*user.User, error)
}

// Worker turns queued events into emails.
type Worker struct {
	users  UserLookup
	mailer Mailer
	logger *slog.Logger
}

func NewWorker(users UserLookup, mailer Mailer, logger *slog.Logger) *Worker {
	return &Worker{users: users, mailer: mailer, logger: logger}
}

func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeApplicationSubmitted, w.processTask)
	mux.HandleFunc(TypeStatusChanged, w.processTask)
	mux.HandleFunc(TypeApplicationWithdrawn, w.processTask)
	return mux
}

// NewServer builds the queue consumer on an existing Redis connection.
func NewServer(rdb *redis.Client, concurrency int, logger *slog.Logger) *asynq.Server {
	return asynq.NewServerFromRedisClient(rdb, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{Queue: 1},
		Logger:      asynqLogger{logger: logger},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			logger.Error("notification task failed", slog.String("type", task.Type()), slog.Any("error", err))
		}),
	})
}

func (w *Worker) processTask(ctx context.Context, task *asynq.Task) error {
	event, err := decodeEvent(task.Payload())
	if err != nil {
		return fmt.Errorf("decode %s: %v: %w", task.Type(), err, asynq.SkipRetry)
	}
	event.Type = task.Type()
	return w.Deliver(ctx, event)
}

// Deliver renders and sends the emails for one event.
func (w *Worker) Deliver(ctx context.Context, event Event) error {
	applicant, err := w.users.GetByID(ctx, event.ApplicantID)
	if err != nil {
		return w.lookupFailed(event, err)
	}
	poster, err := w.users.GetByID(ctx, event.PosterID)
	if err != nil {
		return w.lookupFailed(event, err)
	}

	var messages []Message
	switch event.Type {
	case TypeApplicationSubmitted:
		subject, body := applicationSubmitted(applicant.Name, event.JobTitle, event.Company)
		messages = append(messages, Message{To: applicant.Email, Subject: subject, Body: body})
		subject, body = newApplication(poster.Name, applicant.Name, event.JobTitle)
		messages = append(messages, Message{To: poster.Email, Subject: subject, Body: body})
	case TypeStatusChanged:
		subject, body := statusChanged(applicant.Name, event.JobTitle, event.Company, event.Status)
		messages = append(messages, Message{To: applicant.Email, Subject: subject, Body: body})
	case TypeApplicationWithdrawn:
		subject, body := applicationWithdrawn(poster.Name, applicant.Name, event.JobTitle)
		messages = append(messages, Message{To: poster.Email, Subject: subject, Body: body})
	default:
		return fmt.Errorf("unknown notification type %q: %w", event.Type, asynq.SkipRetry)
	}

	for _, msg := range messages {
		if err := w.mailer.Send(ctx, msg); err != nil {
			return err
		}
		w.logger.Info("email sent", slog.String("type", event.Type), slog.String("to", msg.To))
	}
	return nil
}

func (w *Worker) lookupFailed(event Event, err error) error {
	if common.Is(err, common.CodeNotFound) {
		w.logger.Warn("notification recipient gone", slog.String("type", event.Type), slog.String("application_id", event.ApplicationID.String()))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}

type asynqLogger struct {
	logger *slog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.logger.Debug(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.logger.Info(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.logger.Warn(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.logger.Error(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}

// Package worker bootstraps the River job queue backing the notification
// dispatcher. Mail sends run as single-attempt jobs on a bounded worker
// pool; the HTTP response path never waits on them.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/skillboard/skillboard/internal/mail"
)

// EmailArgs is the payload of one queued mail send.
type EmailArgs struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	TextPart string `json:"text_part"`
	HTMLPart string `json:"html_part,omitempty"`
}

// Kind returns the unique job type identifier for mail jobs.
func (EmailArgs) Kind() string { return "send_email" }

// InsertOpts disables retries: mail is best-effort, never retried.
func (EmailArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: 1}
}

type emailWorker struct {
	river.WorkerDefaults[EmailArgs]
	mailer *mail.Mailer
	log    *slog.Logger
}

// Work sends one mail. Failures are logged and swallowed so River never
// reschedules the job.
func (w *emailWorker) Work(ctx context.Context, job *river.Job[EmailArgs]) error {
	err := w.mailer.Send(ctx, mail.Message{
		To:       job.Args.To,
		Subject:  job.Args.Subject,
		TextPart: job.Args.TextPart,
		HTMLPart: job.Args.HTMLPart,
	})
	if err != nil {
		w.log.Error("envoi du mail échoué", "subject", job.Args.Subject, "err", err)
	}
	return nil
}

// Client wraps river.Client and exposes a Start/Stop lifecycle.
type Client struct {
	client *river.Client[pgx.Tx]
	log    *slog.Logger
}

// New creates the mail queue client backed by pool, with concurrency
// bounding the worker pool.
func New(pool *pgxpool.Pool, mailer *mail.Mailer, concurrency int, log *slog.Logger) (*Client, error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, &emailWorker{mailer: mailer, log: log})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: concurrency},
		},
		Workers: workers,
		Logger:  log,
	})
	if err != nil {
		return nil, fmt.Errorf("create river client: %w", err)
	}
	return &Client{client: client, log: log}, nil
}

// Start begins processing queued jobs.
func (c *Client) Start(ctx context.Context) error { return c.client.Start(ctx) }

// Stop gracefully shuts down the worker client.
func (c *Client) Stop(ctx context.Context) error { return c.client.Stop(ctx) }

// MigrateRiver runs River's built-in schema migrations against the pool.
func MigrateRiver(ctx context.Context, db *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(db), nil)
	if err != nil {
		return fmt.Errorf("create river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("run river migrations: %w", err)
	}
	return nil
}

// Dispatcher enqueues notification mail. It is fire-and-forget: enqueue
// failures are logged, never propagated, and callers never await the send.
type Dispatcher struct {
	client *Client
	log    *slog.Logger
}

// NewDispatcher builds a dispatcher. client may be nil (mail disabled);
// Notify then logs and drops.
func NewDispatcher(client *Client, log *slog.Logger) *Dispatcher {
	return &Dispatcher{client: client, log: log}
}

// Notify enqueues one mail job. Never returns an error.
func (d *Dispatcher) Notify(ctx context.Context, msg mail.Message) {
	if d.client == nil {
		d.log.Warn("notification ignorée: file de mail indisponible", "subject", msg.Subject)
		return
	}
	_, err := d.client.client.Insert(ctx, EmailArgs{
		To:       msg.To,
		Subject:  msg.Subject,
		TextPart: msg.TextPart,
		HTMLPart: msg.HTMLPart,
	}, nil)
	if err != nil {
		d.log.Error("mise en file du mail échouée", "subject", msg.Subject, "err", err)
	}
}

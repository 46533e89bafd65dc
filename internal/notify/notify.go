// Package notify publishes a run summary to NATS after each run.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/docmigrate/internal/config"
	foundationerrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/docmigrate/internal/logfields"
	"git.home.luguber.info/inful/docmigrate/internal/report"
)

// RunEvent is the message published for a finished run.
type RunEvent struct {
	RunID      string               `json:"run_id"`
	DocumentID string               `json:"document_id,omitempty"`
	Outcome    report.Outcome       `json:"outcome"`
	Timestamp  time.Time            `json:"timestamp"`
	DurationMS int64                `json:"duration_ms"`
	Totals     report.LanguageStats `json:"totals"`
	Issues     int                  `json:"issues"`
	Commit     string               `json:"commit,omitempty"`
}

// EventFromReport builds the event of a finished report.
func EventFromReport(r *report.Report) RunEvent {
	return RunEvent{
		RunID:      r.RunID,
		DocumentID: r.DocumentID,
		Outcome:    r.Outcome,
		Timestamp:  r.End,
		DurationMS: r.Duration().Milliseconds(),
		Totals:     r.Totals(),
		Issues:     len(r.Issues),
		Commit:     r.Commit,
	}
}

// publisher is the subset of *nats.Conn used here.
type publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSNotifier publishes run events on a core NATS subject.
type NATSNotifier struct {
	conn    publisher
	subject string
	timeout time.Duration
	logger  *slog.Logger
}

// Connect dials the configured NATS server.
func Connect(cfg config.NotifyConfig, logger *slog.Logger) (*NATSNotifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout.Std()
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	conn, err := nats.Connect(cfg.URL,
		nats.Name("docmigrate"),
		nats.Timeout(timeout),
		nats.MaxReconnects(2),
	)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryNotify, "failed to connect to NATS").
			Warning().
			WithContext("url", cfg.URL).
			Build()
	}
	logger.Debug("NATS notifier connected", logfields.URL(cfg.URL), slog.String("subject", cfg.Subject))
	return newNotifier(conn, cfg.Subject, timeout, logger), nil
}

func newNotifier(conn publisher, subject string, timeout time.Duration, logger *slog.Logger) *NATSNotifier {
	return &NATSNotifier{conn: conn, subject: subject, timeout: timeout, logger: logger}
}

// Notify publishes the event and waits for the server to acknowledge the flush.
func (n *NATSNotifier) Notify(ctx context.Context, event RunEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryNotify, "failed to publish run event").
			Warning().
			WithContext("subject", n.subject).
			Build()
	}
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryNotify, "failed to flush run event").
			Warning().
			WithContext("subject", n.subject).
			Build()
	}
	n.logger.Debug("Published run event",
		logfields.RunID(event.RunID),
		slog.String("subject", n.subject),
		slog.String("outcome", string(event.Outcome)))
	return nil
}

// Close closes the connection.
func (n *NATSNotifier) Close() {
	n.conn.Close()
}

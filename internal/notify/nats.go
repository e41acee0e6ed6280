package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/dotrewrite/internal/config"
	derrors "git.home.luguber.info/inful/dotrewrite/internal/foundation/errors"
	"git.home.luguber.info/inful/dotrewrite/internal/logfields"
	"git.home.luguber.info/inful/dotrewrite/internal/retry"
)

// publisher abstracts core NATS and JetStream publishing.
type publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

type corePublisher struct {
	conn *nats.Conn
}

func (p corePublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := p.conn.Publish(subject, data); err != nil {
		return err
	}
	return p.conn.FlushWithContext(ctx)
}

type jetStreamPublisher struct {
	js jetstream.JetStream
}

func (p jetStreamPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	_, err := p.js.Publish(ctx, subject, data)
	return err
}

// NATSNotifier publishes events as JSON to a NATS subject.
type NATSNotifier struct {
	conn    *nats.Conn
	pub     publisher
	subject string
	policy  retry.Policy
	timeout time.Duration
	now     func() time.Time
}

// NewNATSNotifier connects to cfg.NATSURL.
func NewNATSNotifier(cfg config.NotifyConfig) (*NATSNotifier, error) {
	conn, err := nats.Connect(cfg.NATSURL,
		nats.Name("dotrewrite"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", logfields.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("NATS reconnected", slog.String("url", c.ConnectedUrlRedacted()))
		}),
	)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryNotify, "failed to connect to NATS").Build()
	}

	var pub publisher = corePublisher{conn: conn}
	if cfg.JetStream {
		js, err := jetstream.New(conn)
		if err != nil {
			conn.Close()
			return nil, derrors.WrapError(err, derrors.CategoryNotify, "failed to create JetStream context").Build()
		}
		pub = jetStreamPublisher{js: js}
	}

	n := newNATSNotifier(pub, cfg.Subject, retry.FromNotifyConfig(cfg), cfg.TimeoutDuration())
	n.conn = conn
	slog.Info("NATS notifier initialized",
		logfields.Subject(cfg.Subject),
		slog.Bool("jetstream", cfg.JetStream))
	return n, nil
}

func newNATSNotifier(pub publisher, subject string, policy retry.Policy, timeout time.Duration) *NATSNotifier {
	return &NATSNotifier{pub: pub, subject: subject, policy: policy, timeout: timeout, now: time.Now}
}

// Notify publishes ev, retrying transient failures per the configured policy.
func (n *NATSNotifier) Notify(ctx context.Context, ev Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = n.now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryInternal, "failed to marshal job event").Build()
	}

	err = n.policy.Do(ctx, func(ctx context.Context) error {
		pctx := ctx
		if n.timeout > 0 {
			var cancel context.CancelFunc
			pctx, cancel = context.WithTimeout(ctx, n.timeout)
			defer cancel()
		}
		return n.pub.Publish(pctx, n.subject, data)
	}, func(attempt int, err error) {
		slog.Debug("Retrying job event publish",
			logfields.JobID(ev.JobID), logfields.Attempt(attempt), logfields.Error(err))
	})
	if err != nil {
		return derrors.NotifyError("failed to publish job event").
			WithCause(err).
			WithContext("job_id", ev.JobID).
			Build()
	}

	slog.Debug("Published job event",
		logfields.JobID(ev.JobID), logfields.JobStatus(ev.Status), logfields.Subject(n.subject))
	return nil
}

// Close drains pending messages and closes the connection.
func (n *NATSNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}

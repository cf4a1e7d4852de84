package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/rajavaid77/claims-review-pipeline/internal/core/domain"
)

const streamName = "CLAIMS"

// Bus is the JetStream-backed claim bus. Delivery is at-least-once; the
// redelivery budget lives here, in the consumer configuration, so handlers
// never retry on their own. A notification that keeps failing past the
// budget stops being delivered and stays in the stream for inspection.
type Bus struct {
	conn              *nats.Conn
	js                nats.JetStreamContext
	submissionSubject string
	jobSubject        string
	queueGroup        string
	maxDeliver        int
	ackWait           time.Duration
	logger            *slog.Logger
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	// MaxDeliver bounds attempts per notification; MaxEventAge bounds how
	// long an unprocessed notification stays eligible for delivery.
	MaxDeliver  int
	MaxEventAge time.Duration
	AckWait     time.Duration
}

func New(url, submissionSubject, jobSubject, queueGroup string, logger *slog.Logger) (*Bus, error) {
	return NewWithOptions(url, submissionSubject, jobSubject, queueGroup, logger, Options{})
}

func NewWithOptions(url, submissionSubject, jobSubject, queueGroup string, logger *slog.Logger, options Options) (*Bus, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	maxDeliver := options.MaxDeliver
	if maxDeliver <= 0 {
		maxDeliver = 2
	}
	maxEventAge := options.MaxEventAge
	if maxEventAge <= 0 {
		maxEventAge = 2 * time.Hour
	}
	ackWait := options.AckWait
	if ackWait <= 0 {
		ackWait = 5 * time.Minute
	}

	conn, err := nats.Connect(
		url,
		nats.Name("claims-review-pipeline"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}
	if err := ensureStream(js, maxEventAge); err != nil {
		conn.Close()
		return nil, err
	}

	return &Bus{
		conn:              conn,
		js:                js,
		submissionSubject: submissionSubject,
		jobSubject:        jobSubject,
		queueGroup:        queueGroup,
		maxDeliver:        maxDeliver,
		ackWait:           ackWait,
		logger:            logger,
	}, nil
}

func ensureStream(js nats.JetStreamContext, maxEventAge time.Duration) error {
	cfg := &nats.StreamConfig{
		Name:       streamName,
		Subjects:   []string{"claims.>"},
		Retention:  nats.LimitsPolicy,
		MaxAge:     maxEventAge,
		Duplicates: 2 * time.Minute,
		Storage:    nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		if !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			return fmt.Errorf("ensure stream %s: %w", streamName, err)
		}
		if _, err := js.UpdateStream(cfg); err != nil {
			return fmt.Errorf("update stream %s: %w", streamName, err)
		}
	}
	return nil
}

func (b *Bus) Close() {
	if b.conn != nil {
		b.conn.Close()
	}
}

func (b *Bus) PublishSubmissionCreated(ctx context.Context, n domain.ObjectCreatedNotification) error {
	payload := notificationEnvelope{}
	payload.Detail.Bucket.Name = n.Bucket
	payload.Detail.Object.Key = n.Key
	return b.publish(ctx, b.submissionSubject, payload)
}

func (b *Bus) PublishJobCompleted(ctx context.Context, n domain.JobCompletedNotification) error {
	payload := notificationEnvelope{}
	payload.Detail.JobStatus = string(n.JobStatus)
	payload.Detail.InputS3Object.Name = n.InputObjectKey
	payload.Detail.OutputS3Location.S3Bucket = n.OutputBucket
	payload.Detail.OutputS3Location.Name = n.OutputName
	return b.publish(ctx, b.jobSubject, payload)
}

func (b *Bus) publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = b.js.Publish(subject, data,
		nats.Context(ctx),
		nats.MsgId(uuid.NewString()),
	)
	if err != nil {
		return wrapTemporaryIfNeeded(fmt.Errorf("publish %s: %w", subject, err))
	}
	return nil
}

func (b *Bus) SubscribeSubmissionCreated(ctx context.Context, handler func(context.Context, domain.Notification) error) error {
	return b.subscribe(ctx, b.submissionSubject, "claims-submission", handler)
}

func (b *Bus) SubscribeJobCompleted(ctx context.Context, handler func(context.Context, domain.Notification) error) error {
	return b.subscribe(ctx, b.jobSubject, "claims-extraction", handler)
}

func (b *Bus) subscribe(ctx context.Context, subject, durable string, handler func(context.Context, domain.Notification) error) error {
	sub, err := b.js.QueueSubscribe(subject, b.queueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		b.dispatch(ctx, subject, msg, handler)
	},
		nats.Durable(durable),
		nats.ManualAck(),
		nats.AckWait(b.ackWait),
		nats.MaxDeliver(b.maxDeliver),
		nats.DeliverAll(),
	)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}

	if err := b.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("drain subscription %s: %w", subject, err)
	}
	if err := b.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func (b *Bus) dispatch(ctx context.Context, subject string, msg *nats.Msg, handler func(context.Context, domain.Notification) error) {
	notification, err := domain.ParseNotification(msg.Data)
	if err != nil {
		// Malformed payloads can never succeed on redelivery.
		b.logger.Error("dropping malformed notification", "subject", subject, "error", err)
		if err := msg.Term(); err != nil {
			b.logger.Error("terminate notification", "subject", subject, "error", err)
		}
		return
	}

	handlerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := handler(handlerCtx, notification); err != nil {
		b.logger.Warn("notification handler failed, leaving for redelivery",
			"subject", subject, "kind", string(notification.Kind), "error", err)
		if err := msg.Nak(); err != nil {
			b.logger.Error("nak notification", "subject", subject, "error", err)
		}
		return
	}
	if err := msg.Ack(); err != nil {
		b.logger.Error("ack notification", "subject", subject, "error", err)
	}
}

// notificationEnvelope mirrors the wire shape that ParseNotification
// understands.
type notificationEnvelope struct {
	Detail struct {
		Bucket struct {
			Name string `json:"name,omitempty"`
		} `json:"bucket,omitzero"`
		Object struct {
			Key string `json:"key,omitempty"`
		} `json:"object,omitzero"`
		JobStatus     string `json:"job_status,omitempty"`
		InputS3Object struct {
			Name string `json:"name,omitempty"`
		} `json:"input_s3_object,omitzero"`
		OutputS3Location struct {
			S3Bucket string `json:"s3_bucket,omitempty"`
			Name     string `json:"name,omitempty"`
		} `json:"output_s3_location,omitzero"`
	} `json:"detail"`
}

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/charlesng35/stackapp/pkg/logger"
	"github.com/charlesng35/stackapp/pkg/metrics"
)

// Publisher hands job envelopes to the broker. Publish never reports broker failures; they are
// logged and counted.
type Publisher interface {
	Publish(ctx context.Context, env Envelope)
	Close() error
}

// DisabledPublisher is selected when no broker is configured. Publish does nothing.
type DisabledPublisher struct{}

func (DisabledPublisher) Publish(_ context.Context, env Envelope) {
	metrics.JobsPublished.WithLabelValues(env.Type, "disabled").Inc()
}

func (DisabledPublisher) Close() error { return nil }

// PubSubConfig identifies the topic events are published to.
type PubSubConfig struct {
	ProjectID       string
	Topic           string
	CredentialsFile string
	ResultTimeout   time.Duration
}

// Enabled reports whether both project and topic are configured.
func (c PubSubConfig) Enabled() bool {
	return strings.TrimSpace(c.ProjectID) != "" && strings.TrimSpace(c.Topic) != ""
}

// NewPublisher returns a Pub/Sub publisher, or DisabledPublisher when project or topic is unset.
func NewPublisher(ctx context.Context, cfg PubSubConfig) (Publisher, error) {
	if !cfg.Enabled() {
		logger.WithModule("jobs").Info("pubsub not configured, job publishing disabled")
		return DisabledPublisher{}, nil
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("pubsub: new client: %w", err)
	}
	publisher := NewPubSubPublisherWithClient(client, cfg)
	publisher.ownsClient = true
	return publisher, nil
}

// PubSubPublisher publishes JSON envelopes to a Pub/Sub topic.
type PubSubPublisher struct {
	client        *pubsub.Client
	topic         *pubsub.Topic
	resultTimeout time.Duration
	ownsClient    bool
	log           *zap.Logger

	pending   sync.WaitGroup
	closeOnce sync.Once
}

// NewPubSubPublisherWithClient publishes through an existing client, which the caller keeps
// ownership of.
func NewPubSubPublisherWithClient(client *pubsub.Client, cfg PubSubConfig) *PubSubPublisher {
	timeout := cfg.ResultTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PubSubPublisher{
		client:        client,
		topic:         client.Topic(cfg.Topic),
		resultTimeout: timeout,
		log:           logger.WithModule("jobs").With(zap.String("topic", cfg.Topic)),
	}
}

// Publish queues env for delivery and returns without waiting for the broker. The request
// context's cancellation does not abort an already queued message.
func (p *PubSubPublisher) Publish(ctx context.Context, env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		p.log.Error("job envelope not encodable", zap.String("type", env.Type), zap.Error(err))
		metrics.JobsPublished.WithLabelValues(env.Type, "failed").Inc()
		return
	}

	result := p.topic.Publish(context.WithoutCancel(ctx), &pubsub.Message{
		Data:       payload,
		Attributes: map[string]string{"type": env.Type},
	})

	p.pending.Add(1)
	go func() {
		defer p.pending.Done()

		waitCtx, cancel := context.WithTimeout(context.Background(), p.resultTimeout)
		defer cancel()

		id, err := result.Get(waitCtx)
		if err != nil {
			p.log.Warn("job publish failed", zap.String("type", env.Type), zap.Error(err))
			metrics.JobsPublished.WithLabelValues(env.Type, "failed").Inc()
			return
		}
		p.log.Debug("job published", zap.String("type", env.Type), zap.String("message_id", id))
		metrics.JobsPublished.WithLabelValues(env.Type, "ok").Inc()
	}()
}

// Flush sends buffered messages and waits until every outstanding result has been observed.
func (p *PubSubPublisher) Flush() {
	p.topic.Flush()
	p.pending.Wait()
}

// Close flushes outstanding messages and releases the topic, and the client when owned.
func (p *PubSubPublisher) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.Flush()
		p.topic.Stop()
		if p.ownsClient {
			err = p.client.Close()
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

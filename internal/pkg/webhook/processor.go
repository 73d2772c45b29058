package webhook

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/OnlyOne/app/models"
	"github.com/ManuelReschke/OnlyOne/app/repository"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/apperrors"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/metrics"
)

// Result statuses
const (
	StatusProcessed = "processed"
	StatusDuplicate = "duplicate"
	StatusIgnored   = "ignored"
)

// Result is what the processor acknowledges back to the provider.
type Result struct {
	EventID    string `json:"event_id"`
	EventType  string `json:"event_type"`
	Status     string `json:"status"`
	Message    string `json:"message"`
	Idempotent bool   `json:"idempotent"`
	Data       any    `json:"data,omitempty"`
}

// ProductPublisher applies product events to the mirror.
type ProductPublisher interface {
	Handle(ctx context.Context, resourceID string, action Action) (*PublishResult, error)
}

// Processor verifies, records and dispatches inbound webhooks. Each event id
// is processed at most once; a redelivery only runs again when the stored
// attempt failed or went stale. A single provider confirmation per event is
// therefore guaranteed once the event has been processed, while a retried
// failure may confirm again.
type Processor struct {
	cfg       Config
	events    repository.WebhookEventRepository
	publisher ProductPublisher
	now       func() time.Time
}

func NewProcessor(cfg Config, events repository.WebhookEventRepository, publisher ProductPublisher) *Processor {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = DefaultProcessTimeout
	}
	return &Processor{
		cfg:       cfg,
		events:    events,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ProcessWebhook handles one delivery. Cancellation of ctx does not abort
// processing; the work is bounded by the configured process timeout instead.
func (p *Processor) ProcessWebhook(ctx context.Context, raw []byte, signature string) (*Result, error) {
	if err := p.verify(raw, signature); err != nil {
		metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		return nil, err
	}

	env, synthesized, err := parseEnvelope(raw, p.now())
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("unknown", "invalid").Inc()
		return nil, err
	}
	if synthesized {
		metrics.EventsWithoutIdempotency.Inc()
		log.Warnf("[Webhook] delivery of type %q has no event id, stored as %s without idempotency guarantee", env.Type, env.ID)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.ProcessTimeout)
	defer cancel()

	created, stored, err := p.events.RecordEvent(ctx, models.WebhookEventInput{
		EventID:      env.ID,
		EventType:    env.Type,
		ResourceType: env.Resource.Type,
		ResourceID:   env.Resource.ID,
		Action:       string(env.action()),
		Payload:      string(raw),
		Idempotent:   !synthesized,
	})
	if err != nil {
		return nil, fmt.Errorf("record webhook event %s: %w", env.ID, err)
	}

	if !created {
		reclaimed, err := p.events.Reclaim(ctx, env.ID, p.now().Add(-p.cfg.StaleAfter))
		if err != nil {
			return nil, fmt.Errorf("reclaim webhook event %s: %w", env.ID, err)
		}
		if !reclaimed {
			metrics.WebhookEvents.WithLabelValues(env.Type, StatusDuplicate).Inc()
			log.Infof("[Webhook] event %s already handled (status %s)", env.ID, stored.Status)
			return &Result{
				EventID:    env.ID,
				EventType:  env.Type,
				Status:     StatusDuplicate,
				Message:    "event already processed",
				Idempotent: stored.Idempotent,
			}, nil
		}
		log.Infof("[Webhook] retrying event %s (previous status %s, retries %d)", env.ID, stored.Status, stored.RetryCount)
	}

	return p.run(ctx, env, !synthesized)
}

// Reprocess dispatches a previously stored event again from its payload. The
// caller must own the row, e.g. through a successful Reclaim.
func (p *Processor) Reprocess(ctx context.Context, ev *models.WebhookEvent) (*Result, error) {
	env, _, err := parseEnvelope([]byte(ev.Payload), p.now())
	if err != nil {
		p.markError(ctx, ev.EventID, err)
		return nil, err
	}
	// The stored row is the source of truth for the id.
	env.ID = ev.EventID

	ctx, cancel := context.WithTimeout(ctx, p.cfg.ProcessTimeout)
	defer cancel()
	return p.run(ctx, env, ev.Idempotent)
}

func (p *Processor) run(ctx context.Context, env *Envelope, idempotent bool) (*Result, error) {
	res, err := p.dispatch(ctx, env)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(env.Type, "error").Inc()
		log.Errorf("[Webhook] event %s (%s) failed: %v", env.ID, env.Type, err)
		p.markError(ctx, env.ID, err)
		return nil, apperrors.Processing(fmt.Sprintf("processing webhook event %s failed", env.ID), err)
	}

	if err := p.events.MarkProcessed(ctx, env.ID); err != nil {
		log.Errorf("[Webhook] mark event %s processed: %v", env.ID, err)
	}
	metrics.WebhookEvents.WithLabelValues(env.Type, res.Status).Inc()

	res.EventID = env.ID
	res.EventType = env.Type
	res.Idempotent = idempotent
	return res, nil
}

func (p *Processor) dispatch(ctx context.Context, env *Envelope) (*Result, error) {
	switch {
	case env.Type == TypePublishStarted, env.Type == TypeProductDeleted:
		action := env.action()
		out, err := p.publisher.Handle(ctx, env.Resource.ID, action)
		if err != nil {
			return nil, err
		}
		return &Result{
			Status:  StatusProcessed,
			Message: fmt.Sprintf("product %s: %s", env.Resource.ID, out.Outcome),
			Data:    out,
		}, nil
	case strings.HasPrefix(env.Type, typeOrderPrefix):
		log.Infof("[Webhook] order event %s (%s) acknowledged for resource %s", env.ID, env.Type, env.Resource.ID)
		return &Result{Status: StatusIgnored, Message: "order events are acknowledged only"}, nil
	default:
		log.Infof("[Webhook] unhandled event type %q (%s) acknowledged", env.Type, env.ID)
		return &Result{Status: StatusIgnored, Message: "event type not handled"}, nil
	}
}

func (p *Processor) markError(ctx context.Context, eventID string, cause error) {
	if err := p.events.MarkError(ctx, eventID, cause.Error()); err != nil {
		log.Errorf("[Webhook] mark event %s failed: %v", eventID, err)
	}
}

// verify enforces the signature mode. A supplied signature is always checked
// when a secret is configured; strict mode additionally requires one.
func (p *Processor) verify(raw []byte, signature string) error {
	signature = strings.TrimSpace(signature)
	switch {
	case signature == "" && p.cfg.Mode == ModeStrict:
		return apperrors.Authentication("missing webhook signature")
	case signature == "":
		return nil
	case p.cfg.Secret == "":
		if p.cfg.Mode == ModeStrict {
			return apperrors.Authentication("webhook secret is not configured")
		}
		log.Warn("[Webhook] signature supplied but no secret configured, skipping verification")
		return nil
	case !VerifySignature(raw, signature, p.cfg.Secret):
		return apperrors.Authentication("invalid webhook signature")
	}
	return nil
}

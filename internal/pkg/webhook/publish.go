package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/OnlyOne/app/models"
	"github.com/ManuelReschke/OnlyOne/app/repository"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/apperrors"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/identifier"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/printify"
)

const (
	ReasonNotFoundLocally = "not found locally"
	ReasonDeletedLocally  = "deleted locally"

	compensationTimeout = 30 * time.Second
	maxReasonLength     = 500
)

// Gateway is the part of the Printify client the publish flow needs.
type Gateway interface {
	GetProduct(ctx context.Context, id string) (*printify.Product, error)
	PublishSucceeded(ctx context.Context, id string, external printify.External) error
	PublishFailed(ctx context.Context, id, reason string) error
}

// Notifier announces mirror changes to downstream consumers.
type Notifier interface {
	ProductPublished(ctx context.Context, p *models.Product) error
	ProductDeleted(ctx context.Context, p *models.Product) error
}

// CacheInvalidator drops cached catalog entries for a provider product.
type CacheInvalidator interface {
	InvalidateProduct(ctx context.Context, providerProductID string)
}

// Mirror outcomes reported in PublishResult.Outcome
const (
	OutcomeCreated        = "created"
	OutcomeConfirmed      = "confirmed"
	OutcomeDeleted        = "deleted"
	OutcomeNotFound       = "not_found_locally"
	OutcomeDeletedLocally = "deleted_locally"
)

type PublishResult struct {
	ProviderProductID string `json:"provider_product_id"`
	PublicID          string `json:"public_id,omitempty"`
	Handle            string `json:"handle,omitempty"`
	Status            string `json:"status,omitempty"`
	Outcome           string `json:"outcome"`
}

// transition is the (mirror exists, action) pair reduced to the four cases
// the handler must cover.
type transition int

const (
	deleteExisting transition = iota + 1
	deleteMissing
	syncExisting
	createMissing
)

func classify(exists bool, action Action) transition {
	switch {
	case action == ActionDelete && exists:
		return deleteExisting
	case action == ActionDelete:
		return deleteMissing
	case exists:
		return syncExisting
	default:
		return createMissing
	}
}

// PublishHandler applies product:publish:started events to the mirror and
// confirms the outcome to Printify.
type PublishHandler struct {
	products    repository.ProductRepository
	gateway     Gateway
	notifier    Notifier
	cache       CacheInvalidator
	siteBaseURL string
}

// NewPublishHandler wires the handler. notifier and cache may be nil.
func NewPublishHandler(products repository.ProductRepository, gateway Gateway, siteBaseURL string, notifier Notifier, cache CacheInvalidator) *PublishHandler {
	return &PublishHandler{
		products:    products,
		gateway:     gateway,
		notifier:    notifier,
		cache:       cache,
		siteBaseURL: siteBaseURL,
	}
}

// Handle runs the publish state machine for one provider product.
func (h *PublishHandler) Handle(ctx context.Context, resourceID string, action Action) (*PublishResult, error) {
	if resourceID == "" {
		return nil, apperrors.Validation("webhook resource id is required")
	}

	// A delete never needs the upstream product.
	var upstream *printify.Product
	if action != ActionDelete {
		p, err := h.gateway.GetProduct(ctx, resourceID)
		if err != nil {
			return nil, fmt.Errorf("fetch product %s: %w", resourceID, err)
		}
		upstream = p
	}

	existing, err := h.products.FindByProviderID(ctx, resourceID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return h.fail(ctx, resourceID, action, fmt.Errorf("lookup mirror %s: %w", resourceID, err))
	}

	var (
		res *PublishResult
		t   = classify(existing != nil, action)
	)
	switch t {
	case deleteExisting:
		res, err = h.deleteExisting(ctx, existing)
	case deleteMissing:
		res, err = h.deleteMissing(ctx, resourceID)
	case syncExisting:
		res, err = h.syncExisting(ctx, existing)
	case createMissing:
		res, err = h.createMissing(ctx, upstream)
	default:
		err = fmt.Errorf("unhandled publish transition %d", t)
	}
	if err != nil {
		return h.fail(ctx, resourceID, action, err)
	}
	return res, nil
}

// fail sends the compensating publishing_failed call for create and update
// flows and returns the original error unchanged.
func (h *PublishHandler) fail(ctx context.Context, resourceID string, action Action, cause error) (*PublishResult, error) {
	if action != ActionDelete {
		h.compensate(ctx, resourceID, cause)
	}
	return nil, cause
}

func (h *PublishHandler) compensate(ctx context.Context, resourceID string, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	reason := cause.Error()
	if len(reason) > maxReasonLength {
		reason = reason[:maxReasonLength]
	}
	if err := h.gateway.PublishFailed(ctx, resourceID, reason); err != nil {
		log.Errorf("[Webhook] compensation for product %s failed: %v (original error: %v)", resourceID, err, cause)
		return
	}
	log.Warnf("[Webhook] reported publishing_failed for product %s: %s", resourceID, reason)
}

func (h *PublishHandler) deleteExisting(ctx context.Context, existing *models.Product) (*PublishResult, error) {
	deleted, err := h.products.UpdateStatus(ctx, existing.ProviderProductID, models.ProductStatusDeleted, nil)
	if err != nil {
		return nil, fmt.Errorf("mark mirror deleted: %w", err)
	}
	if err := h.gateway.PublishSucceeded(ctx, existing.ProviderProductID, h.external(existing)); err != nil {
		return nil, fmt.Errorf("confirm delete: %w", err)
	}

	h.invalidate(ctx, existing.ProviderProductID)
	h.announce(ctx, deleted, true)
	log.Infof("[Webhook] product %s marked deleted", existing.ProviderProductID)
	return resultFor(deleted, OutcomeDeleted), nil
}

func (h *PublishHandler) deleteMissing(ctx context.Context, resourceID string) (*PublishResult, error) {
	if err := h.gateway.PublishFailed(ctx, resourceID, ReasonNotFoundLocally); err != nil {
		log.Warnf("[Webhook] publishing_failed for unknown product %s: %v", resourceID, err)
	}
	log.Infof("[Webhook] delete for unknown product %s acknowledged", resourceID)
	return &PublishResult{ProviderProductID: resourceID, Outcome: OutcomeNotFound}, nil
}

// syncExisting re-confirms an already mirrored product with its stored
// identity. A row left pending by an interrupted run is finished here. A
// deleted row stays deleted and is reported as failed.
func (h *PublishHandler) syncExisting(ctx context.Context, existing *models.Product) (*PublishResult, error) {
	if existing.Status == models.ProductStatusDeleted {
		if err := h.gateway.PublishFailed(ctx, existing.ProviderProductID, ReasonDeletedLocally); err != nil {
			log.Warnf("[Webhook] publishing_failed for deleted product %s: %v", existing.ProviderProductID, err)
		}
		log.Infof("[Webhook] product %s is deleted locally, publish ignored", existing.ProviderProductID)
		return resultFor(existing, OutcomeDeletedLocally), nil
	}

	external := h.external(existing)
	if err := h.gateway.PublishSucceeded(ctx, existing.ProviderProductID, external); err != nil {
		return nil, fmt.Errorf("confirm publish: %w", err)
	}

	current := existing
	if existing.Status == models.ProductStatusPending {
		updated, err := h.products.UpdateStatus(ctx, existing.ProviderProductID, models.ProductStatusPublished, externalMeta(external))
		if err != nil {
			return nil, fmt.Errorf("mark mirror published: %w", err)
		}
		current = updated
		h.invalidate(ctx, existing.ProviderProductID)
		h.announce(ctx, current, false)
	}
	return resultFor(current, OutcomeConfirmed), nil
}

func (h *PublishHandler) createMissing(ctx context.Context, upstream *printify.Product) (*PublishResult, error) {
	mirror := Transform(upstream)
	mirror.PublicID, mirror.Handle = identifier.New(mirror.Title)

	if err := h.products.Create(ctx, mirror); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			// Lost the race against a concurrent delivery for the same product.
			if existing, ferr := h.products.FindByProviderID(ctx, upstream.ID); ferr == nil {
				return h.syncExisting(ctx, existing)
			}
		}
		return nil, fmt.Errorf("create mirror: %w", err)
	}

	external := h.external(mirror)
	if err := h.gateway.PublishSucceeded(ctx, upstream.ID, external); err != nil {
		return nil, fmt.Errorf("confirm publish: %w", err)
	}

	published, err := h.products.UpdateStatus(ctx, upstream.ID, models.ProductStatusPublished, externalMeta(external))
	if err != nil {
		return nil, fmt.Errorf("mark mirror published: %w", err)
	}

	h.invalidate(ctx, upstream.ID)
	h.announce(ctx, published, false)
	log.Infof("[Webhook] product %s mirrored as %s", upstream.ID, published.Handle)
	return resultFor(published, OutcomeCreated), nil
}

// external is the storefront identity reported to the provider. It is built
// from stored identifiers only.
func (h *PublishHandler) external(p *models.Product) printify.External {
	return printify.External{
		ID:     p.PublicID,
		Handle: h.siteBaseURL + "/product/" + p.Handle,
	}
}

func externalMeta(e printify.External) map[string]any {
	return map[string]any{
		"external": map[string]any{"id": e.ID, "handle": e.Handle},
	}
}

func (h *PublishHandler) invalidate(ctx context.Context, providerProductID string) {
	if h.cache != nil {
		h.cache.InvalidateProduct(ctx, providerProductID)
	}
}

func (h *PublishHandler) announce(ctx context.Context, p *models.Product, deleted bool) {
	if h.notifier == nil || p == nil {
		return
	}
	var err error
	if deleted {
		err = h.notifier.ProductDeleted(ctx, p)
	} else {
		err = h.notifier.ProductPublished(ctx, p)
	}
	if err != nil {
		log.Warnf("[Webhook] notify change for product %s: %v", p.ProviderProductID, err)
	}
}

func resultFor(p *models.Product, outcome string) *PublishResult {
	return &PublishResult{
		ProviderProductID: p.ProviderProductID,
		PublicID:          p.PublicID,
		Handle:            p.Handle,
		Status:            p.Status,
		Outcome:           outcome,
	}
}

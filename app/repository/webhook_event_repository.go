package repository

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/OnlyOne/app/models"
)

// webhookEventRepository implements the WebhookEventRepository interface
type webhookEventRepository struct {
	db *gorm.DB
}

// NewWebhookEventRepository creates a new webhook event repository instance
func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

// RecordEvent inserts the event unless a row with the same event id exists.
// The storage engine decides the race between concurrent deliveries: exactly
// one insert affects a row, every other caller observes created=false.
func (r *webhookEventRepository) RecordEvent(ctx context.Context, in models.WebhookEventInput) (bool, *models.WebhookEvent, error) {
	event := &models.WebhookEvent{
		EventID:      in.EventID,
		EventType:    in.EventType,
		ResourceType: in.ResourceType,
		ResourceID:   in.ResourceID,
		Action:       in.Action,
		Status:       models.WebhookStatusPending,
		Payload:      in.Payload,
		Idempotent:   in.Idempotent,
	}

	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	stored, err := r.GetByEventID(ctx, in.EventID)
	if err != nil {
		return false, nil, err
	}
	return created, stored, nil
}

func (r *webhookEventRepository) GetByEventID(ctx context.Context, eventID string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	if err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *webhookEventRepository) MarkProcessed(ctx context.Context, eventID string) error {
	now := time.Now().UTC()
	tx := r.db.WithContext(ctx).Model(&models.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Updates(map[string]any{
			"status":        models.WebhookStatusProcessed,
			"processed_at":  &now,
			"error_message": "",
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		log.Warnf("[WebhookEvents] mark processed: event %s not found", eventID)
	}
	return nil
}

func (r *webhookEventRepository) MarkError(ctx context.Context, eventID, message string) error {
	now := time.Now().UTC()
	tx := r.db.WithContext(ctx).Model(&models.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Updates(map[string]any{
			"status":        models.WebhookStatusError,
			"processed_at":  &now,
			"error_message": message,
			"retry_count":   gorm.Expr("retry_count + ?", 1),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		log.Warnf("[WebhookEvents] mark error: event %s not found", eventID)
	}
	return nil
}

// Reclaim hands a failed row, or a pending row nobody touched since
// staleBefore, back to the caller for another processing attempt. The update
// is conditional so only one concurrent caller wins.
func (r *webhookEventRepository) Reclaim(ctx context.Context, eventID string, staleBefore time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Where("status = ? OR (status = ? AND updated_at < ?)",
			models.WebhookStatusError, models.WebhookStatusPending, staleBefore).
		Updates(map[string]any{
			"status":     models.WebhookStatusPending,
			"updated_at": time.Now().UTC(),
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (r *webhookEventRepository) ListPending(ctx context.Context, limit int) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	q := r.db.WithContext(ctx).
		Where("status = ?", models.WebhookStatusPending).
		Order("created_at ASC").Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&events).Error
	return events, err
}

func (r *webhookEventRepository) ListStalePending(ctx context.Context, before time.Time, limit int) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", models.WebhookStatusPending, before).
		Order("created_at ASC").Order("id ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *webhookEventRepository) ListFinishedBefore(ctx context.Context, before time.Time, limit int) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	err := r.db.WithContext(ctx).
		Where("status IN ? AND created_at < ?", []string{models.WebhookStatusProcessed, models.WebhookStatusError}, before).
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *webhookEventRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.WebhookEvent{})
	return tx.RowsAffected, tx.Error
}

func (r *webhookEventRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.WebhookEvent{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

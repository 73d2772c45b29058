package webhook

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ManuelReschke/OnlyOne/internal/pkg/apperrors"
)

const (
	TypePublishStarted = "product:publish:started"
	TypeProductDeleted = "product:deleted"
	typeOrderPrefix    = "order:"
)

// Action is the mirror operation requested by a product event.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ParseAction normalises the provider's action string. A missing action
// means create; anything unrecognised is handled as an update, which never
// mutates an existing mirror.
func ParseAction(s string) Action {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "create", "created", "publish":
		return ActionCreate
	case "delete", "deleted", "unpublish":
		return ActionDelete
	default:
		return ActionUpdate
	}
}

// Envelope is the inbound webhook body.
type Envelope struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Action    string   `json:"action"`
	CreatedAt string   `json:"created_at"`
	Resource  Resource `json:"resource"`
}

type Resource struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// action falls back to resource.data.action, where the provider places it
// for some event types. product:deleted is always a delete.
func (e *Envelope) action() Action {
	if e.Type == TypeProductDeleted {
		return ActionDelete
	}
	if e.Action != "" {
		return ParseAction(e.Action)
	}
	if v, ok := e.Resource.Data["action"].(string); ok {
		return ParseAction(v)
	}
	return ActionCreate
}

// parseEnvelope decodes raw. synthesized reports whether the event id had to
// be generated because the body carried none.
func parseEnvelope(raw []byte, now time.Time) (env *Envelope, synthesized bool, err error) {
	var e Envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false, &apperrors.Error{Kind: apperrors.ErrValidation, Message: "invalid webhook payload", Cause: err}
	}
	e.ID = strings.TrimSpace(e.ID)
	e.Type = strings.TrimSpace(e.Type)
	e.Resource.ID = strings.TrimSpace(e.Resource.ID)
	if e.ID == "" {
		e.ID = SyntheticEventID(now)
		synthesized = true
	}
	return &e, synthesized, nil
}

// SyntheticEventID builds an id for deliveries that carry none.
func SyntheticEventID(now time.Time) string {
	return fmt.Sprintf("synthetic-%d-%s", now.UnixMilli(), uuid.NewString())
}

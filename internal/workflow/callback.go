package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cristian75IT/kronos-core/internal/model"
)

// CallbackPayload is the JSON body POSTed to a resolved request's
// callback_url (spec §4.1 "Callback protocol").
type CallbackPayload struct {
	RequestID        uuid.UUID               `json:"request_id"`
	EntityType       string                  `json:"entity_type"`
	EntityID         uuid.UUID               `json:"entity_id"`
	Status           model.ApprovalStatus    `json:"status"`
	ResolvedAt       time.Time               `json:"resolved_at"`
	ResolutionNotes  string                  `json:"resolution_notes,omitempty"`
	FinalDeciderID   *uuid.UUID              `json:"final_decider_id,omitempty"`
	ConditionType    *string                 `json:"condition_type,omitempty"`
	ConditionDetails json.RawMessage         `json:"condition_details,omitempty"`
	Decisions        []model.ApprovalDecision `json:"decisions"`
}

// CallbackClient posts the resolution payload to the originating service.
// Failures are logged and never fail the resolution (spec §4.1/§7): the
// approval is already committed and receivers must be idempotent.
type CallbackClient struct {
	httpClient *http.Client
}

// NewCallbackClient builds a client with the hard timeout from spec §5/§7.
func NewCallbackClient(timeout time.Duration) *CallbackClient {
	return &CallbackClient{httpClient: &http.Client{Timeout: timeout}}
}

// Post sends payload to url. It never returns an error to the caller — the
// result is only used for logging, matching the "swallow and log" policy
// for callback failures.
func (c *CallbackClient) Post(ctx context.Context, url string, payload CallbackPayload) {
	if url == "" {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("request_id", payload.RequestID.String()).Msg("failed to marshal callback payload")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("failed to build callback request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Str("request_id", payload.RequestID.String()).Msg("callback delivery failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Warn().Int("status", resp.StatusCode).Str("url", url).Str("request_id", payload.RequestID.String()).Msg("callback rejected")
	}
}

func buildCallbackPayload(req *model.ApprovalRequest, decisions []model.ApprovalDecision) CallbackPayload {
	payload := CallbackPayload{
		RequestID:       req.ID,
		EntityType:      req.EntityType,
		EntityID:        req.EntityID,
		Status:          req.Status,
		ResolutionNotes: req.ResolutionNotes,
		FinalDeciderID:  req.FinalDeciderID,
		ConditionType:   req.ConditionType,
		Decisions:       decisions,
	}
	if req.ResolvedAt != nil {
		payload.ResolvedAt = *req.ResolvedAt
	}
	if len(req.ConditionDetails) > 0 {
		payload.ConditionDetails = json.RawMessage(req.ConditionDetails)
	}
	return payload
}

package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hubmirror/hubmirror/internal/application"
	"github.com/hubmirror/hubmirror/internal/domain/model"
	"github.com/hubmirror/hubmirror/internal/domain/port/driven"
)

const (
	defaultPageLimit   = 20
	maxPageLimit       = 100
	defaultSearchLimit = 10
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// IntegrationResponse is the JSON representation of an integration record.
// The access token is deliberately absent.
type IntegrationResponse struct {
	UserID      int64   `json:"user_id"`
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	Status      string  `json:"status"`
	ConnectedAt string  `json:"connected_at"`
	LastSyncAt  *string `json:"last_sync_at"`
}

// ResyncResponse is the JSON body returned by the resync endpoint.
type ResyncResponse struct {
	Status string                   `json:"status"`
	Counts application.ResyncResult `json:"counts"`
}

// RemoveResponse is the JSON body returned by the remove endpoint.
type RemoveResponse struct {
	Status string `json:"status"`
}

// BrowseResponse is one page of a mirrored collection plus its pagination
// envelope.
type BrowseResponse struct {
	Items        []map[string]any `json:"items"`
	CurrentPage  int              `json:"current_page"`
	TotalPages   int              `json:"total_pages"`
	TotalItems   int              `json:"total_items"`
	ItemsPerPage int              `json:"items_per_page"`
	HasNext      bool             `json:"has_next"`
	HasPrev      bool             `json:"has_prev"`
}

// SearchResponse groups search hits by collection name.
type SearchResponse struct {
	Query   string                      `json:"query"`
	Results map[string][]map[string]any `json:"results"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toIntegrationResponse converts a domain Integration to its JSON response
// representation.
func toIntegrationResponse(integration model.Integration) IntegrationResponse {
	resp := IntegrationResponse{
		UserID:      integration.UserID,
		Username:    integration.Username,
		Email:       integration.Email,
		Status:      string(integration.Status),
		ConnectedAt: integration.ConnectedAt.UTC().Format(time.RFC3339),
	}
	if integration.LastSyncAt != nil {
		formatted := integration.LastSyncAt.UTC().Format(time.RFC3339)
		resp.LastSyncAt = &formatted
	}
	return resp
}

// toBrowseResponse wraps one page of browse results in the pagination
// envelope. TotalPages is at least 1 so an empty collection still reads as
// page 1 of 1.
func toBrowseResponse(result *driven.BrowseResult, page, limit int) BrowseResponse {
	items := result.Items
	if items == nil {
		items = []map[string]any{}
	}

	totalPages := (result.TotalItems + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	return BrowseResponse{
		Items:        items,
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   result.TotalItems,
		ItemsPerPage: limit,
		HasNext:      page < totalPages,
		HasPrev:      page > 1,
	}
}

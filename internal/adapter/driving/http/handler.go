// Package httphandler is the HTTP driving adapter serving the REST API.
package httphandler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hubmirror/hubmirror/internal/application"
	"github.com/hubmirror/hubmirror/internal/domain/port/driven"
)

// stateCookie carries the OAuth state nonce between the login redirect and
// the provider callback.
const stateCookie = "hubmirror_oauth_state"

// OAuthFlow is the slice of the GitHub OAuth adapter the handler needs.
type OAuthFlow interface {
	Configured() bool
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (string, error)
}

// Handler serves the REST API: the OAuth login flow, integration lifecycle,
// and paginated reads over the mirrored collections.
type Handler struct {
	integrationSvc *application.IntegrationService
	browseStore    driven.BrowseStore
	oauth          OAuthFlow
	logger         *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	integrationSvc *application.IntegrationService,
	browseStore driven.BrowseStore,
	oauth OAuthFlow,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		integrationSvc: integrationSvc,
		browseStore:    browseStore,
		oauth:          oauth,
		logger:         logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/auth/github/login", h.Login)
	mux.HandleFunc("GET /api/v1/auth/github/callback", h.Callback)
	mux.HandleFunc("GET /api/v1/integration/status", h.IntegrationStatus)
	mux.HandleFunc("POST /api/v1/integration/resync", h.Resync)
	mux.HandleFunc("POST /api/v1/integration/remove", h.Remove)
	mux.HandleFunc("GET /api/v1/data/{collection}", h.BrowseCollection)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Login redirects the browser to the GitHub consent page, pinning a random
// state nonce in a short-lived cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.oauth.Configured() {
		writeError(w, http.StatusServiceUnavailable, "github oauth is not configured")
		return
	}

	state, err := randomState()
	if err != nil {
		h.logger.Error("failed to generate oauth state", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/api/v1/auth",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.oauth.AuthCodeURL(state), http.StatusFound)
}

// Callback handles the provider redirect: it verifies the state nonce,
// exchanges the code for a token, and creates the integration. The first
// mirror run starts in the background.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	if !h.oauth.Configured() {
		writeError(w, http.StatusServiceUnavailable, "github oauth is not configured")
		return
	}

	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(stateCookie)
	if err != nil || state == "" || cookie.Value != state {
		writeError(w, http.StatusBadRequest, "oauth state mismatch")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	token, err := h.oauth.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth code exchange failed", "error", err)
		writeError(w, http.StatusBadGateway, "authorization code exchange failed")
		return
	}

	integration, err := h.integrationSvc.Connect(r.Context(), token)
	if err != nil {
		h.logger.Error("failed to connect integration", "error", err)
		writeError(w, http.StatusBadGateway, "failed to connect github account")
		return
	}

	writeJSON(w, http.StatusOK, toIntegrationResponse(integration))
}

// IntegrationStatus returns the user's integration record.
func (h *Handler) IntegrationStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	integration, err := h.integrationSvc.Status(r.Context(), userID)
	if err != nil {
		if errors.Is(err, driven.ErrIntegrationNotFound) {
			writeError(w, http.StatusNotFound, "integration not found")
			return
		}
		h.logger.Error("failed to load integration status", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toIntegrationResponse(*integration))
}

// Resync wipes the user's mirrored data, runs a full mirror pass
// synchronously, and returns the resulting record counts.
func (h *Handler) Resync(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.integrationSvc.Resync(r.Context(), userID)
	if err != nil {
		if errors.Is(err, driven.ErrIntegrationNotFound) {
			writeError(w, http.StatusNotFound, "integration not found")
			return
		}
		h.logger.Error("resync failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "resync failed")
		return
	}

	writeJSON(w, http.StatusOK, ResyncResponse{Status: "completed", Counts: *result})
}

// Remove deletes the integration and every mirrored record of the user.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	if err := h.integrationSvc.Remove(r.Context(), userID); err != nil {
		if errors.Is(err, driven.ErrIntegrationNotFound) {
			writeError(w, http.StatusNotFound, "integration not found")
			return
		}
		h.logger.Error("failed to remove integration", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, RemoveResponse{Status: "removed"})
}

// BrowseCollection returns one page of a mirrored collection, with optional
// sorting, substring search, and exact-match column filters. Query parameters
// other than the reserved paging ones are treated as filters and validated
// against the collection's schema.
func (h *Handler) BrowseCollection(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	query := r.URL.Query()

	opts := driven.BrowseOptions{
		Page:      1,
		Limit:     defaultPageLimit,
		SortBy:    query.Get("sort_by"),
		SortOrder: query.Get("sort_order"),
		Search:    query.Get("search"),
		Filters:   map[string]string{},
	}

	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		opts.Page = page
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxPageLimit {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		opts.Limit = limit
	}

	for key, values := range query {
		switch key {
		case "page", "limit", "sort_by", "sort_order", "search":
			continue
		}
		if len(values) > 0 {
			opts.Filters[key] = values[0]
		}
	}

	result, err := h.browseStore.Browse(r.Context(), collection, opts)
	if err != nil {
		switch {
		case errors.Is(err, driven.ErrUnknownCollection):
			writeError(w, http.StatusNotFound, "unknown collection: "+collection)
		case errors.Is(err, driven.ErrInvalidBrowseField):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("browse failed", "collection", collection, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toBrowseResponse(result, opts.Page, opts.Limit))
}

// Search runs the substring search across all searchable collections.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxPageLimit {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	results, err := h.browseStore.Search(r.Context(), query, limit)
	if err != nil {
		h.logger.Error("search failed", "query", query, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{Query: query, Results: results})
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// userIDParam extracts and validates the required user_id query parameter,
// writing a 400 response when it is absent or malformed.
func userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter user_id")
		return 0, false
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return 0, false
	}
	return userID, true
}

// randomState produces a 32-hex-char nonce for the OAuth state parameter.
func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

package session

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	sessionmodel "github.com/zhouzirui/chatkit-broker/internal/model/session"
	sessionservice "github.com/zhouzirui/chatkit-broker/internal/service/session"
	"github.com/zhouzirui/chatkit-broker/pkg/utils"
)

const (
	// TrackingCookieName correlates repeat requests from the same browser. The value
	// is opaque to this service and never backs any server-side state.
	TrackingCookieName = "chatkit_session_id"

	trackingCookieMaxAge = 30 * 24 * 60 * 60
)

// Handler exposes session issuance over HTTP.
type Handler struct {
	svc *sessionservice.Service
}

// New creates the session handler.
func New(svc *sessionservice.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/create-session", h.handleCreateSession)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload sessionmodel.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Reuse the caller's tracking identifier; mint one only when none arrived.
	trackingID := ""
	if c, err := r.Cookie(TrackingCookieName); err == nil && c.Value != "" {
		trackingID = c.Value
	} else {
		trackingID = uuid.NewString()
	}

	session, err := h.svc.IssueSession(r.Context(), payload, trackingID)
	if err != nil {
		h.respondIssueError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     TrackingCookieName,
		Value:    trackingID,
		Path:     "/",
		MaxAge:   trackingCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	utils.RespondJSON(w, http.StatusOK, session)
}

// respondIssueError converts service errors to the wire failure shape. Nothing from
// the raw upstream payload beyond the extracted message and details crosses here.
func (h *Handler) respondIssueError(w http.ResponseWriter, err error) {
	var upstream *sessionservice.UpstreamError
	switch {
	case errors.Is(err, sessionservice.ErrMissingCredential),
		errors.Is(err, sessionservice.ErrWorkflowUnresolved):
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	case errors.As(err, &upstream):
		status := upstream.Status
		if status < http.StatusBadRequest || status > 599 {
			status = http.StatusBadGateway
		}
		utils.RespondErrorDetails(w, status, upstream.Message, upstream.Details)
	case errors.Is(err, sessionservice.ErrUpstreamUnavailable):
		utils.RespondError(w, http.StatusBadGateway, "failed to create chatkit session")
	default:
		log.Error().Err(err).Msg("unexpected session issuance failure")
		utils.RespondError(w, http.StatusInternalServerError, "failed to create chatkit session")
	}
}

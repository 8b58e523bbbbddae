package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/chatkit-broker/internal/config"
	sessionmodel "github.com/zhouzirui/chatkit-broker/internal/model/session"
)

const (
	sessionsPath = "/v1/chatkit/sessions"

	// betaHeader opts the outbound request into the ChatKit beta API surface.
	betaHeader = "chatkit_beta=v1"

	genericUpstreamMessage = "failed to create chatkit session"
)

// chatkitClient issues authenticated session-creation calls against the remote
// ChatKit API. One outbound call per invocation, no retries.
type chatkitClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func newChatKitClient(cfg config.ChatKitConfig) *chatkitClient {
	return &chatkitClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// chatkitSessionRequest is the upstream wire shape. User carries the tracking
// identifier so the remote service can correlate repeat visits.
type chatkitSessionRequest struct {
	Workflow      sessionmodel.WorkflowRef    `json:"workflow"`
	User          string                      `json:"user"`
	Configuration *sessionmodel.Configuration `json:"chatkit_configuration,omitempty"`
}

func (c *chatkitClient) createSession(ctx context.Context, workflowID, user string, conf *sessionmodel.Configuration) (sessionmodel.Session, error) {
	payload := chatkitSessionRequest{
		Workflow:      sessionmodel.WorkflowRef{ID: &workflowID},
		User:          user,
		Configuration: conf,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return sessionmodel.Session{}, fmt.Errorf("encode chatkit session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sessionsPath, bytes.NewReader(body))
	if err != nil {
		return sessionmodel.Session{}, fmt.Errorf("build chatkit session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", betaHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("chatkit session api transport failure")
		return sessionmodel.Session{}, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn().Err(err).Msg("chatkit session api response read failure")
		return sessionmodel.Session{}, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return sessionmodel.Session{}, decodeUpstreamError(resp.StatusCode, raw)
	}

	var session sessionmodel.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		log.Warn().Err(err).Int("status", resp.StatusCode).Msg("chatkit session api returned malformed success body")
		return sessionmodel.Session{}, fmt.Errorf("%w: malformed response body", ErrUpstreamUnavailable)
	}

	return session, nil
}

// decodeUpstreamError extracts the most specific message the error body offers,
// preferring the nested error.message shape. The raw body never leaves this function.
func decodeUpstreamError(status int, raw []byte) *UpstreamError {
	upstream := &UpstreamError{Status: status, Message: genericUpstreamMessage}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Error) == 0 {
		return upstream
	}

	var details map[string]any
	if err := json.Unmarshal(envelope.Error, &details); err == nil {
		upstream.Details = details
		if msg, ok := details["message"].(string); ok && strings.TrimSpace(msg) != "" {
			upstream.Message = msg
		}
		return upstream
	}

	// Some error bodies carry a bare string instead of an object.
	var msg string
	if err := json.Unmarshal(envelope.Error, &msg); err == nil && strings.TrimSpace(msg) != "" {
		upstream.Message = msg
	}
	return upstream
}

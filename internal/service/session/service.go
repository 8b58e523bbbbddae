package session

import (
	"context"

	"github.com/zhouzirui/chatkit-broker/internal/config"
	sessionmodel "github.com/zhouzirui/chatkit-broker/internal/model/session"
)

// Service brokers session secrets between browser clients and the remote ChatKit
// session API. Stateless across invocations; the credential stays inside the
// injected configuration and is never part of any return value.
type Service struct {
	cfg    config.ChatKitConfig
	client *chatkitClient
}

// NewService wires a session issuer against the configured remote endpoint.
func NewService(cfg config.ChatKitConfig) *Service {
	return &Service{
		cfg:    cfg,
		client: newChatKitClient(cfg),
	}
}

// IssueSession resolves the effective workflow identifier and exchanges it for a
// short-lived client secret. user is the tracking identifier forwarded upstream.
// Configuration failures return before any outbound call is made.
func (s *Service) IssueSession(ctx context.Context, req sessionmodel.CreateSessionRequest, user string) (sessionmodel.Session, error) {
	if !s.cfg.Enabled() {
		return sessionmodel.Session{}, ErrMissingCredential
	}

	workflowID := req.ResolveWorkflowID()
	if workflowID == "" {
		workflowID = s.cfg.DefaultWorkflowID
	}
	if workflowID == "" {
		return sessionmodel.Session{}, ErrWorkflowUnresolved
	}

	return s.client.createSession(ctx, workflowID, user, req.Configuration)
}

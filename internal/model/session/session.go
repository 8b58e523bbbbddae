package session

import "strings"

// CreateSessionRequest is the inbound payload for session issuance. Every field is
// optional; browsers typically post an empty object and rely on server defaults.
type CreateSessionRequest struct {
	Workflow      *WorkflowRef   `json:"workflow,omitempty"`
	WorkflowID    *string        `json:"workflowId,omitempty"`
	Configuration *Configuration `json:"chatkit_configuration,omitempty"`
}

// WorkflowRef names a pre-configured conversational flow on the remote service.
type WorkflowRef struct {
	ID *string `json:"id,omitempty"`
}

// Configuration carries widget capability toggles forwarded to the remote API.
type Configuration struct {
	FileUpload *FileUpload `json:"file_upload,omitempty"`
}

// FileUpload toggles the widget's file-upload capability.
type FileUpload struct {
	Enabled *bool `json:"enabled,omitempty"`
}

// ResolveWorkflowID returns the workflow identifier carried by the request body,
// preferring the nested workflow.id form over the flat workflowId form. Empty when
// neither is set.
func (r CreateSessionRequest) ResolveWorkflowID() string {
	if r.Workflow != nil && r.Workflow.ID != nil {
		if id := strings.TrimSpace(*r.Workflow.ID); id != "" {
			return id
		}
	}
	if r.WorkflowID != nil {
		if id := strings.TrimSpace(*r.WorkflowID); id != "" {
			return id
		}
	}
	return ""
}

// Session is the success payload, relayed verbatim from the remote session API.
type Session struct {
	ClientSecret string `json:"client_secret"`
	ExpiresAfter int    `json:"expires_after"`
}

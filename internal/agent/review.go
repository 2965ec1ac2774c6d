package agent

import (
	"encoding/json"
	"fmt"
)

// Response types a reviewer can send back for a pending request.
// ResponseFeedback carries free-text guidance; the wire value is
// "response".
const (
	ResponseAccept   = "accept"
	ResponseEdit     = "edit"
	ResponseIgnore   = "ignore"
	ResponseFeedback = "response"
)

// ReviewConfig declares which response types a pending request
// accepts.
type ReviewConfig struct {
	AllowIgnore  bool `json:"allow_ignore"`
	AllowRespond bool `json:"allow_respond"`
	AllowEdit    bool `json:"allow_edit"`
	AllowAccept  bool `json:"allow_accept"`
}

// Allows reports whether the config permits the response type.
func (c ReviewConfig) Allows(responseType string) bool {
	switch responseType {
	case ResponseAccept:
		return c.AllowAccept
	case ResponseEdit:
		return c.AllowEdit
	case ResponseIgnore:
		return c.AllowIgnore
	case ResponseFeedback:
		return c.AllowRespond
	}
	return false
}

// ActionRequest names the action under review and its arguments.
type ActionRequest struct {
	Action string         `json:"action"`
	Args   map[string]any `json:"args"`
}

// ReviewRequest is what a suspended run presents to the reviewer. The
// description is self-contained markdown: the original email plus the
// proposed action, ready to render in any inbox UI.
type ReviewRequest struct {
	ActionRequest ActionRequest `json:"action_request"`
	Config        ReviewConfig  `json:"config"`
	Description   string        `json:"description"`
}

// ReviewResponse is the reviewer's decision. Args depends on Type: an
// edited argument payload wrapped as {"args": {...}} for "edit",
// free-text feedback for "response", absent otherwise.
type ReviewResponse struct {
	Type string          `json:"type"`
	Args json.RawMessage `json:"args,omitempty"`
}

// validateResponse checks a response against the pending request. It
// is strict: unknown types and types the request's config does not
// allow are protocol violations, never coerced or ignored.
func validateResponse(req *ReviewRequest, resp ReviewResponse) error {
	switch resp.Type {
	case ResponseAccept, ResponseEdit, ResponseIgnore, ResponseFeedback:
	default:
		return &ProtocolViolationError{Response: resp.Type, Reason: "unknown response type"}
	}
	if !req.Config.Allows(resp.Type) {
		return &ProtocolViolationError{
			Response: resp.Type,
			Reason:   fmt.Sprintf("not allowed for action %q", req.ActionRequest.Action),
		}
	}
	return nil
}

// editedArgs extracts the replacement argument map of an edit
// response. The documented wire shape is the bare map, but review
// clients echo back the action-request envelope {"action": ..,
// "args": {...}}; both are accepted and the envelope is unwrapped.
func editedArgs(resp ReviewResponse) (json.RawMessage, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(resp.Args, &payload); err != nil {
		return nil, &ProtocolViolationError{Response: resp.Type, Reason: fmt.Sprintf("malformed edit payload: %v", err)}
	}
	if len(payload) == 0 {
		return nil, &ProtocolViolationError{Response: resp.Type, Reason: "edit payload has no args"}
	}
	if args, ok := payload["args"]; ok && len(payload) <= 2 {
		if _, hasAction := payload["action"]; hasAction || len(payload) == 1 {
			if len(args) == 0 || string(args) == "null" {
				return nil, &ProtocolViolationError{Response: resp.Type, Reason: "edit payload has no args"}
			}
			return args, nil
		}
	}
	return resp.Args, nil
}

// feedbackText extracts the free-text feedback of a "response" reply.
// A JSON string is the expected wire form; any other payload is kept
// as raw text rather than rejected, since it only flows into prompts.
func feedbackText(resp ReviewResponse) (string, error) {
	if len(resp.Args) == 0 {
		return "", &ProtocolViolationError{Response: resp.Type, Reason: "response feedback is empty"}
	}
	var s string
	if err := json.Unmarshal(resp.Args, &s); err == nil {
		return s, nil
	}
	return string(resp.Args), nil
}

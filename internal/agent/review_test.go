package agent

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateResponse(t *testing.T) {
	draft := &ReviewRequest{
		ActionRequest: ActionRequest{Action: ToolWriteEmail},
		Config:        ReviewConfig{AllowIgnore: true, AllowRespond: true, AllowEdit: true, AllowAccept: true},
	}
	notification := &ReviewRequest{
		ActionRequest: ActionRequest{Action: "Email Assistant: notify"},
		Config:        ReviewConfig{AllowIgnore: true, AllowRespond: true},
	}

	tests := []struct {
		name    string
		req     *ReviewRequest
		resp    ReviewResponse
		wantErr bool
	}{
		{name: "accept draft", req: draft, resp: ReviewResponse{Type: ResponseAccept}},
		{name: "edit draft", req: draft, resp: ReviewResponse{Type: ResponseEdit}},
		{name: "ignore draft", req: draft, resp: ReviewResponse{Type: ResponseIgnore}},
		{name: "feedback on draft", req: draft, resp: ReviewResponse{Type: ResponseFeedback}},
		{name: "ignore notification", req: notification, resp: ReviewResponse{Type: ResponseIgnore}},
		{name: "accept notification", req: notification, resp: ReviewResponse{Type: ResponseAccept}, wantErr: true},
		{name: "edit notification", req: notification, resp: ReviewResponse{Type: ResponseEdit}, wantErr: true},
		{name: "unknown type", req: draft, resp: ReviewResponse{Type: "approve"}, wantErr: true},
		{name: "empty type", req: draft, resp: ReviewResponse{}, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateResponse(tc.req, tc.resp)
			if tc.wantErr {
				var violation *ProtocolViolationError
				require.True(t, errors.As(err, &violation))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestEditedArgs(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
		wantErr bool
	}{
		{
			name:    "bare replacement map",
			payload: `{"to":"a@b.com","subject":"X","content":"Y"}`,
			want:    `{"to":"a@b.com","subject":"X","content":"Y"}`,
		},
		{
			name:    "action request envelope",
			payload: `{"action":"write_email","args":{"to":"a@b.com"}}`,
			want:    `{"to":"a@b.com"}`,
		},
		{
			name:    "args only envelope",
			payload: `{"args":{"to":"a@b.com"}}`,
			want:    `{"to":"a@b.com"}`,
		},
		{
			name:    "map with an args field of its own",
			payload: `{"args":{"to":"a@b.com"},"subject":"X","content":"Y"}`,
			want:    `{"args":{"to":"a@b.com"},"subject":"X","content":"Y"}`,
		},
		{name: "envelope with null args", payload: `{"action":"write_email","args":null}`, wantErr: true},
		{name: "empty object", payload: `{}`, wantErr: true},
		{name: "missing payload", payload: ``, wantErr: true},
		{name: "not an object", payload: `"just text"`, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := editedArgs(ReviewResponse{Type: ResponseEdit, Args: json.RawMessage(tc.payload)})
			if tc.wantErr {
				var violation *ProtocolViolationError
				require.True(t, errors.As(err, &violation))
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(got))
		})
	}
}

func TestFeedbackText(t *testing.T) {
	got, err := feedbackText(ReviewResponse{Type: ResponseFeedback, Args: json.RawMessage(`"shorter please"`)})
	require.NoError(t, err)
	assert.Equal(t, "shorter please", got)

	// Non-string payloads are kept verbatim: they only flow into
	// prompts, so rejecting them would help nobody.
	got, err = feedbackText(ReviewResponse{Type: ResponseFeedback, Args: json.RawMessage(`{"note":"shorter"}`)})
	require.NoError(t, err)
	assert.Equal(t, `{"note":"shorter"}`, got)

	_, err = feedbackText(ReviewResponse{Type: ResponseFeedback})
	var violation *ProtocolViolationError
	require.True(t, errors.As(err, &violation))
}

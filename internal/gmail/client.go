package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"net/mail"
	"strings"
	"time"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/inboxagent/internal/google"
	"github.com/teemow/inboxagent/internal/logging"
)

// Client wraps the Gmail Users service for one mailbox.
type Client struct {
	svc     *gmail.UsersService
	address string
	logger  *slog.Logger
}

// NewClient creates a Gmail client for the given address using the
// configured Google credentials.
func NewClient(ctx context.Context, address string, logger *slog.Logger) (*Client, error) {
	ts, err := google.GetTokenSource(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{svc: svc.Users, address: address, logger: logger}, nil
}

// Address returns the mailbox this client operates on.
func (c *Client) Address() string {
	return c.address
}

// FetchSince retrieves messages involving the address newer than the
// cutoff and reduces each thread to at most one actionable email. A
// thread whose newest message the user sent themselves comes back with
// UserReplied set and no content.
func (c *Client) FetchSince(ctx context.Context, since time.Time) ([]InboundEmail, error) {
	query := fmt.Sprintf("(to:%s OR from:%s) after:%d", c.address, c.address, since.Unix())
	c.logger.Debug("fetching inbox", slog.String("query", query))

	var refs []*gmail.Message
	pageToken := ""
	for {
		req := c.svc.Messages.List("me").Q(query).Context(ctx)
		if pageToken != "" {
			req.PageToken(pageToken)
		}
		res, err := req.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}
		refs = append(refs, res.Messages...)
		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}

	seen := make(map[string]bool)
	var emails []InboundEmail
	for _, ref := range refs {
		msg, err := c.svc.Messages.Get("me", ref.Id).Context(ctx).Do()
		if err != nil {
			c.logger.Warn("failed to get message", slog.String("message_id", ref.Id), logging.Err(err))
			continue
		}
		if seen[msg.ThreadId] {
			continue
		}
		seen[msg.ThreadId] = true

		thread, err := c.svc.Threads.Get("me", msg.ThreadId).Context(ctx).Do()
		if err != nil {
			c.logger.Warn("failed to get thread", slog.String("thread_id", msg.ThreadId), logging.Err(err))
			continue
		}
		if len(thread.Messages) == 0 {
			continue
		}
		last := thread.Messages[len(thread.Messages)-1]

		// The user answered already: nothing for the agent to do here.
		if addressedBy(HeaderValue(last, "From"), c.address) {
			emails = append(emails, InboundEmail{
				MessageID:   last.Id,
				ThreadID:    msg.ThreadId,
				UserReplied: true,
			})
			continue
		}

		email, ok := c.convert(last)
		if !ok {
			continue
		}
		emails = append(emails, email)
	}

	c.logger.Info("inbox fetched",
		slog.Int("threads", len(seen)),
		slog.Int("actionable", countActionable(emails)))
	return emails, nil
}

// convert maps the newest thread message to an InboundEmail. Senders
// prefer their Reply-To over From when set.
func (c *Client) convert(msg *gmail.Message) (InboundEmail, bool) {
	from := strings.TrimSpace(HeaderValue(msg, "From"))
	if from == "" || addressedBy(from, c.address) {
		return InboundEmail{}, false
	}
	if replyTo := strings.TrimSpace(HeaderValue(msg, "Reply-To")); replyTo != "" {
		from = replyTo
	}

	sendTime := time.Now().UTC()
	if date := HeaderValue(msg, "Date"); date != "" {
		if parsed, err := mail.ParseDate(date); err == nil {
			sendTime = parsed
		}
	}

	return InboundEmail{
		From:      from,
		To:        strings.TrimSpace(HeaderValue(msg, "To")),
		Subject:   HeaderValue(msg, "Subject"),
		Body:      extractBody(msg.Payload),
		MessageID: msg.Id,
		ThreadID:  msg.ThreadId,
		SendTime:  sendTime,
	}, true
}

// SendReply answers an existing message in its thread. The subject is
// taken from the original with a "Re: " prefix and the threading
// headers are set so mail clients keep the conversation together.
func (c *Client) SendReply(ctx context.Context, messageID, body string) (string, error) {
	if messageID == "" {
		return "", fmt.Errorf("messageID is required")
	}
	if body == "" {
		return "", fmt.Errorf("body is required")
	}

	original, err := c.svc.Messages.Get("me", messageID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get original message: %w", err)
	}

	to := strings.TrimSpace(HeaderValue(original, "Reply-To"))
	if to == "" {
		to = strings.TrimSpace(HeaderValue(original, "From"))
	}
	if to == "" {
		return "", fmt.Errorf("original message has no From header")
	}

	originalMessageID := HeaderValue(original, "Message-ID")
	references := HeaderValue(original, "References")
	if references != "" {
		references = references + " " + originalMessageID
	} else {
		references = originalMessageID
	}

	var b strings.Builder
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + encodeRFC2047(replySubject(HeaderValue(original, "Subject"))) + "\r\n")
	if originalMessageID != "" {
		b.WriteString("In-Reply-To: " + originalMessageID + "\r\n")
		b.WriteString("References: " + references + "\r\n")
	}
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("MIME-Version: 1.0\r\n\r\n")
	b.WriteString(body)

	sent, err := c.svc.Messages.Send("me", &gmail.Message{
		Raw:      base64.URLEncoding.EncodeToString([]byte(b.String())),
		ThreadId: original.ThreadId,
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to send reply: %w", err)
	}

	c.logger.Info("reply sent",
		slog.String("message_id", sent.Id),
		slog.String("to", logging.AnonymizeEmail(to)))
	return sent.Id, nil
}

// Send delivers a standalone email.
func (c *Client) Send(ctx context.Context, to, subject, body string) (string, error) {
	if to == "" {
		return "", fmt.Errorf("at least one recipient is required")
	}
	if subject == "" {
		return "", fmt.Errorf("subject is required")
	}
	if body == "" {
		return "", fmt.Errorf("body is required")
	}

	var b strings.Builder
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + encodeRFC2047(subject) + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("MIME-Version: 1.0\r\n\r\n")
	b.WriteString(body)

	sent, err := c.svc.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(b.String())),
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	c.logger.Info("email sent",
		slog.String("message_id", sent.Id),
		slog.String("to", logging.AnonymizeEmail(to)))
	return sent.Id, nil
}

// encodeRFC2047 encodes a header value when it carries non-ASCII
// characters, like umlauts in subjects.
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}

func countActionable(emails []InboundEmail) int {
	n := 0
	for _, e := range emails {
		if !e.UserReplied {
			n++
		}
	}
	return n
}

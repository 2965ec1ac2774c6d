package gmail

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	gmail "google.golang.org/api/gmail/v1"
)

func part(headers map[string]string, data string, parts ...*gmail.MessagePart) *gmail.MessagePart {
	p := &gmail.MessagePart{Parts: parts}
	for name, value := range headers {
		p.Headers = append(p.Headers, &gmail.MessagePartHeader{Name: name, Value: value})
	}
	if data != "" {
		p.Body = &gmail.MessagePartBody{Data: base64.URLEncoding.EncodeToString([]byte(data))}
	}
	return p
}

func TestHeaderValue(t *testing.T) {
	msg := &gmail.Message{Payload: part(map[string]string{
		"From":    "Alice <alice@example.com>",
		"Subject": "Hello",
	}, "")}

	assert.Equal(t, "Alice <alice@example.com>", HeaderValue(msg, "From"))
	assert.Equal(t, "Hello", HeaderValue(msg, "subject"))
	assert.Equal(t, "", HeaderValue(msg, "Reply-To"))
	assert.Equal(t, "", HeaderValue(nil, "From"))
	assert.Equal(t, "", HeaderValue(&gmail.Message{}, "From"))
}

func TestExtractBodyLeaf(t *testing.T) {
	assert.Equal(t, "plain text body", extractBody(part(nil, "plain text body")))
}

func TestExtractBodyMultipart(t *testing.T) {
	payload := part(nil, "",
		part(nil, "first part"),
		part(nil, ""),
		part(nil, "second part"),
	)
	assert.Equal(t, "first part\nsecond part", extractBody(payload))
}

func TestExtractBodyNested(t *testing.T) {
	payload := part(nil, "",
		part(nil, "", part(nil, "inner")),
	)
	assert.Equal(t, "inner", extractBody(payload))
}

func TestExtractBodyUnpaddedBase64(t *testing.T) {
	p := &gmail.MessagePart{Body: &gmail.MessagePartBody{
		Data: base64.RawURLEncoding.EncodeToString([]byte("unpadded")),
	}}
	assert.Equal(t, "unpadded", extractBody(p))
}

func TestExtractBodyEmpty(t *testing.T) {
	assert.Equal(t, "", extractBody(nil))
	assert.Equal(t, "", extractBody(&gmail.MessagePart{}))
}

func TestReplySubject(t *testing.T) {
	assert.Equal(t, "Re: Hello", replySubject("Hello"))
	assert.Equal(t, "Re: Hello", replySubject("Re: Hello"))
	assert.Equal(t, "RE: Hello", replySubject("RE: Hello"))
}

func TestAddressedBy(t *testing.T) {
	assert.True(t, addressedBy("John Doe <john.doe@company.com>", "john.doe@company.com"))
	assert.True(t, addressedBy("John.Doe@Company.com", "john.doe@company.com"))
	assert.False(t, addressedBy("Alice <alice@example.com>", "john.doe@company.com"))
	assert.False(t, addressedBy("Alice <alice@example.com>", ""))
}

func TestEncodeRFC2047(t *testing.T) {
	assert.Equal(t, "Plain subject", encodeRFC2047("Plain subject"))
	encoded := encodeRFC2047("Grüße aus München")
	assert.Contains(t, encoded, "=?UTF-8?")
}

package gmail

import (
	"encoding/base64"

	gmail "google.golang.org/api/gmail/v1"
)

// bodyMimeTypes are the part types carrying readable content, in
// preference order.
var bodyMimeTypes = []string{"text/plain", "text/html"}

// parseMessage converts an API message into our immutable snapshot.
func parseMessage(msg *gmail.Message) *Message {
	return &Message{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		From:     headerValue(msg, "From"),
		Subject:  headerValue(msg, "Subject"),
		Date:     headerValue(msg, "Date"),
		Snippet:  msg.Snippet,
		Body:     messageBody(msg.Payload),
	}
}

// headerValue extracts a header value from a Gmail message.
func headerValue(m *gmail.Message, header string) string {
	if m.Payload == nil {
		return ""
	}
	for _, h := range m.Payload.Headers {
		if h.Name == header {
			return h.Value
		}
	}
	return ""
}

// messageBody finds the first text part of the payload and decodes it.
// Messages without a decodable text part yield an empty body.
func messageBody(payload *gmail.MessagePart) string {
	for _, mimeType := range bodyMimeTypes {
		var data string
		walkParts(payload, func(part *gmail.MessagePart) {
			if data == "" && part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
				data = part.Body.Data
			}
		})
		if data != "" {
			return decodeBody(data)
		}
	}
	return ""
}

// decodeBody decodes base64url-encoded body data (Gmail API uses RFC 4648
// base64url encoding).
func decodeBody(data string) string {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		// Some parts arrive unpadded or in standard base64.
		if decoded, err = base64.RawURLEncoding.DecodeString(data); err != nil {
			if decoded, err = base64.StdEncoding.DecodeString(data); err != nil {
				return ""
			}
		}
	}
	return string(decoded)
}

// walkParts recursively walks through message parts.
func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if part == nil {
		return
	}
	fn(part)
	for _, subpart := range part.Parts {
		walkParts(subpart, fn)
	}
}

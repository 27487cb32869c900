package erp

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/rahulmuralitechnology/cartzilla-sub003/internal/domain/erpsync"
)

// maxRawMessageLen caps a raw body echoed back as an error message
const maxRawMessageLen = 500

// errorBody is the error envelope returned by the ERP
type errorBody struct {
	ExcType        string          `json:"exc_type"`
	Exception      string          `json:"exception"`
	ServerMessages string          `json:"_server_messages"`
	Message        json.RawMessage `json:"message"`
}

// classifyTransportError converts a failed round trip into a connection error
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return erpsync.NewTimeoutError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return erpsync.NewTimeoutError(err)
	}
	return erpsync.NewConnectionError(0, err.Error(), err)
}

// classifyStatus converts an HTTP error status into the typed ERP error:
//
//	401                      -> auth
//	404                      -> not found
//	408, 429, 502, 503, 504  -> connection (retryable)
//	anything else >= 400     -> validation, carrying the remote message
func classifyStatus(status int, body []byte) error {
	msg := remoteMessage(status, body)
	switch status {
	case http.StatusUnauthorized:
		return erpsync.NewAuthError(status, msg)
	case http.StatusNotFound:
		return erpsync.NewNotFoundError(msg)
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return erpsync.NewConnectionError(status, msg, nil)
	}
	return erpsync.NewValidationError(status, msg)
}

// remoteMessage extracts the most specific human-readable message from an error body.
// Order: _server_messages, exception, message, raw body, status text.
func remoteMessage(status int, body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if msg := decodeServerMessages(eb.ServerMessages); msg != "" {
			return msg
		}
		if eb.Exception != "" {
			return stripExceptionPrefix(eb.Exception)
		}
		var s string
		if len(eb.Message) > 0 && json.Unmarshal(eb.Message, &s) == nil && s != "" {
			return s
		}
	}

	raw := strings.TrimSpace(string(body))
	if raw != "" && !strings.HasPrefix(raw, "<") {
		if len(raw) > maxRawMessageLen {
			n := maxRawMessageLen
			for n > 0 && !utf8.RuneStart(raw[n]) {
				n--
			}
			raw = raw[:n]
		}
		return raw
	}
	return http.StatusText(status)
}

// decodeServerMessages unpacks the doubly-encoded _server_messages field:
// a JSON string holding an array of JSON-encoded message objects.
func decodeServerMessages(encoded string) string {
	if encoded == "" {
		return ""
	}
	var entries []string
	if err := json.Unmarshal([]byte(encoded), &entries); err != nil {
		return ""
	}

	messages := make([]string, 0, len(entries))
	for _, entry := range entries {
		var m struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(entry), &m); err == nil && m.Message != "" {
			messages = append(messages, m.Message)
			continue
		}
		if entry != "" {
			messages = append(messages, entry)
		}
	}
	return strings.Join(messages, "; ")
}

// stripExceptionPrefix turns "frappe.exceptions.ValidationError: msg" into "msg"
func stripExceptionPrefix(exception string) string {
	head, tail, found := strings.Cut(exception, ": ")
	if !found || strings.ContainsAny(head, " \n") {
		return exception
	}
	return strings.TrimSpace(tail)
}

package usecase

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"reasoning-chat/internal/config"
)

const (
	msgConnectivity   = "Cannot connect to AI model. Please check your configuration."
	msgInternal       = "Internal server error"
	msgEmptyResponse  = "No response received from the model"
	prefixProviderAPI = "API request failed: "
	prefixConfig      = "Server configuration error: "

	UnknownErrorMessage = "An unknown error occurred"
)

var configMarkers = []string{"Missing LLM_API_BASE_URL", "Missing model name"}

// providerStatusError is a non-2xx answer from the completion backend
// itself. Other errors carrying an HTTP status, such as AWS SDK response
// errors from the key store, are server faults and must not match.
type providerStatusError interface {
	HTTPStatusCode() int
	ProviderError() bool
}

type apiMessager interface {
	APIMessage() string
}

type transportFailer interface {
	TransportFailure() bool
}

// Normalize maps any failure to the single error shape returned to callers.
// Rules are tried in order and the first match wins: provider status errors,
// missing configuration, connectivity, then everything else. A nil error
// and an already normalized *Error are both handled.
func Normalize(err error) *Error {
	var normalized *Error
	if errors.As(err, &normalized) && normalized != nil {
		return normalized
	}

	var statusErr providerStatusError
	if errors.As(err, &statusErr) && statusErr.ProviderError() {
		status := statusErr.HTTPStatusCode()
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return newError(ErrorProviderAPI, status, prefixProviderAPI+providerMessage(err), err)
	}

	text := ""
	if err != nil {
		text = err.Error()
	}

	var missing *config.MissingError
	if errors.As(err, &missing) {
		return newError(ErrorConfiguration, http.StatusInternalServerError, prefixConfig+missing.Error(), err)
	}
	if containsAny(text, configMarkers) {
		return newError(ErrorConfiguration, http.StatusInternalServerError, prefixConfig+text, err)
	}

	if isConnectivity(err) || strings.Contains(text, "fetch") {
		return newError(ErrorConnectivity, http.StatusServiceUnavailable, msgConnectivity, err)
	}

	return newError(ErrorUnknown, http.StatusInternalServerError, msgInternal, err)
}

func providerMessage(err error) string {
	var m apiMessager
	if errors.As(err, &m) {
		if msg := strings.TrimSpace(m.APIMessage()); msg != "" {
			return msg
		}
	}
	return err.Error()
}

func isConnectivity(err error) bool {
	var tf transportFailer
	if errors.As(err, &tf) && tf.TransportFailure() {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// messageCarrier is satisfied by values that describe themselves with a
// Message method rather than Error.
type messageCarrier interface {
	Message() string
}

var userPhrases = []struct {
	marker string
	phrase string
}{
	{"Failed to fetch", "Cannot connect to AI model. Please check your connection and model configuration."},
	{"status 401", "Authentication failed. Please check your API key."},
	{"status 404", "AI model endpoint not found. Please check your configuration."},
	{"status 429", "Rate limit exceeded. Please try again later."},
	{"status 500", "AI model server error. Please try again later."},
}

// DescribeError turns any failure value into a non-empty sentence for an end
// user. It accepts errors, strings, maps with a "message" key and values
// with a Message method; anything else, nil included, yields
// UnknownErrorMessage.
func DescribeError(v any) string {
	msg := strings.TrimSpace(messageOf(v))
	if msg == "" {
		return UnknownErrorMessage
	}
	for _, p := range userPhrases {
		if strings.Contains(msg, p.marker) {
			return p.phrase
		}
	}
	return msg
}

func messageOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *Error:
		if t == nil {
			return ""
		}
		return t.Message
	case error:
		return t.Error()
	case messageCarrier:
		return t.Message()
	case map[string]any:
		s, _ := t["message"].(string)
		return s
	case map[string]string:
		return t["message"]
	default:
		return ""
	}
}

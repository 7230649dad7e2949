package vismanet

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	httpclient "github.com/martinberglund/Visma.Net/pkg/http"
)

// ErrMissingLocation is returned by Create when the API acknowledged a create
// without a Location header and without a body to decode.
var ErrMissingLocation = errors.New("vismanet: created resource has no location")

const maxErrorBody = 512

// APIError is a non-success response from the Visma.net API.
type APIError struct {
	StatusCode int
	Method     string
	URL        string

	// ExceptionType, Message, FaultCode, MessageID and Details mirror the
	// fields of the error document the ERP returns.
	ExceptionType string
	Message       string
	FaultCode     string
	MessageID     string
	Details       string

	// Body is the raw response body.
	Body []byte
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString("vismanet: ")
	if e.Method != "" {
		b.WriteString(e.Method)
		b.WriteString(" ")
	}
	if e.URL != "" {
		b.WriteString(e.URL)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "http %d", e.StatusCode)
	if text := http.StatusText(e.StatusCode); text != "" {
		b.WriteString(" ")
		b.WriteString(text)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	switch {
	case e.ExceptionType != "" && e.FaultCode != "":
		fmt.Fprintf(&b, " (%s, fault %s)", e.ExceptionType, e.FaultCode)
	case e.ExceptionType != "":
		fmt.Fprintf(&b, " (%s)", e.ExceptionType)
	case e.FaultCode != "":
		fmt.Fprintf(&b, " (fault %s)", e.FaultCode)
	}
	return b.String()
}

// errorDocument covers both the ERP exception document and the plain
// {"message": ...} / OAuth error shapes.
type errorDocument struct {
	ExceptionType      string     `json:"ExceptionType"`
	ExceptionMessage   string     `json:"ExceptionMessage"`
	ExceptionFaultCode flexString `json:"ExceptionFaultCode"`
	ExceptionMessageID flexString `json:"ExceptionMessageID"`
	ExceptionDetails   string     `json:"ExceptionDetails"`
	Message            string     `json:"message"`
	OAuthError         string     `json:"error"`
	OAuthDescription   string     `json:"error_description"`
}

// handleError turns transport level errors into *APIError where a response
// was received. Other errors are annotated with the request.
func (c *VismaNet) handleError(method, url string, err error) error {
	var statusErr *httpclient.StatusError
	if !errors.As(err, &statusErr) {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	return newAPIError(method, url, statusErr.StatusCode, statusErr.Body)
}

func newAPIError(method, url string, statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		Method:     method,
		URL:        url,
		Body:       body,
	}

	trimmed := bytes.TrimSpace(body)
	var doc errorDocument
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Unmarshal(trimmed, &doc) == nil {
		apiErr.ExceptionType = doc.ExceptionType
		apiErr.FaultCode = string(doc.ExceptionFaultCode)
		apiErr.MessageID = string(doc.ExceptionMessageID)
		apiErr.Details = doc.ExceptionDetails
		apiErr.Message = firstNonEmpty(doc.ExceptionMessage, doc.Message, doc.OAuthDescription, doc.OAuthError)
	}

	if apiErr.Message == "" && len(trimmed) > 0 {
		msg := string(trimmed)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody] + "..."
		}
		apiErr.Message = msg
	}

	return apiErr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// AsAPIError extracts *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func hasStatus(err error, codes ...int) bool {
	apiErr, ok := AsAPIError(err)
	if !ok {
		return false
	}
	for _, code := range codes {
		if apiErr.StatusCode == code {
			return true
		}
	}
	return false
}

func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized, http.StatusForbidden)
}

func IsRateLimited(err error) bool {
	return hasStatus(err, http.StatusTooManyRequests)
}

// IsValidation reports whether the ERP rejected the payload.
func IsValidation(err error) bool {
	return hasStatus(err, http.StatusBadRequest, http.StatusUnprocessableEntity)
}

package uploader

import "net/http"

// Kind classifies every terminal failure of the pipeline. The first fatal
// error always ends the request; nothing here is retried.
type Kind int

const (
	KindAuthorizationDenied Kind = iota
	KindUpstreamAuthFailed
	KindValidationFailed
	KindDecodeFailed
	KindInvalidSourceURL
	KindSourceUnavailable
	KindUpstreamAPIFailed
	KindTargetNotFound
	KindStorageUploadFailed
	KindInternal
)

// TargetOption is one available creative tonie, enumerated on TargetNotFound
// for operator diagnosis.
type TargetOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Error is the pipeline's uniform failure value. Message is the short
// summary; Details the longer diagnostic the frontend prefers to display.
type Error struct {
	Kind           Kind
	Message        string
	Details        string
	UpstreamStatus int
	Violations     []string
	Available      []TargetOption
}

func (e *Error) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// HTTPStatus maps the failure kind onto the response code. Upstream API
// failures forward the upstream's own status unchanged.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindAuthorizationDenied, KindUpstreamAuthFailed:
		return http.StatusUnauthorized
	case KindValidationFailed, KindDecodeFailed, KindInvalidSourceURL, KindSourceUnavailable:
		return http.StatusBadRequest
	case KindUpstreamAPIFailed:
		if e.UpstreamStatus != 0 {
			return e.UpstreamStatus
		}
		return http.StatusInternalServerError
	case KindTargetNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind Kind, message, details string) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

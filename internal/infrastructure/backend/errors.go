package backend

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/onegat/console/internal/core/domain"
)

// errorBody covers both the plain {"detail": "..."} shape and the
// structured {"detail": {"code": ..., "message": ...}} one.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Code   string          `json:"code"`
	Reason string          `json:"reason"`
}

type structuredDetail struct {
	Code    string `json:"code"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func decodeError(op string, resp *http.Response) error {
	be := &domain.BackendError{Op: op, Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		be.Detail = strings.TrimSpace(string(raw))
		return be
	}

	be.Code = firstNonEmpty(body.Code, body.Reason)
	var text string
	var sd structuredDetail
	switch {
	case json.Unmarshal(body.Detail, &text) == nil:
		be.Detail = text
	case json.Unmarshal(body.Detail, &sd) == nil:
		be.Detail = sd.Message
		be.Code = firstNonEmpty(be.Code, sd.Code, sd.Reason)
	default:
		be.Detail = strings.TrimSpace(string(body.Detail))
	}
	return be
}

// classifyLogin turns a rejected login into a domain.LoginError. A machine
// code wins; otherwise the status and the backend's message decide.
func classifyLogin(be *domain.BackendError) *domain.LoginError {
	le := &domain.LoginError{Reason: domain.LoginUnknown, Detail: be.Detail}

	switch strings.ToLower(be.Code) {
	case string(domain.LoginBadCredentials), "invalid_credentials", "bad_credentials":
		le.Reason = domain.LoginBadCredentials
		return le
	case string(domain.LoginTermsRequired), "terms_required":
		le.Reason = domain.LoginTermsRequired
		return le
	case string(domain.LoginLicenseExpired), "license_expired":
		le.Reason = domain.LoginLicenseExpired
		return le
	}

	msg := strings.ToLower(be.Detail)
	switch {
	case strings.Contains(msg, "términos") || strings.Contains(msg, "terminos"):
		le.Reason = domain.LoginTermsRequired
	case strings.Contains(msg, "licencia") && strings.Contains(msg, "expirado"):
		le.Reason = domain.LoginLicenseExpired
	case be.Status == http.StatusUnauthorized || strings.Contains(msg, "credentials"):
		le.Reason = domain.LoginBadCredentials
	}
	return le
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

package httpapi

import (
	"encoding/json"
	"net/http"
)

// Error codes carried in the envelope. The UI switches on these, the message
// is for humans.
const (
	CodeAlreadyRunning    = "already_running"
	CodeInvalidJSON       = "invalid_json"
	CodeInvalidRequest    = "invalid_request"
	CodeStartFailed       = "start_failed"
	CodeNoReport          = "no_report"
	CodeReportRead        = "report_read_failed"
	CodeDB                = "db_error"
	CodeForbidden         = "forbidden"
	CodeUnauthorized      = "unauthorized"
	CodeMethodNotAllowed  = "method_not_allowed"
	CodeInternal          = "internal_error"
	CodeStreamUnsupported = "stream_unsupported"
	CodeSaveFailed        = "save_failed"
	CodeReloadFailed      = "reload_failed"
	CodeSecretFailed      = "secret_failed"
)

// APIError is the body of every non-2xx JSON response:
//
//	{"error":{"code":"already_running","message":"Search already in progress","request_id":"..."}}
type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the envelope, tagged with the request id from the
// RequestID middleware when there is one.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
)

const maxBodyBytes = 1 << 20

type envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Retryable bool              `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeFailure(w http.ResponseWriter, status int, body apiError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: &body})
}

// Specific codes take precedence over the kind codes below.
var errorCodes = []struct {
	err  error
	code string
}{
	{domain.ErrDuplicateEvent, "DUPLICATE_EVENT"},
	{domain.ErrEmailTaken, "EMAIL_TAKEN"},
	{domain.ErrWriteConflict, "WRITE_CONFLICT"},
	{domain.ErrEventNotApproved, "EVENT_NOT_APPROVED"},
	{domain.ErrVotingClosed, "VOTING_CLOSED"},
	{domain.ErrInvalidOutcome, "INVALID_OUTCOME"},
	{domain.ErrInvalidStatusTransition, "INVALID_STATUS_TRANSITION"},
	{domain.ErrEventNotEditable, "EVENT_NOT_EDITABLE"},
	{domain.ErrInvalidToken, "INVALID_TOKEN"},
	{domain.ErrInvalidCredentials, "INVALID_CREDENTIALS"},
}

var errorKinds = []struct {
	kind   error
	status int
	code   string
}{
	{domain.ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
	{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{domain.ErrConflict, http.StatusConflict, "CONFLICT"},
}

// writeError maps a service error to its HTTP status. Storage and unexpected
// errors are logged with the request id and never shown to the client.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	for _, k := range errorKinds {
		if !errors.Is(err, k.kind) {
			continue
		}
		body := apiError{Code: k.code, Message: publicMessage(err)}
		for _, c := range errorCodes {
			if errors.Is(err, c.err) {
				body.Code = c.code
				body.Message = c.err.Error()
				break
			}
		}
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			body.Fields = verr.Fields
			body.Message = "invalid input"
		}
		body.Retryable = errors.Is(err, domain.ErrWriteConflict)
		writeFailure(w, k.status, body)
		return
	}

	if logger == nil {
		logger = slog.Default()
	}
	var storageErr *domain.StorageError
	if errors.As(err, &storageErr) {
		logger.Error("storage failure",
			"op", storageErr.Op,
			"error", storageErr.Err,
			"request_id", middleware.GetReqID(r.Context()),
		)
		writeFailure(w, http.StatusInternalServerError, apiError{
			Code:      "STORAGE_ERROR",
			Message:   "the request could not be completed, please retry",
			Retryable: true,
		})
		return
	}

	logger.Error("unexpected error",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
	)
	writeFailure(w, http.StatusInternalServerError, apiError{
		Code:    "INTERNAL_ERROR",
		Message: "internal server error",
	})
}

// publicMessage returns the message of the outermost domain error, dropping
// any wrapped driver or library detail.
func publicMessage(err error) string {
	for _, known := range []error{
		domain.ErrEventNotFound, domain.ErrUserNotFound, domain.ErrInvalidStatus,
		domain.ErrInvalidEventID, domain.ErrInvalidRole, domain.ErrAdminRequired,
		domain.ErrNotEventOwner, domain.ErrCannotDeleteSelf, domain.ErrUnauthenticated,
		domain.ErrConflict,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}

func badRequest(w http.ResponseWriter, message string) {
	writeFailure(w, http.StatusBadRequest, apiError{Code: "BAD_REQUEST", Message: message})
}

// decodeJSON reads a bounded JSON body. An empty body decodes to the zero
// value.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "invalid request body")
		return false
	}
	return true
}

// decodeJSONQuiet is decodeJSON without the error response.
func decodeJSONQuiet(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	return err == nil
}

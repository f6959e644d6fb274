// Package handler holds the HTTP handlers and the shared error renderer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dukerupert/paysync/internal/domain"
	"github.com/dukerupert/paysync/internal/middleware"
	"github.com/labstack/echo/v4"
)

// errorEnvelope is the JSON error body.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized // 401
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.ECONFLICT:
		return http.StatusConflict // 409
	case domain.ETOOLARGE:
		return http.StatusRequestEntityTooLarge // 413
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests // 429
	case domain.EINTERNAL:
		return http.StatusInternalServerError // 500
	case domain.ENOTIMPL:
		return http.StatusNotImplemented // 501
	case domain.EPROCESSOR:
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}

// ErrorResponse logs err and writes it to the client. JSON clients get the
// error envelope, everyone else plain text. Internal details never reach the
// client.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)
	status := ErrorCodeToHTTPStatus(code)

	log := middleware.GetLogger(r.Context())
	ev := log.Info()
	if status >= 500 {
		ev = log.Error()
	}
	ev.Err(err).
		Str("code", code).
		Str("op", domain.ErrorOp(err)).
		Int("status", status).
		Msg("request failed")

	if acceptsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(errorEnvelope{Error: errorBody{
			Code:      code,
			Message:   message,
			RequestID: middleware.GetRequestID(r.Context()),
		}})
		return
	}

	http.Error(w, message, status)
}

// NotFoundResponse writes a 404.
func NotFoundResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Errorf(domain.ENOTFOUND, "", "The requested resource was not found"))
}

// InternalErrorResponse writes a 500 without exposing err.
func InternalErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	ErrorResponse(w, r, domain.Internal(err, "", "An unexpected error occurred"))
}

// EchoErrorHandler renders errors returned from echo handlers and echo's own
// routing errors (404, 405) through ErrorResponse.
func EchoErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		err = httpErrorToDomain(he)
	}
	ErrorResponse(c.Response(), c.Request(), err)
}

func httpErrorToDomain(he *echo.HTTPError) error {
	msg := http.StatusText(he.Code)
	if s, ok := he.Message.(string); ok && s != "" {
		msg = s
	}

	var code string
	switch he.Code {
	case http.StatusNotFound:
		code = domain.ENOTFOUND
	case http.StatusMethodNotAllowed, http.StatusBadRequest, http.StatusUnsupportedMediaType:
		code = domain.EINVALID
	case http.StatusUnauthorized:
		code = domain.EUNAUTHORIZED
	case http.StatusRequestEntityTooLarge:
		code = domain.ETOOLARGE
	case http.StatusTooManyRequests:
		code = domain.ERATELIMIT
	default:
		return domain.Internal(he, "", msg)
	}
	return &domain.Error{Code: code, Message: msg, Err: he}
}

// acceptsJSON checks if the client prefers JSON responses.
func acceptsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	contentType := r.Header.Get("Content-Type")

	if strings.Contains(accept, "application/json") {
		return true
	}
	if strings.Contains(contentType, "application/json") {
		return true
	}
	return strings.HasSuffix(r.URL.Path, ".json")
}

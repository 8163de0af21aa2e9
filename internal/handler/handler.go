package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"keebstore/internal/middleware"
	"keebstore/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// maxBodyBytes caps request bodies accepted by decodeJSON.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are already sent
		return
	}
}

// writeSuccess wraps data in the success envelope.
func writeSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, model.Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// writeError maps err onto a status code and error envelope. 5xx responses
// are logged at error level and carry the request ID, 4xx at warn.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback zerolog.Logger) {
	logger := middleware.Logger(r.Context(), fallback)
	resp := model.Response{Success: false}

	var (
		validationErr *model.ValidationError
		domainErr     *model.DomainError
		status        int
	)

	switch {
	case errors.As(err, &validationErr):
		status = http.StatusUnprocessableEntity
		resp.Message = "Validation failed"
		resp.Error = &model.ErrorBody{Code: model.ErrCodeValidationFailed}
		resp.Errors = validationErr.Fields
	case errors.As(err, &domainErr):
		status = statusFor(domainErr)
		resp.Message = domainErr.Message
		resp.Error = &model.ErrorBody{Code: domainErr.Code, Details: domainErr.Details}
	default:
		status = http.StatusInternalServerError
		resp.Message = "Internal server error"
		resp.Error = &model.ErrorBody{Code: model.ErrCodeInternalError}
	}

	if status >= http.StatusInternalServerError {
		resp.Error.CorrelationID = middleware.RequestID(r.Context())
		logger.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		logger.Warn().Err(err).Int("status", status).Msg("request rejected")
	}

	writeJSON(w, status, resp)
}

func statusFor(err *model.DomainError) int {
	switch err.Code {
	case model.ErrCodeInvalidJSON, model.ErrCodeInvalidPromoCode, model.ErrCodeNotCancellable:
		return http.StatusBadRequest
	case model.ErrCodeOrderNotFound, model.ErrCodeProductNotFound:
		return http.StatusNotFound
	case model.ErrCodeInsufficientStock, model.ErrCodeIllegalTransition, model.ErrCodeNotPayable:
		return http.StatusConflict
	}

	switch err.Kind {
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindBusinessRule:
		return http.StatusConflict
	case model.KindValidation:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

var errInvalidJSON = model.NewDomainError(model.KindValidation, model.ErrCodeInvalidJSON, "Request body is not valid JSON")

// decodeJSON reads a single JSON document from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errInvalidJSON
	}
	if _, err := dec.Token(); err != io.EOF {
		return errInvalidJSON
	}
	return nil
}

// queryInt parses an optional integer query parameter. Failures are recorded
// on verr against the parameter name.
func queryInt(r *http.Request, name string, verr *model.ValidationError) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		verr.Add(name, "must be an integer")
		return 0
	}
	return v
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, name string, verr *model.ValidationError) bool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		verr.Add(name, "must be a boolean")
		return false
	}
	return v
}

// queryDecimal parses an optional decimal query parameter. A missing value,
// or one of the sentinels in absent, yields nil.
func queryDecimal(r *http.Request, name string, verr *model.ValidationError, absent ...string) *decimal.Decimal {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" || slices.Contains(absent, raw) {
		return nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		verr.Add(name, "must be a number")
		return nil
	}
	return &v
}

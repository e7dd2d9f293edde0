package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/itchan-dev/anniv/shared/api"
	internal_errors "github.com/itchan-dev/anniv/shared/errors"
	"github.com/itchan-dev/anniv/shared/logger"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	return validate
}

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}

// WriteErrorAndStatusCode translates err into the {status, message} shape.
// Errors without a status code are logged and reported as 500; their text is
// only exposed in dev mode.
func WriteErrorAndStatusCode(w http.ResponseWriter, err error, devMode bool) {
	var withStatus *internal_errors.ErrorWithStatusCode
	var ingestion *internal_errors.IngestionError
	var pageNotFound *internal_errors.PageNotFound

	switch {
	case errors.As(err, &withStatus):
		for k, v := range withStatus.Headers {
			w.Header().Set(k, v)
		}
		WriteJSON(w, withStatus.StatusCode, api.ErrorResponse{Status: withStatus.StatusCode, Message: withStatus.Message})
	case errors.As(err, &ingestion):
		WriteJSON(w, ingestion.StatusCode(), api.ErrorResponse{Status: ingestion.StatusCode(), Message: ingestion.Error()})
	case errors.As(err, &pageNotFound):
		WriteJSON(w, http.StatusNotFound, api.PageNotFoundResponse{
			ErrorResponse: api.ErrorResponse{Status: http.StatusNotFound, Message: pageNotFound.Error()},
			PageCount:     pageNotFound.PageCount,
		})
	default:
		logger.Log.Error("internal error", "error", err)
		msg := "Internal server error"
		if devMode {
			msg = fmt.Sprintf("%s: %v", msg, err)
		}
		WriteJSON(w, http.StatusInternalServerError, api.ErrorResponse{Status: http.StatusInternalServerError, Message: msg})
	}
}

// GetIP extracts the client IP from RemoteAddr. Proxy headers are trusted only
// when an upstream middleware (chi RealIP) already rewrote RemoteAddr.
func GetIP(r *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("invalid IP address: %s", ip)
	}
	return ip, nil
}

func DecodeValidate(r io.Reader, body any) error {
	if err := json.NewDecoder(r).Decode(body); err != nil {
		logger.Log.Debug("invalid json body", "error", err)
		return &internal_errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: http.StatusBadRequest}
	}
	if err := validate.Struct(body); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Namespace())
			}
			return &internal_errors.ErrorWithStatusCode{
				Message:    "Required fields missing or invalid: " + strings.Join(fields, ", "),
				StatusCode: http.StatusBadRequest,
			}
		}
		return &internal_errors.ErrorWithStatusCode{Message: "Required fields missing", StatusCode: http.StatusBadRequest}
	}
	return nil
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Togather-Foundation/booking/internal/api/problem"
	"github.com/Togather-Foundation/booking/internal/domain/ids"
	"github.com/Togather-Foundation/booking/internal/validation"
)

const (
	msgServerError      = "Server error"
	msgValidationFailed = "Validation failed"
	msgInvalidJSON      = "Invalid JSON body"
	msgBodyTooLarge     = "Request body too large"
)

type messageResponse struct {
	Msg string `json:"msg"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	problem.WriteJSON(w, status, payload)
}

// decodeJSON reads a single JSON document into dst. Trailing data after the
// document is rejected.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON body")
	}
	return nil
}

var errEmptyBody = errors.New("request body is empty")

// writeDecodeError reports a body that could not be decoded. Field errors
// raised by custom unmarshalers surface as validation failures.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error, env string) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		problem.Write(w, r, http.StatusRequestEntityTooLarge, msgBodyTooLarge, err, env)
	case validation.Is(err):
		writeValidation(w, r, err, env)
	default:
		problem.Write(w, r, http.StatusBadRequest, msgInvalidJSON, err, env, problem.WithDetail(err.Error()))
	}
}

func writeValidation(w http.ResponseWriter, r *http.Request, err error, env string) {
	problem.Write(w, r, http.StatusBadRequest, msgValidationFailed, err, env, problem.WithDetail(validation.Fields(err)))
}

// pathID reads a ULID path parameter and returns its canonical form. A
// missing or malformed id wraps notFound.
func pathID(r *http.Request, key string, notFound error) (string, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	id, err := ids.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: malformed %s %q", notFound, key, raw)
	}
	return id, nil
}

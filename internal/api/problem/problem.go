package problem

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// Body is the JSON error envelope every endpoint returns.
type Body struct {
	Msg   string `json:"msg"`
	Error any    `json:"error,omitempty"`
}

type Option func(*Body)

// WithDetail attaches structured detail, typically a field→message map.
func WithDetail(detail any) Option {
	return func(b *Body) {
		b.Error = detail
	}
}

// Write logs err through the request logger (warn for 4xx, error for 5xx)
// and writes a {msg, error} body. For 5xx responses the error text is only
// exposed outside production.
func Write(w http.ResponseWriter, r *http.Request, status int, msg string, err error, env string, opts ...Option) {
	body := Body{Msg: msg}
	for _, opt := range opts {
		opt(&body)
	}
	if body.Error == nil && err != nil && status >= 500 && env != "production" {
		body.Error = err.Error()
	}

	if r != nil {
		logger := zerolog.Ctx(r.Context())
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case err != nil && status >= 400:
			event = logger.Warn()
		}
		if event != nil {
			event.Err(err).
				Int("status", status).
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Msg(msg)
		}
	}

	WriteJSON(w, status, body)
}

// WriteJSON is the one place responses are encoded.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"msg":"Server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

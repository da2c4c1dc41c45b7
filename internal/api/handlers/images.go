package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/Togather-Foundation/booking/internal/api/problem"
	"github.com/Togather-Foundation/booking/internal/domain/images"
	"github.com/Togather-Foundation/booking/internal/validation"
)

const imageFormField = "image"

type ImageService interface {
	Store(ctx context.Context, filename string, r io.Reader) (string, error)
	Get(ctx context.Context, id string) (*images.Image, error)
	MaxBytes() int64
}

type ImagesHandler struct {
	Service ImageService
	Env     string
}

func NewImagesHandler(service ImageService, env string) *ImagesHandler {
	return &ImagesHandler{Service: service, Env: env}
}

type uploadResponse struct {
	ImageID string `json:"imageId"`
}

func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Leave room for multipart framing around the file itself.
	limit := h.Service.MaxBytes() + 64<<10
	if r.ContentLength > limit {
		problem.Write(w, r, http.StatusRequestEntityTooLarge, "File too large", images.ErrTooLarge, h.Env)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	file, header, err := r.FormFile(imageFormField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			problem.Write(w, r, http.StatusRequestEntityTooLarge, "File too large", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusBadRequest, "No file uploaded", err, h.Env)
		return
	}
	defer func() { _ = file.Close() }()
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	id, err := h.Service.Store(r.Context(), header.Filename, file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, uploadResponse{ImageID: id})
}

func (h *ImagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", images.ErrNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	img, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(img.Size))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = io.Copy(w, img.Reader())
	}
}

func (h *ImagesHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if validation.Is(err) {
		writeValidation(w, r, err, h.Env)
		return
	}
	status, msg := mapImageError(err)
	problem.Write(w, r, status, msg, err, h.Env)
}

func mapImageError(err error) (int, string) {
	switch {
	case errors.Is(err, images.ErrEmpty):
		return http.StatusBadRequest, "No file uploaded"
	case errors.Is(err, images.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "File too large"
	case errors.Is(err, images.ErrNotFound):
		return http.StatusNotFound, "No file found"
	default:
		return http.StatusInternalServerError, msgServerError
	}
}

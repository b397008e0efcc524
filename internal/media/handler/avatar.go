// Package handler serves avatar uploads and public object reads.
package handler

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	accountdomain "github.com/leadhub/leadhub-backend/internal/account/domain"
	"github.com/leadhub/leadhub-backend/internal/media/store"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/logger"
)

// multipart framing allowance on top of the file limit
const formOverhead = 64 << 10

// AvatarAPI is implemented by service.AvatarService.
type AvatarAPI interface {
	MaxBytes() int64
	Upload(ctx context.Context, data []byte) (*accountdomain.Profile, error)
	Delete(ctx context.Context) (*accountdomain.Profile, error)
	Open(ctx context.Context, bucket, key string) (*store.Object, error)
}

// AvatarHandler handles avatar endpoints
type AvatarHandler struct {
	service AvatarAPI
	logger  *logger.Logger
}

// NewAvatarHandler creates a new avatar handler
func NewAvatarHandler(svc AvatarAPI, log *logger.Logger) *AvatarHandler {
	return &AvatarHandler{service: svc, logger: log}
}

// Upload accepts a multipart form with a "file" field, or the raw image as body.
func (h *AvatarHandler) Upload(w http.ResponseWriter, r *http.Request) {
	limit := h.service.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+formOverhead)

	data, err := h.readUpload(r, limit)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	p, err := h.service.Upload(r.Context(), data)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, p)
}

func (h *AvatarHandler) readUpload(r *http.Request, limit int64) ([]byte, error) {
	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		file, _, err := r.FormFile("file")
		if err != nil {
			if tooLarge(err) {
				return nil, errors.PayloadTooLarge(strconv.FormatInt(limit>>20, 10) + " MiB")
			}
			return nil, errors.BadRequest("missing file field")
		}
		defer file.Close()
		src = file
	}

	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		if tooLarge(err) {
			return nil, errors.PayloadTooLarge(strconv.FormatInt(limit>>20, 10) + " MiB")
		}
		return nil, errors.BadRequest("failed to read upload")
	}
	return data, nil
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return stderrors.As(err, &mbe)
}

// Delete removes the caller's avatar
func (h *AvatarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Delete(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, p)
}

// Public serves GET /storage/v1/object/public/{bucket}/*
func (h *AvatarHandler) Public(w http.ResponseWriter, r *http.Request) {
	obj, err := h.service.Open(r.Context(), chi.URLParam(r, "bucket"), chi.URLParam(r, "*"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	// Keys are never reused, so objects can be cached for good.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		if _, err := w.Write(obj.Data); err != nil {
			h.logger.Debug().Err(err).Str("key", obj.Key).Msg("client went away during object write")
		}
	}
}

package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/user/dsnval-service/internal/delivery/http/response"
	"github.com/user/dsnval-service/internal/entity"
	"github.com/user/dsnval-service/internal/usecase"
	"go.uber.org/zap"
)

type Handler struct {
	releases usecase.ReleaseService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewHandler creates the HTTP handlers. cacheTTL is zero when results are
// not cached; otherwise successful responses advertise it to clients.
func NewHandler(releases usecase.ReleaseService, cacheTTL time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		releases: releases,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// HandleGetReleases serves the selected release(s) as JSON.
func (h *Handler) HandleGetReleases(w http.ResponseWriter, r *http.Request) {
	set, err := h.releases.Releases(r.Context())
	if err != nil {
		h.logger.Error("Failed to get releases",
			zap.String("error_type", entity.Kind(err)),
			zap.Error(err),
		)
		h.writeError(w, err)
		return
	}

	if h.cacheTTL > 0 {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.cacheTTL.Seconds())))
	}
	h.writeJSON(w, http.StatusOK, set)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, response.HealthResponse{Status: "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", zap.Error(err))
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

// writeError answers 500 with a plain-text body. Failures are never cached.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusInternalServerError)
	if _, werr := w.Write([]byte(response.ErrorBody(err))); werr != nil {
		h.logger.Error("Failed to write error response", zap.Error(werr))
	}
}

package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/chunkgpt/internal/domain/auth"
	"github.com/yanqian/chunkgpt/internal/domain/summarizer"
	"github.com/yanqian/chunkgpt/internal/infra/config"
	apperrors "github.com/yanqian/chunkgpt/pkg/errors"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	summarizerSvc   summarizer.Service
	authSvc         auth.Service
	maxDocumentSize int64
	logger          *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(cfg *config.Config, summarySvc summarizer.Service, authSvc auth.Service, logger *slog.Logger) *Handler {
	return &Handler{
		summarizerSvc:   summarySvc,
		authSvc:         authSvc,
		maxDocumentSize: cfg.Summary.MaxDocumentBytes,
		logger:          logger.With("component", "http.handler"),
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// IssueToken exchanges client credentials for an access token.
func (h *Handler) IssueToken(c *gin.Context) {
	var req auth.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.authSvc.IssueToken(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, toHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UploadDocument stores the raw request body as a document.
func (h *Handler) UploadDocument(c *gin.Context) {
	reader := io.Reader(c.Request.Body)
	if h.maxDocumentSize > 0 {
		reader = io.LimitReader(c.Request.Body, h.maxDocumentSize+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "failed to read body", err))
		return
	}
	ref, err := h.summarizerSvc.UploadDocument(c.Request.Context(), data)
	if err != nil {
		abortWithError(c, toHTTPError(err))
		return
	}
	h.logger.Info("document uploaded", "key", ref.Key, "size", ref.Size, "client_id", clientID(c))
	c.JSON(http.StatusCreated, ref)
}

// Summarize handles the sync summarization endpoint.
func (h *Handler) Summarize(c *gin.Context) {
	var req summarizer.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.summarizerSvc.Summarize(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, toHTTPError(err))
		return
	}
	h.logger.Debug("summary served", "id", resp.ID, "cached", resp.Cached, "client_id", clientID(c))

	c.JSON(http.StatusOK, resp)
}

// GetSummary returns a stored summary by id.
func (h *Handler) GetSummary(c *gin.Context) {
	resp, err := h.summarizerSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, toHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SummarizeStream streams reduction steps using Server-Sent Events.
func (h *Handler) SummarizeStream(c *gin.Context) {
	var req summarizer.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	stream, err := h.summarizerSvc.StreamSummary(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, toHTTPError(err))
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "stream_unsupported", "streaming not supported", nil))
		return
	}

	for chunk := range stream {
		payload, err := json.Marshal(chunk)
		if err != nil {
			h.logger.Error("marshal chunk failed", "error", err)
			continue
		}
		c.Writer.Write([]byte("data: "))
		c.Writer.Write(payload)
		c.Writer.Write([]byte("\n\n"))
		flusher.Flush()
	}
}

// toHTTPError maps domain error codes onto HTTP statuses.
func toHTTPError(err error) *HTTPError {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return NewHTTPError(http.StatusInternalServerError, "internal_error", "something went wrong", err)
	}
	status := http.StatusInternalServerError
	switch appErr.Code {
	case "invalid_input":
		status = http.StatusBadRequest
	case "not_found":
		status = http.StatusNotFound
	case "invalid_credentials":
		status = http.StatusUnauthorized
	case "llm_error":
		status = http.StatusBadGateway
	}
	return NewHTTPError(status, appErr.Code, errMessage(err), err)
}

func clientID(c *gin.Context) string {
	if claims, ok := getClaims(c); ok {
		return claims.ClientID
	}
	return ""
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

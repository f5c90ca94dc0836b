package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"talos/internal/config"
	"talos/internal/service"
	"talos/internal/storage"
	"talos/internal/utils"
)

type Handler struct {
	Storage  *storage.Storage
	Analyzer *service.Analyzer
	Config   *config.Config
	Renderer *service.ReportClient
}

func NewHandler(store *storage.Storage, analyzer *service.Analyzer, cfg *config.Config) *Handler {
	return &Handler{
		Storage:  store,
		Analyzer: analyzer,
		Config:   cfg,
		Renderer: service.NewReportClient(cfg.RendererURL),
	}
}

// === Routes ===

func (h *Handler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "online",
		"service": "talos",
		"version": "1.0",
	})
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) Analyze(c echo.Context) error {
	var req struct {
		URL string `json:"url"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "url is required"})
	}
	ctx := c.Request().Context()
	target := strings.TrimSpace(req.URL)

	if h.Storage != nil {
		if cached, err := h.Storage.GetCachedResult(ctx, target); err == nil && cached != nil {
			utils.CacheHits.Inc()
			return c.JSON(http.StatusOK, cached)
		}
	}

	res, err := h.Analyzer.Analyze(ctx, target)
	if err != nil {
		if errors.Is(err, service.ErrInvalidProtocol) || errors.Is(err, service.ErrInvalidURL) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	if h.Storage != nil {
		if err := h.Storage.CacheResult(ctx, target, res, h.Config.CacheTTL); err != nil {
			utils.Log.Warn("could not cache result", utils.Field("error", err.Error()))
		}
		if err := h.Storage.AddScanHistory(ctx, res.Normalized.URL, res); err != nil {
			utils.Log.Warn("could not store scan history", utils.Field("error", err.Error()))
		}
	}

	return c.JSON(http.StatusOK, res)
}

// ReportPDF forwards a finished analysis to the external renderer and streams
// the artifact back.
func (h *Handler) ReportPDF(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil || len(payload) == 0 || !json.Valid(payload) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "analysis result body required"})
	}

	artifact, err := h.Renderer.Render(c.Request().Context(), payload)
	if err != nil {
		if errors.Is(err, service.ErrRendererUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		}
		utils.Log.Error("report rendering failed", utils.Field("error", err.Error()))
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=report.pdf")
	return c.Blob(http.StatusOK, "application/pdf", artifact)
}

func (h *Handler) History(c echo.Context) error {
	target := c.QueryParam("target")
	if target == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "target query parameter is required"})
	}

	entries, diffs, err := h.Storage.GetHistoryWithDiffs(c.Request().Context(), target)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"entries": entries,
		"diffs":   diffs,
	})
}

func (h *Handler) GetWatchlist(c echo.Context) error {
	targets, err := h.Storage.GetWatchlist(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if targets == nil {
		targets = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"targets": targets})
}

func (h *Handler) AddWatchlistItem(c echo.Context) error {
	var req struct {
		Target string `json:"target"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Target) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "target is required"})
	}
	target := strings.TrimSpace(req.Target)

	// Reject inputs the analyzer would refuse anyway.
	if _, err := service.SanitizeURL(target); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.Storage.AddWatchlistItem(c.Request().Context(), target); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, map[string]string{"target": target})
}

func (h *Handler) RemoveWatchlistItem(c echo.Context) error {
	target := c.QueryParam("target")
	if target == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "target query parameter is required"})
	}
	if err := h.Storage.RemoveWatchlistItem(c.Request().Context(), target); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"talos/internal/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSMessage is one frame of a streamed analysis. Type is "stage", "final" or
// "error"; Stage names the pipeline stage for "stage" frames.
type WSMessage struct {
	Type  string      `json:"type"`
	Stage string      `json:"stage,omitempty"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// HandleWS streams per-stage results to the client while an analysis runs.
// The client sends {"url": "..."} and receives one frame per completed stage
// followed by a "final" frame carrying the whole result.
func (h *Handler) HandleWS(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = ws.Close()
	}()

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			break
		}

		var input struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(msg, &input); err != nil || strings.TrimSpace(input.URL) == "" {
			_ = ws.WriteJSON(WSMessage{Type: "error", Error: "expected {\"url\": \"...\"}"})
			continue
		}

		// Stages complete concurrently; gorilla connections allow only one
		// writer at a time.
		var mu sync.Mutex
		emit := func(stage string, data interface{}) {
			mu.Lock()
			defer mu.Unlock()
			_ = ws.WriteJSON(WSMessage{Type: "stage", Stage: stage, Data: data})
		}

		res, err := h.Analyzer.AnalyzeStream(c.Request().Context(), input.URL, emit)
		if err != nil {
			mu.Lock()
			_ = ws.WriteJSON(WSMessage{Type: "error", Error: err.Error()})
			mu.Unlock()
			continue
		}

		if h.Storage != nil {
			ctx := c.Request().Context()
			if err := h.Storage.AddScanHistory(ctx, res.Normalized.URL, res); err != nil {
				utils.Log.Warn("could not store scan history", utils.Field("error", err.Error()))
			}
		}

		mu.Lock()
		_ = ws.WriteJSON(WSMessage{Type: "final", Data: res})
		mu.Unlock()
	}
	return nil
}

package handler

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

func dialTestWS(t *testing.T, h *Handler) *websocket.Conn {
	t.Helper()
	e := echo.New()
	e.GET("/ws", h.HandleWS)
	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading frame: %v", err)
	}
	return msg
}

func TestHandleWSInvalidInput(t *testing.T) {
	h := newTestHandler(t)
	conn := dialTestWS(t, h)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("garbage")); err != nil {
		t.Fatal(err)
	}
	msg := readFrame(t, conn)
	if msg.Type != "error" {
		t.Errorf("expected error frame, got %+v", msg)
	}

	if err := conn.WriteJSON(map[string]string{"url": "ftp://blocked"}); err != nil {
		t.Fatal(err)
	}
	msg = readFrame(t, conn)
	if msg.Type != "error" {
		t.Errorf("expected error frame for disallowed scheme, got %+v", msg)
	}
}

func TestHandleWSStreamsStages(t *testing.T) {
	h := newTestHandler(t)
	conn := dialTestWS(t, h)

	if err := conn.WriteJSON(map[string]string{"url": "http://example.com"}); err != nil {
		t.Fatal(err)
	}

	seen := map[string]bool{}
	for {
		msg := readFrame(t, conn)
		switch msg.Type {
		case "stage":
			seen[msg.Stage] = true
		case "final":
			if msg.Data == nil {
				t.Error("final frame carries no result")
			}
			for _, stage := range []string{"normalized", "redirects", "ssl", "infrastructure", "reputation", "heuristics", "final"} {
				if !seen[stage] {
					t.Errorf("stage %q never streamed", stage)
				}
			}
			return
		case "error":
			t.Fatalf("unexpected error frame: %s", msg.Error)
		}
	}
}

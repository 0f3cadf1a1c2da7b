package httpapi

import (
	"errors"
	"net/http"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"

	"github.com/recallbe/recall/internal/agent"
)

const (
	streamWriteWait  = 10 * time.Second
	streamReadLimit  = 64 << 10
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Voice gateways connect server to server; there is no browser origin to check.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type streamError struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// handleStream runs turns over a websocket. Each text frame is a
// TurnRequest and is answered with a TurnResult or a streamError. Closing
// the socket ends the session.
func handleStream(w http.ResponseWriter, r *http.Request, logger *slog.Logger, sessions *agent.Manager, id string) {
	if _, err := sessions.Get(id); err != nil {
		respondSessionError(w, logger, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "session", id, "err", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	conn.SetReadLimit(streamReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	results := make(chan any, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(streamPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case msg, ok := <-results:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(streamWriteWait))
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
				if err := conn.WriteJSON(msg); err != nil {
					logger.Warn("websocket write failed", "session", id, "err", err)
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
					return
				}
			}
		}
	}()

	logger.Info("session stream opened", "session", id)
	for {
		var req TurnRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Info("session stream read ended", "session", id, "err", err)
			}
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))

		result, err := sessions.Turn(ctx, id, req.Text)
		var out any = result
		if err != nil {
			status, msg := sessionErrorStatus(err)
			out = streamError{Error: msg, Status: status}
		}
		select {
		case results <- out:
		case <-done:
		}
	}
	close(results)
	<-done

	if err := sessions.End(ctx, id); err != nil && !errors.Is(err, agent.ErrSessionNotFound) {
		logger.Error("ending streamed session failed", "session", id, "err", err)
	}
	logger.Info("session stream closed", "session", id)
}

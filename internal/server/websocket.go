package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/matzehuels/diagrammer/pkg/render"
)

const wsWriteTimeout = 5 * time.Second

// handleWebSocket streams the render state to the client: the current state
// on connect, then the newest state after every transition. Client messages
// are ignored.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns,
	})
	if err != nil {
		s.logger.Warn("websocket accept failed", "error", err)
		return
	}
	defer ws.CloseNow()

	ctx := ws.CloseRead(r.Context())
	updates, unsubscribe := s.session.Renderer().Subscribe()
	defer unsubscribe()

	s.logger.Debug("websocket connected", "remote", r.RemoteAddr)
	for {
		select {
		case <-ctx.Done():
			ws.Close(websocket.StatusNormalClosure, "")
			return
		case res, ok := <-updates:
			if !ok {
				return
			}
			if err := writeResult(ctx, ws, res); err != nil {
				if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
					s.logger.Debug("websocket write failed", "error", err)
				}
				return
			}
		}
	}
}

func writeResult(ctx context.Context, ws *websocket.Conn, res render.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return ws.Write(ctx, websocket.MessageText, data)
}

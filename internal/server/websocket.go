package server

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/agbru/fractalcalc/internal/logging"
	"github.com/agbru/fractalcalc/internal/machine"
)

// progressStreamBuffer is the number of updates buffered per subscriber.
// Updates are dropped, not queued, once a slow client falls behind.
const progressStreamBuffer = 256

// progressWriteTimeout bounds a single message write.
const progressWriteTimeout = 5 * time.Second

// handleProgressStream upgrades the connection to a websocket and pushes
// every chunk progress update of every render as a JSON message
// {"frame": n, "progress": p} until the client disconnects.
func (s *Server) handleProgressStream(w http.ResponseWriter, r *http.Request) {
	updates := make(chan machine.ProgressUpdate, progressStreamBuffer)
	observer := machine.NewChannelObserver(updates)
	// Registered before the handshake so no update is lost once Dial returns.
	s.service.Progress().Register(observer)
	defer s.service.Progress().Unregister(observer)

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.securityConfig.AllowedOrigins,
	})
	if err != nil {
		s.logger.Error("websocket accept failed", err)
		return
	}
	defer c.CloseNow()

	progressStreams.Inc()
	defer progressStreams.Dec()

	// The stream is write-only; CloseRead cancels ctx when the client goes.
	ctx := c.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			c.Close(websocket.StatusNormalClosure, "")
			return
		case u := <-updates:
			if err := writeProgress(ctx, c, u); err != nil {
				s.logger.Debug("progress stream closed", logging.String("reason", err.Error()))
				return
			}
		}
	}
}

func writeProgress(ctx context.Context, c *websocket.Conn, u machine.ProgressUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, progressWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, c, u)
}

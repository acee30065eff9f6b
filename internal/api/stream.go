package api

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/catsim/internal/engine"
)

const (
	maxStreamConns = 8
	streamPoll     = 250 * time.Millisecond
	streamPing     = 15 * time.Second
	writeWait      = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Read-only data; viewers may be served from anywhere.
		return true
	},
}

// StreamMessage is what the stream sends after each tick. Snapshot is only
// set when the client asked for full frames with ?full=1.
type StreamMessage struct {
	Step       int               `json:"step"`
	Time       string            `json:"time"`
	Population int               `json:"population"`
	Finished   bool              `json:"finished"`
	Report     engine.TickReport `json:"report"`
	Snapshot   *engine.Snapshot  `json:"snapshot,omitempty"`
}

// handleStream upgrades to a websocket and pushes one message per new
// snapshot until the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	current := atomic.AddInt32(&s.streamConns, 1)
	if current > maxStreamConns {
		atomic.AddInt32(&s.streamConns, -1)
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}
	defer atomic.AddInt32(&s.streamConns, -1)

	full := r.URL.Query().Get("full") == "1"
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("stream upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	slog.Info("stream client connected", "remote", r.RemoteAddr, "full", full)

	// The read pump only notices the client closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("stream read error", "error", err)
				}
				return
			}
		}
	}()

	poll := time.NewTicker(streamPoll)
	defer poll.Stop()
	ping := time.NewTicker(streamPing)
	defer ping.Stop()

	lastStep := -1
	for {
		if snap := s.Eng.Snapshot(); snap.Step != lastStep {
			lastStep = snap.Step
			msg := StreamMessage{
				Step:       snap.Step,
				Time:       snap.Time,
				Population: snap.Population,
				Finished:   snap.Finished,
				Report:     snap.Report,
			}
			if full {
				msg.Snapshot = snap
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				slog.Debug("stream write failed", "error", err)
				return
			}
		}

		select {
		case <-poll.C:
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-closed:
			slog.Info("stream client disconnected", "remote", r.RemoteAddr)
			return
		case <-r.Context().Done():
			return
		}
	}
}

package server

import (
	"log"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/nevik/pushcoach/internal/analyzer"
	"github.com/nevik/pushcoach/internal/filter"
	"github.com/nevik/pushcoach/internal/pose"
	"github.com/nevik/pushcoach/internal/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Client message types.
const (
	msgFrame = "frame"
	msgReset = "reset"
)

// Server message types.
const (
	msgResult  = "result"
	msgSkipped = "skipped"
	msgError   = "error"
)

// clientMessage is one inbound WebSocket message.
type clientMessage struct {
	Type  string        `json:"type"`
	Frame *framePayload `json:"frame,omitempty"`
}

// framePayload carries one pose observation on the wire. Keypoints is a
// slice so that a sequence of the wrong length is rejected explicitly
// instead of silently truncated or zero-padded.
type framePayload struct {
	Keypoints   []pose.Landmark `json:"keypoints"`
	TimestampMs int64           `json:"timestamp_ms"`
}

// serverMessage is one outbound WebSocket message.
type serverMessage struct {
	Type   string           `json:"type"`
	Result *analyzer.Result `json:"result,omitempty"`
	Reason string           `json:"reason,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// session is the analysis state owned by one WebSocket connection. The
// analyzer and smoother are touched only by the connection's read loop;
// other goroutines request a reset through the pendingReset flag, which
// the loop applies before processing its next message.
type session struct {
	analyzer     *analyzer.Analyzer
	smoother     *filter.Smoother
	pendingReset atomic.Bool
}

func (s *session) reset() {
	s.analyzer.Reset()
	s.smoother.Reset()
}

// FramesHandler runs one push-up analysis session per WebSocket
// connection: the client streams landmark frames and receives one frame
// result per frame. Frames within a connection are processed strictly
// sequentially by the connection's read loop, which is the serialization
// the analysis core requires.
type FramesHandler struct {
	profile *store.Profile
	filter  filter.Params

	mu       sync.Mutex
	sessions map[*session]struct{}
}

// NewFramesHandler creates a FramesHandler that builds sessions from the
// given profile and smoothing parameters.
func NewFramesHandler(profile *store.Profile, p filter.Params) *FramesHandler {
	return &FramesHandler{
		profile:  profile,
		filter:   p,
		sessions: make(map[*session]struct{}),
	}
}

// ResetSessions requests a reset of every active analysis session and
// returns how many were signaled. Each session applies its reset before
// the next message it processes.
func (h *FramesHandler) ResetSessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.sessions {
		s.pendingReset.Store(true)
	}
	return len(h.sessions)
}

func (h *FramesHandler) register(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s] = struct{}{}
}

func (h *FramesHandler) unregister(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, s)
}

// ServeHTTP handles WebSocket upgrade requests and runs the session loop.
func (h *FramesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	a, err := analyzer.New(analyzer.Config{
		Counter: h.profile.Counter,
		Posture: h.profile.Posture,
	})
	if err != nil {
		log.Printf("session setup error: %v", err)
		return
	}

	sess := &session{
		analyzer: a,
		smoother: filter.NewSmoother(h.filter),
	}
	h.register(sess)
	defer h.unregister(sess)

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read error: %v", err)
			}
			return
		}

		if sess.pendingReset.CompareAndSwap(true, false) {
			sess.reset()
		}

		reply := h.handleMessage(&msg, sess)
		if err := conn.WriteJSON(reply); err != nil {
			log.Printf("websocket write error: %v", err)
			return
		}
	}
}

// handleMessage processes one client message and returns the reply.
func (h *FramesHandler) handleMessage(msg *clientMessage, sess *session) serverMessage {
	switch msg.Type {
	case msgReset:
		sess.reset()
		return serverMessage{Type: msgReset}

	case msgFrame:
		if msg.Frame == nil {
			return serverMessage{Type: msgError, Error: "frame payload missing"}
		}

		frame, err := pose.FrameFromLandmarks(msg.Frame.Keypoints, msg.Frame.TimestampMs)
		if err != nil {
			return serverMessage{Type: msgError, Error: err.Error()}
		}

		// Low-visibility frames never reach the analysis core.
		if !frame.AllVisible(h.profile.MinVisibility) {
			return serverMessage{Type: msgSkipped, Reason: "low keypoint visibility"}
		}

		smoothed := sess.smoother.Apply(frame)
		result := sess.analyzer.ProcessFrame(smoothed)
		return serverMessage{Type: msgResult, Result: &result}

	default:
		return serverMessage{Type: msgError, Error: "unknown message type"}
	}
}

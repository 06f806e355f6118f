package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ttx-deepfake/internal/app"
	"ttx-deepfake/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 << 10
)

type WSHandler struct {
	live       *app.LiveService
	logger     *slog.Logger
	sendBuffer int
	upgrader   websocket.Upgrader
}

func NewWSHandler(live *app.LiveService, logger *slog.Logger, sendBuffer int) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &WSHandler{
		live:       live,
		logger:     logger,
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type registerPayload struct {
	Role  domain.Role `json:"role"`
	Token string      `json:"token,omitempty"`
}

type sessionRef struct {
	ClientID  domain.ConnectionID `json:"clientId,omitempty"`
	SessionID domain.ConnectionID `json:"sessionId,omitempty"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type connectedPayload struct {
	ID domain.ConnectionID `json:"id"`
}

type eventPayload struct {
	Client domain.ConnectionInfo `json:"client"`
	Event  domain.Envelope       `json:"event"`
}

type clearedPayload struct {
	SessionID domain.ConnectionID `json:"sessionId"`
	Cleared   bool                `json:"cleared"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// connSink is the outbound side of one socket. Router notices are offered
// without blocking; a full buffer drops them.
type connSink struct {
	mu     sync.Mutex
	send   chan outboundMessage
	closed bool
	logger *slog.Logger
}

func newConnSink(buffer int, logger *slog.Logger) *connSink {
	return &connSink{send: make(chan outboundMessage, buffer), logger: logger}
}

func (s *connSink) Deliver(n app.Notice) bool {
	msg, err := noticeMessage(n)
	if err != nil {
		s.logger.Warn("dropping unencodable notice", "type", n.Type, "err", err)
		return false
	}
	return s.offer(msg)
}

func (s *connSink) offer(msg outboundMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- msg:
		return true
	default:
		return false
	}
}

// reply queues a direct response, waiting for room unless the writer is gone.
// Only the read loop calls it, and the read loop is also the only closer.
func (s *connSink) reply(msg outboundMessage, writerDone <-chan struct{}) {
	select {
	case s.send <- msg:
	case <-writerDone:
	}
}

func (s *connSink) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.send)
	}
}

func noticeMessage(n app.Notice) (outboundMessage, error) {
	switch n.Type {
	case app.NoticeEvent:
		env, err := domain.EncodeEvent(n.Event)
		if err != nil {
			return outboundMessage{}, err
		}
		return outboundMessage{Type: "event", Payload: eventPayload{Client: n.Client, Event: env}}, nil
	default:
		return outboundMessage{Type: string(n.Type), Payload: n.Client}, nil
	}
}

// ServeWS upgrades HTTP requests to websockets and wires them into the live service.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	sink := newConnSink(h.sendBuffer, h.logger)
	info := h.live.Connect(sink)
	id := info.ID
	log := h.logger.With("connection", id)
	log.Debug("ws connected", "remote", r.RemoteAddr)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range sink.send {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("ws write error", "err", err)
				return
			}
		}
	}()

	sink.reply(outboundMessage{Type: "connected", Payload: connectedPayload{ID: id}}, writerDone)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("ws read error", "err", err)
			}
			break
		}
		if reply, ok := h.dispatch(id, inbound); ok {
			sink.reply(reply, writerDone)
		}
	}

	h.live.Disconnect(id)
	sink.close()
	<-writerDone
	log.Debug("ws closed")
}

// dispatch handles one inbound message. Messages are processed in arrival
// order, so a connection's events reach the ledger and the router in order.
func (h *WSHandler) dispatch(id domain.ConnectionID, in inboundMessage) (outboundMessage, bool) {
	switch in.Type {
	case "register":
		var p registerPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return errorMessage("invalid register payload"), true
		}
		info, err := h.live.Register(id, p.Role, p.Token)
		if err != nil {
			return errorMessage(err.Error()), true
		}
		return outboundMessage{Type: "registered", Payload: info}, true

	case "event":
		var env domain.Envelope
		if err := json.Unmarshal(in.Payload, &env); err != nil {
			return errorMessage("invalid event payload"), true
		}
		if env.Timestamp.IsZero() {
			env.Timestamp = time.Now().UTC()
		}
		ev, err := domain.DecodeEvent(env)
		if err != nil {
			return errorMessage(err.Error()), true
		}
		h.live.HandleEvent(id, ev)
		return outboundMessage{}, false

	case "ping":
		h.live.Touch(id)
		return outboundMessage{Type: "pong"}, true
	}

	if !h.live.IsAdmin(id) {
		if isAdminOnly(in.Type) {
			return errorMessage(domain.ErrNotAdmin.Error()), true
		}
		return errorMessage("unsupported message type"), true
	}

	switch in.Type {
	case "list":
		h.live.Touch(id)
		return outboundMessage{Type: "clients", Payload: h.live.Clients()}, true

	case "watch":
		var ref sessionRef
		if err := json.Unmarshal(in.Payload, &ref); err != nil || ref.ClientID == "" {
			return errorMessage("invalid watch payload"), true
		}
		view, err := h.live.Watch(id, ref.ClientID)
		if err != nil {
			return errorMessage(err.Error()), true
		}
		return outboundMessage{Type: "watching", Payload: view}, true

	case "unwatch":
		h.live.Unwatch(id)
		return outboundMessage{Type: "watching", Payload: nil}, true

	case "session":
		var ref sessionRef
		if err := json.Unmarshal(in.Payload, &ref); err != nil || ref.SessionID == "" {
			return errorMessage("invalid session payload"), true
		}
		h.live.Touch(id)
		view, err := h.live.Session(ref.SessionID)
		if err != nil {
			return errorMessage(err.Error()), true
		}
		return outboundMessage{Type: "session", Payload: view}, true

	case "clear":
		var ref sessionRef
		if err := json.Unmarshal(in.Payload, &ref); err != nil || ref.SessionID == "" {
			return errorMessage("invalid clear payload"), true
		}
		h.live.Touch(id)
		return outboundMessage{Type: "cleared", Payload: clearedPayload{SessionID: ref.SessionID, Cleared: h.live.Clear(ref.SessionID)}}, true
	}
	return errorMessage("unsupported message type"), true
}

func isAdminOnly(typ string) bool {
	switch typ {
	case "list", "watch", "unwatch", "session", "clear":
		return true
	}
	return false
}

func errorMessage(msg string) outboundMessage {
	return outboundMessage{Type: "error", Payload: errorPayload{Message: msg}}
}

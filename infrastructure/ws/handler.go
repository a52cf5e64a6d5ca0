package ws

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"nextext/auth"
	"nextext/contract"
	"nextext/domain"
	"nextext/errors"
	"nextext/observability"
	"slices"
	"time"

	"github.com/gorilla/websocket"
)

// hardLimitFactor scales MaxFrameBytes into the read limit past which the peer is cut off.
// Frames between the two limits are drained and dropped.
const hardLimitFactor = 16

// Settings tunes transport behaviour for every connection.
type Settings struct {
	BufferSize     int           // outbound queue length per connection
	WriteTimeout   time.Duration // deadline of a single socket write
	PongWait       time.Duration // max silence from the peer, zero disables it
	PingPeriod     time.Duration // zero disables pings
	PersistTimeout time.Duration // bound of one gateway Create
	MaxFrameBytes  int64         // larger frames are dropped, zero disables the check
	AllowedOrigins []string // empty or "*" allows any origin
}

// Handler upgrades HTTP requests to chat sessions.
// Each session runs its own read loop in the serving goroutine:
// authenticate, register, then persist and fan out every valid frame in arrival order.
type Handler struct {
	log       *slog.Logger
	validator contract.IAuthValidator
	registry  contract.ISessionRegistry
	gateway   contract.IMessageGateway
	parser    domain.FrameParser
	monitor   *observability.Monitor
	settings  Settings
	upgrader  websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHandler(
	log *slog.Logger,
	validator contract.IAuthValidator,
	registry contract.ISessionRegistry,
	gateway contract.IMessageGateway,
	parser domain.FrameParser,
	monitor *observability.Monitor,
	settings Settings,
) *Handler {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handler{
		log:       log,
		validator: validator,
		registry:  registry,
		gateway:   gateway,
		parser:    parser,
		monitor:   monitor,
		settings:  settings,
		ctx:       ctx,
		cancel:    cancel,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Shutdown closes every live session with "going away" and stops pending persistence and delivery.
func (h *Handler) Shutdown() {
	h.cancel()
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = auth.BearerToken(r.Header.Get("Authorization"))
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader already answered with an HTTP error
		h.log.Debug("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	result := h.validator.Validate(r.Context(), token)
	user, ok := result.Identity()
	if !ok {
		h.reject(ws, result.Reason())
		return
	}

	conn := NewConnection(ws, user, h.settings, h.log)
	h.registry.Connect(user, conn)
	h.monitor.IncrConnectionsOpened()
	conn.log.Info("Session opened", "remote", r.RemoteAddr)

	go conn.writePump()
	h.serve(conn)
}

// reject refuses the session with a policy violation; the registry is never touched.
func (h *Handler) reject(ws *websocket.Conn, reason domain.RejectReason) {
	h.monitor.IncrHandshakesRejected()
	h.log.Info("Handshake rejected", "reason", reason)
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, string(reason))
	_ = ws.WriteControl(websocket.CloseMessage, msg, controlDeadline(h.settings.WriteTimeout))
	_ = ws.Close()
}

// serve is the receive loop. It returns on the first read error, and teardown runs exactly once.
func (h *Handler) serve(conn *Connection) {
	stop := context.AfterFunc(h.ctx, func() {
		_ = conn.CloseWith(websocket.CloseGoingAway, "server shutting down")
	})
	defer func() {
		stop()
		h.teardown(conn)
	}()

	if h.settings.MaxFrameBytes > 0 {
		conn.ws.SetReadLimit(h.settings.MaxFrameBytes * hardLimitFactor)
	}
	if h.settings.PongWait > 0 {
		_ = conn.ws.SetReadDeadline(time.Now().Add(h.settings.PongWait))
		conn.ws.SetPongHandler(func(string) error {
			return conn.ws.SetReadDeadline(time.Now().Add(h.settings.PongWait))
		})
	}

	for {
		kind, data, err := h.readFrame(conn)
		if err != nil && !stderrors.Is(err, errors.ErrInvalidFrame) {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				conn.log.Debug("Read failed", "error", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		h.monitor.IncrFramesReceived()

		var frame domain.Frame
		if err == nil {
			frame, err = h.parser.Parse(data)
		}
		if err != nil {
			h.monitor.IncrFramesRejected()
			conn.log.Debug("Frame dropped", "error", err)
			continue
		}
		h.dispatch(conn, frame)
	}
}

// dispatch stores the message, then delivers it to the recipient's sessions and the sender's.
// Nothing is delivered when storage fails.
func (h *Handler) dispatch(conn *Connection, frame domain.Frame) {
	ctx := h.ctx
	if h.settings.PersistTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(h.ctx, h.settings.PersistTimeout)
		defer cancel()
	}

	sender := conn.UserID()
	msg, err := h.gateway.Create(ctx, sender, frame.To, frame.Content)
	if err != nil {
		h.monitor.IncrPersistFailures()
		conn.log.Warn("Message not persisted, frame dropped", "recipient_id", frame.To, "error", err)
		return
	}
	h.monitor.IncrMessagesPersisted()

	// A message to oneself reaches each of the sender's sessions twice, once per role.
	delivered := h.registry.SendTo(h.ctx, frame.To, msg)
	delivered += h.registry.SendTo(h.ctx, sender, msg)
	h.monitor.AddDeliveries(delivered)
}

// readFrame reads the next message in full. A message longer than MaxFrameBytes is drained
// and reported as an ErrInvalidFrame; any other error is a transport fault.
func (h *Handler) readFrame(conn *Connection) (int, []byte, error) {
	kind, r, err := conn.ws.NextReader()
	if err != nil {
		return 0, nil, err
	}
	limit := h.settings.MaxFrameBytes
	if limit <= 0 {
		data, err := io.ReadAll(r)
		return kind, data, err
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return kind, nil, err
	}
	if int64(len(data)) > limit {
		if _, err := io.Copy(io.Discard, r); err != nil {
			return kind, nil, err
		}
		return kind, nil, fmt.Errorf("%w: frame exceeds %d bytes", errors.ErrInvalidFrame, limit)
	}
	return kind, data, nil
}

func (h *Handler) teardown(conn *Connection) {
	h.registry.Disconnect(conn.UserID(), conn)
	_ = conn.Close()
	conn.log.Info("Session closed")
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.settings.AllowedOrigins) == 0 || slices.Contains(h.settings.AllowedOrigins, "*") {
		return true
	}
	return slices.Contains(h.settings.AllowedOrigins, origin)
}

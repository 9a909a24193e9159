package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"userconsole/internal/service"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxMsgSize      = 1 << 12 // 4 KB
	defaultInterval = 5 * time.Second
	minInterval     = 1 * time.Second
	maxInterval     = 60 * time.Second
)

const (
	envelopeUsers     = "users"
	envelopeAuthError = "auth_error"
	envelopeError     = "error"
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: sameOrigin,
}

// sameOrigin accepts requests without an Origin header and those whose Origin
// host matches the request host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// liveUsers streams the ranked user list of this admin session, refreshing it
// every interval. The stream ends once the session is no longer signed in.
func (h *Handler) liveUsers(c *gin.Context) {
	interval := h.parseInterval(c)
	filter := c.Query("q")
	sid := sessionID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Reader goroutine to handle control frames and detect disconnects.
	done := make(chan struct{})
	go h.startReader(conn, done)

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	// The first message reuses the state the page was drawn from, so a delete
	// error still on screen is not refetched away.
	ctx := c.Request.Context()
	if !h.sendUsers(ctx, conn, sid, filter, h.snapshot(ctx, sid)) {
		return
	}

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case <-ticker.C:
			if !h.sendUsers(ctx, conn, sid, filter, h.services.Users.Get(sid).Refresh(ctx)) {
				return
			}
		}
	}
}

// parseInterval reads ?interval=10s or ?interval_ms=10000 within bounds,
// falling back to the configured interval.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	inBounds := func(d time.Duration) bool { return d >= minInterval && d <= maxInterval }

	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && inBounds(d) {
			return d
		}
	}

	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && inBounds(time.Duration(v)*time.Millisecond) {
			return time.Duration(v) * time.Millisecond
		}
	}

	return h.opts.LiveInterval
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Debugw("ws_read_closed", "err", err)
			}
			return
		}
	}
}

// sendUsers writes one envelope built from snap. It returns false when the
// connection should be closed.
func (h *Handler) sendUsers(ctx context.Context, conn *websocket.Conn, sid, filter string, snap service.Snapshot) bool {
	var env wsEnvelope
	switch {
	case snap.AuthError():
		env = wsEnvelope{Type: envelopeAuthError}
	case snap.Status == service.StatusError:
		env = wsEnvelope{Type: envelopeError, Error: snap.Error}
	default:
		selfID := h.services.Session(sid).SelfID(ctx)
		env = wsEnvelope{Type: envelopeUsers, Data: service.Rank(snap.Users, filter, selfID)}
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(env); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed", "err", err)
		}
		return false
	}
	return env.Type != envelopeAuthError
}

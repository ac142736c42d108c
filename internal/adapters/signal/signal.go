package signal

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/workhive/workhive/internal/app"
	"github.com/workhive/workhive/internal/auth"
	"github.com/workhive/workhive/internal/config"
	"github.com/workhive/workhive/internal/core"
	"github.com/workhive/workhive/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// Controller owns the websocket side of the coordinator: handshake
// authentication, the read/write pumps and the intent dispatch.
type Controller struct {
	Cfg        *config.Config
	Verifier   auth.Verifier
	Registry   *app.Registry
	Rooms      *app.Rooms
	Relay      *app.Relay
	Calls      *app.Calls
	Interviews *app.Interviews
	Set        *core.RoomSet
	Limiter    *EventRateLimiter
}

type wsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// bearerToken pulls the credential from the Authorization header or, for
// browser clients that cannot set websocket headers, the token query param.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return tok
		}
	}
	return r.URL.Query().Get("token")
}

// HandleWS authenticates the handshake and, only on success, upgrades the
// connection and starts its pumps. A bad token never reaches the event loop.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	identity, err := ctl.Verifier.Verify(bearerToken(c.Request))
	if err != nil {
		log.Warn().Str("module", "signal").Err(err).Msg("handshake rejected")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	uid := domain.UserID(identity.UserID)

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &wsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 64),
	}
	cid := core.ConnID(uuid.NewString())
	log.Info().Str("module", "signal").Str("cid", string(cid)).Str("user", string(uid)).Msg("new WS connection")

	first := ctl.Registry.Bind(cid, uid)
	ctl.Set.Join(core.UserRoom(uid), cid, conn)
	ctl.Set.Join(core.PresenceRoom, cid, conn)
	if first {
		ctl.broadcastPresence(cid, uid, domain.StatusOnline)
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, cid, uid, conn)
		ctl.onDisconnect(cid, uid)
	}()
}

// onDisconnect tears down everything the transport leaves behind: room
// memberships, interview departure notices and the presence edge.
func (ctl *Controller) onDisconnect(cid core.ConnID, uid domain.UserID) {
	left := ctl.Set.LeaveAll(cid)
	for _, name := range left {
		ws, roomID, ok := core.ParseInterviewRoom(name)
		if !ok {
			continue
		}
		ctl.emit(name, struct {
			Type        string             `json:"type"`
			WorkspaceID domain.WorkspaceID `json:"workspaceId"`
			RoomID      string             `json:"roomId"`
			UserID      domain.UserID      `json:"userId"`
		}{"interview-participant-left", ws, roomID, uid})
		ctl.Interviews.Departed(name)
	}
	if _, last, ok := ctl.Registry.Unbind(cid); ok && last {
		ctl.broadcastPresence(cid, uid, domain.StatusOffline)
	}
}

// broadcastPresence announces a presence transition to every connection.
func (ctl *Controller) broadcastPresence(from core.ConnID, uid domain.UserID, status string) {
	ctl.broadcastRoom(core.PresenceRoom, from, struct {
		Type   string        `json:"type"`
		UserID domain.UserID `json:"userId"`
		Status string        `json:"status"`
	}{"user-status-changed", uid, status})

	edge := "user-online"
	if status == domain.StatusOffline {
		edge = "user-offline"
	}
	ctl.broadcastRoom(core.PresenceRoom, from, struct {
		Type   string        `json:"type"`
		UserID domain.UserID `json:"userId"`
	}{edge, uid})
}

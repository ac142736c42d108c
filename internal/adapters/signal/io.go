package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/workhive/workhive/internal/app"
	"github.com/workhive/workhive/internal/core"
	"github.com/workhive/workhive/internal/domain"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *wsSignalConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cid core.ConnID, uid domain.UserID, c *wsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("cid", string(cid)).Msg("readPump closing")
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("readPump read error")
				}
				return
			}
			ctl.dispatch(ctx, cid, uid, c, data)
		}
	}
}

// envelope is the common prefix of every inbound intent. seq, when present,
// asks for exactly one acknowledgement frame carrying the same seq.
type envelope struct {
	Type string `json:"type"`
	Seq  uint64 `json:"seq"`
}

// dispatch validates the envelope and routes the intent. No handler error
// or panic ever escapes: everything becomes a structured nack to the caller
// and nothing is ever surfaced to a room broadcast.
func (ctl *Controller) dispatch(ctx context.Context, cid core.ConnID, uid domain.UserID, c core.SignalConnection, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("bad json")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Str("module", "signal").Str("type", env.Type).Msg("handler panic")
			ctl.nack(c, env.Seq, app.Internalf("internal error"))
		}
	}()

	if ctl.Limiter != nil && !ctl.Limiter.Allow(uid) {
		ctl.nack(c, env.Seq, app.Exhaustedf("too many events"))
		return
	}

	switch env.Type {
	case "ping":
		ctl.handlePing(c)
	case "join-workspace":
		ctl.handleJoinWorkspace(ctx, cid, uid, c, env.Seq, data)
	case "leave-workspace":
		ctl.handleLeaveWorkspace(cid, c, env.Seq, data)
	case "join-channel":
		ctl.handleJoinChannel(ctx, cid, uid, c, env.Seq, data)
	case "leave-channel":
		ctl.handleLeaveChannel(cid, c, env.Seq, data)
	case "send-message":
		ctl.handleSendMessage(ctx, cid, uid, c, env.Seq, data)
	case "edit-message":
		ctl.handleEditMessage(ctx, uid, c, env.Seq, data)
	case "delete-message":
		ctl.handleDeleteMessage(ctx, uid, c, env.Seq, data)
	case "react-message":
		ctl.handleReactMessage(ctx, uid, c, env.Seq, data)
	case "read-message":
		ctl.handleReadMessage(ctx, uid, c, env.Seq, data)
	case "pin-message":
		ctl.handlePinMessage(ctx, uid, c, env.Seq, data)
	case "typing":
		ctl.handleTyping(cid, uid, c, env.Seq, data, true)
	case "stop-typing":
		ctl.handleTyping(cid, uid, c, env.Seq, data, false)
	case "user-online":
		ctl.handleUserOnline(uid, c, env.Seq, data)
	case "call-start":
		ctl.handleCallStart(ctx, cid, uid, c, env.Seq, data)
	case "call-accept":
		ctl.handleCallAccept(cid, uid, c, env.Seq, data)
	case "call-reject":
		ctl.handleCallTerminate(uid, c, env.Seq, data, "call-rejected")
	case "call-end":
		ctl.handleCallTerminate(uid, c, env.Seq, data, "call-ended")
	case "call-signal":
		ctl.handleCallSignal(cid, uid, c, env.Seq, data)
	case "interview-join":
		ctl.handleInterviewJoin(ctx, cid, uid, c, env.Seq, data)
	case "interview-leave":
		ctl.handleInterviewLeave(cid, uid, c, env.Seq, data)
	case "interview-signal":
		ctl.handleInterviewSignal(cid, uid, c, env.Seq, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown intent")
		ctl.nack(c, env.Seq, app.Invalidf("unknown intent %q", env.Type))
	}
}

func (ctl *Controller) handlePing(c core.SignalConnection) {
	ctl.sendJSON(c, struct {
		Type string `json:"type"`
	}{"pong"})
}

// ack replies {ok:true} plus any handler-specific fields.
func (ctl *Controller) ack(c core.SignalConnection, seq uint64, fields map[string]any) {
	if seq == 0 {
		return
	}
	out := map[string]any{"type": "ack", "seq": seq, "ok": true}
	for k, v := range fields {
		out[k] = v
	}
	ctl.sendJSON(c, out)
}

// nack replies {ok:false, message} with the taxonomy code for the client.
func (ctl *Controller) nack(c core.SignalConnection, seq uint64, err error) {
	if seq == 0 {
		return
	}
	ctl.sendJSON(c, map[string]any{
		"type":    "ack",
		"seq":     seq,
		"ok":      false,
		"code":    app.CodeOf(err),
		"message": err.Error(),
	})
}

func (ctl *Controller) sendJSON(c core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

// broadcastRoom fans v out to the room, excluding `from` ("" for nobody).
func (ctl *Controller) broadcastRoom(name core.RoomName, from core.ConnID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("broadcast marshal")
		return
	}
	ctl.Set.Broadcast(name, from, b)
}

// emit fans v out to every member of the room.
func (ctl *Controller) emit(name core.RoomName, v any) {
	ctl.broadcastRoom(name, "", v)
}

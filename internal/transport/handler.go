// Package transport is the WebSocket/HTTP boundary between a client socket
// and the Hub facade: it upgrades connections, decodes the inbound wire
// vocabulary (spec §6.1), and dispatches each event to the matching Hub
// method. Grounded on the teacher's internal/net/http_handlers.go
// (ServeMux construction, /health and /diagnostics routes, the permissive
// CheckOrigin upgrader) and internal/net/ws/handler.go (the inline
// read-loop dispatching on a Type discriminator field).
package transport

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"arenaserver"
	"arenaserver/internal/protocol"
)

// Config holds the knobs the teacher's HTTPHandlerConfig exposes, trimmed to
// what this spec's transport actually needs (no static client directory:
// this repo serves only the game socket and two diagnostic routes).
type Config struct {
	Logger *log.Logger
}

const (
	readLimit  = 8192
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// NewHandler builds the process's http.Handler: /health, /diagnostics, and
// /ws, mirroring the teacher's NewHTTPHandler shape with a multi-room Hub in
// place of a single flat world.
func NewHandler(hub *arenaserver.Hub, cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w http.ResponseWriter, r *http.Request) {
		data, err := json.Marshal(struct {
			Status     string                         `json:"status"`
			ServerTime int64                          `json:"serverTime"`
			TickRate   int                            `json:"tickRate"`
			Snapshot   arenaserver.DiagnosticsSnapshot `json:"snapshot"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			TickRate:   hub.TickRate(),
			Snapshot:   hub.Diagnostics(),
		})
		if err != nil {
			httpError(w, "failed to encode", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Printf("ws upgrade failed: %v", err)
			return
		}
		serveConn(hub, conn, sourceIP(r), logger)
	})

	return mux
}

func sourceIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func httpError(w http.ResponseWriter, msg string, status int) {
	http.Error(w, msg, status)
}

// serveConn owns one connection's full lifecycle: register with the Hub,
// run a heartbeat ping ticker alongside the blocking read loop, and
// unregister on any read error, matching the teacher's per-connection
// goroutine-plus-ticker shape in ws/handler.go.
func serveConn(hub *arenaserver.Hub, conn *websocket.Conn, remoteIP string, logger *log.Logger) {
	conn.SetReadLimit(readLimit)
	connID, meta := hub.Connect(conn, remoteIP)
	defer hub.Disconnect(connID)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	stopPing := make(chan struct{})
	go pingLoop(hub, connID, conn, stopPing)
	defer close(stopPing)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		dispatch(hub, connID, meta, raw, logger)
	}
}

func pingLoop(hub *arenaserver.Hub, connID string, conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			hub.SendHeartbeat(connID)
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// dispatch decodes the outer envelope, re-decodes the payload by Type, and
// routes to the matching Hub method, following the teacher's
// clientMessage-dispatch-by-Type convention in ws/handler.go and
// http_handlers.go.
func dispatch(hub *arenaserver.Hub, connID string, m *arenaserver.ConnMeta, raw []byte, logger *log.Logger) {
	var envelope protocol.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		logger.Printf("discarding malformed frame from %s: %v", connID, err)
		return
	}

	switch envelope.Type {
	case protocol.EventRegisterPlayer:
		var msg protocol.RegisterPlayer
		if decode(raw, &msg, logger) {
			hub.HandleRegisterPlayer(connID, m, msg)
		}
	case protocol.EventUpdateName:
		var msg protocol.UpdateName
		if decode(raw, &msg, logger) {
			hub.HandleUpdateName(connID, m, msg)
		}
	case protocol.EventCreateRoom:
		var msg protocol.CreateRoom
		if decode(raw, &msg, logger) {
			hub.HandleCreateRoom(connID, m, msg)
		}
	case protocol.EventJoinRoom:
		var msg protocol.JoinRoom
		if decode(raw, &msg, logger) {
			hub.HandleJoinRoom(connID, m, msg)
		}
	case protocol.EventPlayerReady:
		var msg protocol.PlayerReady
		if decode(raw, &msg, logger) {
			hub.HandlePlayerReady(connID, m, msg)
		}
	case protocol.EventToggleReady:
		hub.HandleToggleReady(connID, m)
	case protocol.EventStartGame:
		hub.HandleStartGame(connID, m)
	case protocol.EventPlayerInput:
		var msg protocol.PlayerInput
		if decode(raw, &msg, logger) {
			hub.HandlePlayerInput(connID, m, msg)
		}
	case protocol.EventFireProjectile:
		var msg protocol.FireProjectile
		if decode(raw, &msg, logger) {
			hub.HandleFireProjectile(connID, m, msg)
		}
	case protocol.EventLeaveRoom:
		hub.HandleLeaveRoom(connID, m)
	case protocol.EventRequestLobbyState:
		hub.HandleRequestLobbyState(connID, m)
	case protocol.EventReturnToLobby:
		hub.HandleReturnToLobby(connID, m)
	case protocol.EventAckMatchResults:
		var msg protocol.AckMatchResults
		if decode(raw, &msg, logger) {
			hub.HandleAckMatchResults(m, msg)
		}
	case protocol.EventKickPlayer:
		var msg protocol.KickPlayer
		if decode(raw, &msg, logger) {
			hub.HandleKickPlayer(connID, m, msg)
		}
	case protocol.EventClientPing:
		var msg protocol.ClientPing
		if decode(raw, &msg, logger) {
			hub.HandleClientPing(connID, msg)
		}
	case protocol.EventFriendRequest:
		var msg protocol.FriendRequest
		if decode(raw, &msg, logger) {
			hub.HandleFriendRequest(connID, m, msg)
		}
	case protocol.EventFriendRespond:
		var msg protocol.FriendRespond
		if decode(raw, &msg, logger) {
			hub.HandleFriendRespond(connID, m, msg)
		}
	case protocol.EventFriendRemove:
		var msg protocol.FriendRemove
		if decode(raw, &msg, logger) {
			hub.HandleFriendRemove(connID, m, msg)
		}
	case protocol.EventPartyInvite:
		var msg protocol.PartyInvite
		if decode(raw, &msg, logger) {
			hub.HandlePartyInvite(connID, m, msg)
		}
	case protocol.EventPartyInviteRespond:
		var msg protocol.PartyInviteRespond
		if decode(raw, &msg, logger) {
			hub.HandlePartyInviteRespond(connID, m, msg)
		}
	case protocol.EventPartyLeave:
		hub.HandlePartyLeave(connID, m)
	case protocol.EventAdsWatched:
		var msg protocol.AdsWatched
		if decode(raw, &msg, logger) {
			hub.HandleAdsWatched(connID, m, msg)
		}
	default:
		logger.Printf("unhandled event type %q from %s", envelope.Type, connID)
	}
}

func decode(raw []byte, target any, logger *log.Logger) bool {
	if err := json.Unmarshal(raw, target); err != nil {
		logger.Printf("discarding malformed payload: %v", err)
		return false
	}
	return true
}

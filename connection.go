package arenaserver

import (
	"sync"

	"github.com/gorilla/websocket"

	"arenaserver/internal/protocol"
)

// subscriber wraps one live websocket connection with its own mutex so a
// room's broadcast goroutine and the connection's own read loop never race
// writing to a single *websocket.Conn, mirroring the teacher's hub.go
// subscriber type.
type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) writeJSON(eventType string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(protocol.OutEnvelope{Type: eventType, Data: payload})
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.Close()
}

// ConnMeta is the per-connection metadata slot spec §6.1 asks the transport
// layer to own: which device/profile/room/player this socket currently
// speaks for. Reconnection rebinds these fields onto a fresh connID without
// touching the room-side PlayerKey bookkeeping.
type ConnMeta struct {
	mu          sync.Mutex
	sourceIP    string
	deviceID    string
	profileID   string
	displayName string
	roomCode    string
	playerKey   string
}

func (m *ConnMeta) snapshot() ConnMeta {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ConnMeta{
		sourceIP: m.sourceIP, deviceID: m.deviceID, profileID: m.profileID,
		displayName: m.displayName, roomCode: m.roomCode, playerKey: m.playerKey,
	}
}

func (m *ConnMeta) setRoom(roomCode, playerKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roomCode = roomCode
	m.playerKey = playerKey
}

func (m *ConnMeta) clearRoom() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roomCode = ""
	m.playerKey = ""
}

// registry owns every live connection's subscriber and metadata, keyed by a
// server-generated connID, and is the Hub's implementation of room.Emitter.
// Grounded on the teacher's single flat subscribers map (hub.go), split
// into a dedicated type since this spec's Hub juggles several other
// collaborators alongside it.
type registry struct {
	mu   sync.RWMutex
	subs map[string]*subscriber
	meta map[string]*ConnMeta
}

func newRegistry() *registry {
	return &registry{subs: make(map[string]*subscriber), meta: make(map[string]*ConnMeta)}
}

func (r *registry) add(connID string, conn *websocket.Conn) *ConnMeta {
	m := &ConnMeta{}
	r.mu.Lock()
	r.subs[connID] = &subscriber{conn: conn}
	r.meta[connID] = m
	r.mu.Unlock()
	return m
}

func (r *registry) remove(connID string) {
	r.mu.Lock()
	sub := r.subs[connID]
	delete(r.subs, connID)
	delete(r.meta, connID)
	r.mu.Unlock()
	if sub != nil {
		sub.close()
	}
}

func (r *registry) metaFor(connID string) (*ConnMeta, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.meta[connID]
	return m, ok
}

func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Send satisfies room.Emitter: it looks up connID's subscriber and writes
// the event, silently dropping it if the connection is already gone — a
// room broadcast always races a possible disconnect.
func (r *registry) Send(connID string, eventType string, payload any) {
	r.mu.RLock()
	sub, ok := r.subs[connID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	sub.writeJSON(eventType, payload)
}

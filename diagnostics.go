package arenaserver

// DiagnosticsSnapshot is the payload served by the transport layer's
// /diagnostics route, grounded on the teacher's hub.DiagnosticsSnapshot
// (http_handlers.go) generalized from a single world's player count to a
// room-indexed summary.
type DiagnosticsSnapshot struct {
	Connections int    `json:"connections"`
	Rooms       int    `json:"rooms"`
	LogEvents   uint64 `json:"logEventsTotal"`
	LogDropped  uint64 `json:"logEventsDropped"`
}

func (h *Hub) Diagnostics() DiagnosticsSnapshot {
	stats := h.router.Stats()
	return DiagnosticsSnapshot{
		Connections: h.registry.count(),
		Rooms:       h.rooms.Count(),
		LogEvents:   stats.EventsTotal,
		LogDropped:  stats.DroppedTotal,
	}
}

// TickRate reports the configured TICK_RATE value. Rooms do not read it:
// every room ticks at room.TickHz.
func (h *Hub) TickRate() int {
	return h.cfg.TickRate
}

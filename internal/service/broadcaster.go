package service

// Broadcaster pushes dashboard events to connected websocket clients.
// The websocket hub implements it; services stay decoupled from transport.
type Broadcaster interface {
	BroadcastEvent(event string, payload interface{})
}

// NopBroadcaster discards every event. Used in tests and the seed tool.
type NopBroadcaster struct{}

func (NopBroadcaster) BroadcastEvent(string, interface{}) {}

package notify

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bobabar/api/internal/ws"
)

var ErrHubFull = errors.New("websocket hub buffer full")

// Broadcaster is satisfied by *ws.Hub.
type Broadcaster interface {
	Broadcast(room string, event ws.Event) bool
}

// HubPublisher pushes events to the admin live feed and to the order's own room.
type HubPublisher struct {
	hub Broadcaster
}

func NewHubPublisher(hub Broadcaster) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) Publish(_ context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := ws.Event{Type: event.Type, Payload: payload}

	ok := p.hub.Broadcast(ws.AdminRoom, msg)
	if !p.hub.Broadcast(ws.OrderRoom(event.OrderNumber), msg) {
		ok = false
	}
	if !ok {
		return ErrHubFull
	}
	return nil
}

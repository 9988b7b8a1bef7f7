package ws

import (
	"encoding/json"
	"testing"
	"time"
)

func newTestClient(hub *Hub) *Client {
	return &Client{hub: hub, send: make(chan []byte, 4)}
}

func recv(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestHubBroadcastsToAllClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c1 := newTestClient(hub)
	c2 := newTestClient(hub)
	hub.register <- c1
	hub.register <- c2

	hub.Publish("order.created", map[string]string{"id": "abc"})

	for _, c := range []*Client{c1, c2} {
		var event Event
		if err := json.Unmarshal(recv(t, c), &event); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if event.Type != "order.created" {
			t.Errorf("type = %s, want order.created", event.Type)
		}

		var payload map[string]string
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload["id"] != "abc" {
			t.Errorf("payload = %v", payload)
		}
	}
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := newTestClient(hub)
	hub.register <- c
	hub.unregister <- c

	// The hub closes the send channel on unregister.
	select {
	case _, ok := <-c.send:
		if ok {
			t.Fatal("received a message after unregister")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	slow := &Client{hub: hub, send: make(chan []byte)} // no buffer, never read
	hub.register <- slow

	// First broadcast finds the client's buffer full and evicts it.
	hub.Publish("order.updated", map[string]string{"id": "1"})

	select {
	case _, ok := <-slow.send:
		if ok {
			t.Fatal("slow client received a message")
		}
	case <-time.After(time.Second):
		t.Fatal("slow client was not evicted")
	}
}

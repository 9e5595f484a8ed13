package websocket

import (
	"sync"
	"testing"
	"time"
)

func newTestClient(h *Hub, shareCode string) *Client {
	return &Client{
		hub:       h,
		send:      make(chan []byte, 1),
		shareCode: shareCode,
		done:      make(chan struct{}),
	}
}

func TestBroadcastDuringUnregisterDoesNotPanic(t *testing.T) {
	h := NewHub()
	go h.Run()

	const n = 200
	clients := make([]*Client, n)
	for i := range clients {
		clients[i] = newTestClient(h, "ROOM42")
		h.register <- clients[i]
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			h.BroadcastMessage("room42", "ranking_updated", map[string]int{"round": i})
		}
	}()
	go func() {
		defer wg.Done()
		for _, c := range clients {
			h.unregister <- c
		}
	}()
	wg.Wait()

	for _, c := range clients {
		select {
		case <-c.done:
		case <-time.After(time.Second):
			t.Fatal("client was not torn down")
		}
	}
}

func TestBroadcastReachesRoomMembers(t *testing.T) {
	h := NewHub()
	go h.Run()

	member := newTestClient(h, "AB12CD")
	other := newTestClient(h, "ZZ99ZZ")
	h.register <- member
	h.register <- other

	// Drain the viewer_count events emitted on join.
	<-member.send
	<-other.send

	h.BroadcastMessage("ab12cd", "participant_joined", map[string]string{"display_name": "Ana"})

	select {
	case payload := <-member.send:
		if len(payload) == 0 {
			t.Fatal("empty payload")
		}
	case <-time.After(time.Second):
		t.Fatal("room member did not receive the broadcast")
	}

	select {
	case <-other.send:
		t.Fatal("broadcast leaked into another room")
	default:
	}
}

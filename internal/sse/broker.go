// Package sse implements a Server-Sent Events broker for real-time updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/telenote/internal/models"
)

// Event represents an SSE event. Events with an OwnerID reach only that
// owner's streams; zero broadcasts to everyone.
type Event struct {
	Type    string `json:"type"`
	Data    any    `json:"data"`
	OwnerID int64  `json:"-"`
}

// NoteEventData is the payload of note.* events.
type NoteEventData struct {
	NoteID int64 `json:"note_id"`
}

// LinkEventData is the payload of link.* events.
type LinkEventData struct {
	SourceNoteID int64           `json:"source_note_id"`
	TargetNoteID int64           `json:"target_note_id"`
	LinkType     models.LinkType `json:"link_type"`
}

type subscription struct {
	ch      chan []byte
	ownerID int64
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients + per-owner graph throttle timestamps). Public methods communicate
// with this loop through channels, so no mutexes are required.
type Broker struct {
	graphMin time.Duration

	subscribeCh   chan subscription
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	changeCh      chan Event
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker with the given graph throttle interval.
func NewBroker(graphThrottle time.Duration) *Broker {
	if graphThrottle <= 0 {
		graphThrottle = 2 * time.Second
	}

	b := &Broker{
		graphMin:      graphThrottle,
		subscribeCh:   make(chan subscription),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		changeCh:      make(chan Event, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]int64)
	lastGraph := make(map[int64]time.Time)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch, owner := range clients {
			if event.OwnerID != 0 && owner != event.OwnerID {
				continue
			}
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case sub := <-b.subscribeCh:
			clients[sub.ch] = sub.ownerID

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case event := <-b.changeCh:
			broadcast(event)

			now := time.Now()
			if now.Sub(lastGraph[event.OwnerID]) >= b.graphMin {
				lastGraph[event.OwnerID] = now
				broadcast(Event{Type: "graph.updated", Data: map[string]string{}, OwnerID: event.OwnerID})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client receiving ownerID's events and returns its channel.
func (b *Broker) Subscribe(ownerID int64) chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscription{ch: ch, ownerID: ownerID}:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to the matching clients.
func (b *Broker) Publish(event Event) {
	b.send(b.publishCh, event)
}

// PublishNoteEvent publishes note.<kind> to the note's owner, followed by a
// throttled graph.updated.
func (b *Broker) PublishNoteEvent(kind string, noteID, ownerID int64) {
	b.send(b.changeCh, Event{Type: "note." + kind, Data: NoteEventData{NoteID: noteID}, OwnerID: ownerID})
}

// PublishLinkEvent publishes link.<kind> to the owner, followed by a
// throttled graph.updated.
func (b *Broker) PublishLinkEvent(kind string, ownerID int64, l models.NoteLink) {
	b.send(b.changeCh, Event{
		Type:    "link." + kind,
		Data:    LinkEventData{SourceNoteID: l.SourceNoteID, TargetNoteID: l.TargetNoteID, LinkType: l.LinkType},
		OwnerID: ownerID,
	})
}

func (b *Broker) send(ch chan Event, event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case ch <- event:
	case <-b.stopped:
	}
}

// Stream serves the event stream of ownerID until the request ends
// (GET /api/events).
func (b *Broker) Stream(w http.ResponseWriter, r *http.Request, ownerID int64) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe(ownerID)
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}

// Package sse implements a Server-Sent Events broker that pushes session
// and sidebar changes to connected browsers.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types.
const (
	EventSidebarUpdated = "sidebar.updated"
	EventLandingSet     = "landing.set"
	EventSessionChanged = "session.changed"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Broker manages SSE client connections and broadcasts events.
//
// A single event loop goroutine owns the client set and the sidebar
// throttle state; public methods talk to it over channels.
//
// sidebar.updated is throttled: at most one per interval, with a trailing
// event when updates arrived during the quiet period.
type Broker struct {
	sidebarMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	sidebarCh     chan struct{}
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker with the given sidebar throttle interval.
func NewBroker(sidebarThrottle time.Duration) *Broker {
	if sidebarThrottle <= 0 {
		sidebarThrottle = 2 * time.Second
	}

	b := &Broker{
		sidebarMin:    sidebarThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		sidebarCh:     make(chan struct{}, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastSidebar time.Time
	var trailing *time.Timer
	var trailingCh <-chan time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	emitSidebar := func() {
		lastSidebar = time.Now()
		broadcast(Event{Type: EventSidebarUpdated, Data: map[string]string{}})
	}

	for {
		select {
		case <-b.stopCh:
			if trailing != nil {
				trailing.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case <-b.sidebarCh:
			wait := b.sidebarMin - time.Since(lastSidebar)
			if wait <= 0 {
				emitSidebar()
				continue
			}
			if trailingCh == nil {
				trailing = time.NewTimer(wait)
				trailingCh = trailing.C
			}

		case <-trailingCh:
			trailingCh = nil
			emitSidebar()

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

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
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

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishSidebarUpdate announces a changed sidebar tree, subject to the
// throttle.
func (b *Broker) PublishSidebarUpdate() {
	if b.closed.Load() {
		return
	}
	select {
	case b.sidebarCh <- struct{}{}:
	case <-b.stopped:
	}
}

// PublishLanding announces the default landing notebook.
func (b *Broker) PublishLanding(noteID string) {
	b.Publish(Event{Type: EventLandingSet, Data: map[string]string{"noteId": noteID}})
}

// PublishSession announces a change of the authenticated flag.
func (b *Broker) PublishSession(authenticated bool) {
	b.Publish(Event{Type: EventSessionChanged, Data: map[string]bool{"authenticated": authenticated}})
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	ch := b.Subscribe()
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

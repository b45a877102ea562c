package engine

import (
	"context"

	"vitured/pkg/protocol"
)

type Hub struct {
	broadcast  chan protocol.Packet
	register   chan chan protocol.Packet
	unregister chan chan protocol.Packet
	clients    map[chan protocol.Packet]struct{}
	clientBuf  int
	done       chan struct{}
}

type Option func(*Hub)

func WithBroadcastBuffer(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.broadcast = make(chan protocol.Packet, size)
		}
	}
}

func WithClientBuffer(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.clientBuf = size
		}
	}
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		broadcast:  make(chan protocol.Packet, 256),
		register:   make(chan chan protocol.Packet),
		unregister: make(chan chan protocol.Packet),
		clients:    make(map[chan protocol.Packet]struct{}),
		clientBuf:  100,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for ch := range h.clients {
				close(ch)
			}
			return
		case ch := <-h.register:
			h.clients[ch] = struct{}{}
		case ch := <-h.unregister:
			if _, ok := h.clients[ch]; ok {
				delete(h.clients, ch)
				close(ch)
			}
		case packet := <-h.broadcast:
			for ch := range h.clients {
				select {
				case ch <- packet:
				default:
				}
			}
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) Subscribe() chan protocol.Packet {
	return h.SubscribeWithBuffer(h.clientBuf)
}

// SubscribeWithBuffer returns a closed channel if the hub already stopped.
func (h *Hub) SubscribeWithBuffer(size int) chan protocol.Packet {
	if size <= 0 {
		size = h.clientBuf
	}
	ch := make(chan protocol.Packet, size)
	select {
	case h.register <- ch:
	case <-h.done:
		close(ch)
	}
	return ch
}

func (h *Hub) Unsubscribe(ch chan protocol.Packet) {
	select {
	case h.unregister <- ch:
	case <-h.done:
	}
}

// Publish blocks while the broadcast buffer is full; it never blocks once
// the hub has stopped. SDK callbacks publish from their own threads.
func (h *Hub) Publish(packet protocol.Packet) {
	select {
	case h.broadcast <- packet:
	case <-h.done:
	}
}

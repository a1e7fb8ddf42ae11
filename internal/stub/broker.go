// Package stub is an in-memory implementation of the jille backend
// contract, used for local development and end-to-end testing of the
// client. It serves the same REST surface, token rotation rules, and
// push stream the real backend does, with no external dependencies.
package stub

import (
	"context"

	"github.com/winnerx0/jille-client/internal/model"
)

// Broker fans out push events to every connected stream client.
type Broker struct {
	clients map[chan model.Event]struct{}
	add     chan chan model.Event
	remove  chan chan model.Event
	events  chan model.Event
}

func NewBroker() *Broker {
	return &Broker{
		clients: make(map[chan model.Event]struct{}),
		add:     make(chan chan model.Event),
		remove:  make(chan chan model.Event),
		events:  make(chan model.Event, 16),
	}
}

// Start runs the fan-out loop until ctx is done.
func (b *Broker) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case c := <-b.add:
				b.clients[c] = struct{}{}

			case c := <-b.remove:
				delete(b.clients, c)
				close(c)

			case event := <-b.events:
				for c := range b.clients {
					select {
					case c <- event:
					default:
						// Slow consumer; drop rather than stall the loop.
					}
				}

			case <-ctx.Done():
				for c := range b.clients {
					close(c)
				}
				b.clients = make(map[chan model.Event]struct{})
				return
			}
		}
	}()
}

// Publish broadcasts an event to all subscribers.
func (b *Broker) Publish(event model.Event) {
	b.events <- event
}

// Subscribe registers a new stream client.
func (b *Broker) Subscribe() chan model.Event {
	c := make(chan model.Event, 8)
	b.add <- c
	return c
}

// Unsubscribe removes a stream client and closes its channel.
func (b *Broker) Unsubscribe(c chan model.Event) {
	b.remove <- c
}

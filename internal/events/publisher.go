package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"namegate/pkg/requestcontext"
)

// Fanout receives committed events for delivery outside the process. Delivery
// is best-effort; the in-process store stays authoritative.
type Fanout interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// Publisher appends events to the store synchronously and hands them to the
// fan-out asynchronously through a bounded buffer. Emit never fails a caller
// because of fan-out trouble; a full buffer drops the fan-out copy and logs.
type Publisher struct {
	store  Store
	fanout Fanout
	logger *slog.Logger

	buffer chan Event
	wg     sync.WaitGroup
	once   sync.Once
}

type PublisherOption func(p *Publisher)

// WithFanout attaches an external delivery sink (e.g. Kafka).
func WithFanout(f Fanout) PublisherOption {
	return func(p *Publisher) { p.fanout = f }
}

// WithBuffer sizes the async fan-out buffer (default 256).
func WithBuffer(n int) PublisherOption {
	return func(p *Publisher) { p.buffer = make(chan Event, n) }
}

func NewPublisher(store Store, logger *slog.Logger, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer == nil {
		p.buffer = make(chan Event, 256)
	}
	if p.fanout != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit stamps and appends the event. The event is authoritative once Append
// returns; fan-out happens in the background.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.At.IsZero() {
		event.At = requestcontext.Now(ctx)
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.fanout != nil {
		select {
		case p.buffer <- event:
		default:
			p.logger.Warn("event fan-out buffer full, dropping copy",
				"event_type", string(event.Type), "event_id", event.ID.String())
		}
	}
	return nil
}

// List reads back events in emission order.
func (p *Publisher) List(ctx context.Context, filter Filter) ([]Event, error) {
	return p.store.List(ctx, filter)
}

// Close drains the fan-out buffer and releases the fan-out sink.
func (p *Publisher) Close() {
	p.once.Do(func() {
		close(p.buffer)
		p.wg.Wait()
		if p.fanout != nil {
			p.fanout.Close()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.buffer {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.fanout.Publish(ctx, event); err != nil {
			p.logger.Warn("event fan-out failed",
				"event_type", string(event.Type), "event_id", event.ID.String(), "error", err)
		}
		cancel()
	}
}

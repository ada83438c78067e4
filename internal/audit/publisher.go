package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"neurowatch/pkg/requestcontext"
)

// Sink receives audit events after they have been durably stored, e.g. a
// Kafka topic consumed by downstream compliance tooling.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Publisher stamps, stores and fans out audit events. Storage is synchronous
// so callers know the event is durable; sink delivery happens on a background
// worker and is best-effort.
type Publisher struct {
	store  Store
	sink   Sink
	log    *slog.Logger
	events chan Event
	done   chan struct{}
}

// NewPublisher starts the sink worker when a sink is supplied. Close must be
// called to drain it on shutdown.
func NewPublisher(store Store, sink Sink, log *slog.Logger) *Publisher {
	p := &Publisher{
		store:  store,
		sink:   sink,
		log:    log,
		events: make(chan Event, 256),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// Emit persists the event and schedules sink delivery. The ID and timestamp
// are stamped here; callers only fill the domain fields.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	event.ID = uuid.New()
	event.Timestamp = requestcontext.Now(ctx).UTC()
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.sink == nil {
		return nil
	}
	select {
	case p.events <- event:
	default:
		p.log.WarnContext(ctx, "audit sink queue full, dropping event",
			"action", event.Action, "event_id", event.ID)
	}
	return nil
}

func (p *Publisher) run() {
	defer close(p.done)
	for event := range p.events {
		if p.sink == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.sink.Publish(ctx, event); err != nil {
			p.log.Error("audit sink publish failed",
				"action", event.Action, "event_id", event.ID, "error", err)
		}
		cancel()
	}
}

// Close stops accepting events and waits for queued sink deliveries.
func (p *Publisher) Close() {
	close(p.events)
	<-p.done
}

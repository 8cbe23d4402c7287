package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/cryptoants/internal/domain/models"
)

// Sink persists or forwards ledger events.
type Sink interface {
	RecordEvent(ctx context.Context, event models.LedgerEvent) error
}

// Dispatcher decouples the engine from slow sinks: Publish only enqueues, a
// single worker drains the queue in order.
type Dispatcher struct {
	sinks   map[string]Sink
	order   []string
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	ch     chan models.LedgerEvent
	wg     sync.WaitGroup
	once   sync.Once

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// NewDispatcher starts the worker. bufferSize bounds the number of pending
// events; anything beyond it is dropped with a warning.
func NewDispatcher(bufferSize int, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bufferSize <= 0 {
		bufferSize = 1
	}

	d := &Dispatcher{
		sinks:   make(map[string]Sink),
		timeout: 10 * time.Second,
		logger:  logger,
		ch:      make(chan models.LedgerEvent, bufferSize),
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.loop()
	}()
	return d
}

// Register adds a sink. Must be called before the first Publish.
func (d *Dispatcher) Register(name string, sink Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.sinks[name]; !exists {
		d.order = append(d.order, name)
	}
	d.sinks[name] = sink
}

// Publish enqueues the event without blocking.
func (d *Dispatcher) Publish(event models.LedgerEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		return
	}

	select {
	case d.ch <- event:
	default:
		d.dropped.Add(1)
		d.logger.Warn("event queue full, dropping event",
			zap.Uint64("seq", event.Seq),
			zap.String("kind", string(event.Kind)))
	}
}

// Close stops accepting events and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.ch)
		d.mu.Unlock()
		d.wg.Wait()
	})
}

// Delivered counts events handed to every sink.
func (d *Dispatcher) Delivered() uint64 { return d.delivered.Load() }

// Dropped counts events lost to a full queue or a closed dispatcher.
func (d *Dispatcher) Dropped() uint64 { return d.dropped.Load() }

func (d *Dispatcher) loop() {
	for event := range d.ch {
		d.deliver(event)
	}
}

func (d *Dispatcher) deliver(event models.LedgerEvent) {
	d.mu.RLock()
	names := append([]string(nil), d.order...)
	sinks := make([]Sink, len(names))
	for i, name := range names {
		sinks[i] = d.sinks[name]
	}
	d.mu.RUnlock()

	for i, sink := range sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := sink.RecordEvent(ctx, event); err != nil {
			d.logger.Error("failed recording event",
				zap.String("sink", names[i]),
				zap.Uint64("seq", event.Seq),
				zap.Error(err))
		}
		cancel()
	}
	d.delivered.Add(1)
}

package bastion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/bastion/audit"
	"github.com/xraph/bastion/id"
)

// Auditor records administrative actions best-effort. Entries are queued
// on a buffered channel and persisted by a background goroutine, so a
// slow or failing audit store never delays or fails the mutation that
// produced the entry. When the queue is full, entries are dropped with a
// warning.
type Auditor struct {
	store  audit.Store
	logger *slog.Logger
	queue  chan *audit.Entry

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewAuditor creates an auditor writing to the given store.
func NewAuditor(store audit.Store, logger *slog.Logger, buffer int) *Auditor {
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{
		store:  store,
		logger: logger,
		queue:  make(chan *audit.Entry, buffer),
		done:   make(chan struct{}),
	}
}

// Start launches the background writer. Safe to call once.
func (a *Auditor) Start() {
	a.startOnce.Do(func() {
		a.wg.Add(1)
		go a.run()
	})
}

// Emit queues an audit entry without blocking. Missing ID and CreatedAt
// are filled in. Entries emitted after Stop are dropped.
func (a *Auditor) Emit(e *audit.Entry) {
	if e.ID.IsNil() {
		e.ID = id.NewAuditLogID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	select {
	case <-a.done:
		a.logger.Warn("audit entry dropped after shutdown",
			slog.String("action", e.Action),
			slog.String("resource", e.Resource),
		)
	default:
		select {
		case a.queue <- e:
		default:
			a.logger.Warn("audit queue full, entry dropped",
				slog.String("action", e.Action),
				slog.String("resource", e.Resource),
			)
		}
	}
}

// Stop closes the queue and waits for buffered entries to flush, up to
// the context deadline.
func (a *Auditor) Stop(ctx context.Context) error {
	a.stopOnce.Do(func() { close(a.done) })
	flushed := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(flushed)
	}()
	select {
	case <-flushed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Auditor) run() {
	defer a.wg.Done()
	for {
		select {
		case e := <-a.queue:
			a.persist(e)
		case <-a.done:
			// Drain whatever is still buffered.
			for {
				select {
				case e := <-a.queue:
					a.persist(e)
				default:
					return
				}
			}
		}
	}
}

func (a *Auditor) persist(e *audit.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.store.CreateAuditEntry(ctx, e); err != nil {
		a.logger.Warn("audit write failed",
			slog.String("action", e.Action),
			slog.String("resource", e.Resource),
			slog.String("error", err.Error()),
		)
	}
}

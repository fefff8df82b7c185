package audit

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/church-platform/internal/metrics"
)

// Event is one mutating admin action. Old and New are JSON-marshalled
// snapshots; either may be nil.
type Event struct {
	ChurchID *uint
	Actor    string
	Action   string
	Table    string
	RecordID *uint
	Old      any
	New      any
	IP       string
}

// Recorder is what handlers and use cases depend on.
type Recorder interface {
	Dispatch(ev Event)
}

// Dispatcher writes events on a background worker. Dispatch never blocks and
// never reports an error to the caller.
type Dispatcher struct {
	logger *Logger
	log    logrus.FieldLogger
	queue  chan Event

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewDispatcher(logger *Logger, log logrus.FieldLogger) *Dispatcher {
	d := &Dispatcher{
		logger: logger,
		log:    log.WithField("component", "audit"),
		queue:  make(chan Event, 256),
		done:   make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)

	for ev := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := d.logger.Log(ctx, ev)
		cancel()

		if err != nil {
			metrics.AuditFailures.Inc()
			d.log.WithError(err).
				WithFields(logrus.Fields{"action": ev.Action, "table": ev.Table}).
				Error("audit write failed")
		}
	}
}

func (d *Dispatcher) Dispatch(ev Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		metrics.AuditFailures.Inc()
		d.log.WithField("action", ev.Action).Warn("audit dispatcher closed, dropping event")
		return
	}

	select {
	case d.queue <- ev:
	default:
		// queue full: never block the API
		metrics.AuditFailures.Inc()
		d.log.WithField("action", ev.Action).Warn("audit queue full, dropping event")
	}
}

// Close stops accepting events and waits until queued ones are written.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
}

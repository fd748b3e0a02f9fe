package jobs

import (
	"context"
	"fmt"
	"sync"
)

// Handler processes one job type. Deliveries are at-least-once, so handlers must tolerate seeing
// the same job more than once.
type Handler interface {
	Handle(ctx context.Context, job Job) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, job Job) error

func (f HandlerFunc) Handle(ctx context.Context, job Job) error { return f(ctx, job) }

// Dispatcher routes jobs to handlers by type.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

// Register binds handler to jobType, replacing any previous registration.
func (d *Dispatcher) Register(jobType string, handler Handler) {
	if jobType == "" || handler == nil {
		panic(fmt.Sprintf("jobs: invalid registration for type %q", jobType))
	}
	d.mu.Lock()
	d.handlers[jobType] = handler
	d.mu.Unlock()
}

// Types lists the registered job types.
func (d *Dispatcher) Types() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	types := make([]string, 0, len(d.handlers))
	for jobType := range d.handlers {
		types = append(types, jobType)
	}
	return types
}

// Dispatch runs the handler registered for job.Type. Unknown types are not an error: handled is
// false and nothing runs.
func (d *Dispatcher) Dispatch(ctx context.Context, job Job) (handled bool, err error) {
	d.mu.RLock()
	handler, ok := d.handlers[job.Type]
	d.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return true, handler.Handle(ctx, job)
}

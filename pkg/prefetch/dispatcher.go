package prefetch

import (
	"image"
	"sync"
)

// Dispatcher is the single consumer of a pool's delivery channel. HTTP
// handlers register a waiter per handle, submit a request, and block on the
// waiter; the dispatcher routes each delivery to whoever registered its
// handle. Deliveries for unknown handles (e.g. a waiter that timed out and
// cancelled) are dropped.
type Dispatcher struct {
	pool *Pool

	mu      sync.Mutex
	waiters map[any]chan image.Image
}

func NewDispatcher(pool *Pool) *Dispatcher {
	return &Dispatcher{
		pool:    pool,
		waiters: make(map[any]chan image.Image),
	}
}

// Run consumes deliveries until the pool shuts down. Call it in its own
// goroutine.
func (d *Dispatcher) Run() {
	for delivery := range d.pool.Deliveries() {
		d.mu.Lock()
		ch, ok := d.waiters[delivery.Handle]
		if ok {
			delete(d.waiters, delivery.Handle)
		}
		d.mu.Unlock()

		if ok {
			ch <- delivery.Image
		}
	}
}

// Await registers interest in a handle and submits the request. The returned
// channel receives at most one image. Returns false when the pool queue is
// full.
func (d *Dispatcher) Await(req Request) (<-chan image.Image, bool) {
	ch := make(chan image.Image, 1)

	d.mu.Lock()
	d.waiters[req.Handle] = ch
	d.mu.Unlock()

	if !d.pool.Submit(req) {
		d.Cancel(req.Handle)
		return nil, false
	}

	return ch, true
}

// Cancel abandons a waiter. A delivery that races in afterwards is dropped
// by Run.
func (d *Dispatcher) Cancel(handle any) {
	d.mu.Lock()
	delete(d.waiters, handle)
	d.mu.Unlock()
}

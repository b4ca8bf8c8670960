package webhook

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Dispatcher fans a triggered event out to all matching subscription targets
// through a bounded work queue consumed by a worker pool. Trigger is
// fire-and-forget: the calling business operation never observes delivery
// failures, which surface only through the event-history API.
type Dispatcher struct {
	store    *Store
	recorder *Recorder
	queue    chan triggerJob
	workers  int

	mu      sync.Mutex
	wg      sync.WaitGroup
	stopped bool
}

type triggerJob struct {
	eventType   string
	clientCode  string
	data        interface{}
	specificURL string
}

// NewDispatcher creates a dispatcher with a bounded queue
func NewDispatcher(store *Store, recorder *Recorder, workers, queueSize int) *Dispatcher {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Dispatcher{
		store:    store,
		recorder: recorder,
		queue:    make(chan triggerJob, queueSize),
		workers:  workers,
	}
}

// Start launches the worker pool
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
}

// Stop drains the queue and waits for in-flight deliveries to finish
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

// Trigger queues an event for delivery to every matching subscription of the
// tenant. A specific URL, when supplied, always receives a delivery with no
// subscription record and no secret. When the queue is full the event is
// dropped and logged rather than blocking the caller.
func (d *Dispatcher) Trigger(eventType, clientCode string, data interface{}, specificURL string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		log.Printf("webhook: dispatcher stopped, dropping event %s for %s", eventType, clientCode)
		return
	}

	select {
	case d.queue <- triggerJob{eventType: eventType, clientCode: clientCode, data: data, specificURL: specificURL}:
	default:
		log.Printf("webhook: queue full, dropping event %s for %s", eventType, clientCode)
	}
}

// worker consumes trigger jobs until the queue is closed or the context is
// cancelled
func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-d.queue:
			if !ok {
				return
			}
			d.process(ctx, job)
		}
	}
}

// process fans one trigger out to its targets. Targets are independent; a
// failure on one never skips the rest.
func (d *Dispatcher) process(ctx context.Context, job triggerJob) {
	subs, err := d.store.MatchingSubscriptions(job.clientCode, job.eventType)
	if err != nil {
		log.Printf("webhook: failed to load subscriptions for %s: %v", job.clientCode, err)
		subs = nil
	}

	// No matches and no specific URL is a no-op, not an error
	if len(subs) == 0 && job.specificURL == "" {
		return
	}

	for _, sub := range subs {
		payloadJSON, err := d.encodePayload(job, sub.SecretKey)
		if err != nil {
			log.Printf("webhook: failed to encode payload for %s: %v", sub.ID, err)
			continue
		}

		subID := sub.ID
		if err := d.recorder.Deliver(ctx, job.eventType, sub.TargetURL, payloadJSON, job.clientCode, &subID); err != nil {
			log.Printf("webhook: %v", err)
		}
	}

	if job.specificURL != "" {
		payloadJSON, err := d.encodePayload(job, "")
		if err != nil {
			log.Printf("webhook: failed to encode payload for %s: %v", job.specificURL, err)
			return
		}
		if err := d.recorder.Deliver(ctx, job.eventType, job.specificURL, payloadJSON, job.clientCode, (*uuid.UUID)(nil)); err != nil {
			log.Printf("webhook: %v", err)
		}
	}
}

// encodePayload builds and optionally signs the wire payload for one target
func (d *Dispatcher) encodePayload(job triggerJob, secret string) (string, error) {
	payload := NewPayload(job.eventType, job.clientCode, job.data)
	if secret != "" {
		if err := payload.Sign(secret); err != nil {
			return "", err
		}
	}
	b, err := payload.Encode()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

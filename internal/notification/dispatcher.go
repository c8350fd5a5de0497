// Package notification delivers best-effort order notifications. Callers hand
// an order to the Dispatcher and return immediately; a fixed worker pool sends
// the email, WhatsApp and event-stream deliveries, logging any failure.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/domain"
	"github.com/fabworks/orderapi/pkg/errors"
)

// Notifier is the side-effect contract used by the order service.
// Implementations must not block the caller or report delivery errors.
type Notifier interface {
	NotifyOrderCreated(order *domain.Order)
	NotifyStatusChanged(order *domain.Order)
	NotifyTrackingUpdated(order *domain.Order)
}

type job struct {
	event string
	order *domain.Order
}

// Options configures a Dispatcher
type Options struct {
	Workers      int
	QueueSize    int
	Timeout      time.Duration
	StaffEmails  []string
	StaffNumbers []string
}

// Dispatcher is the asynchronous Notifier
type Dispatcher struct {
	renderer  *Renderer
	email     EmailSender
	whatsapp  MessageSender
	publisher EventPublisher // optional
	opts      Options
	logger    *zap.Logger

	jobs    chan job
	wg      sync.WaitGroup
	mu      sync.RWMutex
	started bool
	closed  bool
}

// NewDispatcher creates a dispatcher. publisher may be nil.
func NewDispatcher(renderer *Renderer, email EmailSender, whatsapp MessageSender, publisher EventPublisher, opts Options, logger *zap.Logger) *Dispatcher {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Dispatcher{
		renderer:  renderer,
		email:     email,
		whatsapp:  whatsapp,
		publisher: publisher,
		opts:      opts,
		logger:    logger,
		jobs:      make(chan job, opts.QueueSize),
	}
}

// Start launches the worker pool
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.logger.Info("Notification dispatcher started",
		zap.Int("workers", d.opts.Workers),
		zap.Int("queue_size", d.opts.QueueSize),
	)
}

// Stop stops accepting work and waits for queued notifications to drain, or ctx to expire
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.jobs)
	started := d.started
	d.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("Notification dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.logger.Warn("Notification dispatcher stopped before queue drained", zap.Int("pending", len(d.jobs)))
		return ctx.Err()
	}
}

func (d *Dispatcher) NotifyOrderCreated(order *domain.Order) {
	d.enqueue(domain.EventTypeOrderCreated, order)
}

func (d *Dispatcher) NotifyStatusChanged(order *domain.Order) {
	d.enqueue(domain.EventTypeStatusChange, order)
}

func (d *Dispatcher) NotifyTrackingUpdated(order *domain.Order) {
	d.enqueue(domain.EventTypeTrackingUpdated, order)
}

func (d *Dispatcher) enqueue(event string, order *domain.Order) {
	if order == nil {
		return
	}
	j := job{event: event, order: order.Clone()}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("Notification dropped: dispatcher stopped",
			zap.String("event", event), zap.String("order_id", order.ID.String()))
		return
	}

	select {
	case d.jobs <- j:
	default:
		d.logger.Warn("Notification dropped: queue full",
			zap.String("event", event), zap.String("order_id", order.ID.String()))
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		d.handle(j)
	}
}

func (d *Dispatcher) handle(j job) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Panic in notification worker",
				zap.Any("error", r), zap.String("event", j.event), zap.String("order_id", j.order.ID.String()))
		}
	}()

	switch j.event {
	case domain.EventTypeOrderCreated:
		d.sendOrderCreated(j.order)
	case domain.EventTypeStatusChange:
		d.sendStatusChanged(j.order)
	case domain.EventTypeTrackingUpdated:
		d.sendTrackingUpdated(j.order)
	}
	d.publish(j.event, j.order)
}

func (d *Dispatcher) sendOrderCreated(o *domain.Order) {
	if len(d.opts.StaffEmails) > 0 {
		msg, err := d.renderer.OrderCreated(o)
		if err != nil {
			d.fail("email", domain.EventTypeOrderCreated, o, err)
		} else {
			msg.To = d.opts.StaffEmails
			d.deliver("email", domain.EventTypeOrderCreated, o, func(ctx context.Context) error {
				return d.email.SendEmail(ctx, msg)
			})
		}
	}

	if len(d.opts.StaffNumbers) == 0 {
		return
	}
	text, err := d.renderer.OrderCreatedText(o)
	if err != nil {
		d.fail("whatsapp", domain.EventTypeOrderCreated, o, err)
		return
	}
	for _, number := range d.opts.StaffNumbers {
		number := number
		d.deliver("whatsapp", domain.EventTypeOrderCreated, o, func(ctx context.Context) error {
			return d.whatsapp.SendMessage(ctx, number, text)
		})
	}
}

func (d *Dispatcher) sendStatusChanged(o *domain.Order) {
	msg, ok, err := d.renderer.StatusChanged(o)
	if err != nil {
		d.fail("email", domain.EventTypeStatusChange, o, err)
		return
	}
	if !ok {
		return
	}
	d.deliver("email", domain.EventTypeStatusChange, o, func(ctx context.Context) error {
		return d.email.SendEmail(ctx, msg)
	})
}

func (d *Dispatcher) sendTrackingUpdated(o *domain.Order) {
	msg, err := d.renderer.TrackingUpdated(o)
	if err != nil {
		d.fail("email", domain.EventTypeTrackingUpdated, o, err)
		return
	}
	d.deliver("email", domain.EventTypeTrackingUpdated, o, func(ctx context.Context) error {
		return d.email.SendEmail(ctx, msg)
	})
}

func (d *Dispatcher) publish(event string, o *domain.Order) {
	if d.publisher == nil {
		return
	}
	msg := OrderEventMessage{
		EventID:    uuid.NewString(),
		EventType:  event,
		OrderID:    o.ID.String(),
		OccurredAt: time.Now().UTC(),
		Data: OrderEventSnapshot{
			CustomerEmail: o.CustomerEmail,
			Status:        o.Status,
			Items:         o.Items,
			Tracking:      o.Tracking,
			UpdatedAt:     o.UpdatedAt,
		},
	}
	d.deliver("kafka", event, o, func(ctx context.Context) error {
		return d.publisher.PublishOrderEvent(ctx, msg)
	})
}

// deliver makes a single bounded attempt
func (d *Dispatcher) deliver(channel, event string, o *domain.Order, send func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.opts.Timeout)
	defer cancel()

	if err := send(ctx); err != nil {
		d.fail(channel, event, o, err)
	}
}

func (d *Dispatcher) fail(channel, event string, o *domain.Order, err error) {
	d.logger.Error("Notification failed",
		zap.String("order_id", o.ID.String()),
		zap.Error(&errors.ErrNotificationFailure{Channel: channel, Event: event, Err: err}),
	)
}

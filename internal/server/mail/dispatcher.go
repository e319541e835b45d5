package mail

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/eventplanner/internal/logging"
)

const defaultSendTimeout = 15 * time.Second

// Dispatcher sends mail in the background so request handlers never wait on
// delivery. Failures are logged and dropped.
type Dispatcher struct {
	mailer  Mailer
	log     logging.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(mailer Mailer, log logging.Logger) *Dispatcher {
	return &Dispatcher{mailer: mailer, log: log, timeout: defaultSendTimeout}
}

// Dispatch queues msg for delivery. The request context's values are kept
// but its cancellation is not, so delivery outlives the request.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		if err := d.mailer.Send(sendCtx, msg); err != nil {
			d.log.Error(sendCtx, "email delivery failed", "to", msg.To, "subject", msg.Subject, "error", err)
		}
	}()
}

// Wait blocks until every dispatched message has been handled or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package membership

import (
	"context"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

// Mail is one queued delivery: recipient, rendered subject, rendered body.
type Mail struct {
	To      string
	Subject string
	Body    string
}

// MailSender is the outbound transport boundary (see mailer.SMTPSender).
type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

const (
	mailMaxAttempts    = 3
	mailAttemptTimeout = 30 * time.Second
	mailRetryBackoff   = time.Second
)

// Dispatcher delivers queued mail through a MailSender. Each task gets at
// most three attempts, each bounded by a 30 second timeout; a task that
// exhausts its retries is handed to the failure observer, never dropped
// silently.
type Dispatcher struct {
	sender    MailSender
	logger    Logger
	onFailure func(Mail, error)
	backoff   time.Duration

	queue chan Mail
	wg    sync.WaitGroup
	once  sync.Once
}

// DispatcherOption customizes dispatcher construction.
type DispatcherOption func(*Dispatcher)

// WithDispatchLogger overrides the logger.
func WithDispatchLogger(logger Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithFailureObserver is called once per task that exhausted its retries.
func WithFailureObserver(fn func(Mail, error)) DispatcherOption {
	return func(d *Dispatcher) {
		if fn != nil {
			d.onFailure = fn
		}
	}
}

// WithRetryBackoff overrides the constant delay between attempts
// (useful in tests).
func WithRetryBackoff(backoff time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if backoff > 0 {
			d.backoff = backoff
		}
	}
}

// NewDispatcher creates a dispatcher with one delivery worker.
func NewDispatcher(sender MailSender, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sender:  sender,
		logger:  defLogger{},
		backoff: mailRetryBackoff,
		queue:   make(chan Mail, 64),
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.onFailure == nil {
		d.onFailure = func(mail Mail, err error) {
			d.logger.Error("mail permanently failed", "to", mail.To, "subject", mail.Subject, "error", err)
		}
	}

	d.wg.Add(1)
	go d.worker()

	return d
}

// Enqueue queues one mail for delivery. It blocks only when the queue
// buffer is full.
func (d *Dispatcher) Enqueue(mail Mail) {
	d.queue <- mail
}

// Close stops accepting mail and waits for in-flight deliveries to finish.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for mail := range d.queue {
		d.deliver(mail)
	}
}

func (d *Dispatcher) deliver(mail Mail) {
	backoff := retry.WithMaxRetries(mailMaxAttempts-1, retry.NewConstant(d.backoff))

	attempt := 0
	err := retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		attempt++

		sendCtx, cancel := context.WithTimeout(ctx, mailAttemptTimeout)
		defer cancel()

		if err := d.sender.Send(sendCtx, mail.To, mail.Subject, mail.Body); err != nil {
			d.logger.Warn("mail attempt failed", "to", mail.To, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})

	if err != nil {
		d.onFailure(mail, err)
		return
	}

	d.logger.Info("mail sent", "to", mail.To, "attempts", attempt)
}

package site

import "log/slog"

// Dispatcher schedules best-effort background mail delivery. Submit never
// blocks on delivery and never reports an outcome: once a task is accepted
// the submitter has already been told the form went through.
type Dispatcher interface {
	Submit(task MailTask)
}

// AsyncDispatcher runs each task on its own goroutine. Delivery is
// at-most-once: errors are logged and dropped, there is no retry and no
// durable queue.
type AsyncDispatcher struct {
	mailer *Mailer
	logger *slog.Logger
}

func NewAsyncDispatcher(mailer *Mailer, logger *slog.Logger) *AsyncDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &AsyncDispatcher{mailer: mailer, logger: logger}
}

func (d *AsyncDispatcher) Submit(task MailTask) {
	go func() {
		if err := d.mailer.Send(task); err != nil {
			d.logger.Error("mail delivery failed",
				"to", task.To,
				"subject", task.Subject,
				"err", err,
			)
			return
		}
		d.logger.Info("mail delivered", "to", task.To, "subject", task.Subject)
	}()
}

// Package notify renders order emails and delivers them through a pluggable transport.
package notify

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Notification is one rendered email.
type Notification struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Notifier delivers notifications. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// LogNotifier writes notifications to the log instead of sending them.
type LogNotifier struct{}

// Notify logs n.
func (LogNotifier) Notify(_ context.Context, n Notification) error {
	log.WithFields(log.Fields{"to": n.To, "subject": n.Subject}).Info("Notification (no mail transport configured)")
	return nil
}

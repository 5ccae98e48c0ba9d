package notify

import (
	"context"
	"fmt"
	"time"

	"spiceexport/internal/metrics"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"gopkg.in/gomail.v2"
)

// Sender performs the actual SMTP exchange. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends notifications over SMTP behind a circuit breaker.
type Mailer struct {
	sender  Sender
	from    string
	breaker *gobreaker.CircuitBreaker
}

// NewMailer creates a Mailer for the given SMTP server.
func NewMailer(host string, port int, user, password, from string) *Mailer {
	return NewMailerWithSender(gomail.NewDialer(host, port, user, password), from)
}

// NewMailerWithSender creates a Mailer around an arbitrary sender.
func NewMailerWithSender(sender Sender, from string) *Mailer {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			switch to {
			case gobreaker.StateOpen:
				metrics.MailBreakerState.Set(1)
			case gobreaker.StateHalfOpen:
				metrics.MailBreakerState.Set(2)
			default:
				metrics.MailBreakerState.Set(0)
			}
			log.WithFields(log.Fields{"circuit": name, "from": from.String(), "to": to.String()}).Warn("Mail circuit breaker state changed")
		},
	})
	return &Mailer{sender: sender, from: from, breaker: breaker}
}

// Notify sends n as a plain-text email.
func (m *Mailer) Notify(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", n.To)
	msg.SetHeader("Subject", n.Subject)
	msg.SetBody("text/plain", n.Body)

	_, err := m.breaker.Execute(func() (interface{}, error) {
		return nil, m.sender.DialAndSend(msg)
	})
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues("smtp", "failed").Inc()
		return fmt.Errorf("smtp send to %s: %w", n.To, err)
	}
	metrics.NotificationsTotal.WithLabelValues("smtp", "sent").Inc()
	return nil
}

package services

import (
	"context"
	"errors"
	"time"

	"spiceexport/internal/metrics"
	"spiceexport/internal/models"
	"spiceexport/internal/notify"
	"spiceexport/internal/repositories"

	log "github.com/sirupsen/logrus"
)

// RunReport summarises one reminder batch.
type RunReport struct {
	RunAt       time.Time `json:"run_at"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Selected    int       `json:"selected"`
	Reminded    int       `json:"reminded"`
	Failed      int       `json:"failed"`
	DigestSent  bool      `json:"digest_sent"`
	Error       string    `json:"error,omitempty"`
}

// ReminderService sends day-before delivery reminders. Runs are idempotent: an order
// is selected only until its reminder flag has been persisted.
type ReminderService struct {
	orders   repositories.OrderRepository
	users    repositories.UserRepository
	notifier notify.Notifier
	renderer *notify.Renderer
	location *time.Location
	now      func() time.Time
}

// NewReminderService creates a ReminderService computing "tomorrow" in loc.
func NewReminderService(orders repositories.OrderRepository, users repositories.UserRepository, notifier notify.Notifier, renderer *notify.Renderer, loc *time.Location) *ReminderService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderService{
		orders:   orders,
		users:    users,
		notifier: notifier,
		renderer: renderer,
		location: loc,
		now:      time.Now,
	}
}

// SetClock overrides the time source.
func (s *ReminderService) SetClock(now func() time.Time) {
	s.now = now
}

// TomorrowWindow returns [start of tomorrow, start of the day after) in the service's zone.
func (s *ReminderService) TomorrowWindow() (time.Time, time.Time) {
	now := s.now().In(s.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	tomorrow := today.AddDate(0, 0, 1)
	return tomorrow, tomorrow.AddDate(0, 0, 1)
}

// Run processes every order due tomorrow. It never fails: problems are isolated per
// order and per channel, logged, and reflected in the report.
func (s *ReminderService) Run(ctx context.Context) RunReport {
	from, to := s.TomorrowWindow()
	report := RunReport{RunAt: s.now(), WindowStart: from, WindowEnd: to}
	logger := log.WithFields(log.Fields{"window_start": from.Format(time.RFC3339), "window_end": to.Format(time.RFC3339)})

	due, err := s.orders.ListDueForReminder(ctx, from, to)
	if err != nil {
		logger.WithError(err).Error("Reminder batch could not load orders")
		metrics.ReminderRuns.WithLabelValues("error").Inc()
		report.Error = err.Error()
		return report
	}
	report.Selected = len(due)

	buyers := make(map[string]*models.UserSummary)
	for i := range due {
		order := &due[i]
		buyer, ok := buyers[order.BuyerID]
		if !ok {
			buyer = s.loadBuyer(ctx, order.BuyerID)
			buyers[order.BuyerID] = buyer
		}
		if err := s.remind(ctx, order, buyer); err != nil {
			logger.WithError(err).WithField("order_id", order.ID).Warn("Delivery reminder failed")
			metrics.RemindersTotal.WithLabelValues("failed").Inc()
			report.Failed++
			continue
		}
		metrics.RemindersTotal.WithLabelValues("sent").Inc()
		report.Reminded++
	}

	if digest, ok := s.renderer.ReminderDigest(due, buyers); ok {
		if err := s.notifier.Notify(ctx, digest); err != nil {
			logger.WithError(&models.NotificationDeliveryError{Recipient: digest.To, Subject: digest.Subject, Err: err}).Warn("Reminder digest not delivered")
		} else {
			report.DigestSent = true
		}
	}

	metrics.ReminderRuns.WithLabelValues("ok").Inc()
	logger.WithFields(log.Fields{"selected": report.Selected, "reminded": report.Reminded, "failed": report.Failed}).Info("Reminder batch finished")
	return report
}

func (s *ReminderService) remind(ctx context.Context, order *models.Order, buyer *models.UserSummary) error {
	n, ok := s.renderer.DeliveryReminder(order, buyer)
	if !ok {
		return errors.New("buyer has no reachable email address")
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		return &models.NotificationDeliveryError{Recipient: n.To, Subject: n.Subject, Err: err}
	}
	return s.markSent(ctx, order)
}

// markSent persists the flag, retrying once on a concurrent edit of the same order.
func (s *ReminderService) markSent(ctx context.Context, order *models.Order) error {
	order.MarkReminderSent()
	err := s.orders.Update(ctx, order)
	var conflict *models.ConflictError
	if !errors.As(err, &conflict) {
		return err
	}
	fresh, err := s.orders.GetByID(ctx, order.ID)
	if err != nil {
		return err
	}
	fresh.MarkReminderSent()
	return s.orders.Update(ctx, fresh)
}

func (s *ReminderService) loadBuyer(ctx context.Context, buyerID string) *models.UserSummary {
	user, err := s.users.GetByID(ctx, buyerID)
	if err != nil {
		log.WithError(err).WithField("buyer_id", buyerID).Warn("Could not load buyer for reminder")
		return nil
	}
	return user.Summary()
}

package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"spiceexport/internal/catalog"
	"spiceexport/internal/models"
	"spiceexport/internal/notify"
	"spiceexport/internal/repositories"
	"spiceexport/internal/services"

	"github.com/stretchr/testify/mock"
)

const adminEmail = "admin@spice.test"

// recordingNotifier captures notifications and fails for recipients listed in failTo.
type recordingNotifier struct {
	mu     sync.Mutex
	sent   []notify.Notification
	failTo map[string]bool
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{failTo: map[string]bool{}}
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failTo[n.To] {
		return errors.New("mailbox unavailable")
	}
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) to(addr string) []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Notification
	for _, n := range r.sent {
		if n.To == addr {
			out = append(out, n)
		}
	}
	return out
}

func (r *recordingNotifier) withSubject(part string) []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Notification
	for _, n := range r.sent {
		if strings.Contains(n.Subject, part) {
			out = append(out, n)
		}
	}
	return out
}

func (r *recordingNotifier) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

type fixture struct {
	orders    *repositories.MockOrderRepository
	users     *MockUserRepository
	notifier  *recordingNotifier
	service   *services.OrderService
	reminders *services.ReminderService
	now       time.Time
}

func newFixture(t *testing.T, now time.Time, loc *time.Location) *fixture {
	t.Helper()
	users := new(MockUserRepository)
	for _, u := range []*models.User{
		{ID: "buyer-1", Username: "acme", Email: "buyer1@acme.test", Role: models.RoleBuyer},
		{ID: "buyer-2", Username: "globex", Email: "buyer2@globex.test", Role: models.RoleBuyer},
	} {
		users.On("GetByID", u.ID).Return(u, nil).Maybe()
	}
	users.On("GetByID", mock.Anything).Return(nil, &models.NotFoundError{Entity: "user"}).Maybe()

	f := &fixture{
		orders:   repositories.NewMockOrderRepository(),
		users:    users,
		notifier: newRecordingNotifier(),
		now:      now,
	}
	renderer := notify.NewRenderer(adminEmail, loc)
	f.service = services.NewOrderService(f.orders, users, catalog.Default(), f.notifier, renderer, loc)
	f.service.SetClock(func() time.Time { return f.now })
	f.reminders = services.NewReminderService(f.orders, users, f.notifier, renderer, loc)
	f.reminders.SetClock(func() time.Time { return f.now })
	return f
}

package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/pawclinic-backend/internal/data/aggregates"
	"github.com/yungbote/pawclinic-backend/internal/data/repos"
	"github.com/yungbote/pawclinic-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pawclinic-backend/internal/domain"
	domainagg "github.com/yungbote/pawclinic-backend/internal/domain/aggregates"
	"github.com/yungbote/pawclinic-backend/internal/platform/apierr"
	"github.com/yungbote/pawclinic-backend/internal/platform/ctxutil"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
	"github.com/yungbote/pawclinic-backend/internal/platform/storage"
)

type testEnv struct {
	db    *gorm.DB
	log   *logger.Logger
	repos repos.Set

	orders       domainagg.OrderAggregate
	reservations domainagg.HotelReservationAggregate
	appointments domainagg.AppointmentAggregate

	bucket   *memBucket
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)
	base := aggregates.BaseDeps{DB: db, Log: log}
	return &testEnv{
		db:    db,
		log:   log,
		repos: set,
		orders: aggregates.NewOrderAggregate(aggregates.OrderAggregateDeps{
			Base: base, Orders: set.Orders, Products: set.Products,
		}),
		reservations: aggregates.NewHotelReservationAggregate(aggregates.HotelReservationAggregateDeps{
			Base: base, Rooms: set.Rooms, Reservations: set.Reservations,
		}),
		appointments: aggregates.NewAppointmentAggregate(aggregates.AppointmentAggregateDeps{
			Base: base, Users: set.Users, Appointments: set.Appointments,
		}),
		bucket:   newMemBucket(),
		notifier: &recordingNotifier{},
	}
}

func (e *testEnv) user(t *testing.T, email string, role types.Role) *types.User {
	t.Helper()
	return testutil.SeedUserWithRole(t, context.Background(), e.db, email, role)
}

// as returns a context authenticated as u.
func as(u *types.User) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		UserID: u.ID,
		Role:   string(u.Role),
	})
}

func requireAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %d %s, got nil", status, code)
	}
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apierr.Error, got %T: %v", err, err)
	}
	if ae.Status != status || ae.Code != code {
		t.Fatalf("expected %d %s, got %d %s (%v)", status, code, ae.Status, ae.Code, ae.Err)
	}
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

type memBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    error
}

func newMemBucket() *memBucket { return &memBucket{objects: map[string][]byte{}} }

func (b *memBucket) UploadFile(_ context.Context, category storage.BucketCategory, key string, file io.Reader) error {
	if b.fail != nil {
		return b.fail
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[string(category)+"/"+key] = data
	return nil
}

func (b *memBucket) DeleteFile(_ context.Context, category storage.BucketCategory, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, string(category)+"/"+key)
	return nil
}

func (b *memBucket) DownloadFile(_ context.Context, category storage.BucketCategory, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[string(category)+"/"+key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *memBucket) GetPublicURL(category storage.BucketCategory, key string) string {
	return "/media/" + string(category) + "/" + key
}

func (b *memBucket) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

type notifyEvent struct {
	kind string
	id   uuid.UUID
	from string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifyEvent
}

func (n *recordingNotifier) add(kind string, id uuid.UUID, from string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notifyEvent{kind: kind, id: id, from: from})
}

func (n *recordingNotifier) OrderPlaced(_ context.Context, o *types.Order) {
	n.add("order_placed", o.ID, "")
}

func (n *recordingNotifier) OrderStatusChanged(_ context.Context, o *types.Order, from types.OrderStatus) {
	n.add("order_status", o.ID, string(from))
}

func (n *recordingNotifier) AppointmentBooked(_ context.Context, a *types.Appointment) {
	n.add("appointment_booked", a.ID, "")
}

func (n *recordingNotifier) AppointmentCancelled(_ context.Context, a *types.Appointment) {
	n.add("appointment_cancelled", a.ID, "")
}

func (n *recordingNotifier) ReservationStatusChanged(_ context.Context, r *types.HotelReservation, from types.ReservationStatus) {
	n.add("reservation_status", r.ID, string(from))
}

func (n *recordingNotifier) Wait() {}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.kind)
	}
	return out
}

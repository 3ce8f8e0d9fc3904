package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pawclinic-backend/internal/data/repos"
	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/observability"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
	"github.com/yungbote/pawclinic-backend/internal/platform/sendgrid"
)

const notifySendTimeout = 20 * time.Second

// Notifier sends best-effort customer emails after a write has committed. Failures are
// logged and counted, never returned.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *types.Order)
	OrderStatusChanged(ctx context.Context, order *types.Order, from types.OrderStatus)
	AppointmentBooked(ctx context.Context, appt *types.Appointment)
	AppointmentCancelled(ctx context.Context, appt *types.Appointment)
	ReservationStatusChanged(ctx context.Context, res *types.HotelReservation, from types.ReservationStatus)
	// Wait blocks until in-flight sends finish.
	Wait()
}

type emailNotifier struct {
	log      *logger.Logger
	userRepo repos.UserRepo
	client   sendgrid.Client
	metrics  *observability.Metrics
	wg       sync.WaitGroup
}

// NewNotifier sends through client, or only logs when client is nil.
func NewNotifier(log *logger.Logger, userRepo repos.UserRepo, client sendgrid.Client, metrics *observability.Metrics) Notifier {
	return &emailNotifier{
		log:      log.With("service", "Notifier"),
		userRepo: userRepo,
		client:   client,
		metrics:  metrics,
	}
}

type notification struct {
	kind    string
	userID  uuid.UUID
	subject string
	text    string
}

func (n *emailNotifier) OrderPlaced(ctx context.Context, order *types.Order) {
	if order == nil {
		return
	}
	var lines []string
	for _, it := range order.Items {
		lines = append(lines, fmt.Sprintf("  %d x %s  %s", it.Quantity, it.ProductName, formatCents(it.LineTotalCents())))
	}
	n.dispatch(ctx, notification{
		kind:    "order_placed",
		userID:  order.UserID,
		subject: fmt.Sprintf("Order %s received", shortID(order.ID)),
		text: fmt.Sprintf("Thanks for your order.\n\n%s\n\nTotal: %s\nStatus: %s\n",
			strings.Join(lines, "\n"), formatCents(order.TotalCents), order.Status),
	})
}

func (n *emailNotifier) OrderStatusChanged(ctx context.Context, order *types.Order, from types.OrderStatus) {
	if order == nil || order.Status == from {
		return
	}
	n.dispatch(ctx, notification{
		kind:    "order_status",
		userID:  order.UserID,
		subject: fmt.Sprintf("Order %s is now %s", shortID(order.ID), order.Status),
		text:    fmt.Sprintf("Your order %s moved from %s to %s.\n", shortID(order.ID), from, order.Status),
	})
}

func (n *emailNotifier) AppointmentBooked(ctx context.Context, appt *types.Appointment) {
	if appt == nil {
		return
	}
	n.dispatch(ctx, notification{
		kind:    "appointment_booked",
		userID:  appt.UserID,
		subject: "Appointment booked",
		text: fmt.Sprintf("Your appointment is booked for %s (UTC).\nReason: %s\n",
			appt.StartsAt.UTC().Format("Mon 2 Jan 2006 15:04"), appt.Reason),
	})
}

func (n *emailNotifier) AppointmentCancelled(ctx context.Context, appt *types.Appointment) {
	if appt == nil {
		return
	}
	n.dispatch(ctx, notification{
		kind:    "appointment_cancelled",
		userID:  appt.UserID,
		subject: "Appointment cancelled",
		text: fmt.Sprintf("Your appointment on %s (UTC) was cancelled.\n",
			appt.StartsAt.UTC().Format("Mon 2 Jan 2006 15:04")),
	})
}

func (n *emailNotifier) ReservationStatusChanged(ctx context.Context, res *types.HotelReservation, from types.ReservationStatus) {
	if res == nil || res.Status == from {
		return
	}
	n.dispatch(ctx, notification{
		kind:    "reservation_status",
		userID:  res.UserID,
		subject: fmt.Sprintf("Hotel reservation %s", strings.ReplaceAll(string(res.Status), "_", " ")),
		text: fmt.Sprintf("Your stay %s to %s is now %s.\n",
			res.CheckIn.UTC().Format("2006-01-02"), res.CheckOut.UTC().Format("2006-01-02"), res.Status),
	})
}

func (n *emailNotifier) Wait() { n.wg.Wait() }

func (n *emailNotifier) dispatch(ctx context.Context, msg notification) {
	if msg.userID == uuid.Nil {
		return
	}
	bg := context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		sendCtx, cancel := context.WithTimeout(bg, notifySendTimeout)
		defer cancel()
		n.send(sendCtx, msg)
	}()
}

func (n *emailNotifier) send(ctx context.Context, msg notification) {
	u, err := n.userRepo.GetByID(dbctx.Context{Ctx: ctx}, msg.userID)
	if err != nil || u == nil {
		n.log.Warn("notification recipient lookup failed", "kind", msg.kind, "user_id", msg.userID, "error", err)
		n.metrics.IncEmail(msg.kind, "error")
		return
	}
	if n.client == nil {
		n.log.Info("email skipped (no provider)", "kind", msg.kind, "user_id", u.ID, "subject", msg.subject)
		n.metrics.IncEmail(msg.kind, "skipped")
		return
	}
	res, err := n.client.Send(ctx, sendgrid.SendEmailRequest{
		To:         []sendgrid.EmailAddress{{Email: u.Email, Name: u.FullName()}},
		Subject:    msg.subject,
		Text:       fmt.Sprintf("Hi %s,\n\n%s\nPawClinic\n", u.FirstName, msg.text),
		Categories: []string{msg.kind},
		CustomArgs: map[string]string{"user_id": u.ID.String()},
	})
	if err != nil {
		n.log.Warn("email send failed", "kind", msg.kind, "user_id", u.ID, "error", err)
		n.metrics.IncEmail(msg.kind, "error")
		return
	}
	n.log.Debug("email sent", "kind", msg.kind, "user_id", u.ID, "message_id", res.MessageID)
	n.metrics.IncEmail(msg.kind, "sent")
}

func formatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s$%d.%02d", sign, c/100, c%100)
}

func shortID(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}

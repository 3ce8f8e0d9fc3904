package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/pawclinic-backend/internal/data/repos"
	types "github.com/yungbote/pawclinic-backend/internal/domain"
	domainagg "github.com/yungbote/pawclinic-backend/internal/domain/aggregates"
	"github.com/yungbote/pawclinic-backend/internal/platform/apierr"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

// ClinicHours describes the bookable day in the clinic's time zone.
type ClinicHours struct {
	Location    *time.Location
	OpenHour    int
	CloseHour   int
	SlotMinutes int
}

func (h ClinicHours) withDefaults() ClinicHours {
	if h.Location == nil {
		h.Location = time.UTC
	}
	if h.OpenHour < 0 || h.OpenHour > 23 {
		h.OpenHour = 9
	}
	if h.CloseHour <= h.OpenHour || h.CloseHour > 24 {
		h.CloseHour = 17
	}
	if h.SlotMinutes <= 0 {
		h.SlotMinutes = 30
	}
	return h
}

// window returns the opening and closing instants of the local day containing t.
func (h ClinicHours) window(t time.Time) (time.Time, time.Time) {
	local := t.In(h.Location)
	open := time.Date(local.Year(), local.Month(), local.Day(), h.OpenHour, 0, 0, 0, h.Location)
	closing := time.Date(local.Year(), local.Month(), local.Day(), h.CloseHour, 0, 0, 0, h.Location)
	return open, closing
}

func (h ClinicHours) slot() time.Duration { return time.Duration(h.SlotMinutes) * time.Minute }

// customerCancellableAppointment lists the statuses a pet owner may cancel from.
var customerCancellableAppointment = []types.AppointmentStatus{types.AppointmentScheduled, types.AppointmentConfirmed}

type ServiceInput struct {
	Name            string
	Slug            string
	Description     string
	DurationMinutes int
	PriceCents      int64
	Active          *bool
}

type ServicePatch struct {
	Name            *string
	Description     *string
	DurationMinutes *int
	PriceCents      *int64
	Active          *bool
}

type BookInput struct {
	PetID     uuid.UUID
	VetID     uuid.UUID
	ServiceID uuid.UUID
	StartsAt  time.Time
	Reason    string
}

type AppointmentQuery struct {
	From   *time.Time
	To     *time.Time
	VetID  *uuid.UUID
	Status types.AppointmentStatus
}

type AppointmentService interface {
	ListServices(ctx context.Context) ([]*types.ClinicService, error)
	CreateService(ctx context.Context, in ServiceInput) (*types.ClinicService, error)
	UpdateService(ctx context.Context, id uuid.UUID, in ServicePatch) (*types.ClinicService, error)

	// Availability lists open start times for the vet on the local date (YYYY-MM-DD).
	Availability(ctx context.Context, vetID uuid.UUID, date string, serviceID uuid.UUID) ([]time.Time, error)
	Book(ctx context.Context, in BookInput) (*types.Appointment, error)
	ListMyAppointments(ctx context.Context) ([]*types.Appointment, error)
	CancelMyAppointment(ctx context.Context, id uuid.UUID) (*types.Appointment, error)

	ListAppointments(ctx context.Context, q AppointmentQuery) ([]*types.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status types.AppointmentStatus, notes *string) (*types.Appointment, error)
}

type appointmentService struct {
	db              *gorm.DB
	log             *logger.Logger
	userRepo        repos.UserRepo
	petRepo         repos.PetRepo
	serviceRepo     repos.ClinicServiceRepo
	appointmentRepo repos.AppointmentRepo
	appointments    domainagg.AppointmentAggregate
	notifier        Notifier
	hours           ClinicHours
	clock           Clock
}

func NewAppointmentService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	petRepo repos.PetRepo,
	serviceRepo repos.ClinicServiceRepo,
	appointmentRepo repos.AppointmentRepo,
	appointments domainagg.AppointmentAggregate,
	notifier Notifier,
	hours ClinicHours,
	clock Clock,
) AppointmentService {
	return &appointmentService{
		db:              db,
		log:             log.With("service", "AppointmentService"),
		userRepo:        userRepo,
		petRepo:         petRepo,
		serviceRepo:     serviceRepo,
		appointmentRepo: appointmentRepo,
		appointments:    appointments,
		notifier:        notifier,
		hours:           hours.withDefaults(),
		clock:           clock,
	}
}

func (as *appointmentService) ListServices(ctx context.Context) ([]*types.ClinicService, error) {
	rows, err := as.serviceRepo.List(dbctx.Context{Ctx: ctx}, true)
	if err != nil {
		return nil, apierr.Internal("list_services_failed", err)
	}
	return rows, nil
}

func (as *appointmentService) CreateService(ctx context.Context, in ServiceInput) (*types.ClinicService, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apierr.BadRequest("invalid_service", fmt.Errorf("name is required"))
	}
	slug := slugify(in.Slug)
	if slug == "" {
		slug = slugify(name)
	}
	if err := as.validateService(in.DurationMinutes, in.PriceCents); err != nil {
		return nil, err
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	row := &types.ClinicService{
		ID:              uuid.New(),
		Name:            name,
		Slug:            slug,
		Description:     strings.TrimSpace(in.Description),
		DurationMinutes: in.DurationMinutes,
		PriceCents:      in.PriceCents,
		Active:          active,
	}
	if err := as.serviceRepo.Create(dbctx.Context{Ctx: ctx}, row); err != nil {
		if isDuplicateKey(err) {
			return nil, apierr.Conflict("slug_taken", fmt.Errorf("service slug %q already exists", slug))
		}
		return nil, apierr.Internal("create_service_failed", err)
	}
	return row, nil
}

func (as *appointmentService) UpdateService(ctx context.Context, id uuid.UUID, in ServicePatch) (*types.ClinicService, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	var out *types.ClinicService
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		svc, err := as.serviceRepo.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if svc == nil {
			return apierr.NotFound("service_not_found")
		}
		next := *svc
		if v := trimPtr(in.Name); v != nil {
			if *v == "" {
				return apierr.BadRequest("invalid_service", fmt.Errorf("name cannot be empty"))
			}
			next.Name = *v
		}
		if v := trimPtr(in.Description); v != nil {
			next.Description = *v
		}
		if in.DurationMinutes != nil {
			next.DurationMinutes = *in.DurationMinutes
		}
		if in.PriceCents != nil {
			next.PriceCents = *in.PriceCents
		}
		if in.Active != nil {
			next.Active = *in.Active
		}
		if err := as.validateService(next.DurationMinutes, next.PriceCents); err != nil {
			return err
		}
		if err := as.serviceRepo.Update(dbc, svc.ID, map[string]any{
			"name":             next.Name,
			"description":      next.Description,
			"duration_minutes": next.DurationMinutes,
			"price_cents":      next.PriceCents,
			"active":           next.Active,
		}); err != nil {
			return err
		}
		out = &next
		return nil
	})
	if err != nil {
		return nil, asAPIError(err, "update_service_failed")
	}
	return out, nil
}

func (as *appointmentService) Availability(ctx context.Context, vetID uuid.UUID, date string, serviceID uuid.UUID) ([]time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), as.hours.Location)
	if err != nil {
		return nil, apierr.BadRequest("invalid_date", fmt.Errorf("date must be YYYY-MM-DD"))
	}
	dbc := dbctx.Context{Ctx: ctx}
	svc, err := as.activeService(dbc, serviceID)
	if err != nil {
		return nil, err
	}
	if err := as.requireVet(dbc, vetID); err != nil {
		return nil, err
	}

	open, closing := as.hours.window(day)
	busy, err := as.appointmentRepo.ListSlotHolding(dbc, vetID, open.UTC(), closing.UTC(), uuid.Nil)
	if err != nil {
		return nil, apierr.Internal("availability_failed", err)
	}
	dur := time.Duration(svc.DurationMinutes) * time.Minute
	now := as.clock.now()
	out := []time.Time{}
	for start := open; !start.Add(dur).After(closing); start = start.Add(as.hours.slot()) {
		if !start.After(now) {
			continue
		}
		end := start.Add(dur)
		free := true
		for _, b := range busy {
			if b.StartsAt.Before(end) && b.EndsAt.After(start) {
				free = false
				break
			}
		}
		if free {
			out = append(out, start.UTC())
		}
	}
	return out, nil
}

func (as *appointmentService) Book(ctx context.Context, in BookInput) (*types.Appointment, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	pet, err := as.petRepo.GetByID(dbc, in.PetID)
	if err != nil {
		return nil, apierr.Internal("book_failed", err)
	}
	if pet == nil || pet.OwnerID != rd.UserID {
		return nil, apierr.NotFound("pet_not_found")
	}
	svc, err := as.activeService(dbc, in.ServiceID)
	if err != nil {
		return nil, err
	}

	start := in.StartsAt.UTC()
	end := start.Add(time.Duration(svc.DurationMinutes) * time.Minute)
	if err := as.checkSlot(start, end); err != nil {
		return nil, err
	}

	appt, err := as.appointments.Book(ctx, domainagg.BookAppointmentInput{
		UserID:    rd.UserID,
		PetID:     pet.ID,
		VetID:     in.VetID,
		ServiceID: svc.ID,
		StartsAt:  start,
		EndsAt:    end,
		Reason:    in.Reason,
	})
	if err != nil {
		if domainagg.IsCode(err, domainagg.CodeNotFound) {
			return nil, apierr.NotFound("vet_not_found")
		}
		if domainagg.IsCode(err, domainagg.CodeValidation) {
			return nil, apierr.BadRequest("invalid_vet", err)
		}
		return nil, apierr.FromAggregate(err, domainagg.ReasonSlotTaken)
	}
	appt.Service = svc
	appt.Pet = pet
	as.log.Info("appointment booked", "appointment_id", appt.ID, "vet_id", appt.VetID, "starts_at", appt.StartsAt)
	if as.notifier != nil {
		as.notifier.AppointmentBooked(ctx, appt)
	}
	return appt, nil
}

func (as *appointmentService) ListMyAppointments(ctx context.Context) ([]*types.Appointment, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	uid := rd.UserID
	rows, err := as.appointmentRepo.List(dbctx.Context{Ctx: ctx}, repos.AppointmentFilter{UserID: &uid})
	if err != nil {
		return nil, apierr.Internal("list_appointments_failed", err)
	}
	return rows, nil
}

func (as *appointmentService) CancelMyAppointment(ctx context.Context, id uuid.UUID) (*types.Appointment, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	owner := rd.UserID
	now := as.clock.now()
	return as.transition(ctx, domainagg.AppointmentTransitionInput{
		AppointmentID: id,
		OwnerID:       &owner,
		AllowedFrom:   customerCancellableAppointment,
		NotAfter:      &now,
		To:            types.AppointmentCancelled,
	}, "appointment_not_cancellable")
}

func (as *appointmentService) ListAppointments(ctx context.Context, q AppointmentQuery) ([]*types.Appointment, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, err
	}
	status := types.AppointmentStatus(strings.ToLower(strings.TrimSpace(string(q.Status))))
	if status != "" && !status.Valid() {
		return nil, apierr.BadRequest("invalid_status", fmt.Errorf("unknown appointment status %q", status))
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return nil, apierr.BadRequest("invalid_range", fmt.Errorf("to must not precede from"))
	}
	rows, err := as.appointmentRepo.List(dbctx.Context{Ctx: ctx}, repos.AppointmentFilter{
		VetID:  q.VetID,
		Status: status,
		From:   utcPtr(q.From),
		To:     utcPtr(q.To),
	})
	if err != nil {
		return nil, apierr.Internal("list_appointments_failed", err)
	}
	return rows, nil
}

func (as *appointmentService) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status types.AppointmentStatus, notes *string) (*types.Appointment, error) {
	rd, err := requireStaff(ctx)
	if err != nil {
		return nil, err
	}
	status = types.AppointmentStatus(strings.ToLower(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return nil, apierr.BadRequest("invalid_status", fmt.Errorf("unknown appointment status %q", status))
	}
	appt, err := as.transition(ctx, domainagg.AppointmentTransitionInput{
		AppointmentID: id,
		To:            status,
		Notes:         notes,
	}, domainagg.ReasonSlotTaken)
	if err != nil {
		return nil, err
	}
	as.log.Info("appointment status updated", "appointment_id", id, "status", status, "by", rd.UserID)
	return appt, nil
}

func (as *appointmentService) transition(ctx context.Context, in domainagg.AppointmentTransitionInput, conflictCode string) (*types.Appointment, error) {
	res, err := as.appointments.TransitionStatus(ctx, in)
	if err != nil {
		if domainagg.IsCode(err, domainagg.CodeNotFound) {
			return nil, apierr.NotFound("appointment_not_found")
		}
		if domainagg.ReasonOf(err) == domainagg.ReasonInvalidTransition {
			return nil, apierr.Conflict(conflictCode, err)
		}
		return nil, apierr.FromAggregate(err, conflictCode)
	}
	if res.Changed && res.Appointment.Status == types.AppointmentCancelled && as.notifier != nil {
		as.notifier.AppointmentCancelled(ctx, res.Appointment)
	}
	return res.Appointment, nil
}

// checkSlot enforces the booking grid: in the future, aligned to the slot size from opening
// time, and finishing by closing time on the same local day.
func (as *appointmentService) checkSlot(start, end time.Time) error {
	if !start.After(as.clock.now()) {
		return apierr.BadRequest("slot_in_past", fmt.Errorf("appointments must start in the future"))
	}
	open, closing := as.hours.window(start)
	if start.Before(open) || end.After(closing) {
		return apierr.BadRequest("outside_clinic_hours",
			fmt.Errorf("appointments must fit between %02d:00 and %02d:00", as.hours.OpenHour, as.hours.CloseHour))
	}
	if start.Sub(open)%as.hours.slot() != 0 {
		return apierr.BadRequest("off_grid", fmt.Errorf("start time must fall on a %d minute slot", as.hours.SlotMinutes))
	}
	return nil
}

func (as *appointmentService) activeService(dbc dbctx.Context, id uuid.UUID) (*types.ClinicService, error) {
	svc, err := as.serviceRepo.GetByID(dbc, id)
	if err != nil {
		return nil, apierr.Internal("get_service_failed", err)
	}
	if svc == nil || !svc.Active {
		return nil, apierr.NotFound("service_not_found")
	}
	return svc, nil
}

func (as *appointmentService) requireVet(dbc dbctx.Context, id uuid.UUID) error {
	vet, err := as.userRepo.GetByID(dbc, id)
	if err != nil {
		return apierr.Internal("get_vet_failed", err)
	}
	if vet == nil || !vet.Role.IsStaff() {
		return apierr.NotFound("vet_not_found")
	}
	return nil
}

func (as *appointmentService) validateService(minutes int, priceCents int64) error {
	if minutes <= 0 || minutes > 8*60 {
		return apierr.BadRequest("invalid_service", fmt.Errorf("duration_minutes must be between 1 and 480"))
	}
	if priceCents < 0 {
		return apierr.BadRequest("invalid_service", fmt.Errorf("price_cents must be >= 0"))
	}
	return nil
}

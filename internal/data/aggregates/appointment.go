package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pawclinic-backend/internal/data/repos"
	domainagg "github.com/yungbote/pawclinic-backend/internal/domain/aggregates"
	"github.com/yungbote/pawclinic-backend/internal/domain/clinic"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
)

type AppointmentAggregateDeps struct {
	Base BaseDeps

	Users        repos.UserRepo
	Appointments repos.AppointmentRepo
}

type appointmentAggregate struct {
	deps AppointmentAggregateDeps
}

func NewAppointmentAggregate(deps AppointmentAggregateDeps) domainagg.AppointmentAggregate {
	deps.Base = deps.Base.withDefaults()
	return &appointmentAggregate{deps: deps}
}

func (a *appointmentAggregate) Contract() domainagg.Contract {
	return domainagg.AppointmentAggregateContract
}

const (
	appointmentTable         = "appointment"
	reasonAppointmentStarted = "appointment_started"
)

func (a *appointmentAggregate) Book(ctx context.Context, in domainagg.BookAppointmentInput) (*clinic.Appointment, error) {
	const op = "Clinic.Appointment.Book"
	if in.UserID == uuid.Nil || in.PetID == uuid.Nil || in.VetID == uuid.Nil || in.ServiceID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "user_id, pet_id, vet_id and service_id are required", nil)
	}
	startsAt, endsAt := in.StartsAt.UTC(), in.EndsAt.UTC()
	if !endsAt.After(startsAt) {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "ends_at must be after starts_at", nil)
	}

	var out *clinic.Appointment
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.lockVetSlot(dbc, op, in.VetID, startsAt, endsAt, uuid.Nil); err != nil {
			return err
		}
		row := &clinic.Appointment{
			UserID:    in.UserID,
			PetID:     in.PetID,
			VetID:     in.VetID,
			ServiceID: in.ServiceID,
			StartsAt:  startsAt,
			EndsAt:    endsAt,
			Status:    clinic.AppointmentScheduled,
			Reason:    strings.TrimSpace(in.Reason),
		}
		if err := a.deps.Appointments.Create(dbc, row); err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *appointmentAggregate) TransitionStatus(ctx context.Context, in domainagg.AppointmentTransitionInput) (domainagg.AppointmentTransitionResult, error) {
	const op = "Clinic.Appointment.TransitionStatus"
	var out domainagg.AppointmentTransitionResult
	if in.AppointmentID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "appointment_id is required", nil)
	}
	if !in.To.Valid() {
		return out, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("invalid status %q", in.To), nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		out = domainagg.AppointmentTransitionResult{}
		appt, err := a.deps.Appointments.LockByID(dbc, in.AppointmentID)
		if err != nil {
			return err
		}
		if in.OwnerID != nil && appt.UserID != *in.OwnerID {
			return domainagg.NewError(domainagg.CodeNotFound, op, "appointment not found", nil)
		}
		out.FromStatus = appt.Status

		updates := map[string]any{}
		if in.Notes != nil {
			updates["notes"] = strings.TrimSpace(*in.Notes)
		}
		if appt.Status == in.To {
			if len(updates) > 0 {
				if err := a.deps.Appointments.UpdateFields(dbc, appt.ID, updates); err != nil {
					return err
				}
				appt.Notes = updates["notes"].(string)
			}
			out.Appointment = appt
			return nil
		}
		if !mayLeave(appt.Status, in.AllowedFrom) {
			return domainagg.NewReasonError(domainagg.CodeConflict, op, domainagg.ReasonInvalidTransition,
				fmt.Sprintf("appointment cannot move from %s to %s", appt.Status, in.To))
		}
		if in.NotAfter != nil && !appt.StartsAt.After(in.NotAfter.UTC()) {
			return domainagg.NewReasonError(domainagg.CodeConflict, op, reasonAppointmentStarted,
				"appointment has already started")
		}
		if !appt.Status.HoldsSlot() && in.To.HoldsSlot() {
			if err := a.lockVetSlot(dbc, op, appt.VetID, appt.StartsAt, appt.EndsAt, appt.ID); err != nil {
				return err
			}
		}

		if err := advanceStatus(dbc, appointmentTable, appt.ID, appt.Status, in.To, updates); err != nil {
			return err
		}
		appt.Status = in.To
		if n, ok := updates["notes"].(string); ok {
			appt.Notes = n
		}
		out.Appointment = appt
		out.Changed = true
		return nil
	})
	if err != nil {
		return domainagg.AppointmentTransitionResult{}, err
	}
	return out, nil
}

// lockVetSlot locks the vet's user row, serializing bookings per vet, and rejects overlaps.
func (a *appointmentAggregate) lockVetSlot(dbc dbctx.Context, op string, vetID uuid.UUID, startsAt, endsAt time.Time, excludeID uuid.UUID) error {
	vet, err := a.deps.Users.LockByID(dbc, vetID)
	if err != nil {
		return err
	}
	if !vet.Role.IsStaff() {
		return domainagg.NewError(domainagg.CodeValidation, op, "vet_id does not reference a staff member", nil)
	}
	clash, err := a.deps.Appointments.ListSlotHolding(dbc, vetID, startsAt, endsAt, excludeID)
	if err != nil {
		return err
	}
	if len(clash) > 0 {
		return domainagg.NewReasonError(domainagg.CodeConflict, op, domainagg.ReasonSlotTaken,
			fmt.Sprintf("vet is booked at %s", clash[0].StartsAt.Format(time.RFC3339)))
	}
	return nil
}

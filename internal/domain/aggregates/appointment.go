package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pawclinic-backend/internal/domain/clinic"
)

var AppointmentAggregateContract = Contract{
	Name:   "Clinic.AppointmentAggregate",
	Locks:  []string{"user", "appointment"},
	Writes: []string{"appointment"},
}

const ReasonSlotTaken = "slot_taken"

type AppointmentAggregate interface {
	Aggregate

	// Book locks the vet, rejects overlaps with slot holding appointments, and inserts.
	Book(ctx context.Context, in BookAppointmentInput) (*clinic.Appointment, error)

	// TransitionStatus changes status, re-checking overlap when the appointment starts holding
	// its slot again.
	TransitionStatus(ctx context.Context, in AppointmentTransitionInput) (AppointmentTransitionResult, error)
}

type BookAppointmentInput struct {
	UserID    uuid.UUID
	PetID     uuid.UUID
	VetID     uuid.UUID
	ServiceID uuid.UUID
	StartsAt  time.Time
	EndsAt    time.Time
	Reason    string
}

type AppointmentTransitionInput struct {
	AppointmentID uuid.UUID
	OwnerID       *uuid.UUID
	AllowedFrom   []clinic.AppointmentStatus
	// NotAfter rejects the transition once the appointment has started when set.
	NotAfter *time.Time
	To       clinic.AppointmentStatus
	Notes    *string
}

type AppointmentTransitionResult struct {
	Appointment *clinic.Appointment
	FromStatus  clinic.AppointmentStatus
	Changed     bool
}

package clinic

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClinicService struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string    `gorm:"not null;column:name" json:"name"`
	Slug            string    `gorm:"uniqueIndex;not null;column:slug" json:"slug"`
	Description     string    `gorm:"column:description" json:"description"`
	DurationMinutes int       `gorm:"not null;column:duration_minutes" json:"duration_minutes"`
	PriceCents      int64     `gorm:"not null;column:price_cents" json:"price_cents"`
	Active          bool      `gorm:"not null;column:active" json:"active"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ClinicService) TableName() string { return "clinic_service" }

type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentNoShow    AppointmentStatus = "no_show"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentScheduled, AppointmentConfirmed, AppointmentCompleted, AppointmentCancelled, AppointmentNoShow:
		return true
	}
	return false
}

// HoldsSlot reports whether the appointment blocks the vet's calendar.
func (s AppointmentStatus) HoldsSlot() bool {
	return s != AppointmentCancelled && s != AppointmentNoShow
}

// SlotHoldingAppointmentStatuses lists statuses counted when checking vet overlap.
var SlotHoldingAppointmentStatuses = []AppointmentStatus{AppointmentScheduled, AppointmentConfirmed, AppointmentCompleted}

type Appointment struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	PetID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"pet_id"`
	VetID     uuid.UUID         `gorm:"type:uuid;not null;index:idx_appointment_vet_start,priority:1" json:"vet_id"`
	ServiceID uuid.UUID         `gorm:"type:uuid;not null;index" json:"service_id"`
	StartsAt  time.Time         `gorm:"not null;column:starts_at;index:idx_appointment_vet_start,priority:2" json:"starts_at"`
	EndsAt    time.Time         `gorm:"not null;column:ends_at" json:"ends_at"`
	Status    AppointmentStatus `gorm:"not null;default:scheduled;column:status;index" json:"status"`
	Reason    string            `gorm:"column:reason" json:"reason"`
	Notes     string            `gorm:"column:notes" json:"notes"`

	Pet     *Pet           `gorm:"foreignKey:PetID;references:ID" json:"pet,omitempty"`
	Service *ClinicService `gorm:"foreignKey:ServiceID;references:ID" json:"service,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Appointment) TableName() string { return "appointment" }

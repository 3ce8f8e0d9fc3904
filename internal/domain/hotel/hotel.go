package hotel

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoomKind string

const (
	RoomStandard RoomKind = "standard"
	RoomDeluxe   RoomKind = "deluxe"
	RoomSuite    RoomKind = "suite"
)

func (k RoomKind) Valid() bool {
	return k == RoomStandard || k == RoomDeluxe || k == RoomSuite
}

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomReserved    RoomStatus = "reserved"
	RoomOccupied    RoomStatus = "occupied"
	RoomMaintenance RoomStatus = "maintenance"
)

// HotelRoom.Status is derived from the room's reservations, except maintenance which is set
// by admins and kept until cleared.
type HotelRoom struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Number           string     `gorm:"uniqueIndex;not null;column:number" json:"number"`
	Kind             RoomKind   `gorm:"not null;column:kind" json:"kind"`
	NightlyRateCents int64      `gorm:"not null;column:nightly_rate_cents" json:"nightly_rate_cents"`
	Status           RoomStatus `gorm:"not null;default:available;column:status;index" json:"status"`
	Notes            string     `gorm:"column:notes" json:"notes"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (HotelRoom) TableName() string { return "hotel_room" }

type ReservationStatus string

const (
	ReservationPending    ReservationStatus = "pending"
	ReservationConfirmed  ReservationStatus = "confirmed"
	ReservationCheckedIn  ReservationStatus = "checked_in"
	ReservationCheckedOut ReservationStatus = "checked_out"
	ReservationCancelled  ReservationStatus = "cancelled"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCheckedIn, ReservationCheckedOut, ReservationCancelled:
		return true
	}
	return false
}

// Active reports whether the reservation claims its room.
func (s ReservationStatus) Active() bool {
	return s == ReservationPending || s == ReservationConfirmed || s == ReservationCheckedIn
}

var ActiveReservationStatuses = []ReservationStatus{ReservationPending, ReservationConfirmed, ReservationCheckedIn}

type HotelReservation struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	PetID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"pet_id"`
	RoomID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"room_id"`
	CheckIn    time.Time         `gorm:"not null;column:check_in" json:"check_in"`
	CheckOut   time.Time         `gorm:"not null;column:check_out" json:"check_out"`
	Status     ReservationStatus `gorm:"not null;default:pending;column:status;index" json:"status"`
	TotalCents int64             `gorm:"not null;column:total_cents" json:"total_cents"`
	Notes      string            `gorm:"column:notes" json:"notes"`

	Room *HotelRoom `gorm:"foreignKey:RoomID;references:ID" json:"room,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (HotelReservation) TableName() string { return "hotel_reservation" }

// Nights counts whole nights between the check-in and check-out dates.
func Nights(checkIn, checkOut time.Time) int {
	return int(checkOut.Sub(checkIn).Hours() / 24)
}

package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pawclinic-backend/internal/domain/hotel"
)

var HotelReservationAggregateContract = Contract{
	Name:    "Hotel.ReservationAggregate",
	Locks:   []string{"hotel_room", "hotel_reservation"},
	Writes:  []string{"hotel_reservation"},
	Derived: []string{"hotel_room.status"},
}

const ReasonRoomUnavailable = "room_unavailable"

// HotelReservationAggregate owns reservation writes and room status derivation.
type HotelReservationAggregate interface {
	Aggregate

	// Reserve locks the room, rejects overlaps, and inserts a pending reservation.
	Reserve(ctx context.Context, in ReserveInput) (*hotel.HotelReservation, error)

	// TransitionStatus changes a reservation's status and recomputes its room's status.
	TransitionStatus(ctx context.Context, in ReservationTransitionInput) (ReservationTransitionResult, error)

	// SetRoomMaintenance toggles the sticky maintenance flag and recomputes the room status.
	SetRoomMaintenance(ctx context.Context, roomID uuid.UUID, maintenance bool) (*hotel.HotelRoom, error)
}

type ReserveInput struct {
	UserID   uuid.UUID
	PetID    uuid.UUID
	RoomID   uuid.UUID
	CheckIn  time.Time
	CheckOut time.Time
	Notes    string
}

type ReservationTransitionInput struct {
	ReservationID uuid.UUID
	OwnerID       *uuid.UUID
	AllowedFrom   []hotel.ReservationStatus
	To            hotel.ReservationStatus
	Notes         *string
}

type ReservationTransitionResult struct {
	Reservation *hotel.HotelReservation
	Room        *hotel.HotelRoom
	FromStatus  hotel.ReservationStatus
	Changed     bool
}

// DeriveRoomStatus computes a room's status from the statuses of its reservations.
func DeriveRoomStatus(current hotel.RoomStatus, reservations []hotel.ReservationStatus) hotel.RoomStatus {
	if current == hotel.RoomMaintenance {
		return hotel.RoomMaintenance
	}
	reserved := false
	for _, s := range reservations {
		switch s {
		case hotel.ReservationCheckedIn:
			return hotel.RoomOccupied
		case hotel.ReservationPending, hotel.ReservationConfirmed:
			reserved = true
		}
	}
	if reserved {
		return hotel.RoomReserved
	}
	return hotel.RoomAvailable
}

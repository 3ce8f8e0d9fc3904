package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pawclinic-backend/internal/data/repos"
	domainagg "github.com/yungbote/pawclinic-backend/internal/domain/aggregates"
	"github.com/yungbote/pawclinic-backend/internal/domain/hotel"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
)

type HotelReservationAggregateDeps struct {
	Base BaseDeps

	Rooms        repos.HotelRoomRepo
	Reservations repos.HotelReservationRepo
}

type hotelReservationAggregate struct {
	deps HotelReservationAggregateDeps
}

func NewHotelReservationAggregate(deps HotelReservationAggregateDeps) domainagg.HotelReservationAggregate {
	deps.Base = deps.Base.withDefaults()
	return &hotelReservationAggregate{deps: deps}
}

func (a *hotelReservationAggregate) Contract() domainagg.Contract {
	return domainagg.HotelReservationAggregateContract
}

const reservationTable = "hotel_reservation"

func (a *hotelReservationAggregate) Reserve(ctx context.Context, in domainagg.ReserveInput) (*hotel.HotelReservation, error) {
	const op = "Hotel.Reservation.Reserve"
	if in.UserID == uuid.Nil || in.PetID == uuid.Nil || in.RoomID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "user_id, pet_id and room_id are required", nil)
	}
	checkIn, checkOut := in.CheckIn.UTC(), in.CheckOut.UTC()
	nights := hotel.Nights(checkIn, checkOut)
	if nights < 1 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "check_out must be after check_in", nil)
	}

	var out *hotel.HotelReservation
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		room, err := a.deps.Rooms.LockByID(dbc, in.RoomID)
		if err != nil {
			return err
		}
		if err := a.requireRoomFree(dbc, op, room, checkIn, checkOut, uuid.Nil); err != nil {
			return err
		}
		row := &hotel.HotelReservation{
			UserID:     in.UserID,
			PetID:      in.PetID,
			RoomID:     room.ID,
			CheckIn:    checkIn,
			CheckOut:   checkOut,
			Status:     hotel.ReservationPending,
			TotalCents: int64(nights) * room.NightlyRateCents,
			Notes:      strings.TrimSpace(in.Notes),
		}
		if err := a.deps.Reservations.Create(dbc, row); err != nil {
			return err
		}
		if _, err := a.syncRoomStatus(dbc, room); err != nil {
			return err
		}
		row.Room = room
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *hotelReservationAggregate) TransitionStatus(ctx context.Context, in domainagg.ReservationTransitionInput) (domainagg.ReservationTransitionResult, error) {
	const op = "Hotel.Reservation.TransitionStatus"
	var out domainagg.ReservationTransitionResult
	if in.ReservationID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "reservation_id is required", nil)
	}
	if !in.To.Valid() {
		return out, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("invalid status %q", in.To), nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		out = domainagg.ReservationTransitionResult{}
		res, err := a.deps.Reservations.LockByID(dbc, in.ReservationID)
		if err != nil {
			return err
		}
		if in.OwnerID != nil && res.UserID != *in.OwnerID {
			return domainagg.NewError(domainagg.CodeNotFound, op, "reservation not found", nil)
		}
		room, err := a.deps.Rooms.LockByID(dbc, res.RoomID)
		if err != nil {
			return err
		}
		out.FromStatus = res.Status

		updates := map[string]any{}
		if in.Notes != nil {
			updates["notes"] = strings.TrimSpace(*in.Notes)
		}
		if res.Status == in.To {
			if len(updates) > 0 {
				if err := a.deps.Reservations.UpdateFields(dbc, res.ID, updates); err != nil {
					return err
				}
				res.Notes = updates["notes"].(string)
			}
			res.Room = room
			out.Reservation = res
			out.Room = room
			return nil
		}
		if !mayLeave(res.Status, in.AllowedFrom) {
			return domainagg.NewReasonError(domainagg.CodeConflict, op, domainagg.ReasonInvalidTransition,
				fmt.Sprintf("reservation cannot move from %s to %s", res.Status, in.To))
		}
		if !res.Status.Active() && in.To.Active() {
			if err := a.requireRoomFree(dbc, op, room, res.CheckIn, res.CheckOut, res.ID); err != nil {
				return err
			}
		}

		if err := advanceStatus(dbc, reservationTable, res.ID, res.Status, in.To, updates); err != nil {
			return err
		}
		res.Status = in.To
		if n, ok := updates["notes"].(string); ok {
			res.Notes = n
		}

		if _, err := a.syncRoomStatus(dbc, room); err != nil {
			return err
		}
		res.Room = room
		out.Reservation = res
		out.Room = room
		out.Changed = true
		return nil
	})
	if err != nil {
		return domainagg.ReservationTransitionResult{}, err
	}
	return out, nil
}

func (a *hotelReservationAggregate) SetRoomMaintenance(ctx context.Context, roomID uuid.UUID, maintenance bool) (*hotel.HotelRoom, error) {
	const op = "Hotel.Room.SetMaintenance"
	if roomID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "room_id is required", nil)
	}
	var out *hotel.HotelRoom
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		room, err := a.deps.Rooms.LockByID(dbc, roomID)
		if err != nil {
			return err
		}
		switch {
		case maintenance && room.Status != hotel.RoomMaintenance:
			if err := a.deps.Rooms.UpdateStatus(dbc, room.ID, hotel.RoomMaintenance); err != nil {
				return err
			}
			room.Status = hotel.RoomMaintenance
		case !maintenance && room.Status == hotel.RoomMaintenance:
			statuses, err := a.deps.Reservations.StatusesForRoom(dbc, room.ID)
			if err != nil {
				return err
			}
			next := domainagg.DeriveRoomStatus(hotel.RoomAvailable, statuses)
			if err := a.deps.Rooms.UpdateStatus(dbc, room.ID, next); err != nil {
				return err
			}
			room.Status = next
		}
		out = room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *hotelReservationAggregate) requireRoomFree(dbc dbctx.Context, op string, room *hotel.HotelRoom, checkIn, checkOut time.Time, excludeID uuid.UUID) error {
	if room.Status == hotel.RoomMaintenance {
		return domainagg.NewReasonError(domainagg.CodeConflict, op, domainagg.ReasonRoomUnavailable,
			fmt.Sprintf("room %s is under maintenance", room.Number))
	}
	n, err := a.deps.Reservations.CountOverlapping(dbc, room.ID, checkIn, checkOut, excludeID)
	if err != nil {
		return err
	}
	if n > 0 {
		return domainagg.NewReasonError(domainagg.CodeConflict, op, domainagg.ReasonRoomUnavailable,
			fmt.Sprintf("room %s is already booked for these dates", room.Number))
	}
	return nil
}

// syncRoomStatus recomputes the room status from every reservation on the room and persists
// it when it differs.
func (a *hotelReservationAggregate) syncRoomStatus(dbc dbctx.Context, room *hotel.HotelRoom) (bool, error) {
	statuses, err := a.deps.Reservations.StatusesForRoom(dbc, room.ID)
	if err != nil {
		return false, err
	}
	next := domainagg.DeriveRoomStatus(room.Status, statuses)
	if next == room.Status {
		return false, nil
	}
	if err := a.deps.Rooms.UpdateStatus(dbc, room.ID, next); err != nil {
		return false, err
	}
	room.Status = next
	return true, nil
}

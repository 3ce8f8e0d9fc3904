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

// ownerCancellableReservation lists the statuses a pet owner may cancel from.
var ownerCancellableReservation = []types.ReservationStatus{types.ReservationPending, types.ReservationConfirmed}

type ReserveRequest struct {
	PetID    uuid.UUID
	RoomID   uuid.UUID
	CheckIn  time.Time
	CheckOut time.Time
	Notes    string
}

type UpdateReservationInput struct {
	Status *types.ReservationStatus
	Notes  *string
}

type RoomInput struct {
	Number           string
	Kind             types.RoomKind
	NightlyRateCents int64
	Notes            string
}

type RoomPatch struct {
	Kind             *types.RoomKind
	NightlyRateCents *int64
	Notes            *string
	Maintenance      *bool
}

type HotelService interface {
	// ListRooms lists every room, or only rooms free for the whole stay when both dates are set.
	ListRooms(ctx context.Context, checkIn, checkOut *time.Time) ([]*types.HotelRoom, error)
	Reserve(ctx context.Context, in ReserveRequest) (*types.HotelReservation, error)
	ListMyReservations(ctx context.Context) ([]*types.HotelReservation, error)
	GetReservation(ctx context.Context, id uuid.UUID) (*types.HotelReservation, error)
	UpdateReservation(ctx context.Context, id uuid.UUID, in UpdateReservationInput) (*types.HotelReservation, error)

	ListAllRooms(ctx context.Context) ([]*types.HotelRoom, error)
	CreateRoom(ctx context.Context, in RoomInput) (*types.HotelRoom, error)
	UpdateRoom(ctx context.Context, id uuid.UUID, in RoomPatch) (*types.HotelRoom, error)
}

type hotelService struct {
	db              *gorm.DB
	log             *logger.Logger
	petRepo         repos.PetRepo
	roomRepo        repos.HotelRoomRepo
	reservationRepo repos.HotelReservationRepo
	reservations    domainagg.HotelReservationAggregate
	notifier        Notifier
	clock           Clock
}

func NewHotelService(
	db *gorm.DB,
	log *logger.Logger,
	petRepo repos.PetRepo,
	roomRepo repos.HotelRoomRepo,
	reservationRepo repos.HotelReservationRepo,
	reservations domainagg.HotelReservationAggregate,
	notifier Notifier,
	clock Clock,
) HotelService {
	return &hotelService{
		db:              db,
		log:             log.With("service", "HotelService"),
		petRepo:         petRepo,
		roomRepo:        roomRepo,
		reservationRepo: reservationRepo,
		reservations:    reservations,
		notifier:        notifier,
		clock:           clock,
	}
}

func (hs *hotelService) ListRooms(ctx context.Context, checkIn, checkOut *time.Time) ([]*types.HotelRoom, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if checkIn == nil && checkOut == nil {
		rows, err := hs.roomRepo.List(dbc)
		if err != nil {
			return nil, apierr.Internal("list_rooms_failed", err)
		}
		return rows, nil
	}
	if checkIn == nil || checkOut == nil {
		return nil, apierr.BadRequest("invalid_dates", fmt.Errorf("check_in and check_out must be given together"))
	}
	in, out := checkIn.UTC(), checkOut.UTC()
	if !out.After(in) {
		return nil, apierr.BadRequest("invalid_dates", fmt.Errorf("check_out must be after check_in"))
	}
	rows, err := hs.roomRepo.ListFreeBetween(dbc, in, out)
	if err != nil {
		return nil, apierr.Internal("list_rooms_failed", err)
	}
	return rows, nil
}

func (hs *hotelService) Reserve(ctx context.Context, in ReserveRequest) (*types.HotelReservation, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	checkIn, checkOut := in.CheckIn.UTC(), in.CheckOut.UTC()
	if !isWholeDay(checkIn) || !isWholeDay(checkOut) {
		return nil, apierr.BadRequest("invalid_dates", fmt.Errorf("check_in and check_out must be dates"))
	}
	if !checkOut.After(checkIn) {
		return nil, apierr.BadRequest("invalid_dates", fmt.Errorf("check_out must be after check_in"))
	}
	if checkIn.Before(startOfDay(hs.clock.now())) {
		return nil, apierr.BadRequest("invalid_dates", fmt.Errorf("check_in cannot be in the past"))
	}

	pet, err := hs.petRepo.GetByID(dbctx.Context{Ctx: ctx}, in.PetID)
	if err != nil {
		return nil, apierr.Internal("reserve_failed", err)
	}
	if pet == nil || pet.OwnerID != rd.UserID {
		return nil, apierr.NotFound("pet_not_found")
	}

	res, err := hs.reservations.Reserve(ctx, domainagg.ReserveInput{
		UserID:   rd.UserID,
		PetID:    pet.ID,
		RoomID:   in.RoomID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Notes:    in.Notes,
	})
	if err != nil {
		if domainagg.IsCode(err, domainagg.CodeNotFound) {
			return nil, apierr.NotFound("room_not_found")
		}
		return nil, apierr.FromAggregate(err, domainagg.ReasonRoomUnavailable)
	}
	hs.log.Info("hotel reservation created", "reservation_id", res.ID, "room_id", res.RoomID, "nights", int(checkOut.Sub(checkIn).Hours()/24))
	if hs.notifier != nil {
		hs.notifier.ReservationStatusChanged(ctx, res, "")
	}
	return res, nil
}

func (hs *hotelService) ListMyReservations(ctx context.Context) ([]*types.HotelReservation, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	uid := rd.UserID
	rows, err := hs.reservationRepo.List(dbctx.Context{Ctx: ctx}, repos.ReservationFilter{UserID: &uid})
	if err != nil {
		return nil, apierr.Internal("list_reservations_failed", err)
	}
	return rows, nil
}

func (hs *hotelService) GetReservation(ctx context.Context, id uuid.UUID) (*types.HotelReservation, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	res, err := hs.reservationRepo.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, apierr.Internal("get_reservation_failed", err)
	}
	if res == nil || (res.UserID != rd.UserID && !callerIsStaff(rd)) {
		return nil, apierr.NotFound("reservation_not_found")
	}
	return res, nil
}

// UpdateReservation lets owners cancel a pending or confirmed stay and staff move a stay to
// any status. The room status follows inside the same transaction.
func (hs *hotelService) UpdateReservation(ctx context.Context, id uuid.UUID, in UpdateReservationInput) (*types.HotelReservation, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	current, err := hs.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	to := current.Status
	if in.Status != nil {
		to = types.ReservationStatus(strings.ToLower(strings.TrimSpace(string(*in.Status))))
		if !to.Valid() {
			return nil, apierr.BadRequest("invalid_status", fmt.Errorf("unknown reservation status %q", to))
		}
	}
	tin := domainagg.ReservationTransitionInput{
		ReservationID: id,
		To:            to,
		Notes:         in.Notes,
	}
	conflictCode := domainagg.ReasonRoomUnavailable
	if !callerIsStaff(rd) {
		if to != current.Status && to != types.ReservationCancelled {
			return nil, apierr.Forbidden()
		}
		owner := rd.UserID
		tin.OwnerID = &owner
		tin.AllowedFrom = ownerCancellableReservation
		conflictCode = "reservation_not_cancellable"
	}

	res, err := hs.reservations.TransitionStatus(ctx, tin)
	if err != nil {
		if domainagg.IsCode(err, domainagg.CodeNotFound) {
			return nil, apierr.NotFound("reservation_not_found")
		}
		if domainagg.ReasonOf(err) == domainagg.ReasonInvalidTransition {
			return nil, apierr.Conflict(conflictCode, err)
		}
		return nil, apierr.FromAggregate(err, conflictCode)
	}
	if res.Changed {
		hs.log.Info("reservation status updated",
			"reservation_id", id, "from", res.FromStatus, "to", res.Reservation.Status,
			"room_status", res.Room.Status, "by", rd.UserID)
		if hs.notifier != nil {
			hs.notifier.ReservationStatusChanged(ctx, res.Reservation, res.FromStatus)
		}
	}
	return res.Reservation, nil
}

func (hs *hotelService) ListAllRooms(ctx context.Context) ([]*types.HotelRoom, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	rows, err := hs.roomRepo.List(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, apierr.Internal("list_rooms_failed", err)
	}
	return rows, nil
}

func (hs *hotelService) CreateRoom(ctx context.Context, in RoomInput) (*types.HotelRoom, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	row := &types.HotelRoom{
		ID:               uuid.New(),
		Number:           strings.TrimSpace(in.Number),
		Kind:             types.RoomKind(strings.ToLower(strings.TrimSpace(string(in.Kind)))),
		NightlyRateCents: in.NightlyRateCents,
		Status:           types.RoomAvailable,
		Notes:            strings.TrimSpace(in.Notes),
	}
	if row.Kind == "" {
		row.Kind = "standard"
	}
	if row.Number == "" {
		return nil, apierr.BadRequest("invalid_room", fmt.Errorf("number is required"))
	}
	if err := validateRoom(row.Kind, row.NightlyRateCents); err != nil {
		return nil, err
	}
	if err := hs.roomRepo.Create(dbctx.Context{Ctx: ctx}, row); err != nil {
		if isDuplicateKey(err) {
			return nil, apierr.Conflict("room_number_taken", fmt.Errorf("room %q already exists", row.Number))
		}
		return nil, apierr.Internal("create_room_failed", err)
	}
	return row, nil
}

func (hs *hotelService) UpdateRoom(ctx context.Context, id uuid.UUID, in RoomPatch) (*types.HotelRoom, error) {
	rd, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	room, err := hs.roomRepo.GetByID(dbc, id)
	if err != nil {
		return nil, apierr.Internal("update_room_failed", err)
	}
	if room == nil {
		return nil, apierr.NotFound("room_not_found")
	}

	updates := map[string]any{}
	kind, rate := room.Kind, room.NightlyRateCents
	if in.Kind != nil {
		kind = types.RoomKind(strings.ToLower(strings.TrimSpace(string(*in.Kind))))
		updates["kind"] = kind
	}
	if in.NightlyRateCents != nil {
		rate = *in.NightlyRateCents
		updates["nightly_rate_cents"] = rate
	}
	if v := trimPtr(in.Notes); v != nil {
		updates["notes"] = *v
	}
	if err := validateRoom(kind, rate); err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := hs.roomRepo.Update(dbc, id, updates); err != nil {
			return nil, apierr.Internal("update_room_failed", err)
		}
	}
	if in.Maintenance != nil {
		if _, err := hs.reservations.SetRoomMaintenance(ctx, id, *in.Maintenance); err != nil {
			return nil, apierr.FromAggregate(err, "room_conflict")
		}
		hs.log.Info("room maintenance changed", "room_id", id, "maintenance", *in.Maintenance, "by", rd.UserID)
	}
	out, err := hs.roomRepo.GetByID(dbc, id)
	if err != nil {
		return nil, apierr.Internal("update_room_failed", err)
	}
	return out, nil
}

func validateRoom(kind types.RoomKind, rateCents int64) error {
	if !kind.Valid() {
		return apierr.BadRequest("invalid_room", fmt.Errorf("unknown room kind %q", kind))
	}
	if rateCents < 0 {
		return apierr.BadRequest("invalid_room", fmt.Errorf("nightly_rate_cents must be >= 0"))
	}
	return nil
}

func isWholeDay(t time.Time) bool {
	return t.Equal(startOfDay(t))
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

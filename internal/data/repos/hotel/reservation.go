package hotel

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/pawclinic-backend/internal/domain"
	domhotel "github.com/yungbote/pawclinic-backend/internal/domain/hotel"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

type ReservationFilter struct {
	UserID *uuid.UUID
	RoomID *uuid.UUID
	Status types.ReservationStatus
	Limit  int
}

type HotelReservationRepo interface {
	Create(dbc dbctx.Context, row *types.HotelReservation) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.HotelReservation, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.HotelReservation, error)
	List(dbc dbctx.Context, f ReservationFilter) ([]*types.HotelReservation, error)
	// CountOverlapping counts active reservations of roomID intersecting [checkIn, checkOut).
	CountOverlapping(dbc dbctx.Context, roomID uuid.UUID, checkIn, checkOut time.Time, excludeID uuid.UUID) (int64, error)
	// StatusesForRoom returns the status of every reservation of the room.
	StatusesForRoom(dbc dbctx.Context, roomID uuid.UUID) ([]types.ReservationStatus, error)
	CountActiveForPet(dbc dbctx.Context, petID uuid.UUID) (int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
}

type hotelReservationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHotelReservationRepo(db *gorm.DB, baseLog *logger.Logger) HotelReservationRepo {
	return &hotelReservationRepo{db: db, log: baseLog.With("repo", "HotelReservationRepo")}
}

func (r *hotelReservationRepo) Create(dbc dbctx.Context, row *types.HotelReservation) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return dbc.DB(r.db).Omit(clause.Associations).Create(row).Error
}

func (r *hotelReservationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.HotelReservation, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.HotelReservation
	if err := dbc.DB(r.db).Preload("Room").Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *hotelReservationRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.HotelReservation, error) {
	var row types.HotelReservation
	if err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *hotelReservationRepo) List(dbc dbctx.Context, f ReservationFilter) ([]*types.HotelReservation, error) {
	q := dbc.DB(r.db).Preload("Room")
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.RoomID != nil {
		q = q.Where("room_id = ?", *f.RoomID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	var rows []*types.HotelReservation
	if err := q.Order("check_in DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *hotelReservationRepo) CountOverlapping(dbc dbctx.Context, roomID uuid.UUID, checkIn, checkOut time.Time, excludeID uuid.UUID) (int64, error) {
	q := dbc.DB(r.db).
		Model(&types.HotelReservation{}).
		Where("room_id = ? AND status IN ? AND check_in < ? AND check_out > ?",
			roomID, domhotel.ActiveReservationStatuses, checkOut.UTC(), checkIn.UTC())
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func (r *hotelReservationRepo) StatusesForRoom(dbc dbctx.Context, roomID uuid.UUID) ([]types.ReservationStatus, error) {
	var out []types.ReservationStatus
	err := dbc.DB(r.db).
		Model(&types.HotelReservation{}).
		Where("room_id = ?", roomID).
		Pluck("status", &out).Error
	return out, err
}

func (r *hotelReservationRepo) CountActiveForPet(dbc dbctx.Context, petID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.DB(r.db).
		Model(&types.HotelReservation{}).
		Where("pet_id = ? AND status IN ?", petID, domhotel.ActiveReservationStatuses).
		Count(&n).Error
	return n, err
}

func (r *hotelReservationRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.HotelReservation{}).Where("id = ?", id).Updates(updates).Error
}

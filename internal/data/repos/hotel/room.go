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

type RoomStatusCount struct {
	Status types.RoomStatus
	Count  int64
}

type HotelRoomRepo interface {
	Create(dbc dbctx.Context, row *types.HotelRoom) error
	UpsertByNumber(dbc dbctx.Context, row *types.HotelRoom) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.HotelRoom, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.HotelRoom, error)
	List(dbc dbctx.Context) ([]*types.HotelRoom, error)
	// ListFreeBetween returns rooms not in maintenance with no active reservation overlapping
	// [checkIn, checkOut).
	ListFreeBetween(dbc dbctx.Context, checkIn, checkOut time.Time) ([]*types.HotelRoom, error)
	Update(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	UpdateStatus(dbc dbctx.Context, id uuid.UUID, status types.RoomStatus) error
	CountByStatus(dbc dbctx.Context) ([]RoomStatusCount, error)
}

type hotelRoomRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHotelRoomRepo(db *gorm.DB, baseLog *logger.Logger) HotelRoomRepo {
	return &hotelRoomRepo{db: db, log: baseLog.With("repo", "HotelRoomRepo")}
}

func (r *hotelRoomRepo) Create(dbc dbctx.Context, row *types.HotelRoom) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.Status == "" {
		row.Status = types.RoomAvailable
	}
	return dbc.DB(r.db).Create(row).Error
}

// UpsertByNumber never touches status: it is owned by the reservation aggregate.
func (r *hotelRoomRepo) UpsertByNumber(dbc dbctx.Context, row *types.HotelRoom) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.Status == "" {
		row.Status = types.RoomAvailable
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "number"}},
			DoUpdates: clause.AssignmentColumns([]string{"kind", "nightly_rate_cents", "notes", "updated_at"}),
		}).
		Create(row).Error
}

func (r *hotelRoomRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.HotelRoom, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.HotelRoom
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *hotelRoomRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.HotelRoom, error) {
	var row types.HotelRoom
	if err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *hotelRoomRepo) List(dbc dbctx.Context) ([]*types.HotelRoom, error) {
	var rows []*types.HotelRoom
	if err := dbc.DB(r.db).Order("number").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *hotelRoomRepo) ListFreeBetween(dbc dbctx.Context, checkIn, checkOut time.Time) ([]*types.HotelRoom, error) {
	db := dbc.DB(r.db)
	busy := db.Session(&gorm.Session{NewDB: true}).
		Model(&types.HotelReservation{}).
		Select("room_id").
		Where("status IN ? AND check_in < ? AND check_out > ?",
			domhotel.ActiveReservationStatuses, checkOut.UTC(), checkIn.UTC())
	var rows []*types.HotelRoom
	if err := db.
		Where("status <> ?", types.RoomMaintenance).
		Where("id NOT IN (?)", busy).
		Order("number").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *hotelRoomRepo) Update(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.HotelRoom{}).Where("id = ?", id).Updates(updates).Error
}

func (r *hotelRoomRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, status types.RoomStatus) error {
	return dbc.DB(r.db).Model(&types.HotelRoom{}).Where("id = ?", id).Update("status", status).Error
}

func (r *hotelRoomRepo) CountByStatus(dbc dbctx.Context) ([]RoomStatusCount, error) {
	var out []RoomStatusCount
	err := dbc.DB(r.db).
		Model(&types.HotelRoom{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&out).Error
	return out, err
}

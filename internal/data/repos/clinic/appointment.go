package clinic

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/pawclinic-backend/internal/domain"
	domclinic "github.com/yungbote/pawclinic-backend/internal/domain/clinic"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

type AppointmentFilter struct {
	UserID *uuid.UUID
	VetID  *uuid.UUID
	Status types.AppointmentStatus
	From   *time.Time
	To     *time.Time
	Limit  int
}

type AppointmentRepo interface {
	Create(dbc dbctx.Context, row *types.Appointment) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Appointment, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Appointment, error)
	List(dbc dbctx.Context, f AppointmentFilter) ([]*types.Appointment, error)
	// ListSlotHolding returns the vet's slot holding appointments intersecting [from, to).
	ListSlotHolding(dbc dbctx.Context, vetID uuid.UUID, from, to time.Time, excludeID uuid.UUID) ([]*types.Appointment, error)
	CountUpcomingForPet(dbc dbctx.Context, petID uuid.UUID, now time.Time) (int64, error)
	CountBetween(dbc dbctx.Context, from, to time.Time) (int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
}

type appointmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAppointmentRepo(db *gorm.DB, baseLog *logger.Logger) AppointmentRepo {
	return &appointmentRepo{db: db, log: baseLog.With("repo", "AppointmentRepo")}
}

func (r *appointmentRepo) Create(dbc dbctx.Context, row *types.Appointment) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *appointmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Appointment, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Appointment
	if err := dbc.DB(r.db).Preload("Pet").Preload("Service").Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *appointmentRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Appointment, error) {
	var row types.Appointment
	if err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *appointmentRepo) List(dbc dbctx.Context, f AppointmentFilter) ([]*types.Appointment, error) {
	q := dbc.DB(r.db).Preload("Pet").Preload("Service")
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.VetID != nil {
		q = q.Where("vet_id = ?", *f.VetID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("starts_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("starts_at < ?", f.To.UTC())
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	var rows []*types.Appointment
	if err := q.Order("starts_at").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *appointmentRepo) ListSlotHolding(dbc dbctx.Context, vetID uuid.UUID, from, to time.Time, excludeID uuid.UUID) ([]*types.Appointment, error) {
	q := dbc.DB(r.db).
		Where("vet_id = ? AND status IN ? AND starts_at < ? AND ends_at > ?",
			vetID, domclinic.SlotHoldingAppointmentStatuses, to.UTC(), from.UTC())
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var rows []*types.Appointment
	if err := q.Order("starts_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *appointmentRepo) CountUpcomingForPet(dbc dbctx.Context, petID uuid.UUID, now time.Time) (int64, error) {
	var n int64
	err := dbc.DB(r.db).
		Model(&types.Appointment{}).
		Where("pet_id = ? AND status IN ? AND ends_at > ?", petID,
			[]types.AppointmentStatus{types.AppointmentScheduled, types.AppointmentConfirmed}, now.UTC()).
		Count(&n).Error
	return n, err
}

func (r *appointmentRepo) CountBetween(dbc dbctx.Context, from, to time.Time) (int64, error) {
	var n int64
	err := dbc.DB(r.db).
		Model(&types.Appointment{}).
		Where("starts_at >= ? AND starts_at < ? AND status IN ?", from.UTC(), to.UTC(), domclinic.SlotHoldingAppointmentStatuses).
		Count(&n).Error
	return n, err
}

func (r *appointmentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Appointment{}).Where("id = ?", id).Updates(updates).Error
}

package clinic

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

type ClinicServiceRepo interface {
	Create(dbc dbctx.Context, row *types.ClinicService) error
	UpsertBySlug(dbc dbctx.Context, row *types.ClinicService) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ClinicService, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ClinicService, error)
	List(dbc dbctx.Context, activeOnly bool) ([]*types.ClinicService, error)
	Update(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
}

type clinicServiceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClinicServiceRepo(db *gorm.DB, baseLog *logger.Logger) ClinicServiceRepo {
	return &clinicServiceRepo{db: db, log: baseLog.With("repo", "ClinicServiceRepo")}
}

func (r *clinicServiceRepo) Create(dbc dbctx.Context, row *types.ClinicService) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *clinicServiceRepo) UpsertBySlug(dbc dbctx.Context, row *types.ClinicService) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "duration_minutes", "price_cents", "active", "updated_at"}),
		}).
		Create(row).Error
}

func (r *clinicServiceRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ClinicService, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.ClinicService
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *clinicServiceRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ClinicService, error) {
	var rows []*types.ClinicService
	if len(ids) == 0 {
		return rows, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *clinicServiceRepo) List(dbc dbctx.Context, activeOnly bool) ([]*types.ClinicService, error) {
	q := dbc.DB(r.db)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var rows []*types.ClinicService
	if err := q.Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *clinicServiceRepo) Update(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.ClinicService{}).Where("id = ?", id).Updates(updates).Error
}

package clinic

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

type PetRepo interface {
	Create(dbc dbctx.Context, row *types.Pet) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Pet, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Pet, error)
	ListByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.Pet, error)
	Update(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	SoftDelete(dbc dbctx.Context, id uuid.UUID) error
}

type petRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPetRepo(db *gorm.DB, baseLog *logger.Logger) PetRepo {
	return &petRepo{db: db, log: baseLog.With("repo", "PetRepo")}
}

func (r *petRepo) Create(dbc dbctx.Context, row *types.Pet) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *petRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Pet, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Pet
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *petRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Pet, error) {
	var rows []*types.Pet
	if len(ids) == 0 {
		return rows, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *petRepo) ListByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.Pet, error) {
	var rows []*types.Pet
	if err := dbc.DB(r.db).Where("owner_id = ?", ownerID).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *petRepo) Update(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Pet{}).Where("id = ?", id).Updates(updates).Error
}

func (r *petRepo) SoftDelete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.Pet{}).Error
}

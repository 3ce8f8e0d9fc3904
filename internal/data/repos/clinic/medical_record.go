package clinic

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

type MedicalRecordRepo interface {
	Create(dbc dbctx.Context, row *types.MedicalRecord) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.MedicalRecord, error)
	ListByPet(dbc dbctx.Context, petID uuid.UUID) ([]*types.MedicalRecord, error)
	Update(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	SoftDelete(dbc dbctx.Context, id uuid.UUID) error
}

type medicalRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMedicalRecordRepo(db *gorm.DB, baseLog *logger.Logger) MedicalRecordRepo {
	return &medicalRecordRepo{db: db, log: baseLog.With("repo", "MedicalRecordRepo")}
}

func (r *medicalRecordRepo) Create(dbc dbctx.Context, row *types.MedicalRecord) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *medicalRecordRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.MedicalRecord, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.MedicalRecord
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// ListByPet returns records newest visit first.
func (r *medicalRecordRepo) ListByPet(dbc dbctx.Context, petID uuid.UUID) ([]*types.MedicalRecord, error) {
	var rows []*types.MedicalRecord
	if err := dbc.DB(r.db).Where("pet_id = ?", petID).Order("visited_at DESC, created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *medicalRecordRepo) Update(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.MedicalRecord{}).Where("id = ?", id).Updates(updates).Error
}

func (r *medicalRecordRepo) SoftDelete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.MedicalRecord{}).Error
}

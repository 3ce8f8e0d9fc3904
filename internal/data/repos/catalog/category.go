package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

type ProductCategoryRepo interface {
	Create(dbc dbctx.Context, row *types.ProductCategory) error
	UpsertBySlug(dbc dbctx.Context, row *types.ProductCategory) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProductCategory, error)
	GetBySlug(dbc dbctx.Context, slug string) (*types.ProductCategory, error)
	List(dbc dbctx.Context) ([]*types.ProductCategory, error)
}

type productCategoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductCategoryRepo(db *gorm.DB, baseLog *logger.Logger) ProductCategoryRepo {
	return &productCategoryRepo{db: db, log: baseLog.With("repo", "ProductCategoryRepo")}
}

func (r *productCategoryRepo) Create(dbc dbctx.Context, row *types.ProductCategory) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *productCategoryRepo) UpsertBySlug(dbc dbctx.Context, row *types.ProductCategory) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
		}).
		Create(row).Error
}

func (r *productCategoryRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ProductCategory, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.ProductCategory
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *productCategoryRepo) GetBySlug(dbc dbctx.Context, slug string) (*types.ProductCategory, error) {
	if slug == "" {
		return nil, nil
	}
	var row types.ProductCategory
	if err := dbc.DB(r.db).Where("slug = ?", slug).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *productCategoryRepo) List(dbc dbctx.Context) ([]*types.ProductCategory, error) {
	var rows []*types.ProductCategory
	if err := dbc.DB(r.db).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

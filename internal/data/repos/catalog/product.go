package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

type ProductFilter struct {
	Query      string
	CategoryID *uuid.UUID
	ActiveOnly bool
	Limit      int
	Offset     int
}

type ProductRepo interface {
	Create(dbc dbctx.Context, row *types.Product) error
	UpsertBySlug(dbc dbctx.Context, row *types.Product) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Product, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Product, error)
	GetBySlug(dbc dbctx.Context, slug string, activeOnly bool) (*types.Product, error)
	List(dbc dbctx.Context, f ProductFilter) ([]*types.Product, int64, error)
	ListLowStock(dbc dbctx.Context, threshold, limit int) ([]*types.Product, error)
	Update(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	SoftDelete(dbc dbctx.Context, id uuid.UUID) error

	// DebitStock subtracts qty only when enough stock remains. ok is false on shortfall.
	DebitStock(dbc dbctx.Context, id uuid.UUID, qty int) (ok bool, err error)
	// CreditStock errors unless exactly one product row took the stock back.
	CreditStock(dbc dbctx.Context, id uuid.UUID, qty int) error
	// AdjustStock applies delta only when the result stays >= 0.
	AdjustStock(dbc dbctx.Context, id uuid.UUID, delta int) (ok bool, err error)
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return &productRepo{db: db, log: baseLog.With("repo", "ProductRepo")}
}

func (r *productRepo) Create(dbc dbctx.Context, row *types.Product) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return dbc.DB(r.db).Create(row).Error
}

// UpsertBySlug updates descriptive fields on conflict. Stock is left alone for existing rows.
func (r *productRepo) UpsertBySlug(dbc dbctx.Context, row *types.Product) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "price_cents", "category_id", "attributes", "active", "updated_at"}),
		}).
		Create(row).Error
}

func (r *productRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Product, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Product
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *productRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Product, error) {
	var rows []*types.Product
	if len(ids) == 0 {
		return rows, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *productRepo) GetBySlug(dbc dbctx.Context, slug string, activeOnly bool) (*types.Product, error) {
	if slug == "" {
		return nil, nil
	}
	q := dbc.DB(r.db).Preload("Category").Where("slug = ?", slug)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var row types.Product
	if err := q.Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *productRepo) List(dbc dbctx.Context, f ProductFilter) ([]*types.Product, int64, error) {
	q := dbc.DB(r.db).Model(&types.Product{})
	if f.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if s := strings.ToLower(strings.TrimSpace(f.Query)); s != "" {
		like := "%" + s + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	var rows []*types.Product
	if err := q.Order("name").Limit(limit).Offset(max(f.Offset, 0)).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *productRepo) ListLowStock(dbc dbctx.Context, threshold, limit int) ([]*types.Product, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []*types.Product
	if err := dbc.DB(r.db).
		Where("active = ? AND stock <= ?", true, threshold).
		Order("stock, name").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *productRepo) Update(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Product{}).Where("id = ?", id).Updates(updates).Error
}

func (r *productRepo) SoftDelete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.Product{}).Error
}

// DebitStock and CreditStock are Unscoped: stock held by an order still has to
// move when the product was deleted after the order was placed.
func (r *productRepo) DebitStock(dbc dbctx.Context, id uuid.UUID, qty int) (bool, error) {
	res := dbc.DB(r.db).
		Unscoped().
		Model(&types.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *productRepo) CreditStock(dbc dbctx.Context, id uuid.UUID, qty int) error {
	res := dbc.DB(r.db).
		Unscoped().
		Model(&types.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("credit stock: product %s matched %d rows", id, res.RowsAffected)
	}
	return nil
}

func (r *productRepo) AdjustStock(dbc dbctx.Context, id uuid.UUID, delta int) (bool, error) {
	res := dbc.DB(r.db).
		Model(&types.Product{}).
		Where("id = ? AND stock + ? >= 0", id, delta).
		UpdateColumn("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

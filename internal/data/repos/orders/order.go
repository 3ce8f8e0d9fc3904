package orders

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

type ListFilter struct {
	UserID *uuid.UUID
	Status types.OrderStatus
	Limit  int
	Offset int
}

type StatusCount struct {
	Status types.OrderStatus
	Count  int64
}

type OrderRepo interface {
	// Create inserts the order and its items.
	Create(dbc dbctx.Context, order *types.Order) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Order, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Order, error)
	List(dbc dbctx.Context, f ListFilter) ([]*types.Order, int64, error)
	CountByStatus(dbc dbctx.Context) ([]StatusCount, error)
	SumRevenueCents(dbc dbctx.Context) (int64, error)
	CountSince(dbc dbctx.Context, since time.Time) (int64, error)
}

type orderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	return &orderRepo{db: db, log: baseLog.With("repo", "OrderRepo")}
}

func (r *orderRepo) Create(dbc dbctx.Context, order *types.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	return dbc.DB(r.db).Create(order).Error
}

func (r *orderRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Order, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Order
	if err := dbc.DB(r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("product_name") }).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// LockByID locks the order row (FOR UPDATE) and loads its items.
func (r *orderRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Order, error) {
	var row types.Order
	if err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	if err := dbc.DB(r.db).Where("order_id = ?", row.ID).Order("product_id").Find(&row.Items).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *orderRepo) List(dbc dbctx.Context, f ListFilter) ([]*types.Order, int64, error) {
	q := dbc.DB(r.db).Model(&types.Order{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var rows []*types.Order
	if err := q.Preload("Items").Order("created_at DESC").Limit(limit).Offset(max(f.Offset, 0)).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *orderRepo) CountByStatus(dbc dbctx.Context) ([]StatusCount, error) {
	var out []StatusCount
	err := dbc.DB(r.db).
		Model(&types.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&out).Error
	return out, err
}

func (r *orderRepo) SumRevenueCents(dbc dbctx.Context) (int64, error) {
	var sum int64
	err := dbc.DB(r.db).
		Model(&types.Order{}).
		Where("status <> ?", types.OrderCancelled).
		Select("COALESCE(SUM(total_cents), 0)").
		Scan(&sum).Error
	return sum, err
}

func (r *orderRepo) CountSince(dbc dbctx.Context, since time.Time) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Order{}).Where("created_at >= ?", since).Count(&n).Error
	return n, err
}

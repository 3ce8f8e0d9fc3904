package user

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

type ListFilter struct {
	Role   types.Role
	Limit  int
	Offset int
}

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
	EmailExists(dbc dbctx.Context, email string) (bool, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	List(dbc dbctx.Context, f ListFilter) ([]*types.User, int64, error)
	ListByRoles(dbc dbctx.Context, roles []types.Role) ([]*types.User, error)
	CountByRole(dbc dbctx.Context, role types.Role) (int64, error)
	UpdateProfile(dbc dbctx.Context, userID uuid.UUID, firstName, lastName, phone string) error
	UpdateRole(dbc dbctx.Context, userID uuid.UUID, role types.Role) error
	UpdatePassword(dbc dbctx.Context, userID uuid.UUID, hash string) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	for _, u := range users {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		u.Email = strings.ToLower(strings.TrimSpace(u.Email))
		if u.Role == "" {
			u.Role = types.RoleCustomer
		}
	}
	if err := dbc.DB(ur.db).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (ur *userRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.User
	if err := dbc.DB(ur.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (ur *userRepo) GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error) {
	var results []*types.User
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(ur.db).Where("id IN ?", userIDs).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	var row types.User
	if err := dbc.DB(ur.db).Where("email = ?", email).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (ur *userRepo) EmailExists(dbc dbctx.Context, email string) (bool, error) {
	var count int64
	if err := dbc.DB(ur.db).
		Model(&types.User{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// LockByID takes a row lock (FOR UPDATE) on postgres. Returns gorm.ErrRecordNotFound if missing.
func (ur *userRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	var row types.User
	if err := dbc.DB(ur.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (ur *userRepo) List(dbc dbctx.Context, f ListFilter) ([]*types.User, int64, error) {
	q := dbc.DB(ur.db).Model(&types.User{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []*types.User
	if err := q.Order("created_at DESC").Limit(clampLimit(f.Limit)).Offset(max(f.Offset, 0)).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (ur *userRepo) ListByRoles(dbc dbctx.Context, roles []types.Role) ([]*types.User, error) {
	var rows []*types.User
	if len(roles) == 0 {
		return rows, nil
	}
	if err := dbc.DB(ur.db).Where("role IN ?", roles).Order("last_name, first_name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (ur *userRepo) CountByRole(dbc dbctx.Context, role types.Role) (int64, error) {
	var count int64
	err := dbc.DB(ur.db).Model(&types.User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

func (ur *userRepo) UpdateProfile(dbc dbctx.Context, userID uuid.UUID, firstName, lastName, phone string) error {
	return dbc.DB(ur.db).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"first_name": firstName,
			"last_name":  lastName,
			"phone":      phone,
		}).Error
}

func (ur *userRepo) UpdateRole(dbc dbctx.Context, userID uuid.UUID, role types.Role) error {
	return dbc.DB(ur.db).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("role", role).Error
}

func (ur *userRepo) UpdatePassword(dbc dbctx.Context, userID uuid.UUID, hash string) error {
	return dbc.DB(ur.db).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("password", hash).Error
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/pawclinic-backend/internal/data/repos"
	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/platform/apierr"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
}

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	UpdateProfile(ctx context.Context, in UpdateProfileInput) (*types.User, error)
	ListVets(ctx context.Context) ([]*types.User, error)

	ListUsers(ctx context.Context, role types.Role, page Page) (PageResult[*types.User], error)
	SetRole(ctx context.Context, userID uuid.UUID, role types.Role) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{
		db:       db,
		log:      log.With("service", "UserService"),
		userRepo: userRepo,
	}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	u, err := us.userRepo.GetByID(dbctx.Context{Ctx: ctx}, rd.UserID)
	if err != nil {
		return nil, apierr.Internal("get_user_failed", err)
	}
	if u == nil {
		return nil, apierr.NotFound("user_not_found")
	}
	return u, nil
}

func (us *userService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*types.User, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	var out *types.User
	err = us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		u, err := us.userRepo.GetByID(dbc, rd.UserID)
		if err != nil {
			return err
		}
		if u == nil {
			return apierr.NotFound("user_not_found")
		}
		first, last, phone := u.FirstName, u.LastName, u.Phone
		if v := trimPtr(in.FirstName); v != nil {
			first = *v
		}
		if v := trimPtr(in.LastName); v != nil {
			last = *v
		}
		if v := trimPtr(in.Phone); v != nil {
			phone = *v
		}
		if first == "" || last == "" {
			return apierr.BadRequest("invalid_name", fmt.Errorf("first and last name cannot be empty"))
		}
		if err := us.userRepo.UpdateProfile(dbc, u.ID, first, last, phone); err != nil {
			return err
		}
		u.FirstName, u.LastName, u.Phone = first, last, phone
		out = u
		return nil
	})
	if err != nil {
		return nil, asAPIError(err, "update_profile_failed")
	}
	return out, nil
}

func (us *userService) ListVets(ctx context.Context) ([]*types.User, error) {
	rows, err := us.userRepo.ListByRoles(dbctx.Context{Ctx: ctx}, []types.Role{types.RoleStaff, types.RoleAdmin})
	if err != nil {
		return nil, apierr.Internal("list_vets_failed", err)
	}
	return rows, nil
}

func (us *userService) ListUsers(ctx context.Context, role types.Role, page Page) (PageResult[*types.User], error) {
	role = types.Role(strings.ToLower(strings.TrimSpace(string(role))))
	if role != "" && !role.Valid() {
		return PageResult[*types.User]{}, apierr.BadRequest("invalid_role", fmt.Errorf("unknown role %q", role))
	}
	limit, offset := page.limitOffset()
	rows, total, err := us.userRepo.List(dbctx.Context{Ctx: ctx}, repos.UserListFilter{Role: role, Limit: limit, Offset: offset})
	if err != nil {
		return PageResult[*types.User]{}, apierr.Internal("list_users_failed", err)
	}
	return newPageResult(rows, total, page), nil
}

func (us *userService) SetRole(ctx context.Context, userID uuid.UUID, role types.Role) (*types.User, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apierr.BadRequest("invalid_role", fmt.Errorf("unknown role %q", role))
	}
	if userID == rd.UserID && role != types.RoleAdmin {
		return nil, apierr.Conflict("cannot_demote_self", fmt.Errorf("admins cannot change their own role"))
	}
	dbc := dbctx.Context{Ctx: ctx}
	u, err := us.userRepo.GetByID(dbc, userID)
	if err != nil {
		return nil, apierr.Internal("set_role_failed", err)
	}
	if u == nil {
		return nil, apierr.NotFound("user_not_found")
	}
	if u.Role == role {
		return u, nil
	}
	if err := us.userRepo.UpdateRole(dbc, userID, role); err != nil {
		return nil, apierr.Internal("set_role_failed", err)
	}
	us.log.Info("user role changed", "user_id", userID, "from", u.Role, "to", role, "by", rd.UserID)
	u.Role = role
	return u, nil
}

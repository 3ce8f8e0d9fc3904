package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

// UserTokenRepo stores login sessions. Lookups return nil, nil on a miss.
type UserTokenRepo interface {
	Create(dbc dbctx.Context, token *types.UserToken) error
	FindByAccessToken(dbc dbctx.Context, access string) (*types.UserToken, error)
	FindByRefreshToken(dbc dbctx.Context, refresh string) (*types.UserToken, error)
	Revoke(dbc dbctx.Context, ids ...uuid.UUID) error
	RevokeUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	DeleteExpired(dbc dbctx.Context, now time.Time) (int64, error)
}

type userTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return &userTokenRepo{db: db, log: baseLog.With("repo", "UserTokenRepo")}
}

func (r *userTokenRepo) Create(dbc dbctx.Context, token *types.UserToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	return dbc.DB(r.db).Create(token).Error
}

func (r *userTokenRepo) FindByAccessToken(dbc dbctx.Context, access string) (*types.UserToken, error) {
	return r.findOne(dbc, "access_token = ?", access)
}

func (r *userTokenRepo) FindByRefreshToken(dbc dbctx.Context, refresh string) (*types.UserToken, error) {
	return r.findOne(dbc, "refresh_token = ?", refresh)
}

func (r *userTokenRepo) findOne(dbc dbctx.Context, where string, arg string) (*types.UserToken, error) {
	if arg == "" {
		return nil, nil
	}
	var t types.UserToken
	err := dbc.DB(r.db).Where(where, arg).Take(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *userTokenRepo) Revoke(dbc dbctx.Context, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("id IN ?", ids).Delete(&types.UserToken{}).Error
}

// RevokeUser ends every session of userID.
func (r *userTokenRepo) RevokeUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("user_id = ?", userID).Delete(&types.UserToken{})
	return res.RowsAffected, res.Error
}

func (r *userTokenRepo) DeleteExpired(dbc dbctx.Context, now time.Time) (int64, error) {
	res := dbc.DB(r.db).Where("expires_at <= ?", now).Delete(&types.UserToken{})
	return res.RowsAffected, res.Error
}

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/pawclinic-backend/internal/data/repos"
	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/observability"
	"github.com/yungbote/pawclinic-backend/internal/platform/apierr"
	"github.com/yungbote/pawclinic-backend/internal/platform/ctxutil"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
	"github.com/yungbote/pawclinic-backend/internal/platform/ratelimit"
)

const minPasswordLength = 8

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*types.User, error)
	Login(ctx context.Context, email, password, clientIP string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context) error
	LogoutEverywhere(ctx context.Context) (int64, error)
	PruneExpiredSessions(ctx context.Context) (int64, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	AccessTTL() time.Duration
}

type AuthConfig struct {
	JWTSecretKey string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	limiter       ratelimit.AttemptLimiter
	metrics       *observability.Metrics
	cfg           AuthConfig
	clock         Clock
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	limiter ratelimit.AttemptLimiter,
	metrics *observability.Metrics,
	cfg AuthConfig,
) AuthService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 24 * time.Hour
	}
	if limiter == nil {
		limiter = ratelimit.NewMemory(ratelimit.Config{})
	}
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		limiter:       limiter,
		metrics:       metrics,
		cfg:           cfg,
	}
}

func (as *authService) AccessTTL() time.Duration { return as.cfg.AccessTTL }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (as *authService) Register(ctx context.Context, in RegisterInput) (*types.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apierr.BadRequest("invalid_email", fmt.Errorf("a valid email is required"))
	}
	if len(in.Password) < minPasswordLength {
		return nil, apierr.BadRequest("weak_password", fmt.Errorf("password must be at least %d characters", minPasswordLength))
	}
	first, last := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	if first == "" || last == "" {
		return nil, apierr.BadRequest("invalid_name", fmt.Errorf("first and last name are required"))
	}

	dbc := dbctx.Context{Ctx: ctx}
	exists, err := as.userRepo.EmailExists(dbc, email)
	if err != nil {
		return nil, apierr.Internal("registration_failed", err)
	}
	if exists {
		return nil, apierr.Conflict("email_taken", fmt.Errorf("email already registered"))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apierr.Internal("registration_failed", err)
	}
	created, err := as.userRepo.Create(dbc, []*types.User{{
		Email:     email,
		Password:  string(hash),
		FirstName: first,
		LastName:  last,
		Phone:     strings.TrimSpace(in.Phone),
		Role:      types.RoleCustomer,
	}})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apierr.Conflict("email_taken", fmt.Errorf("email already registered"))
	}
	if err != nil {
		return nil, apierr.Internal("registration_failed", err)
	}
	as.log.Info("user registered", "user_id", created[0].ID)
	return created[0], nil
}

func (as *authService) Login(ctx context.Context, email, password, clientIP string) (*TokenPair, error) {
	email = normalizeEmail(email)
	key := ratelimit.LoginKey(clientIP, email)

	// The attempt is reserved before the password check and only handed back
	// by Reset on success, so concurrent guesses share one budget.
	dec, err := as.limiter.Reserve(ctx, key)
	if err != nil {
		// Fail open when the limiter backend is unavailable.
		as.log.Warn("login limiter reserve failed", "error", err)
		dec = ratelimit.Decision{Allowed: true}
	}
	if !dec.Allowed {
		as.metrics.IncLogin("rate_limited")
		return nil, &apierr.Error{
			Status:     http.StatusTooManyRequests,
			Code:       "too_many_attempts",
			Err:        apierr.ErrRateLimited,
			RetryAfter: dec.RetryAfter,
		}
	}

	dbc := dbctx.Context{Ctx: ctx}
	user, err := as.userRepo.GetByEmail(dbc, email)
	if err != nil {
		return nil, apierr.Internal("login_failed", err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		as.metrics.IncLogin("invalid_credentials")
		return nil, apierr.New(http.StatusUnauthorized, "invalid_credentials", fmt.Errorf("invalid email or password"))
	}
	if rerr := as.limiter.Reset(ctx, key); rerr != nil {
		as.log.Warn("login limiter reset failed", "error", rerr)
	}

	pair, err := as.issueTokens(dbc, user)
	if err != nil {
		return nil, apierr.Internal("login_failed", err)
	}
	as.metrics.IncLogin("success")
	return pair, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apierr.BadRequest("missing_refresh_token", nil)
	}
	var pair *TokenPair
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := as.userTokenRepo.FindByRefreshToken(dbc, refreshToken)
		if err != nil {
			return err
		}
		if existing == nil {
			return apierr.New(http.StatusUnauthorized, "invalid_refresh_token", apierr.ErrUnauthorized)
		}
		if rd := ctxutil.GetRequestData(ctx); rd != nil && rd.UserID != uuid.Nil && rd.UserID != existing.UserID {
			return apierr.New(http.StatusUnauthorized, "invalid_refresh_token", apierr.ErrUnauthorized)
		}
		if existing.Expired(as.clock.now()) {
			if err := as.userTokenRepo.Revoke(dbc, existing.ID); err != nil {
				return err
			}
			// Commit the delete; the caller still gets 401.
			pair = nil
			return nil
		}
		user, err := as.userRepo.GetByID(dbc, existing.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return apierr.New(http.StatusUnauthorized, "invalid_refresh_token", apierr.ErrUnauthorized)
		}
		if err := as.userTokenRepo.Revoke(dbc, existing.ID); err != nil {
			return err
		}
		p, err := as.issueTokens(dbc, user)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		return nil, apierr.Internal("refresh_failed", err)
	}
	if pair == nil {
		return nil, apierr.New(http.StatusUnauthorized, "refresh_token_expired", apierr.ErrUnauthorized)
	}
	return pair, nil
}

func (as *authService) Logout(ctx context.Context) error {
	rd, err := caller(ctx)
	if err != nil {
		return err
	}
	dbc := dbctx.Context{Ctx: ctx}
	tok, err := as.userTokenRepo.FindByAccessToken(dbc, rd.TokenString)
	if err != nil {
		return apierr.Internal("logout_failed", err)
	}
	if tok == nil {
		return nil
	}
	if err := as.userTokenRepo.Revoke(dbc, tok.ID); err != nil {
		return apierr.Internal("logout_failed", err)
	}
	return nil
}

// LogoutEverywhere ends every session of the caller, including the current one.
func (as *authService) LogoutEverywhere(ctx context.Context) (int64, error) {
	rd, err := caller(ctx)
	if err != nil {
		return 0, err
	}
	n, err := as.userTokenRepo.RevokeUser(dbctx.Context{Ctx: ctx}, rd.UserID)
	if err != nil {
		return 0, apierr.Internal("logout_failed", err)
	}
	as.log.Info("sessions revoked", "user_id", rd.UserID, "count", n)
	return n, nil
}

// PruneExpiredSessions deletes sessions whose refresh window has closed.
func (as *authService) PruneExpiredSessions(ctx context.Context) (int64, error) {
	return as.userTokenRepo.DeleteExpired(dbctx.Context{Ctx: ctx}, as.clock.now())
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, apierr.Unauthorized()
	}
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(as.cfg.JWTSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.clock.now))
	if err != nil || !token.Valid {
		return ctx, apierr.Unauthorized()
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return ctx, apierr.Unauthorized()
	}
	dbc := dbctx.Context{Ctx: ctx}
	session, err := as.userTokenRepo.FindByAccessToken(dbc, tokenString)
	if err != nil {
		return ctx, apierr.Internal("auth_failed", err)
	}
	if session == nil || session.UserID != userID {
		return ctx, apierr.Unauthorized()
	}
	// Role comes from the user row so role changes apply without re-login.
	user, err := as.userRepo.GetByID(dbc, userID)
	if err != nil {
		return ctx, apierr.Internal("auth_failed", err)
	}
	if user == nil {
		return ctx, apierr.Unauthorized()
	}

	rd := ctxutil.GetRequestData(ctx).WithCaller(tokenString, userID, string(user.Role))
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) issueTokens(dbc dbctx.Context, user *types.User) (*TokenPair, error) {
	now := as.clock.now()
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(as.cfg.AccessTTL).Unix(),
		"jti":  uuid.NewString(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.cfg.JWTSecretKey))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh := uuid.NewString()
	if err := as.userTokenRepo.Create(dbc, &types.UserToken{
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(as.cfg.RefreshTTL),
	}); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(as.cfg.AccessTTL.Seconds()),
	}, nil
}

package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/platform/apierr"
	"github.com/yungbote/pawclinic-backend/internal/platform/ctxutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page is a 1-based page request.
type Page struct {
	Page     int
	PageSize int
}

func (p Page) normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}

func (p Page) limitOffset() (int, int) {
	p = p.normalize()
	return p.PageSize, (p.Page - 1) * p.PageSize
}

// PageResult wraps a page of rows with the total count.
type PageResult[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

func newPageResult[T any](items []T, total int64, p Page) PageResult[T] {
	p = p.normalize()
	if items == nil {
		items = []T{}
	}
	return PageResult[T]{Items: items, Total: total, Page: p.Page, PageSize: p.PageSize}
}

// caller returns the authenticated request data or 401.
func caller(ctx context.Context) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized()
	}
	return rd, nil
}

func requireStaff(ctx context.Context) (*ctxutil.RequestData, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if !callerIsStaff(rd) {
		return nil, apierr.Forbidden()
	}
	return rd, nil
}

func requireAdmin(ctx context.Context) (*ctxutil.RequestData, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if !callerIsAdmin(rd) {
		return nil, apierr.Forbidden()
	}
	return rd, nil
}

func callerIsStaff(rd *ctxutil.RequestData) bool {
	return rd != nil && types.Role(rd.Role).IsStaff()
}

func callerIsAdmin(rd *ctxutil.RequestData) bool {
	return rd != nil && types.Role(rd.Role) == types.RoleAdmin
}

// Clock is swapped in tests.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func ownerFilter(rd *ctxutil.RequestData) *uuid.UUID {
	if callerIsStaff(rd) {
		return nil
	}
	id := rd.UserID
	return &id
}

// asAPIError passes *apierr.Error through and wraps anything else as a 500 with code.
func asAPIError(err error, code string) error {
	if err == nil {
		return nil
	}
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae
	}
	return apierr.Internal(code, err)
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// slugify lower-cases s and collapses every run of non alphanumerics into one dash.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

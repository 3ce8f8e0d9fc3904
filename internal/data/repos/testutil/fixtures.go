package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pawclinic-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	return SeedUserWithRole(tb, ctx, tx, email, types.RoleCustomer)
}

func SeedUserWithRole(tb testing.TB, ctx context.Context, tx *gorm.DB, email string, role types.Role) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
		Role:      role,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCategory(tb testing.TB, ctx context.Context, tx *gorm.DB, slug string) *types.ProductCategory {
	tb.Helper()
	c := &types.ProductCategory{ID: uuid.New(), Name: slug, Slug: slug}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed category: %v", err)
	}
	return c
}

func SeedProduct(tb testing.TB, ctx context.Context, tx *gorm.DB, slug string, priceCents int64, stock int) *types.Product {
	tb.Helper()
	p := &types.Product{
		ID:         uuid.New(),
		Name:       slug,
		Slug:       slug,
		PriceCents: priceCents,
		Stock:      stock,
		Active:     true,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed product: %v", err)
	}
	return p
}

func SeedPet(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, name string) *types.Pet {
	tb.Helper()
	p := &types.Pet{ID: uuid.New(), OwnerID: ownerID, Name: name, Species: "dog"}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed pet: %v", err)
	}
	return p
}

func SeedClinicService(tb testing.TB, ctx context.Context, tx *gorm.DB, slug string, minutes int) *types.ClinicService {
	tb.Helper()
	s := &types.ClinicService{ID: uuid.New(), Name: slug, Slug: slug, DurationMinutes: minutes, PriceCents: 5000, Active: true}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed clinic service: %v", err)
	}
	return s
}

func SeedRoom(tb testing.TB, ctx context.Context, tx *gorm.DB, number string, rateCents int64) *types.HotelRoom {
	tb.Helper()
	r := &types.HotelRoom{ID: uuid.New(), Number: number, Kind: "standard", NightlyRateCents: rateCents, Status: types.RoomAvailable}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed room: %v", err)
	}
	return r
}

// Day returns midnight UTC offset by n days from today.
func Day(n int) time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }

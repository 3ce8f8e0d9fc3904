package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/pawclinic-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pawclinic-backend/internal/domain"
)

func TestDefaultDocumentIsValid(t *testing.T) {
	doc, err := Default()
	require.NoError(t, err)
	assert.Len(t, doc.Categories, 3)
	assert.Len(t, doc.Products, 4)
	assert.Len(t, doc.Services, 4)
	assert.Len(t, doc.Rooms, 4)
	require.NotNil(t, doc.Admin)
}

func TestParseRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"unknown category": "products:\n  - {name: A, slug: a, category: nope}\n",
		"missing slug":     "categories:\n  - {name: Food}\n",
		"bad room kind":    "rooms:\n  - {number: \"1\", kind: penthouse}\n",
		"zero duration":    "services:\n  - {name: A, slug: a}\n",
		"bad admin":        "admin: {email: nobody}\n",
		"not yaml":         "categories: [",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			require.Error(t, err)
		})
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	doc, err := Default()
	require.NoError(t, err)

	res, err := Apply(ctx, db, log, doc, "admin-password")
	require.NoError(t, err)
	assert.Equal(t, Result{Categories: 3, Products: 4, Services: 4, Rooms: 4, Admin: true}, res)

	// Live stock survives a re-seed while descriptive fields are refreshed.
	require.NoError(t, db.Model(&types.Product{}).Where("slug = ?", "rope-tug-toy").Update("stock", 3).Error)
	doc.Products[2].PriceCents = 1090

	res, err = Apply(ctx, db, log, doc, "another-password")
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)

	var toy types.Product
	require.NoError(t, db.Where("slug = ?", "rope-tug-toy").First(&toy).Error)
	assert.Equal(t, 3, toy.Stock)
	assert.EqualValues(t, 1090, toy.PriceCents)
	require.NotNil(t, toy.CategoryID)

	var count int64
	require.NoError(t, db.Model(&types.HotelRoom{}).Count(&count).Error)
	assert.EqualValues(t, 4, count)

	var admin types.User
	require.NoError(t, db.Where("email = ?", "admin@pawclinic.local").First(&admin).Error)
	assert.Equal(t, types.RoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("admin-password")))
}

func TestApplyRestoresSoftDeletedRows(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	doc := &Document{Categories: []Category{{Name: "Food", Slug: "food"}}}

	_, err := Apply(ctx, db, testutil.Logger(t), doc, "")
	require.NoError(t, err)
	require.NoError(t, db.Where("slug = ?", "food").Delete(&types.ProductCategory{}).Error)

	res, err := Apply(ctx, db, testutil.Logger(t), doc, "")
	require.NoError(t, err)
	assert.Zero(t, res.Categories)

	var cat types.ProductCategory
	require.NoError(t, db.Where("slug = ?", "food").First(&cat).Error)
}

func TestApplyRequiresAdminPassword(t *testing.T) {
	doc := &Document{Admin: &Admin{Email: "admin@example.com"}}
	_, err := Apply(context.Background(), testutil.DB(t), testutil.Logger(t), doc, "short")
	require.Error(t, err)
}

func TestLoadFilesMerges(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	require.NoError(t, os.WriteFile(a, []byte("categories:\n  - {name: Food, slug: food}\n"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("products:\n  - {name: Kibble, slug: kibble, category: food, price_cents: 100}\n"), 0o600))

	doc, err := LoadFiles(context.Background(), a, b)
	require.NoError(t, err)
	assert.Len(t, doc.Categories, 1)
	assert.Len(t, doc.Products, 1)

	_, err = LoadFiles(context.Background(), filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

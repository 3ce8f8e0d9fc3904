// Package seed loads reference data (catalog, clinic services, hotel rooms and the first admin)
// from YAML documents and upserts it.
package seed

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/domain/hotel"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

//go:embed default.yaml
var defaultFS embed.FS

type Document struct {
	Categories []Category `yaml:"categories"`
	Products   []Product  `yaml:"products"`
	Services   []Service  `yaml:"services"`
	Rooms      []Room     `yaml:"rooms"`
	Admin      *Admin     `yaml:"admin"`
}

type Category struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

type Product struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
	PriceCents  int64  `yaml:"price_cents"`
	Stock       int    `yaml:"stock"`
	Inactive    bool   `yaml:"inactive"`
}

type Service struct {
	Name            string `yaml:"name"`
	Slug            string `yaml:"slug"`
	Description     string `yaml:"description"`
	DurationMinutes int    `yaml:"duration_minutes"`
	PriceCents      int64  `yaml:"price_cents"`
}

type Room struct {
	Number           string `yaml:"number"`
	Kind             string `yaml:"kind"`
	NightlyRateCents int64  `yaml:"nightly_rate_cents"`
	Notes            string `yaml:"notes"`
}

type Admin struct {
	Email     string `yaml:"email"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

type Result struct {
	Categories int
	Products   int
	Services   int
	Rooms      int
	Admin      bool
}

func Default() (*Document, error) {
	raw, err := defaultFS.ReadFile("default.yaml")
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Document, error) {
	doc, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func decode(raw []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode seed yaml: %w", err)
	}
	return &doc, nil
}

// LoadFiles reads every path concurrently and merges the documents in argument order. Cross
// references (product categories) are checked on the merged document.
func LoadFiles(ctx context.Context, paths ...string) (*Document, error) {
	docs := make([]*Document, len(paths))
	g, _ := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			raw, err := os.ReadFile(p)
			if err != nil {
				return fmt.Errorf("read %s: %w", p, err)
			}
			doc, err := decode(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	merged := &Document{}
	for _, d := range docs {
		merged.Categories = append(merged.Categories, d.Categories...)
		merged.Products = append(merged.Products, d.Products...)
		merged.Services = append(merged.Services, d.Services...)
		merged.Rooms = append(merged.Rooms, d.Rooms...)
		if d.Admin != nil {
			merged.Admin = d.Admin
		}
	}
	if err := merged.validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

func (d *Document) validate() error {
	var errs []error
	cats := map[string]bool{}
	for i, c := range d.Categories {
		if strings.TrimSpace(c.Slug) == "" || strings.TrimSpace(c.Name) == "" {
			errs = append(errs, fmt.Errorf("categories[%d]: name and slug are required", i))
		}
		cats[c.Slug] = true
	}
	for i, p := range d.Products {
		if strings.TrimSpace(p.Slug) == "" || strings.TrimSpace(p.Name) == "" {
			errs = append(errs, fmt.Errorf("products[%d]: name and slug are required", i))
		}
		if p.PriceCents < 0 || p.Stock < 0 {
			errs = append(errs, fmt.Errorf("products[%d]: price and stock must not be negative", i))
		}
		if p.Category != "" && !cats[p.Category] {
			errs = append(errs, fmt.Errorf("products[%d]: unknown category %q", i, p.Category))
		}
	}
	for i, s := range d.Services {
		if strings.TrimSpace(s.Slug) == "" || strings.TrimSpace(s.Name) == "" {
			errs = append(errs, fmt.Errorf("services[%d]: name and slug are required", i))
		}
		if s.DurationMinutes <= 0 || s.DurationMinutes > 480 {
			errs = append(errs, fmt.Errorf("services[%d]: duration_minutes must be between 1 and 480", i))
		}
	}
	for i, r := range d.Rooms {
		if strings.TrimSpace(r.Number) == "" {
			errs = append(errs, fmt.Errorf("rooms[%d]: number is required", i))
		}
		if r.Kind != "" && !types.RoomKind(r.Kind).Valid() {
			errs = append(errs, fmt.Errorf("rooms[%d]: unknown kind %q", i, r.Kind))
		}
	}
	if d.Admin != nil && !strings.Contains(d.Admin.Email, "@") {
		errs = append(errs, fmt.Errorf("admin: a valid email is required"))
	}
	return errors.Join(errs...)
}

// Apply upserts doc in one transaction. Existing rows keep their live state (product stock,
// room status, admin password); only descriptive fields are refreshed.
func Apply(ctx context.Context, db *gorm.DB, log *logger.Logger, doc *Document, adminPassword string) (Result, error) {
	var res Result
	if doc.Admin != nil && len(adminPassword) < 8 {
		return res, fmt.Errorf("SEED_ADMIN_PASSWORD must be at least 8 characters")
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		catIDs := map[string]uuid.UUID{}
		for _, c := range doc.Categories {
			row := types.ProductCategory{}
			created, err := upsert(tx, &row, "slug = ?", c.Slug, func(isNew bool) {
				if isNew {
					row.ID = uuid.New()
					row.Slug = c.Slug
				}
				row.Name = c.Name
			})
			if err != nil {
				return fmt.Errorf("category %s: %w", c.Slug, err)
			}
			catIDs[c.Slug] = row.ID
			res.Categories += created
		}

		for _, p := range doc.Products {
			row := types.Product{}
			created, err := upsert(tx, &row, "slug = ?", p.Slug, func(isNew bool) {
				if isNew {
					row.ID = uuid.New()
					row.Slug = p.Slug
					row.Stock = p.Stock
				}
				row.Name = p.Name
				row.Description = p.Description
				row.PriceCents = p.PriceCents
				row.Active = !p.Inactive
				row.CategoryID = nil
				if id, ok := catIDs[p.Category]; ok {
					row.CategoryID = &id
				}
			})
			if err != nil {
				return fmt.Errorf("product %s: %w", p.Slug, err)
			}
			res.Products += created
		}

		for _, s := range doc.Services {
			row := types.ClinicService{}
			created, err := upsert(tx, &row, "slug = ?", s.Slug, func(isNew bool) {
				if isNew {
					row.ID = uuid.New()
					row.Slug = s.Slug
				}
				row.Name = s.Name
				row.Description = s.Description
				row.DurationMinutes = s.DurationMinutes
				row.PriceCents = s.PriceCents
				row.Active = true
			})
			if err != nil {
				return fmt.Errorf("service %s: %w", s.Slug, err)
			}
			res.Services += created
		}

		for _, r := range doc.Rooms {
			row := types.HotelRoom{}
			created, err := upsert(tx, &row, "number = ?", r.Number, func(isNew bool) {
				if isNew {
					row.ID = uuid.New()
					row.Number = r.Number
					row.Status = types.RoomAvailable
				}
				row.Kind = hotel.RoomStandard
				if r.Kind != "" {
					row.Kind = types.RoomKind(r.Kind)
				}
				row.NightlyRateCents = r.NightlyRateCents
				row.Notes = r.Notes
			})
			if err != nil {
				return fmt.Errorf("room %s: %w", r.Number, err)
			}
			res.Rooms += created
		}

		if doc.Admin != nil {
			email := strings.ToLower(strings.TrimSpace(doc.Admin.Email))
			var hashErr error
			row := types.User{}
			created, err := upsert(tx, &row, "email = ?", email, func(isNew bool) {
				if isNew {
					hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
					hashErr = err
					row.ID = uuid.New()
					row.Email = email
					row.Password = string(hash)
					row.FirstName = orDefault(doc.Admin.FirstName, "Clinic")
					row.LastName = orDefault(doc.Admin.LastName, "Admin")
				}
				row.Role = types.RoleAdmin
			})
			if hashErr != nil {
				return fmt.Errorf("hash admin password: %w", hashErr)
			}
			if err != nil {
				return fmt.Errorf("admin %s: %w", email, err)
			}
			res.Admin = created == 1
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	log.Info("Seed applied",
		"categories_created", res.Categories,
		"products_created", res.Products,
		"services_created", res.Services,
		"rooms_created", res.Rooms,
		"admin_created", res.Admin,
	)
	return res, nil
}

// upsert loads the row matching where (including soft-deleted ones), lets fill mutate it and
// saves it. It returns 1 when a row was inserted.
func upsert[T any](tx *gorm.DB, row *T, where string, key string, fill func(isNew bool)) (int, error) {
	err := tx.Unscoped().Where(where, key).First(row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		fill(true)
		return 1, tx.Create(row).Error
	case err != nil:
		return 0, err
	}
	fill(false)
	if err := tx.Unscoped().Save(row).Error; err != nil {
		return 0, err
	}
	// Restores soft-deleted rows too.
	return 0, tx.Unscoped().Model(row).Update("deleted_at", nil).Error
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}

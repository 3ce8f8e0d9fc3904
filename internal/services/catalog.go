package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/pawclinic-backend/internal/data/repos"
	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/platform/apierr"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
	"github.com/yungbote/pawclinic-backend/internal/platform/storage"
)

type ProductQuery struct {
	Query        string
	CategorySlug string
	Page         Page
}

type CategoryInput struct {
	Name string
	Slug string
}

type ProductInput struct {
	CategoryID  *uuid.UUID
	Name        string
	Slug        string
	Description string
	PriceCents  int64
	Stock       int
	Attributes  json.RawMessage
	Active      *bool
}

// ProductPatch updates only the fields that are set.
type ProductPatch struct {
	CategoryID  *uuid.UUID
	Name        *string
	Slug        *string
	Description *string
	PriceCents  *int64
	Attributes  json.RawMessage
	Active      *bool
}

type CatalogService interface {
	ListCategories(ctx context.Context) ([]*types.ProductCategory, error)
	ListProducts(ctx context.Context, q ProductQuery) (PageResult[*types.Product], error)
	GetProductBySlug(ctx context.Context, slug string) (*types.Product, error)

	CreateCategory(ctx context.Context, in CategoryInput) (*types.ProductCategory, error)
	CreateProduct(ctx context.Context, in ProductInput) (*types.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, in ProductPatch) (*types.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*types.Product, error)
	UploadProductImage(ctx context.Context, id uuid.UUID, raw []byte) (*types.Product, error)
}

type catalogService struct {
	db           *gorm.DB
	log          *logger.Logger
	categoryRepo repos.ProductCategoryRepo
	productRepo  repos.ProductRepo
	bucket       storage.BucketService
	images       ImageProcessor
}

func NewCatalogService(
	db *gorm.DB,
	log *logger.Logger,
	categoryRepo repos.ProductCategoryRepo,
	productRepo repos.ProductRepo,
	bucket storage.BucketService,
	images ImageProcessor,
) CatalogService {
	return &catalogService{
		db:           db,
		log:          log.With("service", "CatalogService"),
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		bucket:       bucket,
		images:       images,
	}
}

func (cs *catalogService) ListCategories(ctx context.Context) ([]*types.ProductCategory, error) {
	rows, err := cs.categoryRepo.List(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, apierr.Internal("list_categories_failed", err)
	}
	return rows, nil
}

func (cs *catalogService) ListProducts(ctx context.Context, q ProductQuery) (PageResult[*types.Product], error) {
	dbc := dbctx.Context{Ctx: ctx}
	filter := repos.ProductFilter{Query: strings.TrimSpace(q.Query), ActiveOnly: true}
	if slug := strings.TrimSpace(q.CategorySlug); slug != "" {
		cat, err := cs.categoryRepo.GetBySlug(dbc, slug)
		if err != nil {
			return PageResult[*types.Product]{}, apierr.Internal("list_products_failed", err)
		}
		if cat == nil {
			return newPageResult[*types.Product](nil, 0, q.Page), nil
		}
		filter.CategoryID = &cat.ID
	}
	filter.Limit, filter.Offset = q.Page.limitOffset()
	rows, total, err := cs.productRepo.List(dbc, filter)
	if err != nil {
		return PageResult[*types.Product]{}, apierr.Internal("list_products_failed", err)
	}
	return newPageResult(rows, total, q.Page), nil
}

func (cs *catalogService) GetProductBySlug(ctx context.Context, slug string) (*types.Product, error) {
	p, err := cs.productRepo.GetBySlug(dbctx.Context{Ctx: ctx}, strings.TrimSpace(slug), true)
	if err != nil {
		return nil, apierr.Internal("get_product_failed", err)
	}
	if p == nil {
		return nil, apierr.NotFound("product_not_found")
	}
	return p, nil
}

func (cs *catalogService) CreateCategory(ctx context.Context, in CategoryInput) (*types.ProductCategory, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apierr.BadRequest("invalid_category", fmt.Errorf("name is required"))
	}
	slug := slugify(in.Slug)
	if slug == "" {
		slug = slugify(name)
	}
	if slug == "" {
		return nil, apierr.BadRequest("invalid_category", fmt.Errorf("slug cannot be derived from name"))
	}
	row := &types.ProductCategory{ID: uuid.New(), Name: name, Slug: slug}
	if err := cs.categoryRepo.Create(dbctx.Context{Ctx: ctx}, row); err != nil {
		if isDuplicateKey(err) {
			return nil, apierr.Conflict("slug_taken", fmt.Errorf("category slug %q already exists", slug))
		}
		return nil, apierr.Internal("create_category_failed", err)
	}
	return row, nil
}

func (cs *catalogService) CreateProduct(ctx context.Context, in ProductInput) (*types.Product, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apierr.BadRequest("invalid_product", fmt.Errorf("name is required"))
	}
	if in.PriceCents < 0 {
		return nil, apierr.BadRequest("invalid_product", fmt.Errorf("price_cents must be >= 0"))
	}
	if in.Stock < 0 {
		return nil, apierr.BadRequest("invalid_product", fmt.Errorf("stock must be >= 0"))
	}
	slug := slugify(in.Slug)
	if slug == "" {
		slug = slugify(name)
	}
	if slug == "" {
		return nil, apierr.BadRequest("invalid_product", fmt.Errorf("slug cannot be derived from name"))
	}
	attrs, err := jsonColumn(in.Attributes)
	if err != nil {
		return nil, apierr.BadRequest("invalid_product", err)
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}

	dbc := dbctx.Context{Ctx: ctx}
	if err := cs.requireCategory(dbc, in.CategoryID); err != nil {
		return nil, asAPIError(err, "create_product_failed")
	}
	row := &types.Product{
		ID:          uuid.New(),
		CategoryID:  in.CategoryID,
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(in.Description),
		PriceCents:  in.PriceCents,
		Stock:       in.Stock,
		Attributes:  attrs,
		Active:      active,
	}
	if err := cs.productRepo.Create(dbc, row); err != nil {
		if isDuplicateKey(err) {
			return nil, apierr.Conflict("slug_taken", fmt.Errorf("product slug %q already exists", slug))
		}
		return nil, apierr.Internal("create_product_failed", err)
	}
	cs.log.Info("product created", "product_id", row.ID, "slug", row.Slug)
	return row, nil
}

func (cs *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, in ProductPatch) (*types.Product, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apierr.BadRequest("invalid_product", fmt.Errorf("name cannot be empty"))
		}
		updates["name"] = name
	}
	if in.Slug != nil {
		slug := slugify(*in.Slug)
		if slug == "" {
			return nil, apierr.BadRequest("invalid_product", fmt.Errorf("slug cannot be empty"))
		}
		updates["slug"] = slug
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.PriceCents != nil {
		if *in.PriceCents < 0 {
			return nil, apierr.BadRequest("invalid_product", fmt.Errorf("price_cents must be >= 0"))
		}
		updates["price_cents"] = *in.PriceCents
	}
	if in.Active != nil {
		updates["active"] = *in.Active
	}
	if in.Attributes != nil {
		attrs, err := jsonColumn(in.Attributes)
		if err != nil {
			return nil, apierr.BadRequest("invalid_product", err)
		}
		updates["attributes"] = attrs
	}
	if in.CategoryID != nil {
		updates["category_id"] = *in.CategoryID
	}

	var out *types.Product
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		p, err := cs.productRepo.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if p == nil {
			return apierr.NotFound("product_not_found")
		}
		if err := cs.requireCategory(dbc, in.CategoryID); err != nil {
			return err
		}
		if err := cs.productRepo.Update(dbc, id, updates); err != nil {
			if isDuplicateKey(err) {
				return apierr.Conflict("slug_taken", fmt.Errorf("product slug already exists"))
			}
			return err
		}
		out, err = cs.productRepo.GetByID(dbc, id)
		return err
	})
	if err != nil {
		return nil, asAPIError(err, "update_product_failed")
	}
	return out, nil
}

func (cs *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	dbc := dbctx.Context{Ctx: ctx}
	p, err := cs.productRepo.GetByID(dbc, id)
	if err != nil {
		return apierr.Internal("delete_product_failed", err)
	}
	if p == nil {
		return apierr.NotFound("product_not_found")
	}
	if err := cs.productRepo.SoftDelete(dbc, id); err != nil {
		return apierr.Internal("delete_product_failed", err)
	}
	cs.log.Info("product deleted", "product_id", id)
	return nil
}

func (cs *catalogService) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*types.Product, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if delta == 0 {
		return nil, apierr.BadRequest("invalid_delta", fmt.Errorf("delta must not be zero"))
	}
	var out *types.Product
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		p, err := cs.productRepo.GetByID(dbc, id)
		if err != nil {
			return err
		}
		if p == nil {
			return apierr.NotFound("product_not_found")
		}
		ok, err := cs.productRepo.AdjustStock(dbc, id, delta)
		if err != nil {
			return err
		}
		if !ok {
			return apierr.Conflict("insufficient_stock", fmt.Errorf("stock %d cannot be adjusted by %d", p.Stock, delta))
		}
		out, err = cs.productRepo.GetByID(dbc, id)
		return err
	})
	if err != nil {
		return nil, asAPIError(err, "adjust_stock_failed")
	}
	return out, nil
}

func (cs *catalogService) UploadProductImage(ctx context.Context, id uuid.UUID, raw []byte) (*types.Product, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	p, err := cs.productRepo.GetByID(dbc, id)
	if err != nil {
		return nil, apierr.Internal("upload_image_failed", err)
	}
	if p == nil {
		return nil, apierr.NotFound("product_not_found")
	}
	png, err := cs.images.ProductImage(raw)
	if err != nil {
		return nil, apierr.BadRequest("invalid_image", err)
	}
	key, url, err := storedImage(ctx, cs.log, cs.bucket, storage.BucketCategoryProduct, p.ID, p.ImageKey, png)
	if err != nil {
		return nil, apierr.Internal("upload_image_failed", err)
	}
	if err := cs.productRepo.Update(dbc, p.ID, map[string]any{"image_key": key, "image_url": url}); err != nil {
		return nil, apierr.Internal("upload_image_failed", err)
	}
	p.ImageKey, p.ImageURL = key, url
	return p, nil
}

func (cs *catalogService) requireCategory(dbc dbctx.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	cat, err := cs.categoryRepo.GetByID(dbc, *id)
	if err != nil {
		return err
	}
	if cat == nil {
		return apierr.BadRequest("invalid_category", fmt.Errorf("category %s does not exist", *id))
	}
	return nil
}

// jsonColumn validates raw JSON for a jsonb column. Empty input stores nothing.
func jsonColumn(raw json.RawMessage) (datatypes.JSON, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if !json.Valid([]byte(trimmed)) {
		return nil, fmt.Errorf("attributes must be valid JSON")
	}
	return datatypes.JSON(trimmed), nil
}

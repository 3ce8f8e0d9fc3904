package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/pawclinic-backend/internal/http/response"
	"github.com/yungbote/pawclinic-backend/internal/services"
)

type CatalogHandler struct {
	catalog services.CatalogService
}

func NewCatalogHandler(catalog services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// GET /api/categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	cats, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, "list_categories_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"categories": cats})
}

// GET /api/products?q=&category=&page=&page_size=
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	page, err := h.catalog.ListProducts(c.Request.Context(), services.ProductQuery{
		Query:        c.Query("q"),
		CategorySlug: c.Query("category"),
		Page:         pageFromQuery(c),
	})
	if err != nil {
		response.RespondServiceError(c, "list_products_failed", err)
		return
	}
	response.RespondOK(c, page)
}

// GET /api/products/:slug
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	p, err := h.catalog.GetProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.RespondServiceError(c, "get_product_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"product": p})
}

// POST /api/admin/categories
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	if !bindJSON(c, &req) {
		return
	}
	cat, err := h.catalog.CreateCategory(c.Request.Context(), services.CategoryInput{Name: req.Name, Slug: req.Slug})
	if err != nil {
		response.RespondServiceError(c, "create_category_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"category": cat})
}

type productRequest struct {
	CategoryID  *uuid.UUID      `json:"category_id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	PriceCents  int64           `json:"price_cents"`
	Stock       int             `json:"stock"`
	Attributes  json.RawMessage `json:"attributes"`
	Active      *bool           `json:"active"`
}

// POST /api/admin/products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.catalog.CreateProduct(c.Request.Context(), services.ProductInput{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Stock:       req.Stock,
		Attributes:  req.Attributes,
		Active:      req.Active,
	})
	if err != nil {
		response.RespondServiceError(c, "create_product_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"product": p})
}

// PUT /api/admin/products/:id
// Stock is changed only through POST /api/admin/products/:id/stock.
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_product_id")
	if !ok {
		return
	}
	var req struct {
		CategoryID  *uuid.UUID      `json:"category_id"`
		Name        *string         `json:"name"`
		Slug        *string         `json:"slug"`
		Description *string         `json:"description"`
		PriceCents  *int64          `json:"price_cents"`
		Attributes  json.RawMessage `json:"attributes"`
		Active      *bool           `json:"active"`
	}
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.catalog.UpdateProduct(c.Request.Context(), id, services.ProductPatch{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Attributes:  req.Attributes,
		Active:      req.Active,
	})
	if err != nil {
		response.RespondServiceError(c, "update_product_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"product": p})
}

// DELETE /api/admin/products/:id
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_product_id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, "delete_product_failed", err)
		return
	}
	response.RespondNoContent(c)
}

// POST /api/admin/products/:id/stock
// body: { "delta": -3 }
func (h *CatalogHandler) AdjustStock(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_product_id")
	if !ok {
		return
	}
	var req struct {
		Delta int `json:"delta"`
	}
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.catalog.AdjustStock(c.Request.Context(), id, req.Delta)
	if err != nil {
		response.RespondServiceError(c, "adjust_stock_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"product": p})
}

// POST /api/admin/products/:id/image
func (h *CatalogHandler) UploadImage(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_product_id")
	if !ok {
		return
	}
	raw, ok := readImage(c)
	if !ok {
		return
	}
	p, err := h.catalog.UploadProductImage(c.Request.Context(), id, raw)
	if err != nil {
		response.RespondServiceError(c, "upload_image_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"product": p})
}

// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agroreach/storefront/internal/config"
)

// Service handles product catalog lookups
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new product service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// ListRequest represents product list query parameters
type ListRequest struct {
	Page      int    `form:"page,default=1"`
	Limit     int    `form:"limit,default=20"`
	Category  string `form:"category"`
	Search    string `form:"search"`
	SortBy    string `form:"sort_by,default=created_at"`
	SortOrder string `form:"sort_order,default=desc"`
}

// CreateRequest represents product creation data
type CreateRequest struct {
	SKU         string          `json:"sku" binding:"required"`
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Image       string          `json:"image"`
	Stock       int             `json:"stock" binding:"min=0"`
}

// ListResponse represents a page of products
type ListResponse struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// GetProducts retrieves active products with filtering and pagination
func (s *Service) GetProducts(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	var products []Product
	var total int64

	query := s.db.WithContext(ctx).Model(&Product{}).Where("is_active = ?", true)

	if req.Category != "" {
		query = query.Where("category = ?", req.Category)
	}

	if req.Search != "" {
		search := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", search, search)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	offset := (req.Page - 1) * req.Limit
	if err := query.Order(buildOrderClause(req.SortBy, req.SortOrder)).
		Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	for i := range products {
		s.resolveImage(&products[i])
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ListResponse{
		Products: products,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// GetProduct retrieves a single product by ID
func (s *Service) GetProduct(ctx context.Context, id uint) (*Product, error) {
	var product Product
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}

	s.resolveImage(&product)
	return &product, nil
}

// GetPurchasable returns the product if it can currently be sold
func (s *Service) GetPurchasable(ctx context.Context, id uint) (*Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsPurchasable() {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// GetByIDs loads the active products among ids, keyed by ID
func (s *Service) GetByIDs(ctx context.Context, ids []uint) (map[uint]Product, error) {
	out := make(map[uint]Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var products []Product
	if err := s.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	for _, p := range products {
		s.resolveImage(&p)
		out[p.ID] = p
	}
	return out, nil
}

// CreateProduct creates a new product
func (s *Service) CreateProduct(ctx context.Context, req *CreateRequest) (*Product, error) {
	if !req.Price.IsPositive() {
		return nil, fmt.Errorf("price must be positive")
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&Product{}).Where("sku = ?", req.SKU).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check sku: %w", err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("product with SKU %s already exists", req.SKU)
	}

	product := Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Slug:        generateSlug(req.Name, req.SKU),
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Image:       req.Image,
		Stock:       req.Stock,
		IsActive:    true,
	}

	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.resolveImage(&product)
	return &product, nil
}

// ImageURL resolves a stored image path against the configured CDN
func (s *Service) ImageURL(path string) string {
	return ResolveImageURL(s.config.External.Storage.CDNBaseURL, path)
}

func (s *Service) resolveImage(p *Product) {
	p.Image = s.ImageURL(p.Image)
}

// buildOrderClause builds ORDER BY clause for sorting
func buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"name":       true,
		"price":      true,
		"created_at": true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s", sortBy, sortOrder)
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// generateSlug builds a URL-friendly slug, suffixed with the SKU for uniqueness
func generateSlug(name, sku string) string {
	slug := slugUnsafe.ReplaceAllString(strings.ToLower(name), "-")
	slug = strings.Trim(slug, "-")
	suffix := slugUnsafe.ReplaceAllString(strings.ToLower(sku), "-")
	return strings.Trim(slug+"-"+suffix, "-")
}

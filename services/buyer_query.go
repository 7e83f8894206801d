package services

import (
	"strings"

	"gorm.io/gorm"

	"github.com/propflow/lead-intake/models"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// sortColumns is the whitelist of sortable fields; anything else falls back
// to updatedAt.
var sortColumns = map[string]string{
	"updatedAt": "updated_at",
	"createdAt": "created_at",
	"fullName":  "full_name",
	"city":      "city",
	"status":    "status",
}

// BuyerFilter carries the listing/export query parameters.
type BuyerFilter struct {
	Search       string `form:"q"`
	City         string `form:"city"`
	PropertyType string `form:"propertyType"`
	Status       string `form:"status"`
	Timeline     string `form:"timeline"`
	Page         int    `form:"page"`
	PageSize     int    `form:"pageSize"`
	SortBy       string `form:"sortBy"`
	Order        string `form:"order"`
}

func (f *BuyerFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	if _, ok := sortColumns[f.SortBy]; !ok {
		f.SortBy = "updatedAt"
	}
	if f.Order != "asc" {
		f.Order = "desc"
	}
}

// apply adds the filter predicates. The same predicate is used for the page
// query, the total count and the CSV export.
func (f BuyerFilter) apply(db *gorm.DB) *gorm.DB {
	if f.Search != "" {
		q := "%" + strings.ToLower(f.Search) + "%"
		db = db.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", q, q, q)
	}
	if f.City != "" {
		db = db.Where("city = ?", f.City)
	}
	if f.PropertyType != "" {
		db = db.Where("property_type = ?", f.PropertyType)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.Timeline != "" {
		db = db.Where("timeline = ?", f.Timeline)
	}
	return db
}

// orderClause adds the id as a tie-breaker so paging stays deterministic.
func (f BuyerFilter) orderClause() string {
	return sortColumns[f.SortBy] + " " + f.Order + ", id " + f.Order
}

type BuyerPage struct {
	Buyers     []models.Buyer `json:"buyers"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

// List returns one page of buyers plus the total count over the whole
// filter predicate.
func (s *BuyerService) List(f BuyerFilter) (*BuyerPage, error) {
	f.normalize()

	var total int64
	if err := f.apply(s.DB.Model(&models.Buyer{})).Count(&total).Error; err != nil {
		return nil, err
	}

	buyers := make([]models.Buyer, 0, f.PageSize)
	err := f.apply(s.DB.Model(&models.Buyer{})).
		Order(f.orderClause()).
		Offset((f.Page - 1) * f.PageSize).
		Limit(f.PageSize).
		Find(&buyers).Error
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(f.PageSize) - 1) / int64(f.PageSize))
	return &BuyerPage{
		Buyers:     buyers,
		Total:      total,
		Page:       f.Page,
		PageSize:   f.PageSize,
		TotalPages: totalPages,
	}, nil
}

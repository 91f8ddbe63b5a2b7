package validation

import (
	"github.com/gartstein/shopper/internal/shopper/models"
	"github.com/shopspring/decimal"
)

var (
	minPrice          = decimal.RequireFromString("0.10")
	minQuantity       = 10
	maxDescriptionLen = 1024
)

// NewProductValidator returns the rules a product must satisfy before it is
// written. Company existence is a storage concern and is checked by the
// caller.
func NewProductValidator() *Validator[*models.Product] {
	return New(
		String("name", func(p *models.Product) string { return p.Name },
			Required("product name is required"),
			MaxLen(255, "product name must not exceed 255 characters")),
		String("description", func(p *models.Product) string { return p.Description },
			Required("product description is required"),
			MaxLen(maxDescriptionLen, "product description must not exceed 1024 characters")),
		Must("price.currency", func(p *models.Product) bool {
			return p.PriceCurrency.Valid()
		}, "price currency is not supported"),
		Must("price.amount", func(p *models.Product) bool {
			return p.PriceAmount.GreaterThan(minPrice)
		}, "price must be greater than 0.10"),
		Must("quantity", func(p *models.Product) bool {
			return p.Quantity >= minQuantity
		}, "quantity must be at least 10"),
		When(func(p *models.Product) bool { return p.Category != nil },
			String("category.name", func(p *models.Product) string { return p.Category.Name },
				Required("category name is required"),
				MaxLen(255, "category name must not exceed 255 characters")),
		),
	)
}

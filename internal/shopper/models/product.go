package models

import (
	"time"

	"github.com/gartstein/shopper/internal/shopper/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is sold by a company. It is addressable on its own by ID.
type Product struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:255;not null;index"`
	Description string `gorm:"size:1024;not null"`
	Quantity    int    `gorm:"not null"`

	// PriceAmount and PriceCurrency are the persisted halves of Price.
	PriceAmount   decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	PriceCurrency money.Currency  `gorm:"size:3;not null"`

	CategoryID *uint
	Category   *ProductCategory `gorm:"constraint:OnDelete:SET NULL"`

	CompanyID uint           `gorm:"not null;index"`
	Photos    []ProductPhoto `gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProduct builds a product in the named category.
func NewProduct(name string, quantity int, price money.Money, category string) *Product {
	p := &Product{Name: name, Quantity: quantity}
	p.SetPrice(price)
	if category != "" {
		p.Category = &ProductCategory{Name: category}
	}
	return p
}

func (p *Product) TableName() string { return TableProducts }

func (p *Product) Identity() uint { return p.ID }

// Price rebuilds the value object from its columns.
func (p *Product) Price() (money.Money, error) {
	return money.New(p.PriceCurrency, p.PriceAmount)
}

func (p *Product) SetPrice(m money.Money) {
	p.PriceAmount = m.Amount()
	p.PriceCurrency = m.Currency()
}

func (p *Product) TextFields() []*string {
	if p == nil {
		return nil
	}
	return []*string{&p.Name, &p.Description}
}

// ProductCategory groups products. Categories are reused by name.
type ProductCategory struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:255;not null;index"`
	Description string `gorm:"size:1024"`
}

func (c *ProductCategory) TableName() string { return "product_categories" }

func (c *ProductCategory) Identity() uint { return c.ID }

func (c *ProductCategory) TextFields() []*string {
	if c == nil {
		return nil
	}
	return []*string{&c.Name, &c.Description}
}

// ProductPhoto references a stored image by GUID.
type ProductPhoto struct {
	ID        uint      `gorm:"primaryKey"`
	GUID      uuid.UUID `gorm:"column:guid;type:uuid;not null;uniqueIndex"`
	ProductID uint      `gorm:"not null;index"`
}

func (p *ProductPhoto) TableName() string { return "product_photos" }

func (p *ProductPhoto) Identity() uint { return p.ID }

func (p *ProductPhoto) BeforeCreate(_ *gorm.DB) error {
	if p.GUID == uuid.Nil {
		p.GUID = uuid.New()
	}
	return nil
}

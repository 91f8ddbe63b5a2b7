// Package models defines the entity graph of the shopper domain: companies
// with their addresses and contacts, the shared city/country reference data,
// and the products a company sells. The structs are plain data mapped with
// GORM; they carry no session or tracking state.
package models

import (
	"strings"
	"time"
	"unicode"

	"gorm.io/gorm"
)

// Entity is implemented by every persisted type.
type Entity interface {
	// TableName is the storage table of the entity.
	TableName() string
	// Identity is the primary key, 0 until the entity is first saved.
	Identity() uint
}

// Company is the aggregate root for addresses and contacts.
type Company struct {
	// ID is assigned by the store on first save.
	ID uint `gorm:"primaryKey"`
	// Name is the display name of the company.
	Name string `gorm:"size:255;not null;index"`
	// NameKey is Name stripped of punctuation, spaces and case. It carries
	// the uniqueness constraint so "Acme S.r.l." and "acme srl" collide.
	NameKey string `gorm:"size:255;not null;uniqueIndex"`
	// VATNumber is the Italian partita IVA, when known.
	VATNumber *string `gorm:"size:11"`
	// TaxCode is the Italian codice fiscale, when known.
	TaxCode *string `gorm:"size:16"`

	Addresses []Address `gorm:"constraint:OnDelete:CASCADE"`
	Contacts  []Contact `gorm:"constraint:OnDelete:CASCADE"`
	Products  []Product `gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCompany builds a company with one address and one contact.
func NewCompany(name string, address Address, contact Contact) *Company {
	return &Company{
		Name:      name,
		Addresses: []Address{address},
		Contacts:  []Contact{contact},
	}
}

func (c *Company) TableName() string { return TableCompanies }

func (c *Company) Identity() uint { return c.ID }

// TextFields returns the company's own text fields. Nested addresses and
// contacts are normalized separately by the caller.
func (c *Company) TextFields() []*string {
	if c == nil {
		return nil
	}
	fields := []*string{&c.Name}
	if c.VATNumber != nil {
		fields = append(fields, c.VATNumber)
	}
	if c.TaxCode != nil {
		fields = append(fields, c.TaxCode)
	}
	return fields
}

// BeforeSave keeps NameKey in sync with Name.
func (c *Company) BeforeSave(_ *gorm.DB) error {
	c.NameKey = CompanyNameKey(c.Name)
	return nil
}

// CompanyNameKey folds a company name to upper-case letters and digits only.
func CompanyNameKey(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

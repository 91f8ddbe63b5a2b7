package models

import (
	"strings"

	"gorm.io/gorm"
)

// ContactType is the channel a contact value belongs to.
type ContactType string

const (
	ContactName        ContactType = "NAME"
	ContactMobilePhone ContactType = "MOBILE_PHONE"
	ContactPhoneNumber ContactType = "PHONE_NUMBER"
	ContactEmail       ContactType = "EMAIL"
	ContactLinkedin    ContactType = "LINKEDIN"
	ContactFacebook    ContactType = "FACEBOOK"
	ContactWebsite     ContactType = "WEBSITE"
)

// DefaultContactOrder is the display order of contacts saved without one.
const DefaultContactOrder = 100

// Valid reports whether t is a known channel.
func (t ContactType) Valid() bool {
	switch t {
	case ContactName, ContactMobilePhone, ContactPhoneNumber, ContactEmail,
		ContactLinkedin, ContactFacebook, ContactWebsite:
		return true
	default:
		return false
	}
}

// Contact is a typed reachability channel of a company.
// (CompanyID, Type, Value) is unique.
type Contact struct {
	ID        uint        `gorm:"primaryKey"`
	CompanyID uint        `gorm:"not null;uniqueIndex:idx_contacts_company_type_value"`
	Type      ContactType `gorm:"size:16;not null;uniqueIndex:idx_contacts_company_type_value"`
	Value     string      `gorm:"size:255;not null;uniqueIndex:idx_contacts_company_type_value"`
	Order     int         `gorm:"column:display_order;not null"`
}

// NewEmailContact builds the primary e-mail contact of a company.
func NewEmailContact(email string) Contact {
	return Contact{Type: ContactEmail, Value: email, Order: 1}
}

func (c *Contact) TableName() string { return "contacts" }

func (c *Contact) Identity() uint { return c.ID }

func (c *Contact) TextFields() []*string {
	if c == nil {
		return nil
	}
	return []*string{&c.Value}
}

func (c *Contact) BeforeCreate(_ *gorm.DB) error {
	if c.Order == 0 {
		c.Order = DefaultContactOrder
	}
	return nil
}

func equalFoldTrim(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

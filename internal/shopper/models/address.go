package models

import (
	"github.com/shopspring/decimal"
)

const (
	// ForeignPV is the province code of every city outside the home country.
	ForeignPV = "EE"
	// DomesticCountryCode and DomesticCountryName describe the home country.
	DomesticCountryCode = "IT"
	DomesticCountryName = "ITALIA"
)

// Address is a location owned by a company. Domestic addresses carry a
// two-letter province code on their city, foreign ones carry ForeignPV and
// a country.
type Address struct {
	ID          uint         `gorm:"primaryKey"`
	Location    string       `gorm:"size:255;not null;index"`
	PostalCode  string       `gorm:"size:16"`
	GeoLocation *GeoLocation `gorm:"constraint:OnDelete:CASCADE"`

	CityID uint  `gorm:"not null;index"`
	City   *City `gorm:"constraint:OnDelete:RESTRICT"`

	CompanyID uint `gorm:"not null;index"`
}

// NewDomesticAddress builds an address inside the home country.
func NewDomesticAddress(location, city, pv, postalCode string) Address {
	return Address{
		Location:   location,
		PostalCode: postalCode,
		City:       NewCity(city, pv),
	}
}

// NewForeignAddress builds an address abroad, identified by country code.
func NewForeignAddress(location, city, countryCode string) Address {
	return Address{
		Location: location,
		City:     NewForeignCity(city, &Country{Code: countryCode}),
	}
}

func (a *Address) TableName() string { return "addresses" }

func (a *Address) Identity() uint { return a.ID }

func (a *Address) TextFields() []*string {
	if a == nil {
		return nil
	}
	return []*string{&a.Location, &a.PostalCode}
}

// City is shared reference data: many addresses of many companies point to
// the same row.
type City struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:255;not null;index"`
	// PV is the two-letter province code, or ForeignPV.
	PV string `gorm:"column:pv;size:2;not null"`

	CountryID *uint
	Country   *Country `gorm:"constraint:OnDelete:RESTRICT"`
}

// NewCity builds a domestic city.
func NewCity(name, pv string) *City {
	return &City{Name: name, PV: pv, Country: DomesticCountry()}
}

// DomesticCountry is the country every domestic city is stored with.
func DomesticCountry() *Country {
	return &Country{Code: DomesticCountryCode, Name: DomesticCountryName}
}

// NewForeignCity builds a city abroad.
func NewForeignCity(name string, country *Country) *City {
	return &City{Name: name, PV: ForeignPV, Country: country}
}

func (c *City) TableName() string { return "cities" }

func (c *City) Identity() uint { return c.ID }

func (c *City) TextFields() []*string {
	if c == nil {
		return nil
	}
	return []*string{&c.Name, &c.PV}
}

// IsForeign reports whether the city lies outside the home country.
func (c *City) IsForeign() bool {
	return c != nil && equalFoldTrim(c.PV, ForeignPV)
}

// Country is shared reference data keyed by its unique code.
type Country struct {
	ID   uint   `gorm:"primaryKey"`
	Code string `gorm:"size:3;not null;uniqueIndex"`
	Name string `gorm:"size:255"`
}

func (c *Country) TableName() string { return "countries" }

func (c *Country) Identity() uint { return c.ID }

func (c *Country) TextFields() []*string {
	if c == nil {
		return nil
	}
	return []*string{&c.Code, &c.Name}
}

// GeoLocation pins an address on the map.
type GeoLocation struct {
	ID        uint            `gorm:"primaryKey"`
	Latitude  decimal.Decimal `gorm:"type:decimal(10,7);not null"`
	Longitude decimal.Decimal `gorm:"type:decimal(10,7);not null"`
	AddressID uint            `gorm:"not null;uniqueIndex"`
}

func NewGeoLocation(latitude, longitude decimal.Decimal) *GeoLocation {
	return &GeoLocation{Latitude: latitude, Longitude: longitude}
}

func (g *GeoLocation) TableName() string { return "geo_locations" }

func (g *GeoLocation) Identity() uint { return g.ID }

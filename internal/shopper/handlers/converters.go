package handlers

import (
	"time"

	"github.com/gartstein/shopper/internal/shopper/models"
	"github.com/gartstein/shopper/internal/shopper/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CompanyDTO is the wire form of a company graph on both transports.
type CompanyDTO struct {
	ID        uint         `json:"id,omitempty"`
	Name      string       `json:"name"`
	VATNumber *string      `json:"vat_number,omitempty"`
	TaxCode   *string      `json:"tax_code,omitempty"`
	Addresses []AddressDTO `json:"addresses,omitempty"`
	Contacts  []ContactDTO `json:"contacts,omitempty"`
	CreatedAt *time.Time   `json:"created_at,omitempty"`
	UpdatedAt *time.Time   `json:"updated_at,omitempty"`
}

type AddressDTO struct {
	ID          uint            `json:"id,omitempty"`
	Location    string          `json:"location"`
	PostalCode  string          `json:"postal_code,omitempty"`
	City        *CityDTO        `json:"city,omitempty"`
	GeoLocation *GeoLocationDTO `json:"geo_location,omitempty"`
}

type CityDTO struct {
	ID      uint        `json:"id,omitempty"`
	Name    string      `json:"name"`
	PV      string      `json:"pv"`
	Country *CountryDTO `json:"country,omitempty"`
}

type CountryDTO struct {
	ID   uint   `json:"id,omitempty"`
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

type GeoLocationDTO struct {
	Latitude  decimal.Decimal `json:"latitude"`
	Longitude decimal.Decimal `json:"longitude"`
}

type ContactDTO struct {
	ID    uint   `json:"id,omitempty"`
	Type  string `json:"type"`
	Value string `json:"value"`
	Order int    `json:"order,omitempty"`
}

// ProductDTO is the wire form of a product.
type ProductDTO struct {
	ID          uint         `json:"id,omitempty"`
	CompanyID   uint         `json:"company_id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Quantity    int          `json:"quantity"`
	Price       PriceDTO     `json:"price"`
	Category    *CategoryDTO `json:"category,omitempty"`
	Photos      []PhotoDTO   `json:"photos,omitempty"`
	CreatedAt   *time.Time   `json:"created_at,omitempty"`
	UpdatedAt   *time.Time   `json:"updated_at,omitempty"`
}

// PriceDTO is decoded without the Money invariants so that an unsupported
// currency surfaces as a field error of the validator.
type PriceDTO struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type CategoryDTO struct {
	ID          uint   `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type PhotoDTO struct {
	ID   uint      `json:"id,omitempty"`
	GUID uuid.UUID `json:"guid"`
}

func companyToModel(dto *CompanyDTO) *models.Company {
	company := &models.Company{
		ID:        dto.ID,
		Name:      dto.Name,
		VATNumber: dto.VATNumber,
		TaxCode:   dto.TaxCode,
	}
	for _, a := range dto.Addresses {
		address := models.Address{ID: a.ID, Location: a.Location, PostalCode: a.PostalCode}
		if a.City != nil {
			address.City = &models.City{Name: a.City.Name, PV: a.City.PV}
			switch {
			case a.City.Country != nil:
				address.City.Country = &models.Country{Code: a.City.Country.Code, Name: a.City.Country.Name}
			case !address.City.IsForeign():
				address.City.Country = models.DomesticCountry()
			}
		}
		if a.GeoLocation != nil {
			address.GeoLocation = models.NewGeoLocation(a.GeoLocation.Latitude, a.GeoLocation.Longitude)
		}
		company.Addresses = append(company.Addresses, address)
	}
	for _, c := range dto.Contacts {
		company.Contacts = append(company.Contacts, models.Contact{
			ID:    c.ID,
			Type:  models.ContactType(c.Type),
			Value: c.Value,
			Order: c.Order,
		})
	}
	return company
}

func companyFromModel(company *models.Company) CompanyDTO {
	dto := CompanyDTO{
		ID:        company.ID,
		Name:      company.Name,
		VATNumber: company.VATNumber,
		TaxCode:   company.TaxCode,
		CreatedAt: timestamp(company.CreatedAt),
		UpdatedAt: timestamp(company.UpdatedAt),
	}
	for _, a := range company.Addresses {
		address := AddressDTO{ID: a.ID, Location: a.Location, PostalCode: a.PostalCode}
		if a.City != nil {
			address.City = &CityDTO{ID: a.City.ID, Name: a.City.Name, PV: a.City.PV}
			if a.City.Country != nil {
				address.City.Country = &CountryDTO{
					ID:   a.City.Country.ID,
					Code: a.City.Country.Code,
					Name: a.City.Country.Name,
				}
			}
		}
		if a.GeoLocation != nil {
			address.GeoLocation = &GeoLocationDTO{
				Latitude:  a.GeoLocation.Latitude,
				Longitude: a.GeoLocation.Longitude,
			}
		}
		dto.Addresses = append(dto.Addresses, address)
	}
	for _, c := range company.Contacts {
		dto.Contacts = append(dto.Contacts, ContactDTO{
			ID:    c.ID,
			Type:  string(c.Type),
			Value: c.Value,
			Order: c.Order,
		})
	}
	return dto
}

func companiesFromModels(companies []models.Company) []CompanyDTO {
	out := make([]CompanyDTO, 0, len(companies))
	for i := range companies {
		out = append(out, companyFromModel(&companies[i]))
	}
	return out
}

func productToModel(dto *ProductDTO) *models.Product {
	product := &models.Product{
		ID:            dto.ID,
		CompanyID:     dto.CompanyID,
		Name:          dto.Name,
		Description:   dto.Description,
		Quantity:      dto.Quantity,
		PriceAmount:   dto.Price.Amount,
		PriceCurrency: money.Currency(dto.Price.Currency),
	}
	if dto.Category != nil {
		product.Category = &models.ProductCategory{Name: dto.Category.Name, Description: dto.Category.Description}
	}
	for _, p := range dto.Photos {
		product.Photos = append(product.Photos, models.ProductPhoto{ID: p.ID, GUID: p.GUID})
	}
	return product
}

func productFromModel(product *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:          product.ID,
		CompanyID:   product.CompanyID,
		Name:        product.Name,
		Description: product.Description,
		Quantity:    product.Quantity,
		Price:       PriceDTO{Amount: product.PriceAmount, Currency: string(product.PriceCurrency)},
		CreatedAt:   timestamp(product.CreatedAt),
		UpdatedAt:   timestamp(product.UpdatedAt),
	}
	if product.Category != nil {
		dto.Category = &CategoryDTO{
			ID:          product.Category.ID,
			Name:        product.Category.Name,
			Description: product.Category.Description,
		}
	}
	for _, p := range product.Photos {
		dto.Photos = append(dto.Photos, PhotoDTO{ID: p.ID, GUID: p.GUID})
	}
	return dto
}

func productsFromModels(products []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for i := range products {
		out = append(out, productFromModel(&products[i]))
	}
	return out
}

func timestamp(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

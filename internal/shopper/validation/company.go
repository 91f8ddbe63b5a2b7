package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gartstein/shopper/internal/shopper/models"
	"github.com/gartstein/shopper/internal/shopper/normalize"
	"github.com/shopspring/decimal"
)

var (
	// Italian partita IVA.
	vatNumberPattern = regexp.MustCompile(`^[0-9]{11}$`)
	// Italian codice fiscale: 11 digits for legal entities, 16 characters
	// for natural persons (omocodia letters allowed in digit positions).
	taxCodePattern = regexp.MustCompile(
		`^(?:[0-9]{11}|[A-Za-z]{6}[0-9LMNPQRSTUV]{2}[A-Za-z][0-9LMNPQRSTUV]{2}[A-Za-z][0-9LMNPQRSTUV]{3}[A-Za-z])$`)

	maxLatitude  = decimal.NewFromInt(90)
	maxLongitude = decimal.NewFromInt(180)
)

type addressKey struct {
	location string
	city     string
	pv       string
}

type contactKey struct {
	kind  models.ContactType
	value string
}

// NewCompanyValidator returns the rules a company graph must satisfy before
// it is written.
func NewCompanyValidator() *Validator[*models.Company] {
	return New(
		String("name", func(c *models.Company) string { return c.Name },
			Required("company name is required"),
			MaxLen(255, "company name must not exceed 255 characters")),
		OptionalString("vat_number", func(c *models.Company) *string { return c.VATNumber },
			Matches(vatNumberPattern, "VAT number must be 11 digits")),
		OptionalString("tax_code", func(c *models.Company) *string { return c.TaxCode },
			Matches(taxCodePattern, "tax code is not a valid fiscal code")),
		Must("company", func(c *models.Company) bool {
			return len(c.Addresses) > 0 || len(c.Contacts) > 0
		}, "at least one address or one contact is required"),
		Unique("addresses", companyAddresses, keyOfAddress, "duplicate addresses in list"),
		Each("addresses", companyAddresses, addressRules()...),
		Unique("contacts", companyContacts, keyOfContact, "duplicate contacts in list"),
		Each("contacts", companyContacts, contactRules()...),
	)
}

func companyAddresses(c *models.Company) []models.Address { return c.Addresses }

func companyContacts(c *models.Company) []models.Contact { return c.Contacts }

func keyOfAddress(a models.Address) addressKey {
	k := addressKey{location: normalize.Text(a.Location)}
	if a.City != nil {
		k.city = normalize.Text(a.City.Name)
		k.pv = normalize.Text(a.City.PV)
	}
	return k
}

func keyOfContact(c models.Contact) contactKey {
	return contactKey{kind: c.Type, value: normalize.Text(c.Value)}
}

func hasCity(a models.Address) bool { return a.City != nil }

func addressRules() []Rule[models.Address] {
	return []Rule[models.Address]{
		String("location", func(a models.Address) string { return a.Location },
			Required("address location is required"),
			MaxLen(255, "address location must not exceed 255 characters")),
		Must("city", hasCity, "address city is required"),
		When(hasCity,
			String("city.name", func(a models.Address) string { return a.City.Name },
				Required("city name is required"),
				MaxLen(255, "city name must not exceed 255 characters")),
			String("city.pv", func(a models.Address) string { return a.City.PV },
				Required("province code is required"),
				MaxLen(2, "province code must not exceed 2 characters")),
			countryRule,
		),
		When(func(a models.Address) bool { return a.GeoLocation != nil },
			Must("geo_location.latitude", func(a models.Address) bool {
				return a.GeoLocation.Latitude.Abs().LessThanOrEqual(maxLatitude)
			}, "latitude must be between -90 and 90"),
			Must("geo_location.longitude", func(a models.Address) bool {
				return a.GeoLocation.Longitude.Abs().LessThanOrEqual(maxLongitude)
			}, "longitude must be between -180 and 180"),
		),
	}
}

// countryRule branches on the province code: foreign cities need a fully
// described country, domestic ones must not misname the home country.
// A missing province code is reported by the city.pv rule.
func countryRule(a models.Address) []FieldError {
	if strings.TrimSpace(a.City.PV) == "" {
		return nil
	}
	country := a.City.Country
	var errs []FieldError

	if a.City.IsForeign() {
		if country == nil || strings.TrimSpace(country.Name) == "" {
			errs = append(errs, FieldError{
				Field:   "city.country.name",
				Message: "country name is required for foreign addresses",
			})
		}
		if country == nil || !validCountryCode(country.Code) {
			errs = append(errs, FieldError{
				Field:   "city.country.code",
				Message: "country code of at most 3 characters is required for foreign addresses",
			})
		}
		return errs
	}

	if country == nil {
		return nil
	}
	if utf8.RuneCountInString(strings.TrimSpace(country.Code)) > 3 {
		errs = append(errs, FieldError{
			Field:   "city.country.code",
			Message: "country code must not exceed 3 characters",
		})
	}
	if strings.EqualFold(strings.TrimSpace(country.Code), models.DomesticCountryCode) &&
		!strings.EqualFold(strings.TrimSpace(country.Name), models.DomesticCountryName) {
		errs = append(errs, FieldError{
			Field:   "city.country.name",
			Message: "domestic country must be named " + models.DomesticCountryName,
		})
	}
	return errs
}

func validCountryCode(code string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(code))
	return n > 0 && n <= 3
}

func contactRules() []Rule[models.Contact] {
	return []Rule[models.Contact]{
		Must("type", func(c models.Contact) bool { return c.Type.Valid() }, "contact type is not valid"),
		String("value", func(c models.Contact) string { return c.Value },
			Required("contact value is required"),
			MaxLen(255, "contact value must not exceed 255 characters")),
	}
}

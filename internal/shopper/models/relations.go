package models

// Relation names an association that can be loaded eagerly. Relations chain
// from a root entity, e.g. RelCompanyAddresses then RelAddressCity.
type Relation string

const (
	RelCompanyAddresses   Relation = "Addresses"
	RelCompanyContacts    Relation = "Contacts"
	RelCompanyProducts    Relation = "Products"
	RelAddressCity        Relation = "City"
	RelAddressGeoLocation Relation = "GeoLocation"
	RelCityCountry        Relation = "Country"
	RelProductCategory    Relation = "Category"
	RelProductPhotos      Relation = "Photos"
)

// Schema lists every persisted type in dependency order.
func Schema() []any {
	return []any{
		&Country{},
		&City{},
		&Company{},
		&Address{},
		&GeoLocation{},
		&Contact{},
		&ProductCategory{},
		&Product{},
		&ProductPhoto{},
	}
}

// Table names of the aggregate roots, used as event aggregate names.
const (
	TableCompanies = "companies"
	TableProducts  = "products"
)

package db

import (
	"context"
	"fmt"

	e "github.com/gartstein/shopper/internal/shopper/errors"
	"github.com/gartstein/shopper/internal/shopper/models"
	"github.com/google/uuid"
)

// ListFilter narrows a listing. Zero values mean no restriction.
type ListFilter struct {
	Name      string
	CompanyID uint
	Limit     int
	Offset    int
}

// CompanyIncludes is the graph loaded with every company.
func CompanyIncludes() []QueryOption {
	return []QueryOption{
		Include(models.RelCompanyAddresses, models.RelAddressCity, models.RelCityCountry),
		Include(models.RelCompanyAddresses, models.RelAddressGeoLocation),
		Include(models.RelCompanyContacts),
	}
}

// ProductIncludes is the graph loaded with every product.
func ProductIncludes() []QueryOption {
	return []QueryOption{
		Include(models.RelProductCategory),
		Include(models.RelProductPhotos),
	}
}

// Companies is the company aggregate on top of a session. Cities and
// countries referenced by addresses are reused when they already exist.
type Companies struct {
	*Repository[models.Company, *models.Company]

	session   *Session
	countries *Repository[models.Country, *models.Country]
	cities    *Repository[models.City, *models.City]
	addresses *Repository[models.Address, *models.Address]
	contacts  *Repository[models.Contact, *models.Contact]
}

func NewCompanies(s *Session) *Companies {
	return &Companies{
		Repository: NewRepository[models.Company](s, CompanyIncludes()...),
		session:    s,
		countries:  NewRepository[models.Country](s),
		cities:     NewRepository[models.City](s),
		addresses:  NewRepository[models.Address](s),
		contacts:   NewRepository[models.Contact](s),
	}
}

// List returns companies whose name contains filter.Name, ignoring case
// and punctuation.
func (c *Companies) List(ctx context.Context, filter ListFilter) ([]models.Company, error) {
	opts := []QueryOption{Page(filter.Limit, filter.Offset)}
	if key := models.CompanyNameKey(filter.Name); key != "" {
		opts = append(opts, Where("name_key LIKE ?", "%"+key+"%"))
	}
	return c.Get(ctx, opts...)
}

// FindByName returns the company whose name folds to the same key as name,
// or nil.
func (c *Companies) FindByName(ctx context.Context, name string) (*models.Company, error) {
	return c.First(ctx, Where("name_key = ?", models.CompanyNameKey(name)))
}

func (c *Companies) Exists(ctx context.Context, id uint) (bool, error) {
	n, err := c.Count(ctx, byID(id))
	return n > 0, err
}

// Add stages the insertion of a new company graph.
func (c *Companies) Add(ctx context.Context, company *models.Company) error {
	if err := c.resolveReferences(ctx, company.Addresses); err != nil {
		return err
	}
	return c.Insert(company)
}

// Replace stages the overwrite of existing with the graph of incoming.
// Children missing from incoming are removed; children matching an
// existing one keep its identity.
func (c *Companies) Replace(ctx context.Context, existing, incoming *models.Company) error {
	incoming.ID = existing.ID
	incoming.CreatedAt = existing.CreatedAt

	if err := c.reconcileAddresses(existing, incoming); err != nil {
		return err
	}
	if err := c.reconcileContacts(existing, incoming); err != nil {
		return err
	}
	if err := c.resolveReferences(ctx, incoming.Addresses); err != nil {
		return err
	}
	return c.Update(incoming)
}

func (c *Companies) reconcileAddresses(existing, incoming *models.Company) error {
	current := make(map[uint]*models.Address, len(existing.Addresses))
	for i := range existing.Addresses {
		current[existing.Addresses[i].ID] = &existing.Addresses[i]
	}

	kept := make(map[uint]struct{})
	for i := range incoming.Addresses {
		a := &incoming.Addresses[i]
		a.CompanyID = existing.ID
		if a.ID == 0 {
			continue
		}
		old, ok := current[a.ID]
		if !ok {
			return fmt.Errorf("%w: address %d does not belong to company %d", e.ErrInvalidInput, a.ID, existing.ID)
		}
		kept[a.ID] = struct{}{}

		switch {
		case a.GeoLocation != nil && old.GeoLocation != nil:
			a.GeoLocation.ID = old.GeoLocation.ID
			a.GeoLocation.AddressID = a.ID
		case a.GeoLocation == nil && old.GeoLocation != nil:
			if err := c.session.Delete(old.GeoLocation); err != nil {
				return err
			}
		}
	}

	for id, old := range current {
		if _, ok := kept[id]; !ok {
			if err := c.addresses.DeleteEntity(old); err != nil {
				return err
			}
		}
	}
	return nil
}

type contactKey struct {
	kind  models.ContactType
	value string
}

func (c *Companies) reconcileContacts(existing, incoming *models.Company) error {
	byID := make(map[uint]*models.Contact, len(existing.Contacts))
	byKey := make(map[contactKey]*models.Contact, len(existing.Contacts))
	for i := range existing.Contacts {
		old := &existing.Contacts[i]
		byID[old.ID] = old
		byKey[contactKey{old.Type, old.Value}] = old
	}

	kept := make(map[uint]struct{})
	for i := range incoming.Contacts {
		ct := &incoming.Contacts[i]
		ct.CompanyID = existing.ID
		if ct.ID == 0 {
			if old, ok := byKey[contactKey{ct.Type, ct.Value}]; ok {
				ct.ID = old.ID
			}
		}
		if ct.ID == 0 {
			continue
		}
		if _, ok := byID[ct.ID]; !ok {
			return fmt.Errorf("%w: contact %d does not belong to company %d", e.ErrInvalidInput, ct.ID, existing.ID)
		}
		kept[ct.ID] = struct{}{}
	}

	for i := range existing.Contacts {
		old := &existing.Contacts[i]
		if _, ok := kept[old.ID]; !ok {
			if err := c.contacts.DeleteEntity(old); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveReferences points every address at an existing city and country
// when one matches, and stages each new one exactly once per session.
func (c *Companies) resolveReferences(ctx context.Context, addresses []models.Address) error {
	for i := range addresses {
		a := &addresses[i]
		if a.City == nil {
			continue
		}

		// A domestic city always carries the home country, so the same
		// city never splits into a row with and a row without one.
		wanted := a.City.Country
		if wanted == nil && !a.City.IsForeign() {
			wanted = models.DomesticCountry()
		}

		var country *models.Country
		if wanted != nil {
			var err error
			if country, err = c.resolveCountry(ctx, wanted); err != nil {
				return err
			}
		}

		city, err := c.resolveCity(ctx, a.City, country)
		if err != nil {
			return err
		}
		a.City = city
		a.CityID = city.ID
	}
	return nil
}

func (c *Companies) resolveCountry(ctx context.Context, country *models.Country) (*models.Country, error) {
	key := "countries/" + country.Code
	if ref, ok := c.session.reference(key); ok {
		return ref.(*models.Country), nil
	}

	resolved, err := c.countries.First(ctx, Where("code = ?", country.Code))
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		resolved = &models.Country{Code: country.Code, Name: country.Name}
		if err := c.countries.Insert(resolved); err != nil {
			return nil, err
		}
	}
	c.session.remember(key, resolved)
	return resolved, nil
}

// resolveCity finds the city by name, province and country. A city of a
// country staged in this session cannot exist yet and is staged directly.
func (c *Companies) resolveCity(ctx context.Context, city *models.City, country *models.Country) (*models.City, error) {
	key := "cities/" + city.Name + "/" + city.PV + "/"
	if country != nil {
		key += country.Code
	}
	if ref, ok := c.session.reference(key); ok {
		return ref.(*models.City), nil
	}

	var resolved *models.City
	if country == nil || country.ID != 0 {
		opts := []QueryOption{Where("name = ? AND pv = ?", city.Name, city.PV)}
		if country == nil {
			opts = append(opts, Where("country_id IS NULL"))
		} else {
			opts = append(opts, Where("country_id = ?", country.ID))
		}
		found, err := c.cities.First(ctx, opts...)
		if err != nil {
			return nil, err
		}
		resolved = found
	}
	if resolved == nil {
		resolved = &models.City{Name: city.Name, PV: city.PV}
		if err := c.cities.Insert(resolved); err != nil {
			return nil, err
		}
	}
	resolved.Country = country
	c.session.remember(key, resolved)
	return resolved, nil
}

// Products is the product aggregate on top of a session. Categories are
// reused by name.
type Products struct {
	*Repository[models.Product, *models.Product]

	categories *Repository[models.ProductCategory, *models.ProductCategory]
	photos     *Repository[models.ProductPhoto, *models.ProductPhoto]
}

func NewProducts(s *Session) *Products {
	return &Products{
		Repository: NewRepository[models.Product](s, ProductIncludes()...),
		categories: NewRepository[models.ProductCategory](s),
		photos:     NewRepository[models.ProductPhoto](s),
	}
}

// List returns products matching filter, optionally of a single company.
func (p *Products) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	opts := []QueryOption{Page(filter.Limit, filter.Offset)}
	if filter.CompanyID != 0 {
		opts = append(opts, Where("company_id = ?", filter.CompanyID))
	}
	if filter.Name != "" {
		opts = append(opts, Where("UPPER(name) LIKE UPPER(?)", "%"+filter.Name+"%"))
	}
	return p.Get(ctx, opts...)
}

// Add stages the insertion of a new product.
func (p *Products) Add(ctx context.Context, product *models.Product) error {
	if err := p.resolveCategory(ctx, product); err != nil {
		return err
	}
	return p.Insert(product)
}

// Replace stages the overwrite of existing with incoming. Photos are
// matched by GUID; the ones missing from incoming are removed.
func (p *Products) Replace(ctx context.Context, existing, incoming *models.Product) error {
	incoming.ID = existing.ID
	incoming.CreatedAt = existing.CreatedAt

	current := make(map[uuid.UUID]*models.ProductPhoto, len(existing.Photos))
	for i := range existing.Photos {
		current[existing.Photos[i].GUID] = &existing.Photos[i]
	}
	for i := range incoming.Photos {
		photo := &incoming.Photos[i]
		photo.ProductID = existing.ID
		if old, ok := current[photo.GUID]; ok {
			photo.ID = old.ID
			delete(current, photo.GUID)
		} else {
			photo.ID = 0
		}
	}
	for _, old := range current {
		if err := p.photos.DeleteEntity(old); err != nil {
			return err
		}
	}

	if err := p.resolveCategory(ctx, incoming); err != nil {
		return err
	}
	return p.Update(incoming)
}

func (p *Products) resolveCategory(ctx context.Context, product *models.Product) error {
	if product.Category == nil {
		product.CategoryID = nil
		return nil
	}
	found, err := p.categories.First(ctx, Where("name = ?", product.Category.Name))
	if err != nil {
		return err
	}
	if found != nil {
		product.Category = found
		product.CategoryID = &found.ID
	}
	return nil
}

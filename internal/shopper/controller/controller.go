// Package controller implements the business logic (service layer) for
// companies and products: it canonicalizes and validates incoming graphs,
// runs them through one unit of work per call and announces committed
// changes as events.
package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/gartstein/shopper/internal/shopper/db"
	e "github.com/gartstein/shopper/internal/shopper/errors"
	"github.com/gartstein/shopper/internal/shopper/events"
	"github.com/gartstein/shopper/internal/shopper/metrics"
	"github.com/gartstein/shopper/internal/shopper/models"
	"github.com/gartstein/shopper/internal/shopper/normalize"
	"github.com/gartstein/shopper/internal/shopper/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type EventProducer interface {
	Produce(event events.Event)
}

// SessionFactory hands out a fresh unit of work per call.
type SessionFactory interface {
	NewSession() *db.Session
}

// CompanyService manages company graphs.
type CompanyService struct {
	store     SessionFactory
	producer  EventProducer
	validator *validation.Validator[*models.Company]
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewCompanyService constructs a CompanyService. producer and m may be nil.
func NewCompanyService(store SessionFactory, producer EventProducer, m *metrics.Metrics, logger *zap.Logger) *CompanyService {
	return &CompanyService{
		store:     store,
		producer:  producer,
		validator: validation.NewCompanyValidator(),
		metrics:   m,
		logger:    logger.Named("company_service"),
	}
}

func (s *CompanyService) ListCompanies(ctx context.Context, filter db.ListFilter) ([]models.Company, error) {
	companies, err := db.NewCompanies(s.store.NewSession()).List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

func (s *CompanyService) GetCompany(ctx context.Context, id uint) (*models.Company, error) {
	if id == 0 {
		return nil, fmt.Errorf("%w: id must be positive", e.ErrInvalidInput)
	}
	company, err := db.NewCompanies(s.store.NewSession()).GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	if company == nil {
		return nil, e.ErrNotFound
	}
	return company, nil
}

// CreateCompany saves a new company graph. The name must not collide with
// an existing company once punctuation and case are ignored.
func (s *CompanyService) CreateCompany(ctx context.Context, company *models.Company) (*models.Company, error) {
	if company == nil {
		return nil, fmt.Errorf("%w: company is required", e.ErrInvalidInput)
	}
	if company.ID != 0 {
		return nil, fmt.Errorf("%w: id is assigned by the server", e.ErrInvalidInput)
	}
	if err := s.prepare(company); err != nil {
		return nil, err
	}

	session := s.store.NewSession()
	companies := db.NewCompanies(session)
	if err := s.checkName(ctx, companies, company); err != nil {
		return nil, err
	}
	if err := companies.Add(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	if err := session.Save(ctx); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	created, err := companies.GetByID(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload company: %w", err)
	}
	s.logger.Info("Company created", zap.Uint("company_id", created.ID), zap.String("name", created.Name))
	s.publish(events.CompanyCreated, created.ID, companySummary(created))
	return created, nil
}

// UpdateCompany replaces the stored graph of company.ID with company.
func (s *CompanyService) UpdateCompany(ctx context.Context, company *models.Company) (*models.Company, error) {
	if company == nil {
		return nil, fmt.Errorf("%w: company is required", e.ErrInvalidInput)
	}
	if company.ID == 0 {
		return nil, fmt.Errorf("%w: id must be positive", e.ErrInvalidInput)
	}
	if err := s.prepare(company); err != nil {
		return nil, err
	}

	session := s.store.NewSession()
	companies := db.NewCompanies(session)
	existing, err := companies.GetByID(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	if existing == nil {
		return nil, e.ErrNotFound
	}
	if err := s.checkName(ctx, companies, company); err != nil {
		return nil, err
	}
	if err := companies.Replace(ctx, existing, company); err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}
	if err := session.Save(ctx); err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}

	updated, err := companies.GetByID(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload company: %w", err)
	}
	if updated == nil {
		return nil, e.ErrNotFound
	}
	s.logger.Info("Company updated", zap.Uint("company_id", updated.ID))
	s.publish(events.CompanyUpdated, updated.ID, companySummary(updated))
	return updated, nil
}

// DeleteCompany removes the company with its addresses, contacts and
// products. Shared cities and countries stay.
func (s *CompanyService) DeleteCompany(ctx context.Context, id uint) error {
	if id == 0 {
		return fmt.Errorf("%w: id must be positive", e.ErrInvalidInput)
	}
	session := s.store.NewSession()
	found, err := db.NewCompanies(session).Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	if !found {
		return e.ErrNotFound
	}
	if err := session.Save(ctx); err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}

	s.logger.Info("Company deleted", zap.Uint("company_id", id))
	s.publish(events.CompanyDeleted, id, nil)
	return nil
}

// prepare canonicalizes the graph and validates it. Contact values keep
// their case; URLs and e-mail local parts may be case sensitive.
func (s *CompanyService) prepare(company *models.Company) error {
	normalize.Upper(company)
	normalize.UpperEach(company.Addresses)
	for i := range company.Addresses {
		if city := company.Addresses[i].City; city != nil {
			normalize.Upper(city, city.Country)
		}
	}
	normalize.TrimEach(company.Contacts)

	if err := s.validator.Validate(company); err != nil {
		s.metrics.IncValidationFailure("company")
		s.logger.Debug("Company rejected", zap.Error(err))
		return err
	}
	return nil
}

func (s *CompanyService) checkName(ctx context.Context, companies *db.Companies, company *models.Company) error {
	other, err := companies.FindByName(ctx, company.Name)
	if err != nil {
		return fmt.Errorf("failed to check company name: %w", err)
	}
	if other != nil && other.ID != company.ID {
		return fmt.Errorf("%w: company %q already exists", e.ErrDuplicateName, company.Name)
	}
	return nil
}

// publish hands the event to the producer after commit. Produce never
// blocks, and calling it inline keeps the events of one aggregate in
// commit order.
func (s *CompanyService) publish(eventType events.EventType, id uint, payload any) {
	publish(s.producer, s.logger, eventType, models.TableCompanies, id, payload)
}

func publish(producer EventProducer, logger *zap.Logger, eventType events.EventType, aggregate string, id uint, payload any) {
	if producer == nil {
		return
	}
	event, err := events.NewEvent(eventType, aggregate, id, payload)
	if err != nil {
		logger.Error("Failed to build event", zap.Error(err), zap.String("event_type", string(eventType)))
		return
	}
	producer.Produce(event)
}

type companyPayload struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	VATNumber *string `json:"vat_number,omitempty"`
	TaxCode   *string `json:"tax_code,omitempty"`
	Addresses int     `json:"addresses"`
	Contacts  int     `json:"contacts"`
}

func companySummary(c *models.Company) companyPayload {
	return companyPayload{
		ID:        c.ID,
		Name:      c.Name,
		VATNumber: c.VATNumber,
		TaxCode:   c.TaxCode,
		Addresses: len(c.Addresses),
		Contacts:  len(c.Contacts),
	}
}

// ProductService manages products of existing companies.
type ProductService struct {
	store     SessionFactory
	producer  EventProducer
	validator *validation.Validator[*models.Product]
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewProductService(store SessionFactory, producer EventProducer, m *metrics.Metrics, logger *zap.Logger) *ProductService {
	return &ProductService{
		store:     store,
		producer:  producer,
		validator: validation.NewProductValidator(),
		metrics:   m,
		logger:    logger.Named("product_service"),
	}
}

func (s *ProductService) ListProducts(ctx context.Context, filter db.ListFilter) ([]models.Product, error) {
	products, err := db.NewProducts(s.store.NewSession()).List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	if id == 0 {
		return nil, fmt.Errorf("%w: id must be positive", e.ErrInvalidInput)
	}
	product, err := db.NewProducts(s.store.NewSession()).GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, e.ErrNotFound
	}
	return product, nil
}

func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product == nil {
		return nil, fmt.Errorf("%w: product is required", e.ErrInvalidInput)
	}
	if product.ID != 0 {
		return nil, fmt.Errorf("%w: id is assigned by the server", e.ErrInvalidInput)
	}
	if err := s.prepare(product); err != nil {
		return nil, err
	}

	session := s.store.NewSession()
	if err := s.checkCompany(ctx, session, product.CompanyID); err != nil {
		return nil, err
	}
	products := db.NewProducts(session)
	if err := products.Add(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	if err := session.Save(ctx); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	created, err := products.GetByID(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload product: %w", err)
	}
	s.logger.Info("Product created", zap.Uint("product_id", created.ID), zap.Uint("company_id", created.CompanyID))
	s.publish(events.ProductCreated, created.ID, productSummary(created))
	return created, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product == nil {
		return nil, fmt.Errorf("%w: product is required", e.ErrInvalidInput)
	}
	if product.ID == 0 {
		return nil, fmt.Errorf("%w: id must be positive", e.ErrInvalidInput)
	}
	if err := s.prepare(product); err != nil {
		return nil, err
	}

	session := s.store.NewSession()
	products := db.NewProducts(session)
	existing, err := products.GetByID(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if existing == nil {
		return nil, e.ErrNotFound
	}
	if err := s.checkCompany(ctx, session, product.CompanyID); err != nil {
		return nil, err
	}
	if err := products.Replace(ctx, existing, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if err := session.Save(ctx); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	updated, err := products.GetByID(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload product: %w", err)
	}
	if updated == nil {
		return nil, e.ErrNotFound
	}
	s.logger.Info("Product updated", zap.Uint("product_id", updated.ID))
	s.publish(events.ProductUpdated, updated.ID, productSummary(updated))
	return updated, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	if id == 0 {
		return fmt.Errorf("%w: id must be positive", e.ErrInvalidInput)
	}
	session := s.store.NewSession()
	found, err := db.NewProducts(session).Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if !found {
		return e.ErrNotFound
	}
	if err := session.Save(ctx); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Info("Product deleted", zap.Uint("product_id", id))
	s.publish(events.ProductDeleted, id, nil)
	return nil
}

func (s *ProductService) prepare(product *models.Product) error {
	normalize.Upper(product, product.Category)
	if err := s.validator.Validate(product); err != nil {
		s.metrics.IncValidationFailure("product")
		s.logger.Debug("Product rejected", zap.Error(err))
		return err
	}
	return nil
}

func (s *ProductService) checkCompany(ctx context.Context, session *db.Session, companyID uint) error {
	if companyID == 0 {
		return fmt.Errorf("%w: company_id must be positive", e.ErrInvalidInput)
	}
	ok, err := db.NewCompanies(session).Exists(ctx, companyID)
	if err != nil {
		return fmt.Errorf("failed to check company: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: company %d does not exist", e.ErrInvalidInput, companyID)
	}
	return nil
}

func (s *ProductService) publish(eventType events.EventType, id uint, payload any) {
	publish(s.producer, s.logger, eventType, models.TableProducts, id, payload)
}

type productPayload struct {
	ID        uint            `json:"id"`
	CompanyID uint            `json:"company_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
}

func productSummary(p *models.Product) productPayload {
	return productPayload{
		ID:        p.ID,
		CompanyID: p.CompanyID,
		Name:      p.Name,
		Quantity:  p.Quantity,
		Amount:    p.PriceAmount,
		Currency:  string(p.PriceCurrency),
	}
}

// IsValidation extracts the field errors of a failed validation.
func IsValidation(err error) ([]validation.FieldError, bool) {
	var verr *validation.ValidationError
	if errors.As(err, &verr) {
		return verr.Errors, true
	}
	return nil, false
}

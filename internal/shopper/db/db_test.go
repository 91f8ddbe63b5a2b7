package db

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	e "github.com/gartstein/shopper/internal/shopper/errors"
	"github.com/gartstein/shopper/internal/shopper/metrics"
	"github.com/gartstein/shopper/internal/shopper/models"
	"github.com/gartstein/shopper/internal/shopper/money"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// SetupTestDB opens a private in-memory SQLite store with the full schema.
func SetupTestDB(t *testing.T) *Store {
	t.Helper()
	store, err := Open(&Config{Driver: DriverSQLite, Path: ":memory:"},
		zaptest.NewLogger(t), metrics.New(prometheus.NewRegistry()))
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, store.Migrate(context.Background()), "failed to migrate test database")
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// setupMockStore backs a store with sqlmock to simulate driver failures.
func setupMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err, "failed to create sqlmock")

	dialector := postgres.New(postgres.Config{
		Conn:       sqlDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err, "failed to open gorm db")
	t.Cleanup(func() { _ = sqlDB.Close() })

	return NewStore(gormDB, zaptest.NewLogger(t), nil), mock
}

func newTestCompany(name string) *models.Company {
	c := models.NewCompany(name,
		models.NewDomesticAddress("VIA ROMA 1", "ROMA", "RM", "00100"),
		models.NewEmailContact("info@acme.it"))
	c.Addresses[0].GeoLocation = models.NewGeoLocation(
		decimal.RequireFromString("41.9027835"), decimal.RequireFromString("12.4963655"))
	return c
}

func saveCompany(t *testing.T, store *Store, c *models.Company) {
	t.Helper()
	s := store.NewSession()
	require.NoError(t, NewCompanies(s).Add(context.Background(), c))
	require.NoError(t, s.Save(context.Background()))
	require.NotZero(t, c.ID)
}

func countRows(t *testing.T, store *Store, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, store.db.Table(table).Count(&n).Error)
	return n
}

// TestCompanyRoundTrip saves a company graph and reads it back with the
// default includes.
func TestCompanyRoundTrip(t *testing.T) {
	store := SetupTestDB(t)
	ctx := context.Background()

	company := newTestCompany("ACME SRL")
	company.Contacts = append(company.Contacts, models.Contact{Type: models.ContactWebsite, Value: "acme.it"})
	saveCompany(t, store, company)

	got, err := NewCompanies(store.NewSession()).GetByID(ctx, company.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "ACME SRL", got.Name)
	assert.Equal(t, "ACMESRL", got.NameKey)
	require.Len(t, got.Addresses, 1)
	addr := got.Addresses[0]
	assert.Equal(t, "VIA ROMA 1", addr.Location)
	require.NotNil(t, addr.City)
	assert.Equal(t, "ROMA", addr.City.Name)
	require.NotNil(t, addr.City.Country)
	assert.Equal(t, models.DomesticCountryCode, addr.City.Country.Code)
	require.NotNil(t, addr.GeoLocation)
	assert.True(t, addr.GeoLocation.Latitude.Equal(decimal.RequireFromString("41.9027835")))

	require.Len(t, got.Contacts, 2)
	assert.Equal(t, 1, got.Contacts[0].Order)
	assert.Equal(t, models.DefaultContactOrder, got.Contacts[1].Order, "unset order defaults")
}

// TestAddAddressThenReload covers adding an address to a saved company.
func TestAddAddressThenReload(t *testing.T) {
	store := SetupTestDB(t)
	ctx := context.Background()

	company := models.NewCompany("NEW CO", models.Address{}, models.NewEmailContact("hi@new.co"))
	company.Addresses = nil
	saveCompany(t, store, company)

	s := store.NewSession()
	companies := NewCompanies(s)
	existing, err := companies.GetByID(ctx, company.ID)
	require.NoError(t, err)
	incoming, err := companies.GetByID(ctx, company.ID)
	require.NoError(t, err)
	incoming.Addresses = append(incoming.Addresses, models.NewDomesticAddress("VIA PO 2", "TORINO", "TO", "10100"))

	require.NoError(t, companies.Replace(ctx, existing, incoming))
	require.NoError(t, s.Save(ctx))

	got, err := NewCompanies(store.NewSession()).GetByID(ctx, company.ID,
		Include(models.RelCompanyAddresses, models.RelAddressCity))
	require.NoError(t, err)
	require.Len(t, got.Addresses, 1)
	assert.Equal(t, "TORINO", got.Addresses[0].City.Name)
}

// TestDuplicateCompanyName covers two names differing only by case and
// punctuation.
func TestDuplicateCompanyName(t *testing.T) {
	store := SetupTestDB(t)
	ctx := context.Background()

	saveCompany(t, store, newTestCompany("Acme Srl"))

	s := store.NewSession()
	require.NoError(t, NewCompanies(s).Add(ctx, newTestCompany("ACME S.R.L.")))
	err := s.Save(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrPersistenceConflict)
	var perr *e.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, e.OpInsert, perr.Op)
	assert.Equal(t, "companies", perr.Entity)

	all, err := NewCompanies(store.NewSession()).Get(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "original company must be untouched")
	assert.Equal(t, "Acme Srl", all[0].Name)
}

// TestSaveIsAllOrNothing checks that a failing op rolls back earlier ones.
func TestSaveIsAllOrNothing(t *testing.T) {
	store := SetupTestDB(t)
	ctx := context.Background()

	s := store.NewSession()
	companies := NewCompanies(s)
	require.NoError(t, companies.Add(ctx, newTestCompany("First")))
	require.NoError(t, companies.Add(ctx, newTestCompany("Second")))
	require.NoError(t, companies.Add(ctx, newTestCompany("first")))
	assert.Equal(t, 5, s.Pending(), "country and city are staged once")

	err := s.Save(ctx)
	assert.ErrorIs(t, err, e.ErrPersistenceConflict)
	assert.Zero(t, s.Pending(), "session is cleared after a failed save")
	assert.Zero(t, countRows(t, store, "companies"))
	assert.Zero(t, countRows(t, store, "addresses"))
}

// TestRolledBackInsertCanBeStagedAgain checks that a rollback leaves no
// stale identity on entities whose insert had already run.
func TestRolledBackInsertCanBeStagedAgain(t *testing.T) {
	store := SetupTestDB(t)
	ctx := context.Background()

	first := newTestCompany("First")
	s := store.NewSession()
	companies := NewCompanies(s)
	require.NoError(t, companies.Add(ctx, first))
	require.NoError(t, companies.Add(ctx, newTestCompany("first")))
	require.ErrorIs(t, s.Save(ctx), e.ErrPersistenceConflict)

	assert.Zero(t, first.ID)
	assert.Zero(t, first.Addresses[0].City.ID)
	assert.Zero(t, first.Addresses[0].City.Country.ID)

	saveCompany(t, store, first)
	assert.EqualValues(t, 1, countRows(t, store, "companies"))
	assert.EqualValues(t, 1, countRows(t, store, "addresses"))
	assert.EqualValues(t, 1, countRows(t, store, "cities"))
}

func TestStagingErrors(t *testing.T) {
	store := SetupTestDB(t)
	s := store.NewSession()
	companies := NewCompanies(s)

	t.Run("insert already persisted", func(t *testing.T) {
		assert.ErrorIs(t, companies.Insert(&models.Company{ID: 7, Name: "X"}), e.ErrStaging)
	})

	t.Run("insert twice", func(t *testing.T) {
		c := newTestCompany("Twice")
		require.NoError(t, companies.Insert(c))
		assert.ErrorIs(t, companies.Insert(c), e.ErrStaging)
	})

	t.Run("update without identity", func(t *testing.T) {
		assert.ErrorIs(t, companies.Update(&models.Company{Name: "X"}), e.ErrStaging)
	})

	t.Run("delete without identity", func(t *testing.T) {
		assert.ErrorIs(t, companies.DeleteEntity(&models.Company{}), e.ErrStaging)
	})

	t.Run("nil entity", func(t *testing.T) {
		var c *models.Company
		assert.ErrorIs(t, s.Insert(c), e.ErrStaging)
		assert.ErrorIs(t, s.Insert(nil), e.ErrStaging)
	})

	s.Discard()
	assert.Zero(t, s.Pending())
}

func TestSaveWithNothingStaged(t *testing.T) {
	store := SetupTestDB(t)
	assert.NoError(t, store.NewSession().Save(context.Background()))
}

// TestUpdateOfDeletedRowConflicts checks that an update never resurrects a
// row removed by someone else.
func TestUpdateOfDeletedRowConflicts(t *testing.T) {
	store := SetupTestDB(t)
	ctx := context.Background()

	company := newTestCompany("Gone Srl")
	saveCompany(t, store, company)

	other := store.NewSession()
	staged, err := NewCompanies(other).Delete(ctx, company.ID)
	require.NoError(t, err)
	require.True(t, staged)
	require.NoError(t, other.Save(ctx))

	s := store.NewSession()
	company.Name = "Back Again"
	require.NoError(t, NewCompanies(s).Update(company))
	err = s.Save(ctx)
	assert.ErrorIs(t, err, e.ErrPersistenceConflict)

	var perr *e.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, e.OpUpdate, perr.Op)
	assert.Zero(t, countRows(t, store, "companies"))
}

func TestDeleteAbsentIsNoop(t *testing.T) {
	store := SetupTestDB(t)
	s := store.NewSession()

	staged, err := NewCompanies(s).Delete(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, staged)
	assert.Zero(t, s.Pending())
}

// TestDeleteCompanyCascades checks that owned rows go with the company and
// shared reference data stays.
func TestDeleteCompanyCascades(t *testing.T) {
	store := SetupTestDB(t)
	ctx := context.Background()

	company := newTestCompany("Cascade Srl")
	saveCompany(t, store, company)

	s := store.NewSession()
	price, err := money.New(money.EUR, decimal.RequireFromString("19.90"))
	require.NoError(t, err)
	product := models.NewProduct("WIDGET", 10, price, "TOOLS")
	product.Description = "A WIDGET"
	product.CompanyID = company.ID
	product.Photos = []models.ProductPhoto{{}}
	require.NoError(t, NewProducts(s).Add(ctx, product))
	require.NoError(t, s.Save(ctx))

	staged, err := NewCompanies(s).Delete(ctx, company.ID)
	require.NoError(t, err)
	require.True(t, staged)
	require.NoError(t, s.Save(ctx))

	for _, table := range []string{"companies", "addresses", "geo_locations", "contacts", "products", "product_photos"} {
		assert.Zero(t, countRows(t, store, table), table)
	}
	assert.EqualValues(t, 1, countRows(t, store, "cities"))
	assert.EqualValues(t, 1, countRows(t, store, "countries"))
	assert.EqualValues(t, 1, countRows(t, store, "product_categories"))
}

// TestReferenceDataIsReused checks that cities and countries are shared
// across and within company graphs.
func TestReferenceDataIsReused(t *testing.T) {
	store := SetupTestDB(t)

	first := newTestCompany("Alpha")
	first.Addresses = append(first.Addresses,
		models.Address{Location: "RUE 1", City: models.NewForeignCity("PARIS", &models.Country{Code: "FR", Name: "FRANCIA"})},
		models.Address{Location: "RUE 2", City: models.NewForeignCity("PARIS", &models.Country{Code: "FR", Name: "FRANCIA"})},
	)
	saveCompany(t, store, first)

	second := newTestCompany("Beta")
	saveCompany(t, store, second)

	assert.EqualValues(t, 2, countRows(t, store, "cities"))
	assert.EqualValues(t, 2, countRows(t, store, "countries"))
	assert.Equal(t, first.Addresses[0].CityID, second.Addresses[0].CityID)
	assert.Equal(t, first.Addresses[1].CityID, first.Addresses[2].CityID)
}

// TestDomesticCityWithoutCountry checks that a domestic city saved with and
// without an explicit country resolves to one row of the home country.
func TestDomesticCityWithoutCountry(t *testing.T) {
	store := SetupTestDB(t)
	ctx := context.Background()

	withCountry := newTestCompany("Alpha")
	saveCompany(t, store, withCountry)

	bare := newTestCompany("Beta")
	bare.Addresses[0].City = &models.City{Name: "ROMA", PV: "RM"}
	saveCompany(t, store, bare)

	assert.EqualValues(t, 1, countRows(t, store, "cities"))
	assert.EqualValues(t, 1, countRows(t, store, "countries"))
	assert.Equal(t, withCountry.Addresses[0].CityID, bare.Addresses[0].CityID)

	got, err := NewCompanies(store.NewSession()).GetByID(ctx, bare.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Addresses[0].City.Country)
	assert.Equal(t, models.DomesticCountryCode, got.Addresses[0].City.Country.Code)
	assert.Equal(t, models.DomesticCountryName, got.Addresses[0].City.Country.Name)
}

// TestReplaceReconcilesChildren checks that removed children are deleted
// and matching ones keep their identity.
func TestReplaceReconcilesChildren(t *testing.T) {
	store := SetupTestDB(t)
	ctx := context.Background()

	company := newTestCompany("Gamma")
	company.Addresses = append(company.Addresses, models.NewDomesticAddress("VIA DANTE 3", "MILANO", "MI", "20100"))
	company.Contacts = append(company.Contacts, models.Contact{Type: models.ContactWebsite, Value: "gamma.it"})
	saveCompany(t, store, company)
	emailID := company.Contacts[0].ID

	s := store.NewSession()
	companies := NewCompanies(s)
	existing, err := companies.GetByID(ctx, company.ID)
	require.NoError(t, err)
	incoming, err := companies.GetByID(ctx, company.ID)
	require.NoError(t, err)

	incoming.Name = "GAMMA SPA"
	incoming.Addresses = incoming.Addresses[:1]
	incoming.Addresses[0].GeoLocation = nil
	incoming.Contacts = []models.Contact{
		{Type: models.ContactEmail, Value: "info@acme.it"},
		{Type: models.ContactPhoneNumber, Value: "+39 06 123456"},
	}

	require.NoError(t, companies.Replace(ctx, existing, incoming))
	require.NoError(t, s.Save(ctx))

	got, err := NewCompanies(store.NewSession()).GetByID(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, "GAMMA SPA", got.Name)
	assert.Equal(t, existing.CreatedAt.Unix(), got.CreatedAt.Unix())
	require.Len(t, got.Addresses, 1)
	assert.Nil(t, got.Addresses[0].GeoLocation)
	require.Len(t, got.Contacts, 2)
	assert.Equal(t, emailID, got.Contacts[0].ID)
	assert.Equal(t, models.ContactPhoneNumber, got.Contacts[1].Type)
	assert.Zero(t, countRows(t, store, "geo_locations"))
}

func TestReplaceRejectsForeignChild(t *testing.T) {
	store := SetupTestDB(t)
	ctx := context.Background()

	a := newTestCompany("Delta")
	saveCompany(t, store, a)
	b := newTestCompany("Epsilon")
	saveCompany(t, store, b)

	s := store.NewSession()
	incoming := newTestCompany("Delta")
	incoming.Addresses[0].ID = b.Addresses[0].ID
	err := NewCompanies(s).Replace(ctx, a, incoming)
	assert.ErrorIs(t, err, e.ErrInvalidInput)
}

func TestGetOptions(t *testing.T) {
	store := SetupTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"ZETA", "ALPHA", "MU"} {
		saveCompany(t, store, newTestCompany(name))
	}
	companies := NewCompanies(store.NewSession())

	all, err := companies.Get(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"ZETA", "ALPHA", "MU"}, names(all), "default order is insertion order")

	sorted, err := companies.Get(ctx, OrderBy("name", false))
	require.NoError(t, err)
	assert.Equal(t, []string{"ALPHA", "MU", "ZETA"}, names(sorted))

	page, err := companies.Get(ctx, OrderBy("name", true), Page(1, 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"MU"}, names(page))

	filtered, err := companies.List(ctx, ListFilter{Name: "ph"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ALPHA"}, names(filtered))

	found, err := companies.FindByName(ctx, "z.e.t.a")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "ZETA", found.Name)

	missing, err := companies.GetByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	exists, err := companies.Exists(ctx, found.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func names(cs []models.Company) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func TestQueryErrors(t *testing.T) {
	store := SetupTestDB(t)
	ctx := context.Background()
	companies := NewCompanies(store.NewSession())

	_, err := companies.Get(ctx, OrderBy("no_such_column", false))
	assert.ErrorIs(t, err, e.ErrQuery)

	_, err = companies.Get(ctx, Include("Nope"))
	assert.ErrorIs(t, err, e.ErrQuery)

	_, err = companies.Get(ctx, Where("no_such_column = ?", 1))
	assert.ErrorIs(t, err, e.ErrQuery)
}

func TestGetWithRawQuery(t *testing.T) {
	store := SetupTestDB(t)
	ctx := context.Background()
	saveCompany(t, store, newTestCompany("Raw Co"))
	saveCompany(t, store, newTestCompany("Other Co"))

	companies := NewCompanies(store.NewSession())
	got, err := companies.GetWithRawQuery(ctx, "SELECT * FROM companies WHERE name_key = ?", "RAWCO")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Raw Co", got[0].Name)
	assert.Empty(t, got[0].Addresses, "raw queries load no associations")

	_, err = companies.GetWithRawQuery(ctx, "SELECT * FROM nowhere")
	assert.ErrorIs(t, err, e.ErrQuery)
}

func TestProducts(t *testing.T) {
	store := SetupTestDB(t)
	ctx := context.Background()

	company := newTestCompany("Seller")
	saveCompany(t, store, company)

	price, err := money.New(money.EUR, decimal.RequireFromString("12.50"))
	require.NoError(t, err)

	s := store.NewSession()
	products := NewProducts(s)
	first := models.NewProduct("HAMMER", 10, price, "TOOLS")
	first.Description = "STEEL HAMMER"
	first.CompanyID = company.ID
	first.Photos = []models.ProductPhoto{{}, {}}
	require.NoError(t, products.Add(ctx, first))
	require.NoError(t, s.Save(ctx))

	second := models.NewProduct("WRENCH", 12, price, "TOOLS")
	second.Description = "STEEL WRENCH"
	second.CompanyID = company.ID
	require.NoError(t, products.Add(ctx, second))
	require.NoError(t, s.Save(ctx))

	assert.EqualValues(t, 1, countRows(t, store, "product_categories"), "category reused by name")

	got, err := products.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	gotPrice, err := got.Price()
	require.NoError(t, err)
	assert.True(t, gotPrice.Equal(price), "price %s", gotPrice)
	require.NotNil(t, got.Category)
	assert.Equal(t, "TOOLS", got.Category.Name)
	require.Len(t, got.Photos, 2)
	assert.NotEqual(t, got.Photos[0].GUID, got.Photos[1].GUID)

	listed, err := products.List(ctx, ListFilter{CompanyID: company.ID, Name: "wren"})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "WRENCH", listed[0].Name)

	// Keep one photo, add one, drop the category.
	existing, err := products.GetByID(ctx, first.ID)
	require.NoError(t, err)
	incoming, err := products.GetByID(ctx, first.ID)
	require.NoError(t, err)
	keptGUID := incoming.Photos[0].GUID
	incoming.Photos = []models.ProductPhoto{{GUID: keptGUID}, {}}
	incoming.Category = nil
	incoming.Quantity = 20

	require.NoError(t, products.Replace(ctx, existing, incoming))
	require.NoError(t, s.Save(ctx))

	got, err = products.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.Quantity)
	assert.Nil(t, got.Category)
	require.Len(t, got.Photos, 2)
	assert.Equal(t, keptGUID, got.Photos[0].GUID)
	assert.Equal(t, existing.Photos[0].ID, got.Photos[0].ID)
	assert.EqualValues(t, 2, countRows(t, store, "product_photos"), "one photo replaced")
}

func TestProductRequiresExistingCompany(t *testing.T) {
	store := SetupTestDB(t)
	ctx := context.Background()

	price, err := money.New(money.USD, decimal.NewFromInt(5))
	require.NoError(t, err)
	product := models.NewProduct("ORPHAN", 10, price, "")
	product.Description = "NO OWNER"
	product.CompanyID = 404

	s := store.NewSession()
	require.NoError(t, NewProducts(s).Add(ctx, product))
	assert.ErrorIs(t, s.Save(ctx), e.ErrPersistenceConflict)
}

func TestSaveMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	store, err := Open(&Config{Driver: DriverSQLite}, zaptest.NewLogger(t), m)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	saveCompany(t, store, newTestCompany("Metered"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StagedOperations.WithLabelValues("insert", "companies")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SaveDuration))
}

// TestDriverFailureIsPersistenceError uses sqlmock to simulate a broken
// connection during commit of a staged insert.
func TestDriverFailureIsPersistenceError(t *testing.T) {
	store, mock := setupMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "countries"`)).
		WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback()

	s := store.NewSession()
	require.NoError(t, s.Insert(&models.Country{Code: "FR", Name: "FRANCIA"}))
	err := s.Save(ctx)

	assert.ErrorIs(t, err, e.ErrPersistence)
	assert.False(t, e.IsConflict(err))
	var perr *e.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, e.OpInsert, perr.Op)
	assert.Equal(t, "countries", perr.Entity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, e.ErrPersistenceConflict},
		{"not null violation", &pgconn.PgError{Code: "23502"}, e.ErrPersistenceConflict},
		{"undefined column", &pgconn.PgError{Code: "42703"}, e.ErrQuery},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, e.ErrQuery},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, e.ErrPersistence},
		{"plain error", errors.New("boom"), e.ErrPersistence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, kindOf(tt.err), tt.expected)
		})
	}
}

func TestSelectFailureThroughMock(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "countries"`)).
		WillReturnError(&pgconn.PgError{Code: "42P01", Message: `relation "countries" does not exist`})

	_, err := NewRepository[models.Country](store.NewSession()).Get(context.Background())
	assert.ErrorIs(t, err, e.ErrQuery)
	assert.NoError(t, mock.ExpectationsWereMet())
}

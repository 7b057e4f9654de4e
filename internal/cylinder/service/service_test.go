package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user7217/oxygentracker/internal/clock"
	"github.com/user7217/oxygentracker/internal/config"
	customerdomain "github.com/user7217/oxygentracker/internal/customer/domain"
	customerrepo "github.com/user7217/oxygentracker/internal/customer/repository"
	"github.com/user7217/oxygentracker/internal/cylinder/domain"
	"github.com/user7217/oxygentracker/internal/cylinder/repository"
	"github.com/user7217/oxygentracker/internal/orgcontext"
	historydomain "github.com/user7217/oxygentracker/internal/rentalhistory/domain"
	historyrepo "github.com/user7217/oxygentracker/internal/rentalhistory/repository"
	historyservice "github.com/user7217/oxygentracker/internal/rentalhistory/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testOrgID = snowflake.ID(42)

type fixture struct {
	svc       domain.Service
	customers customerdomain.Repository
	history   historydomain.Service
	db        *gorm.DB
	clock     *clock.FakeClock
	node      *snowflake.Node
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&customerdomain.Customer{},
		&domain.Cylinder{},
		&historydomain.RentalHistoryRecord{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	policy, err := config.NewImportPolicyHolder(config.Config{})
	require.NoError(t, err)

	history := historyservice.New(historyservice.Params{
		DB:     db,
		Log:    zap.NewNop(),
		Clock:  fake,
		GenID:  node,
		Repo:   historyrepo.Provide(),
		Policy: policy,
	})

	customers := customerrepo.Provide()
	svc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		Clock:     fake,
		GenID:     node,
		Repo:      repository.Provide(),
		Customers: customers,
		History:   history,
	})
	return &fixture{svc: svc, customers: customers, history: history, db: db, clock: fake, node: node}
}

func orgCtx() context.Context {
	return orgcontext.WithOrgID(context.Background(), testOrgID)
}

func (f *fixture) seedCustomer(t *testing.T) customerdomain.Customer {
	t.Helper()
	customer := customerdomain.Customer{
		ID:         f.node.Generate(),
		OrgID:      testOrgID,
		CustomerNo: "C1",
		Name:       "Acme Gases",
		Address:    "12 Main St",
		City:       "Pune",
		State:      "MH",
		Phone:      "555-0100",
		CreatedAt:  f.clock.Now(),
		UpdatedAt:  f.clock.Now(),
	}
	require.NoError(t, f.customers.Insert(orgCtx(), f.db, &customer))
	return customer
}

func TestCreateCylinderAppliesDefaults(t *testing.T) {
	f := setupFixture(t)

	created, err := f.svc.Create(orgCtx(), domain.CreateCylinderRequest{CustomID: "CYL-1"})
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultType, created.Type)
	assert.Equal(t, domain.DefaultSize, created.Size)
	assert.Equal(t, domain.DefaultLocation, created.Location)
	assert.Equal(t, domain.StatusAvailable, created.Status)
}

func TestCreateCylinderFoldsStatus(t *testing.T) {
	f := setupFixture(t)

	created, err := f.svc.Create(orgCtx(), domain.CreateCylinderRequest{
		CustomID: "CYL-1",
		Status:   "issued",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRented, created.Status)
}

func TestCreateCylinderDuplicateCustomID(t *testing.T) {
	f := setupFixture(t)

	_, err := f.svc.Create(orgCtx(), domain.CreateCylinderRequest{CustomID: "CYL-1"})
	require.NoError(t, err)

	_, err = f.svc.Create(orgCtx(), domain.CreateCylinderRequest{CustomID: "CYL-1"})
	assert.ErrorIs(t, err, domain.ErrDuplicateCustomID)
}

func TestRentCylinder(t *testing.T) {
	f := setupFixture(t)
	customer := f.seedCustomer(t)

	created, err := f.svc.Create(orgCtx(), domain.CreateCylinderRequest{CustomID: "CYL-1"})
	require.NoError(t, err)

	dispatched := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	rented, err := f.svc.Rent(orgCtx(), domain.RentCylinderRequest{
		ID:         created.ID.String(),
		CustomerID: customer.ID.String(),
		Dispatched: &dispatched,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusRented, rented.Status)
	require.NotNil(t, rented.RentedTo)
	assert.Equal(t, customer.ID, *rented.RentedTo)
	assert.Equal(t, "Acme Gases", rented.CustomerName)
	assert.Equal(t, "12 Main St", rented.Location)
	require.NotNil(t, rented.DateBorrowed)
	assert.Equal(t, dispatched, rented.DateBorrowed.UTC())
}

func TestRentUnavailableCylinder(t *testing.T) {
	f := setupFixture(t)
	customer := f.seedCustomer(t)

	created, err := f.svc.Create(orgCtx(), domain.CreateCylinderRequest{
		CustomID: "CYL-1",
		Status:   "maintenance",
	})
	require.NoError(t, err)

	_, err = f.svc.Rent(orgCtx(), domain.RentCylinderRequest{
		ID:         created.ID.String(),
		CustomerID: customer.ID.String(),
	})
	assert.ErrorIs(t, err, domain.ErrNotAvailable)
}

func TestRentUnknownCustomer(t *testing.T) {
	f := setupFixture(t)

	created, err := f.svc.Create(orgCtx(), domain.CreateCylinderRequest{CustomID: "CYL-1"})
	require.NoError(t, err)

	_, err = f.svc.Rent(orgCtx(), domain.RentCylinderRequest{
		ID:         created.ID.String(),
		CustomerID: f.node.Generate().String(),
	})
	assert.ErrorIs(t, err, customerdomain.ErrNotFound)
}

func TestReturnCylinderWritesHistory(t *testing.T) {
	f := setupFixture(t)
	customer := f.seedCustomer(t)

	created, err := f.svc.Create(orgCtx(), domain.CreateCylinderRequest{CustomID: "CYL-1"})
	require.NoError(t, err)

	dispatched := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	_, err = f.svc.Rent(orgCtx(), domain.RentCylinderRequest{
		ID:         created.ID.String(),
		CustomerID: customer.ID.String(),
		Dispatched: &dispatched,
	})
	require.NoError(t, err)

	returned := time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC)
	got, err := f.svc.Return(orgCtx(), domain.ReturnCylinderRequest{
		ID:       created.ID.String(),
		Returned: &returned,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusAvailable, got.Status)
	assert.Nil(t, got.RentedTo)
	assert.Equal(t, domain.DefaultLocation, got.Location)

	res, err := f.history.List(orgCtx(), historydomain.ListHistoryRequest{})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, "C1", rec.CustomerNo)
	assert.Equal(t, "CYL-1", rec.CylinderCustomID)
	assert.Equal(t, 10, rec.RentalDays)
}

func TestReturnAvailableCylinder(t *testing.T) {
	f := setupFixture(t)

	created, err := f.svc.Create(orgCtx(), domain.CreateCylinderRequest{CustomID: "CYL-1"})
	require.NoError(t, err)

	_, err = f.svc.Return(orgCtx(), domain.ReturnCylinderRequest{ID: created.ID.String()})
	assert.ErrorIs(t, err, domain.ErrNotRented)
}

func TestListCylindersByStatus(t *testing.T) {
	f := setupFixture(t)
	customer := f.seedCustomer(t)

	for _, id := range []string{"CYL-1", "CYL-2", "CYL-3"} {
		_, err := f.svc.Create(orgCtx(), domain.CreateCylinderRequest{CustomID: id})
		require.NoError(t, err)
	}
	all, err := f.svc.List(orgCtx(), domain.ListCylinderRequest{})
	require.NoError(t, err)
	require.Len(t, all.Cylinders, 3)

	_, err = f.svc.Rent(orgCtx(), domain.RentCylinderRequest{
		ID:         all.Cylinders[0].ID.String(),
		CustomerID: customer.ID.String(),
	})
	require.NoError(t, err)

	// The status filter accepts source vocabulary, not just canonical values.
	rented, err := f.svc.List(orgCtx(), domain.ListCylinderRequest{Status: "on rent"})
	require.NoError(t, err)
	require.Len(t, rented.Cylinders, 1)

	available, err := f.svc.List(orgCtx(), domain.ListCylinderRequest{Status: "available"})
	require.NoError(t, err)
	assert.Len(t, available.Cylinders, 2)
}

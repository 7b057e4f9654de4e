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
	"github.com/user7217/oxygentracker/internal/customer/domain"
	"github.com/user7217/oxygentracker/internal/customer/repository"
	"github.com/user7217/oxygentracker/internal/orgcontext"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testOrgID = snowflake.ID(42)

func setupService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Customer{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: fake,
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, fake
}

func orgCtx() context.Context {
	return orgcontext.WithOrgID(context.Background(), testOrgID)
}

func createRequest(no string) domain.CreateCustomerRequest {
	return domain.CreateCustomerRequest{
		CustomerNo: no,
		Name:       "Acme Gases",
		Address:    "12 Main St",
		City:       "Pune",
		State:      "MH",
		Phone:      "555-0100",
	}
}

func TestCreateCustomer(t *testing.T) {
	svc, _ := setupService(t)

	created, err := svc.Create(orgCtx(), createRequest("C1"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, testOrgID, created.OrgID)
	assert.Equal(t, "C1", created.CustomerNo)

	got, err := svc.GetByID(orgCtx(), domain.GetCustomerRequest{ID: created.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestCreateCustomerValidation(t *testing.T) {
	svc, _ := setupService(t)

	req := createRequest("C1")
	req.Name = "  "
	_, err := svc.Create(orgCtx(), req)
	assert.ErrorIs(t, err, domain.ErrMissingField)

	_, err = svc.Create(context.Background(), createRequest("C1"))
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestCreateCustomerDuplicateNo(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Create(orgCtx(), createRequest("C1"))
	require.NoError(t, err)

	_, err = svc.Create(orgCtx(), createRequest("C1"))
	assert.ErrorIs(t, err, domain.ErrDuplicateCustomerNo)
}

func TestCustomersAreOrgScoped(t *testing.T) {
	svc, _ := setupService(t)

	created, err := svc.Create(orgCtx(), createRequest("C1"))
	require.NoError(t, err)

	otherOrg := orgcontext.WithOrgID(context.Background(), snowflake.ID(7))
	_, err = svc.GetByID(otherOrg, domain.GetCustomerRequest{ID: created.ID.String()})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// The same customer number is free in the other organization.
	_, err = svc.Create(otherOrg, createRequest("C1"))
	require.NoError(t, err)
}

func TestUpdateCustomerKeepsUnsetFields(t *testing.T) {
	svc, fake := setupService(t)

	created, err := svc.Create(orgCtx(), createRequest("C1"))
	require.NoError(t, err)

	fake.Advance(time.Hour)
	updated, err := svc.Update(orgCtx(), domain.UpdateCustomerRequest{
		ID:    created.ID.String(),
		Phone: "555-0999",
	})
	require.NoError(t, err)
	assert.Equal(t, "555-0999", updated.Phone)
	assert.Equal(t, "Acme Gases", updated.Name)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestDeleteCustomer(t *testing.T) {
	svc, _ := setupService(t)

	created, err := svc.Create(orgCtx(), createRequest("C1"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(orgCtx(), created.ID.String()))
	assert.ErrorIs(t, svc.Delete(orgCtx(), created.ID.String()), domain.ErrNotFound)

	_, err = svc.GetByID(orgCtx(), domain.GetCustomerRequest{ID: created.ID.String()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListCustomersPagination(t *testing.T) {
	svc, fake := setupService(t)

	for _, no := range []string{"C1", "C2", "C3"} {
		_, err := svc.Create(orgCtx(), createRequest(no))
		require.NoError(t, err)
		fake.Advance(time.Minute)
	}

	first, err := svc.List(orgCtx(), domain.ListCustomerRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Customers, 2)
	require.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)

	second, err := svc.List(orgCtx(), domain.ListCustomerRequest{
		PageSize:  2,
		PageToken: first.NextPageToken,
	})
	require.NoError(t, err)
	require.Len(t, second.Customers, 1)
	assert.False(t, second.HasMore)

	seen := map[string]bool{}
	for _, c := range append(first.Customers, second.Customers...) {
		seen[c.CustomerNo] = true
	}
	assert.Len(t, seen, 3)
}

func TestListCustomersFilter(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Create(orgCtx(), createRequest("C1"))
	require.NoError(t, err)
	req := createRequest("C2")
	req.City = "Mumbai"
	_, err = svc.Create(orgCtx(), req)
	require.NoError(t, err)

	res, err := svc.List(orgCtx(), domain.ListCustomerRequest{City: "Mumbai"})
	require.NoError(t, err)
	require.Len(t, res.Customers, 1)
	assert.Equal(t, "C2", res.Customers[0].CustomerNo)
}

func TestInvalidID(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.GetByID(orgCtx(), domain.GetCustomerRequest{ID: "not-a-snowflake"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

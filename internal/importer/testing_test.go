package importer

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"github.com/user7217/oxygentracker/internal/clock"
	customerdomain "github.com/user7217/oxygentracker/internal/customer/domain"
	cylinderdomain "github.com/user7217/oxygentracker/internal/cylinder/domain"
	"github.com/user7217/oxygentracker/internal/orgcontext"
	historydomain "github.com/user7217/oxygentracker/internal/rentalhistory/domain"
)

const testOrgID = snowflake.ID(42)

// memStores is an in-memory Stores implementation for exercising the import
// pipeline without a database.
type memStores struct {
	customers    []customerdomain.Customer
	cylinders    []cylinderdomain.Cylinder
	history      []historydomain.RentalHistoryRecord
	transactions []RentalTransaction
}

func (m *memStores) stores() Stores {
	return Stores{
		Customers:    (*memCustomerStore)(m),
		Cylinders:    (*memCylinderStore)(m),
		History:      (*memHistoryStore)(m),
		Transactions: (*memTransactionStore)(m),
	}
}

type memCustomerStore memStores

func (s *memCustomerStore) All(context.Context) ([]customerdomain.Customer, error) {
	out := make([]customerdomain.Customer, len(s.customers))
	copy(out, s.customers)
	return out, nil
}

func (s *memCustomerStore) Append(_ context.Context, customer *customerdomain.Customer) error {
	s.customers = append(s.customers, *customer)
	return nil
}

type memCylinderStore memStores

func (s *memCylinderStore) All(context.Context) ([]cylinderdomain.Cylinder, error) {
	out := make([]cylinderdomain.Cylinder, len(s.cylinders))
	copy(out, s.cylinders)
	return out, nil
}

func (s *memCylinderStore) Append(_ context.Context, cylinder *cylinderdomain.Cylinder) error {
	s.cylinders = append(s.cylinders, *cylinder)
	return nil
}

func (s *memCylinderStore) Save(_ context.Context, cylinder *cylinderdomain.Cylinder) error {
	for i := range s.cylinders {
		if s.cylinders[i].ID == cylinder.ID {
			s.cylinders[i] = *cylinder
			return nil
		}
	}
	s.cylinders = append(s.cylinders, *cylinder)
	return nil
}

type memHistoryStore memStores

func (s *memHistoryStore) All(context.Context) ([]historydomain.RentalHistoryRecord, error) {
	out := make([]historydomain.RentalHistoryRecord, len(s.history))
	copy(out, s.history)
	return out, nil
}

func (s *memHistoryStore) Append(_ context.Context, record *historydomain.RentalHistoryRecord) error {
	s.history = append(s.history, *record)
	return nil
}

type memTransactionStore memStores

func (s *memTransactionStore) Append(_ context.Context, txn *RentalTransaction) error {
	s.transactions = append(s.transactions, *txn)
	return nil
}

func testNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func testClock() *clock.FakeClock {
	return clock.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
}

func orgCtx() context.Context {
	return orgcontext.WithOrgID(context.Background(), testOrgID)
}

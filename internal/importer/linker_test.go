package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	customerdomain "github.com/user7217/oxygentracker/internal/customer/domain"
	cylinderdomain "github.com/user7217/oxygentracker/internal/cylinder/domain"
	"github.com/user7217/oxygentracker/internal/importer/source"
	"go.uber.org/zap"
)

var txnColumns = []string{"customer_no", "cylinder_no", "dispatch_date", "return_date"}

func seedLinkerStores(t *testing.T) *memStores {
	t.Helper()
	node := testNode(t)
	stores := &memStores{
		customers: []customerdomain.Customer{{
			ID:         node.Generate(),
			OrgID:      testOrgID,
			CustomerNo: "C1",
			Name:       "Acme Gases",
			Address:    "12 Main St",
			Phone:      "555-0100",
		}},
		cylinders: []cylinderdomain.Cylinder{{
			ID:           node.Generate(),
			OrgID:        testOrgID,
			CustomID:     "CYL-1",
			SerialNumber: "SN-900",
			Type:         cylinderdomain.DefaultType,
			Size:         cylinderdomain.DefaultSize,
			Status:       cylinderdomain.StatusAvailable,
			Location:     cylinderdomain.DefaultLocation,
		}},
	}
	return stores
}

func newTestLinker(t *testing.T, stores *memStores, policy LinkPolicy) *Linker {
	t.Helper()
	l := newLinker(identityMapping(txnColumns), policy, stores.stores(), testNode(t), testClock(), zap.NewNop())
	require.NoError(t, l.Begin(orgCtx()))
	return l
}

func TestLinkerCompletedCycle(t *testing.T) {
	stores := seedLinkerStores(t)
	l := newTestLinker(t, stores, LinkPolicy{})

	rows := []source.Row{{"C1", "CYL-1", "2024-05-01", "2024-05-11"}}
	require.NoError(t, l.ProcessChunk(orgCtx(), txnColumns, rows))

	res := l.Result()
	assert.Equal(t, 1, res.Linked)
	assert.Equal(t, 0, res.Skipped)

	require.Len(t, stores.history, 1)
	rec := stores.history[0]
	assert.Equal(t, 10, rec.RentalDays)
	assert.Equal(t, "C1", rec.CustomerNo)
	assert.Equal(t, "Acme Gases", rec.CustomerName)
	assert.Equal(t, "CYL-1", rec.CylinderCustomID)

	cyl := stores.cylinders[0]
	assert.Equal(t, cylinderdomain.StatusAvailable, cyl.Status)
	assert.Nil(t, cyl.RentedTo)
	assert.Equal(t, cylinderdomain.DefaultLocation, cyl.Location)
	require.NotNil(t, cyl.DateReturned)
}

func TestLinkerOpenRental(t *testing.T) {
	stores := seedLinkerStores(t)
	l := newTestLinker(t, stores, LinkPolicy{})

	rows := []source.Row{{"C1", "CYL-1", "2024-05-20", ""}}
	require.NoError(t, l.ProcessChunk(orgCtx(), txnColumns, rows))

	assert.Equal(t, 1, l.Result().Linked)
	assert.Empty(t, stores.history)

	cyl := stores.cylinders[0]
	assert.Equal(t, cylinderdomain.StatusRented, cyl.Status)
	require.NotNil(t, cyl.RentedTo)
	assert.Equal(t, stores.customers[0].ID, *cyl.RentedTo)
	assert.Equal(t, "Acme Gases", cyl.CustomerName)
	assert.Equal(t, "12 Main St", cyl.Location)
	require.NotNil(t, cyl.DateBorrowed)
	assert.Equal(t, time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), *cyl.DateBorrowed)
}

func TestLinkerRerunIsIdempotent(t *testing.T) {
	stores := seedLinkerStores(t)
	rows := []source.Row{
		{"C1", "CYL-1", "2024-05-01", "2024-05-11"},
	}

	first := newTestLinker(t, stores, LinkPolicy{})
	require.NoError(t, first.ProcessChunk(orgCtx(), txnColumns, rows))
	require.Len(t, stores.history, 1)

	// Same file again: the cylinder already shows the completed cycle, so
	// nothing is written and the history log does not grow.
	second := newTestLinker(t, stores, LinkPolicy{})
	require.NoError(t, second.ProcessChunk(orgCtx(), txnColumns, rows))

	assert.Equal(t, 1, second.Result().Linked)
	assert.Len(t, stores.history, 1)
}

func TestLinkerRerunWithTwoCyclesKeepsHistoryStable(t *testing.T) {
	stores := seedLinkerStores(t)
	rows := []source.Row{
		{"C1", "CYL-1", "2024-03-01", "2024-03-10"},
		{"C1", "CYL-1", "2024-04-01", "2024-04-21"},
	}

	first := newTestLinker(t, stores, LinkPolicy{})
	require.NoError(t, first.ProcessChunk(orgCtx(), txnColumns, rows))
	require.Len(t, stores.history, 2)

	// The cylinder's snapshot only shows the second cycle, so re-running
	// replays the first one. Both cycles are already logged and must not
	// be appended again.
	second := newTestLinker(t, stores, LinkPolicy{})
	require.NoError(t, second.ProcessChunk(orgCtx(), txnColumns, rows))

	assert.Equal(t, 2, second.Result().Linked)
	assert.Len(t, stores.history, 2)
}

func TestLinkerBackfillRerunDoesNotDuplicateHistory(t *testing.T) {
	stores := seedLinkerStores(t)
	rows := []source.Row{{"C1", "CYL-1", "2024-03-01", "2024-03-15"}}

	first := newTestLinker(t, stores, LinkPolicy{BackfillOnly: true})
	require.NoError(t, first.ProcessChunk(orgCtx(), txnColumns, rows))
	require.Len(t, stores.history, 1)

	second := newTestLinker(t, stores, LinkPolicy{BackfillOnly: true})
	require.NoError(t, second.ProcessChunk(orgCtx(), txnColumns, rows))

	assert.Equal(t, 1, second.Result().Linked)
	assert.Len(t, stores.history, 1)
}

func TestLinkerRedundantReturnIsNoOp(t *testing.T) {
	stores := seedLinkerStores(t)
	l := newTestLinker(t, stores, LinkPolicy{})

	// Returning a cylinder that is already available changes nothing.
	rows := []source.Row{{"", "CYL-1", "", "2024-05-11"}}
	require.NoError(t, l.ProcessChunk(orgCtx(), txnColumns, rows))

	assert.Equal(t, 1, l.Result().Linked)
	assert.Empty(t, stores.history)
	assert.Equal(t, cylinderdomain.StatusAvailable, stores.cylinders[0].Status)
}

func TestLinkerResolvesCylinderByAnyKey(t *testing.T) {
	for _, key := range []string{"cyl-1", "CYL-1", "sn-900", "SN-900"} {
		stores := seedLinkerStores(t)
		l := newTestLinker(t, stores, LinkPolicy{})

		rows := []source.Row{{"c1", key, "2024-05-20", ""}}
		require.NoError(t, l.ProcessChunk(orgCtx(), txnColumns, rows))

		assert.Equal(t, 1, l.Result().Linked, "key %q", key)
		assert.Equal(t, cylinderdomain.StatusRented, stores.cylinders[0].Status, "key %q", key)
	}
}

func TestLinkerUnresolvedKeys(t *testing.T) {
	stores := seedLinkerStores(t)
	l := newTestLinker(t, stores, LinkPolicy{})

	rows := []source.Row{
		{"C1", "NO-SUCH", "2024-05-01", ""},
		{"NO-SUCH", "CYL-1", "2024-05-01", ""},
	}
	require.NoError(t, l.ProcessChunk(orgCtx(), txnColumns, rows))

	res := l.Result()
	assert.Equal(t, 0, res.Linked)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 1, res.UnresolvedCylinders)
	assert.Equal(t, 1, res.UnresolvedCustomers)
	assert.Len(t, res.Errors, 2)
	assert.Equal(t, cylinderdomain.StatusAvailable, stores.cylinders[0].Status)
}

func TestLinkerRetentionWindow(t *testing.T) {
	stores := seedLinkerStores(t)
	l := newTestLinker(t, stores, LinkPolicy{RetentionWindowDays: 365})

	// Clock is pinned to 2024-06-01; a 2021 dispatch is far outside the
	// window and dropped without an error entry.
	rows := []source.Row{{"C1", "CYL-1", "2021-01-15", "2021-02-01"}}
	require.NoError(t, l.ProcessChunk(orgCtx(), txnColumns, rows))

	res := l.Result()
	assert.Equal(t, 0, res.Linked)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.OutsideWindow)
	assert.Empty(t, res.Errors)
	assert.Empty(t, stores.history)
}

func TestLinkerCircuitBreaker(t *testing.T) {
	stores := seedLinkerStores(t)
	l := newTestLinker(t, stores, LinkPolicy{BreakerSkipRatio: 0.5, BreakerMinRows: 10})

	rows := make([]source.Row, 0, 50)
	for i := 0; i < 50; i++ {
		rows = append(rows, source.Row{"C1", "WRONG-KEY", "2024-05-01", ""})
	}
	err := l.ProcessChunk(orgCtx(), txnColumns, rows)
	require.ErrorIs(t, err, errRunAborted)

	res := l.Result()
	assert.True(t, res.Aborted)
	assert.Equal(t, 10, res.Skipped, "breaker trips as soon as the minimum is reached")
}

func TestLinkerBackfillLeavesCylinderUntouched(t *testing.T) {
	stores := seedLinkerStores(t)
	l := newTestLinker(t, stores, LinkPolicy{BackfillOnly: true})

	rows := []source.Row{
		{"C1", "CYL-1", "2024-03-01", "2024-03-15"},
		{"C1", "CYL-1", "2024-04-01", ""}, // incomplete cycle, rejected
	}
	require.NoError(t, l.ProcessChunk(orgCtx(), txnColumns, rows))

	res := l.Result()
	assert.Equal(t, 1, res.Linked)
	assert.Equal(t, 1, res.Skipped)

	require.Len(t, stores.history, 1)
	assert.Equal(t, 14, stores.history[0].RentalDays)

	cyl := stores.cylinders[0]
	assert.Equal(t, cylinderdomain.StatusAvailable, cyl.Status)
	assert.Nil(t, cyl.DateBorrowed)
}

func TestLinkerRecordsTransactions(t *testing.T) {
	stores := seedLinkerStores(t)
	l := newTestLinker(t, stores, LinkPolicy{RecordTransactions: true})

	rows := []source.Row{{"C1", "CYL-1", "2024-05-01", "2024-05-11"}}
	require.NoError(t, l.ProcessChunk(orgCtx(), txnColumns, rows))

	require.Len(t, stores.transactions, 1)
	txn := stores.transactions[0]
	assert.Equal(t, "C1", txn.CustomerKey)
	assert.Equal(t, "CYL-1", txn.CylinderKey)
	assert.Equal(t, 1, txn.RowOrdinal)
	require.NotNil(t, txn.CustomerID)
	require.NotNil(t, txn.CylinderID)
}

func TestLinkerLastTransactionWins(t *testing.T) {
	stores := seedLinkerStores(t)
	l := newTestLinker(t, stores, LinkPolicy{})

	// Two cycles followed by an open rental: the cylinder ends Rented under
	// the final dispatch, and both completed cycles are in the log.
	rows := []source.Row{
		{"C1", "CYL-1", "2024-03-01", "2024-03-10"},
		{"C1", "CYL-1", "2024-04-01", "2024-04-21"},
		{"C1", "CYL-1", "2024-05-01", ""},
	}
	require.NoError(t, l.ProcessChunk(orgCtx(), txnColumns, rows))

	assert.Equal(t, 3, l.Result().Linked)
	require.Len(t, stores.history, 2)
	assert.Equal(t, 9, stores.history[0].RentalDays)
	assert.Equal(t, 20, stores.history[1].RentalDays)

	cyl := stores.cylinders[0]
	assert.Equal(t, cylinderdomain.StatusRented, cyl.Status)
	require.NotNil(t, cyl.DateBorrowed)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), *cyl.DateBorrowed)
}

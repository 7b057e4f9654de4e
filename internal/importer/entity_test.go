package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cylinderdomain "github.com/user7217/oxygentracker/internal/cylinder/domain"
	"github.com/user7217/oxygentracker/internal/importer/mapping"
	"github.com/user7217/oxygentracker/internal/importer/source"
)

var customerColumns = []string{"customer_no", "name", "address", "city", "state", "phone"}

func identityMapping(columns []string) mapping.Mapping {
	m := make(mapping.Mapping, len(columns))
	for _, col := range columns {
		m[col] = col
	}
	return m
}

func customerRow(no, name string) source.Row {
	return source.Row{no, name, "12 Main St", "Pune", "MH", "555-0100"}
}

func newCustomerImporter(t *testing.T, stores *memStores, skipDups bool) *EntityImporter {
	t.Helper()
	im := newEntityImporter(mapping.KindCustomer, identityMapping(customerColumns),
		ImportOptions{SkipDuplicates: skipDups}, stores.stores(), testNode(t), testClock(), 5000)
	require.NoError(t, im.Begin(orgCtx()))
	return im
}

func TestImportCustomers(t *testing.T) {
	stores := &memStores{}
	im := newCustomerImporter(t, stores, true)

	rows := []source.Row{
		customerRow("C1", "Acme Gases"),
		customerRow("C2", "Beta Hospital"),
	}
	require.NoError(t, im.ProcessChunk(orgCtx(), customerColumns, rows))

	res := im.Result()
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 0, res.Skipped)
	require.Len(t, stores.customers, 2)
	assert.Equal(t, "C1", stores.customers[0].CustomerNo)
	assert.Equal(t, testOrgID, stores.customers[0].OrgID)
	assert.NotZero(t, stores.customers[0].ID)
}

func TestImportCustomersSkipsDuplicates(t *testing.T) {
	stores := &memStores{}
	im := newCustomerImporter(t, stores, true)

	rows := []source.Row{
		customerRow("C1", "Acme Gases"),
		customerRow("c1", "Acme Gases (again)"),
	}
	require.NoError(t, im.ProcessChunk(orgCtx(), customerColumns, rows))

	res := im.Result()
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, res.Errors, "duplicates are skipped silently, not errors")
	assert.Len(t, stores.customers, 1)
}

func TestImportCustomersIsIdempotent(t *testing.T) {
	stores := &memStores{}

	rows := []source.Row{customerRow("C1", "Acme Gases"), customerRow("C2", "Beta Hospital")}

	first := newCustomerImporter(t, stores, true)
	require.NoError(t, first.ProcessChunk(orgCtx(), customerColumns, rows))
	require.Equal(t, 2, first.Result().Imported)

	// Re-running the same batch against the same store imports nothing new.
	second := newCustomerImporter(t, stores, true)
	require.NoError(t, second.ProcessChunk(orgCtx(), customerColumns, rows))
	assert.Equal(t, 0, second.Result().Imported)
	assert.Equal(t, 2, second.Result().Skipped)
	assert.Len(t, stores.customers, 2)
}

func TestImportCustomersPartialFailureContinues(t *testing.T) {
	stores := &memStores{}
	im := newCustomerImporter(t, stores, true)

	rows := make([]source.Row, 0, 100)
	for i := 0; i < 100; i++ {
		if i == 49 {
			// missing name
			rows = append(rows, source.Row{"BAD", "", "12 Main St", "Pune", "MH", "555-0100"})
			continue
		}
		rows = append(rows, customerRow(customerNo(i), "Customer"))
	}
	require.NoError(t, im.ProcessChunk(orgCtx(), customerColumns, rows))

	res := im.Result()
	assert.Equal(t, 99, res.Imported)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "row 50")
	assert.Contains(t, res.Errors[0], "name")
}

func customerNo(i int) string {
	return "C" + string(rune('A'+i/26)) + string(rune('A'+i%26))
}

func TestImportCylindersAppliesDefaults(t *testing.T) {
	stores := &memStores{}
	columns := []string{"custom_id", "status"}
	im := newEntityImporter(mapping.KindCylinder, identityMapping(columns),
		ImportOptions{SkipDuplicates: true}, stores.stores(), testNode(t), testClock(), 5000)
	require.NoError(t, im.Begin(orgCtx()))

	rows := []source.Row{
		{"CYL-1", "out"},
		{"CYL-2", ""},
		{"", "available"},
	}
	require.NoError(t, im.ProcessChunk(orgCtx(), columns, rows))

	res := im.Result()
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, res.Skipped)

	require.Len(t, stores.cylinders, 2)
	first := stores.cylinders[0]
	assert.Equal(t, cylinderdomain.StatusRented, first.Status)
	assert.Equal(t, cylinderdomain.DefaultType, first.Type)
	assert.Equal(t, cylinderdomain.DefaultSize, first.Size)
	assert.Equal(t, cylinderdomain.DefaultLocation, first.Location)

	assert.Equal(t, cylinderdomain.StatusAvailable, stores.cylinders[1].Status)
}

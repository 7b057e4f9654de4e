package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user7217/oxygentracker/internal/config"
	"github.com/user7217/oxygentracker/internal/importer/mapping"
	"github.com/user7217/oxygentracker/internal/importer/source"
	"go.uber.org/zap"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestPipeline(t *testing.T, stores *memStores) *Pipeline {
	t.Helper()
	policy, err := config.NewImportPolicyHolder(config.Config{})
	require.NoError(t, err)
	return New(Params{
		Log:     zap.NewNop(),
		Clock:   testClock(),
		GenID:   testNode(t),
		Stores:  stores.stores(),
		Policy:  policy,
		Metrics: NewMetrics(),
	})
}

func TestPipelineImportsCustomersFromCSV(t *testing.T) {
	path := writeCSV(t, "parties.csv",
		"Cust No,Customer Name,Address,City,State,Phone\n"+
			"C1,Acme Gases,12 Main St,Pune,MH,555-0100\n"+
			"C2,Beta Hospital,9 Oak Rd,Pune,MH,555-0200\n")

	src, err := source.Open(path)
	require.NoError(t, err)
	defer src.Close()

	stores := &memStores{}
	pipeline := newTestPipeline(t, stores)

	result, err := pipeline.Run(orgCtx(), RunRequest{
		Source:         src,
		Table:          "parties",
		Kind:           mapping.KindCustomer,
		SkipDuplicates: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.RowsRead)
	require.NotNil(t, result.Import)
	assert.Equal(t, 2, result.Import.Imported)
	assert.Len(t, stores.customers, 2)

	// The mapping was inferred from the header and reported back.
	assert.Equal(t, "Cust No", result.Mapping["customer_no"])
	assert.Equal(t, "Customer Name", result.Mapping["name"])
}

func TestPipelineLinksTransactionsFromCSV(t *testing.T) {
	path := writeCSV(t, "transactions.csv",
		"customer_no,cylinder_no,dispatch_date,return_date\n"+
			"C1,CYL-1,2024-05-01,2024-05-11\n")

	src, err := source.Open(path)
	require.NoError(t, err)
	defer src.Close()

	stores := seedLinkerStores(t)
	pipeline := newTestPipeline(t, stores)

	result, err := pipeline.Run(orgCtx(), RunRequest{
		Source: src,
		Table:  "transactions",
		Kind:   mapping.KindTransaction,
	})
	require.NoError(t, err)

	require.NotNil(t, result.Link)
	assert.Equal(t, 1, result.Link.Linked)
	require.Len(t, stores.history, 1)
	assert.Equal(t, 10, stores.history[0].RentalDays)
}

func TestPipelineManualMappingOverridesInference(t *testing.T) {
	path := writeCSV(t, "export.csv",
		"A,B,C,D,E,F\n"+
			"C9,Gamma Labs,1 Side St,Pune,MH,555-0900\n")

	src, err := source.Open(path)
	require.NoError(t, err)
	defer src.Close()

	stores := &memStores{}
	pipeline := newTestPipeline(t, stores)

	manual := mapping.Mapping{
		"customer_no": "A", "name": "B", "address": "C",
		"city": "D", "state": "E", "phone": "F",
	}
	result, err := pipeline.Run(orgCtx(), RunRequest{
		Source:  src,
		Table:   "export",
		Kind:    mapping.KindCustomer,
		Mapping: manual,
	})
	require.NoError(t, err)

	assert.Equal(t, manual, result.Mapping)
	require.Len(t, stores.customers, 1)
	assert.Equal(t, "C9", stores.customers[0].CustomerNo)
}

func TestPipelineUnknownTable(t *testing.T) {
	path := writeCSV(t, "data.csv", "a,b\n1,2\n")

	src, err := source.Open(path)
	require.NoError(t, err)
	defer src.Close()

	pipeline := newTestPipeline(t, &memStores{})
	_, err = pipeline.Run(orgCtx(), RunRequest{
		Source: src,
		Table:  "missing",
		Kind:   mapping.KindCustomer,
	})
	require.ErrorIs(t, err, source.ErrNoSuchTable)
}

// Command oxyimport runs the data-import pipeline against a source file from
// the command line, without the HTTP server. It can write into the configured
// database or into a JSON data directory.
//
// Exit codes: 0 on success (including runs with skipped rows, which are
// reported as warnings), 1 when the source cannot be opened or the run aborts
// before reading rows.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/user7217/oxygentracker/internal/clock"
	"github.com/user7217/oxygentracker/internal/config"
	customerrepo "github.com/user7217/oxygentracker/internal/customer/repository"
	cylinderrepo "github.com/user7217/oxygentracker/internal/cylinder/repository"
	"github.com/user7217/oxygentracker/internal/importer"
	"github.com/user7217/oxygentracker/internal/importer/mapping"
	"github.com/user7217/oxygentracker/internal/importer/source"
	"github.com/user7217/oxygentracker/internal/logger"
	"github.com/user7217/oxygentracker/internal/migration"
	"github.com/user7217/oxygentracker/internal/orgcontext"
	historyrepo "github.com/user7217/oxygentracker/internal/rentalhistory/repository"
	"github.com/user7217/oxygentracker/internal/store/jsonstore"
	"github.com/user7217/oxygentracker/pkg/db"
	"go.uber.org/zap"
)

func main() {
	var (
		sourcePath  = flag.String("source", "", "path to the source file (.db, .sqlite, .xlsx, .csv)")
		table       = flag.String("table", "", "table or sheet to import (defaults to the only table)")
		kindFlag    = flag.String("kind", "", "entity kind: customer, cylinder, transaction, rental_history")
		mappingFlag = flag.String("mapping", "", "manual field mapping as JSON, overrides inference")
		dataDir     = flag.String("data-dir", "", "write into a JSON data directory instead of the database")
		orgFlag     = flag.Int64("org", 0, "organization id (defaults to DEFAULT_ORG)")
		keepDups    = flag.Bool("keep-duplicates", false, "import rows whose natural key already exists")
		recordTxns  = flag.Bool("record-transactions", false, "persist raw transaction rows for reporting")
	)
	flag.Parse()

	if *sourcePath == "" || *kindFlag == "" {
		flag.Usage()
		os.Exit(2)
	}

	kind, err := mapping.ParseKind(*kindFlag)
	if err != nil {
		fatalf("invalid kind: %v", err)
	}

	var fieldMap mapping.Mapping
	if raw := strings.TrimSpace(*mappingFlag); raw != "" {
		fieldMap, err = mapping.Parse(raw)
		if err != nil {
			fatalf("invalid mapping: %v", err)
		}
	}

	cfg := config.Load()
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fatalf("logger: %v", err)
	}
	defer log.Sync()

	orgID := *orgFlag
	if orgID == 0 {
		orgID = cfg.DefaultOrgID
	}
	if orgID == 0 && *dataDir != "" {
		orgID = 1
	}
	if orgID == 0 {
		fatalf("no organization: set -org or DEFAULT_ORG")
	}

	stores, err := buildStores(cfg, log, *dataDir)
	if err != nil {
		fatalf("open store: %v", err)
	}

	src, err := source.Open(*sourcePath)
	if err != nil {
		fatalf("open source: %v", err)
	}
	defer src.Close()

	ctx := orgcontext.WithOrgID(context.Background(), snowflake.ID(orgID))

	tableName := strings.TrimSpace(*table)
	if tableName == "" {
		tables, err := src.Tables(ctx)
		if err != nil {
			fatalf("list tables: %v", err)
		}
		if len(tables) != 1 {
			fatalf("source has %d tables, pick one with -table: %s", len(tables), strings.Join(tables, ", "))
		}
		tableName = tables[0]
	}

	policy, err := config.NewImportPolicyHolder(cfg)
	if err != nil {
		fatalf("import policy: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		fatalf("snowflake: %v", err)
	}

	pipeline := importer.New(importer.Params{
		Log:     log,
		Clock:   clock.NewSystemClock(),
		GenID:   node,
		Stores:  stores,
		Policy:  policy,
		Metrics: importer.NewMetrics(),
	})

	result, err := pipeline.Run(ctx, importer.RunRequest{
		Source:             src,
		Table:              tableName,
		Kind:               kind,
		Mapping:            fieldMap,
		SkipDuplicates:     !*keepDups,
		RecordTransactions: *recordTxns,
	})
	if err != nil {
		fatalf("import failed: %v", err)
	}

	report(result)
}

// buildStores picks the persistence backend: a JSON data directory when
// -data-dir is set, otherwise the configured database.
func buildStores(cfg config.Config, log *zap.Logger, dataDir string) (importer.Stores, error) {
	if dataDir != "" {
		store, err := jsonstore.Open(dataDir)
		if err != nil {
			return importer.Stores{}, err
		}
		return store.Stores(), nil
	}

	conn, err := db.Open(cfg, log)
	if err != nil {
		return importer.Stores{}, err
	}
	if cfg.DBType != "postgres" {
		if err := migration.AutoMigrate(conn); err != nil {
			return importer.Stores{}, err
		}
	}
	return importer.NewGormStores(importer.GormStoreParams{
		DB:           conn,
		CustomerRepo: customerrepo.Provide(),
		CylinderRepo: cylinderrepo.Provide(),
		HistoryRepo:  historyrepo.Provide(),
	}), nil
}

func report(result importer.RunResult) {
	fmt.Printf("table %s (%s): read %d rows in %s\n", result.Table, result.Kind, result.RowsRead, result.Elapsed.Round(time.Millisecond))

	switch {
	case result.Import != nil:
		fmt.Printf("imported %d, skipped %d\n", result.Import.Imported, result.Import.Skipped)
		warn(result.Import.Errors)
	case result.Link != nil:
		link := result.Link
		fmt.Printf("linked %d, skipped %d (unresolved customers %d, unresolved cylinders %d, outside window %d)\n",
			link.Linked, link.Skipped, link.UnresolvedCustomers, link.UnresolvedCylinders, link.OutsideWindow)
		warn(link.Errors)
		if link.Aborted {
			fmt.Fprintln(os.Stderr, "run aborted: too many rows failed to link")
			os.Exit(1)
		}
	}
}

func warn(errs []string) {
	for _, msg := range errs {
		fmt.Fprintln(os.Stderr, "warning: "+msg)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

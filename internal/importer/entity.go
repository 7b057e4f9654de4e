package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/user7217/oxygentracker/internal/clock"
	customerdomain "github.com/user7217/oxygentracker/internal/customer/domain"
	cylinderdomain "github.com/user7217/oxygentracker/internal/cylinder/domain"
	"github.com/user7217/oxygentracker/internal/importer/mapping"
	"github.com/user7217/oxygentracker/internal/importer/source"
	"github.com/user7217/oxygentracker/internal/orgcontext"
)

// ImportOptions tunes one entity-import run.
type ImportOptions struct {
	SkipDuplicates bool
}

// ImportResult reports one entity-import run. Row failures accumulate in
// Errors (bounded) and never abort the batch.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// EntityImporter streams mapped source rows into the customer or cylinder
// store. The duplicate-key index is built once before the first chunk, never
// re-queried per row; keys accepted earlier in the same batch join it as the
// run progresses.
type EntityImporter struct {
	kind      mapping.Kind
	mapping   mapping.Mapping
	opts      ImportOptions
	stores    Stores
	genID     *snowflake.Node
	clock     clock.Clock
	maxErrors int

	orgID   snowflake.ID
	keys    map[string]struct{}
	ordinal int
	result  ImportResult
}

func newEntityImporter(kind mapping.Kind, m mapping.Mapping, opts ImportOptions, stores Stores, genID *snowflake.Node, clk clock.Clock, maxErrors int) *EntityImporter {
	return &EntityImporter{
		kind:      kind,
		mapping:   m,
		opts:      opts,
		stores:    stores,
		genID:     genID,
		clock:     clk,
		maxErrors: maxErrors,
		keys:      make(map[string]struct{}),
	}
}

// Begin snapshots the existing natural keys for duplicate detection.
func (im *EntityImporter) Begin(ctx context.Context) error {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return customerdomain.ErrInvalidOrganization
	}
	im.orgID = orgID

	switch im.kind {
	case mapping.KindCustomer:
		existing, err := im.stores.Customers.All(ctx)
		if err != nil {
			return err
		}
		for _, c := range existing {
			im.keys[strings.ToUpper(c.CustomerNo)] = struct{}{}
		}
	case mapping.KindCylinder:
		existing, err := im.stores.Cylinders.All(ctx)
		if err != nil {
			return err
		}
		for _, c := range existing {
			im.keys[strings.ToUpper(c.CustomID)] = struct{}{}
		}
	default:
		return fmt.Errorf("entity importer does not handle kind %q", im.kind)
	}
	return nil
}

func (im *EntityImporter) ProcessChunk(ctx context.Context, columns []string, rows []source.Row) error {
	reader := newRowReader(columns, im.mapping)
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		im.ordinal++
		switch im.kind {
		case mapping.KindCustomer:
			im.importCustomer(ctx, reader, row)
		case mapping.KindCylinder:
			im.importCylinder(ctx, reader, row)
		}
	}
	return nil
}

func (im *EntityImporter) Result() ImportResult {
	return im.result
}

func (im *EntityImporter) importCustomer(ctx context.Context, reader *rowReader, row source.Row) {
	customer := customerdomain.Customer{
		CustomerNo: reader.str(row, "customer_no"),
		Name:       reader.str(row, "name"),
		Address:    reader.str(row, "address"),
		City:       reader.str(row, "city"),
		State:      reader.str(row, "state"),
		Phone:      reader.str(row, "phone"),
		TaxID:      reader.str(row, "tax_id"),
		TaxRegNo:   reader.str(row, "tax_reg_no"),
	}

	if field, ok := im.missingRequired(map[string]string{
		"customer_no": customer.CustomerNo,
		"name":        customer.Name,
		"address":     customer.Address,
		"city":        customer.City,
		"state":       customer.State,
		"phone":       customer.Phone,
	}); !ok {
		im.reject(fmt.Sprintf("row %d: missing required field %s", im.ordinal, field))
		return
	}

	key := strings.ToUpper(customer.CustomerNo)
	if im.opts.SkipDuplicates {
		if _, dup := im.keys[key]; dup {
			im.result.Skipped++
			return
		}
	}

	now := im.clock.Now()
	customer.ID = im.genID.Generate()
	customer.OrgID = im.orgID
	customer.CreatedAt = now
	customer.UpdatedAt = now

	if err := im.stores.Customers.Append(ctx, &customer); err != nil {
		im.reject(fmt.Sprintf("row %d: store write failed: %v", im.ordinal, err))
		return
	}
	im.keys[key] = struct{}{}
	im.result.Imported++
}

func (im *EntityImporter) importCylinder(ctx context.Context, reader *rowReader, row source.Row) {
	cylinder := cylinderdomain.Cylinder{
		CustomID:     reader.str(row, "custom_id"),
		SerialNumber: reader.str(row, "serial_number"),
		Type:         reader.str(row, "type"),
		Size:         reader.str(row, "size"),
		Location:     reader.str(row, "location"),
	}

	if cylinder.CustomID == "" {
		im.reject(fmt.Sprintf("row %d: missing required field custom_id", im.ordinal))
		return
	}

	key := strings.ToUpper(cylinder.CustomID)
	if im.opts.SkipDuplicates {
		if _, dup := im.keys[key]; dup {
			im.result.Skipped++
			return
		}
	}

	cylinder.Status = cylinderdomain.FoldStatus(reader.str(row, "status"))
	if cylinder.Type == "" {
		cylinder.Type = cylinderdomain.DefaultType
	}
	if cylinder.Size == "" {
		cylinder.Size = cylinderdomain.DefaultSize
	}
	if cylinder.Location == "" {
		cylinder.Location = cylinderdomain.DefaultLocation
	}

	now := im.clock.Now()
	cylinder.ID = im.genID.Generate()
	cylinder.OrgID = im.orgID
	cylinder.CreatedAt = now
	cylinder.UpdatedAt = now

	if err := im.stores.Cylinders.Append(ctx, &cylinder); err != nil {
		im.reject(fmt.Sprintf("row %d: store write failed: %v", im.ordinal, err))
		return
	}
	im.keys[key] = struct{}{}
	im.result.Imported++
}

func (im *EntityImporter) missingRequired(fields map[string]string) (string, bool) {
	for _, name := range mapping.RequiredFields(im.kind) {
		if value, tracked := fields[name]; tracked && value == "" {
			return name, false
		}
	}
	return "", true
}

func (im *EntityImporter) reject(msg string) {
	im.result.Skipped++
	if len(im.result.Errors) < im.maxErrors {
		im.result.Errors = append(im.result.Errors, msg)
	}
}

package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/user7217/oxygentracker/internal/clock"
	customerdomain "github.com/user7217/oxygentracker/internal/customer/domain"
	cylinderdomain "github.com/user7217/oxygentracker/internal/cylinder/domain"
	historydomain "github.com/user7217/oxygentracker/internal/rentalhistory/domain"
	"github.com/user7217/oxygentracker/internal/importer/mapping"
	"github.com/user7217/oxygentracker/internal/importer/source"
	"github.com/user7217/oxygentracker/internal/orgcontext"
	"go.uber.org/zap"
)

// errRunAborted signals the circuit breaker tripped; the pipeline reports it
// as an aborted result rather than a hard failure.
var errRunAborted = errors.New("run aborted by circuit breaker")

// LinkPolicy tunes one linker run.
type LinkPolicy struct {
	// RetentionWindowDays drops rows whose dispatch date is older than the
	// window. Zero disables the filter. Dropping is policy, not an error.
	RetentionWindowDays int
	// BreakerSkipRatio aborts the run early when skipped/processed exceeds
	// the ratio after BreakerMinRows rows, which is the symptom of a
	// systematically wrong field mapping. Zero disables the breaker.
	BreakerSkipRatio float64
	BreakerMinRows   int
	MaxErrors        int
	// RecordTransactions materializes each row as a durable fact row.
	RecordTransactions bool
	// BackfillOnly appends history records for completed cycles without
	// touching cylinder state (the rental_history import kind).
	BackfillOnly bool
}

// LinkResult reports one linker run. Unresolved keys are tracked apart from
// validation failures because they usually mean the entity imports have not
// run yet, not that the data is bad.
type LinkResult struct {
	Linked              int      `json:"linked"`
	Skipped             int      `json:"skipped"`
	UnresolvedCustomers int      `json:"unresolved_customers"`
	UnresolvedCylinders int      `json:"unresolved_cylinders"`
	OutsideWindow       int      `json:"outside_window"`
	Errors              []string `json:"errors,omitempty"`
	Aborted             bool     `json:"aborted"`
}

// Linker replays transaction-shaped rows (customer key, cylinder key,
// dispatch date, return date) against the cylinder store as idempotent
// rent/return transitions, appending completed cycles to the history log.
//
// Both lookup indices are built once per run. Rows are applied strictly in
// source order, so when several rows reference one cylinder the final state
// reflects the last row: last transaction wins.
type Linker struct {
	mapping mapping.Mapping
	policy  LinkPolicy
	stores  Stores
	genID   *snowflake.Node
	clock   clock.Clock
	log     *zap.Logger

	orgID         snowflake.ID
	customerByNo  map[string]*customerdomain.Customer
	cylinderByKey map[string]*cylinderdomain.Cylinder
	recordedCycle map[string]struct{}

	ordinal int
	result  LinkResult
}

func newLinker(m mapping.Mapping, policy LinkPolicy, stores Stores, genID *snowflake.Node, clk clock.Clock, log *zap.Logger) *Linker {
	if policy.MaxErrors <= 0 {
		policy.MaxErrors = 5000
	}
	return &Linker{
		mapping: m,
		policy:  policy,
		stores:  stores,
		genID:   genID,
		clock:   clk,
		log:     log.Named("linker"),
	}
}

// Begin builds the run's read-only lookup indices. A cylinder is findable by
// system id, custom id, or serial number, all case-insensitively; it may
// occupy up to three slots. Colliding keys resolve last-write-wins, which
// cannot happen while the uniqueness invariants hold.
func (l *Linker) Begin(ctx context.Context) error {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return customerdomain.ErrInvalidOrganization
	}
	l.orgID = orgID

	customers, err := l.stores.Customers.All(ctx)
	if err != nil {
		return err
	}
	l.customerByNo = make(map[string]*customerdomain.Customer, len(customers))
	for i := range customers {
		c := &customers[i]
		if c.CustomerNo != "" {
			l.customerByNo[strings.ToUpper(c.CustomerNo)] = c
		}
	}

	cylinders, err := l.stores.Cylinders.All(ctx)
	if err != nil {
		return err
	}
	l.cylinderByKey = make(map[string]*cylinderdomain.Cylinder, len(cylinders)*3)
	for i := range cylinders {
		c := &cylinders[i]
		if c.SerialNumber != "" {
			l.cylinderByKey[strings.ToUpper(c.SerialNumber)] = c
		}
		if c.CustomID != "" {
			l.cylinderByKey[strings.ToUpper(c.CustomID)] = c
		}
		l.cylinderByKey[strings.ToUpper(c.ID.String())] = c
	}

	history, err := l.stores.History.All(ctx)
	if err != nil {
		return err
	}
	l.recordedCycle = make(map[string]struct{}, len(history))
	for i := range history {
		r := &history[i]
		l.recordedCycle[cycleKey(r.CylinderID, r.DateBorrowed, r.DateReturned)] = struct{}{}
	}
	return nil
}

// cycleKey identifies a completed cycle by cylinder and dates. History
// appends dedup on it so re-running a source file never doubles the log.
func cycleKey(cylinderID snowflake.ID, borrowed *time.Time, returned time.Time) string {
	b := ""
	if borrowed != nil {
		b = borrowed.UTC().Format(time.RFC3339)
	}
	return cylinderID.String() + "|" + b + "|" + returned.UTC().Format(time.RFC3339)
}

func (l *Linker) ProcessChunk(ctx context.Context, columns []string, rows []source.Row) error {
	reader := newRowReader(columns, l.mapping)
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.ordinal++
		l.processRow(ctx, reader, row)

		if l.breakerTripped() {
			l.result.Aborted = true
			return errRunAborted
		}
	}
	return nil
}

func (l *Linker) Result() LinkResult {
	return l.result
}

func (l *Linker) processRow(ctx context.Context, reader *rowReader, row source.Row) {
	customerKey := reader.str(row, "customer_no")
	cylinderKey := reader.str(row, "cylinder_no")

	if cylinderKey == "" {
		l.skip(fmt.Sprintf("row %d: cylinder key missing", l.ordinal))
		l.result.UnresolvedCylinders++
		return
	}
	cyl, ok := l.cylinderByKey[strings.ToUpper(cylinderKey)]
	if !ok {
		l.skip(fmt.Sprintf("row %d: cylinder %q not found", l.ordinal, cylinderKey))
		l.result.UnresolvedCylinders++
		return
	}

	var cust *customerdomain.Customer
	if customerKey != "" {
		cust = l.customerByNo[strings.ToUpper(customerKey)]
	}

	dispatch, err := reader.date(row, "dispatch_date")
	if err != nil {
		l.skip(fmt.Sprintf("row %d: %v", l.ordinal, err))
		return
	}
	returned, err := reader.date(row, "return_date")
	if err != nil {
		l.skip(fmt.Sprintf("row %d: %v", l.ordinal, err))
		return
	}

	if l.policy.RetentionWindowDays > 0 && dispatch != nil {
		cutoff := l.clock.Now().AddDate(0, 0, -l.policy.RetentionWindowDays)
		if dispatch.Before(cutoff) {
			l.result.OutsideWindow++
			l.result.Skipped++
			return
		}
	}

	// A dispatch needs a resolved customer; a bare return works off the
	// cylinder's own snapshot.
	if dispatch != nil && cust == nil {
		if customerKey == "" {
			l.skip(fmt.Sprintf("row %d: customer key missing", l.ordinal))
		} else {
			l.skip(fmt.Sprintf("row %d: customer %q not found", l.ordinal, customerKey))
		}
		l.result.UnresolvedCustomers++
		return
	}

	if l.policy.RecordTransactions {
		l.recordTransaction(ctx, cust, cyl, customerKey, cylinderKey, dispatch, returned)
	}

	if l.policy.BackfillOnly {
		l.backfill(ctx, cust, cyl, dispatch, returned)
		return
	}

	switch {
	case dispatch != nil && returned == nil:
		l.applyRent(ctx, cust, cyl, *dispatch)
	case dispatch != nil && returned != nil:
		l.applyCycle(ctx, cust, cyl, *dispatch, *returned)
	case returned != nil:
		l.applyReturn(ctx, cyl, *returned)
	default:
		l.skip(fmt.Sprintf("row %d: no dispatch or return date", l.ordinal))
	}
}

// applyRent transitions the cylinder to Rented. Re-applying the same
// dispatch is a no-op so re-runs converge.
func (l *Linker) applyRent(ctx context.Context, cust *customerdomain.Customer, cyl *cylinderdomain.Cylinder, dispatch time.Time) {
	if cyl.Status == cylinderdomain.StatusRented &&
		cyl.RentedTo != nil && *cyl.RentedTo == cust.ID &&
		cyl.DateBorrowed != nil && cyl.DateBorrowed.Equal(dispatch) {
		l.result.Linked++
		return
	}

	cyl.MarkRented(party(cust), dispatch, l.clock.Now())
	if err := l.stores.Cylinders.Save(ctx, cyl); err != nil {
		l.skip(fmt.Sprintf("row %d: store write failed: %v", l.ordinal, err))
		return
	}
	l.result.Linked++
}

// applyCycle replays a completed historical cycle: rent immediately followed
// by return. A cylinder already showing this exact completed cycle is left
// untouched so the history log is not duplicated on re-runs.
func (l *Linker) applyCycle(ctx context.Context, cust *customerdomain.Customer, cyl *cylinderdomain.Cylinder, dispatch, returned time.Time) {
	if cyl.Status != cylinderdomain.StatusRented &&
		cyl.DateBorrowed != nil && cyl.DateBorrowed.Equal(dispatch) &&
		cyl.DateReturned != nil && cyl.DateReturned.Equal(returned) {
		l.result.Linked++
		return
	}

	now := l.clock.Now()
	cyl.MarkRented(party(cust), dispatch, now)
	cycle, _ := cyl.MarkReturned(returned, now)

	if err := l.stores.Cylinders.Save(ctx, cyl); err != nil {
		l.skip(fmt.Sprintf("row %d: store write failed: %v", l.ordinal, err))
		return
	}
	l.appendHistory(ctx, cyl, cycle, cust)
	l.result.Linked++
}

// applyReturn closes whatever cycle the cylinder's snapshot holds. Returning
// an Available cylinder is a no-op, not an error; that is what makes
// re-running a transaction file idempotent.
func (l *Linker) applyReturn(ctx context.Context, cyl *cylinderdomain.Cylinder, returned time.Time) {
	cycle, completed := cyl.MarkReturned(returned, l.clock.Now())
	if !completed {
		l.result.Linked++
		return
	}

	if err := l.stores.Cylinders.Save(ctx, cyl); err != nil {
		l.skip(fmt.Sprintf("row %d: store write failed: %v", l.ordinal, err))
		return
	}
	var cust *customerdomain.Customer
	if cycle.CustomerID != nil {
		cust = l.customerByID(*cycle.CustomerID)
	}
	l.appendHistory(ctx, cyl, cycle, cust)
	l.result.Linked++
}

// backfill appends a history record for a completed cycle without touching
// cylinder state. Rows lacking either date cannot describe a completed cycle.
func (l *Linker) backfill(ctx context.Context, cust *customerdomain.Customer, cyl *cylinderdomain.Cylinder, dispatch, returned *time.Time) {
	if dispatch == nil || returned == nil {
		l.skip(fmt.Sprintf("row %d: history row needs dispatch and return dates", l.ordinal))
		return
	}

	cycle := cylinderdomain.CompletedCycle{
		DateBorrowed: dispatch,
		DateReturned: *returned,
		RentalDays:   cylinderdomain.DaysBetween(*dispatch, *returned),
	}
	if cust != nil {
		id := cust.ID
		cycle.CustomerID = &id
		cycle.CustomerName = cust.Name
		cycle.CustomerPhone = cust.Phone
		cycle.CustomerAddress = cust.Address
	}
	l.appendHistory(ctx, cyl, cycle, cust)
	l.result.Linked++
}

func (l *Linker) appendHistory(ctx context.Context, cyl *cylinderdomain.Cylinder, cycle cylinderdomain.CompletedCycle, cust *customerdomain.Customer) {
	key := cycleKey(cyl.ID, cycle.DateBorrowed, cycle.DateReturned)
	if _, done := l.recordedCycle[key]; done {
		return
	}

	record := historydomain.RentalHistoryRecord{
		ID:               l.genID.Generate(),
		OrgID:            l.orgID,
		CustomerID:       cycle.CustomerID,
		CustomerName:     cycle.CustomerName,
		CustomerPhone:    cycle.CustomerPhone,
		CylinderID:       cyl.ID,
		CylinderCustomID: cyl.CustomID,
		SerialNumber:     cyl.SerialNumber,
		CylinderType:     cyl.Type,
		CylinderSize:     cyl.Size,
		DateBorrowed:     cycle.DateBorrowed,
		DateReturned:     cycle.DateReturned,
		RentalDays:       cycle.RentalDays,
		CreatedAt:        l.clock.Now(),
	}
	if cust != nil {
		record.CustomerNo = cust.CustomerNo
	}

	if err := l.stores.History.Append(ctx, &record); err != nil {
		// The cylinder transition already persisted; keep going.
		l.log.Error("history append failed", zap.Error(err), zap.String("cylinder", cyl.CustomID))
		return
	}
	l.recordedCycle[key] = struct{}{}
}

func (l *Linker) recordTransaction(ctx context.Context, cust *customerdomain.Customer, cyl *cylinderdomain.Cylinder, customerKey, cylinderKey string, dispatch, returned *time.Time) {
	txn := RentalTransaction{
		ID:           l.genID.Generate(),
		OrgID:        l.orgID,
		CustomerKey:  customerKey,
		CylinderKey:  cylinderKey,
		DispatchDate: dispatch,
		ReturnDate:   returned,
		RowOrdinal:   l.ordinal,
		CreatedAt:    l.clock.Now(),
	}
	if cust != nil {
		id := cust.ID
		txn.CustomerID = &id
	}
	if cyl != nil {
		id := cyl.ID
		txn.CylinderID = &id
	}
	if err := l.stores.Transactions.Append(ctx, &txn); err != nil {
		l.log.Error("transaction append failed", zap.Error(err), zap.Int("row", l.ordinal))
	}
}

func (l *Linker) customerByID(id snowflake.ID) *customerdomain.Customer {
	for _, c := range l.customerByNo {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (l *Linker) skip(msg string) {
	l.result.Skipped++
	if len(l.result.Errors) < l.policy.MaxErrors {
		l.result.Errors = append(l.result.Errors, msg)
	}
}

func (l *Linker) breakerTripped() bool {
	if l.policy.BreakerSkipRatio <= 0 {
		return false
	}
	processed := l.result.Linked + l.result.Skipped
	if processed < l.policy.BreakerMinRows {
		return false
	}
	return float64(l.result.Skipped)/float64(processed) > l.policy.BreakerSkipRatio
}

func party(cust *customerdomain.Customer) cylinderdomain.RentalParty {
	if cust == nil {
		return cylinderdomain.RentalParty{}
	}
	return cylinderdomain.RentalParty{
		CustomerID: cust.ID,
		Name:       cust.Name,
		Phone:      cust.Phone,
		Address:    cust.Address,
	}
}

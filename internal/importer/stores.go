package importer

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/user7217/oxygentracker/internal/customer/domain"
	cylinderdomain "github.com/user7217/oxygentracker/internal/cylinder/domain"
	historydomain "github.com/user7217/oxygentracker/internal/rentalhistory/domain"
)

// The pipeline talks to persistence through these narrow interfaces so the
// same run logic serves the relational backends and the JSON-file store of
// the standalone tool. No cross-row transactionality is assumed: every write
// is a self-contained upsert and a crash mid-run is recovered by re-running
// (dedup and the idempotent linker make re-runs safe).

type CustomerStore interface {
	All(ctx context.Context) ([]customerdomain.Customer, error)
	Append(ctx context.Context, customer *customerdomain.Customer) error
}

type CylinderStore interface {
	All(ctx context.Context) ([]cylinderdomain.Cylinder, error)
	Append(ctx context.Context, cylinder *cylinderdomain.Cylinder) error
	Save(ctx context.Context, cylinder *cylinderdomain.Cylinder) error
}

type HistoryStore interface {
	All(ctx context.Context) ([]historydomain.RentalHistoryRecord, error)
	Append(ctx context.Context, record *historydomain.RentalHistoryRecord) error
}

type TransactionStore interface {
	Append(ctx context.Context, txn *RentalTransaction) error
}

type Stores struct {
	Customers    CustomerStore
	Cylinders    CylinderStore
	History      HistoryStore
	Transactions TransactionStore
}

// RentalTransaction is the optional durable fact row materialized from a
// source transaction for reporting. The linker derives cylinder state from
// the rows either way; this table is write-only from the pipeline's side.
type RentalTransaction struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID  `gorm:"not null;index" json:"organization_id"`
	CustomerID   *snowflake.ID `gorm:"index" json:"customer_id,omitempty"`
	CylinderID   *snowflake.ID `gorm:"index" json:"cylinder_id,omitempty"`
	CustomerKey  string        `json:"customer_key"`
	CylinderKey  string        `json:"cylinder_key"`
	DispatchDate *time.Time    `json:"dispatch_date,omitempty"`
	ReturnDate   *time.Time    `json:"return_date,omitempty"`
	RowOrdinal   int           `json:"row_ordinal"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

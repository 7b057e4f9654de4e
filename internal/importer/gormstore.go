package importer

import (
	"context"

	customerdomain "github.com/user7217/oxygentracker/internal/customer/domain"
	cylinderdomain "github.com/user7217/oxygentracker/internal/cylinder/domain"
	"github.com/user7217/oxygentracker/internal/orgcontext"
	historydomain "github.com/user7217/oxygentracker/internal/rentalhistory/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// GormStoreParams wires the domain repositories into pipeline stores.
type GormStoreParams struct {
	fx.In

	DB           *gorm.DB
	CustomerRepo customerdomain.Repository
	CylinderRepo cylinderdomain.Repository
	HistoryRepo  historydomain.Repository
}

// NewGormStores adapts the gorm-backed repositories to the pipeline's store
// interfaces.
func NewGormStores(p GormStoreParams) Stores {
	return Stores{
		Customers:    &gormCustomerStore{db: p.DB, repo: p.CustomerRepo},
		Cylinders:    &gormCylinderStore{db: p.DB, repo: p.CylinderRepo},
		History:      &gormHistoryStore{db: p.DB, repo: p.HistoryRepo},
		Transactions: &gormTransactionStore{db: p.DB},
	}
}

type gormCustomerStore struct {
	db   *gorm.DB
	repo customerdomain.Repository
}

func (s *gormCustomerStore) All(ctx context.Context) ([]customerdomain.Customer, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, customerdomain.ErrInvalidOrganization
	}
	rows, err := s.repo.ListAll(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]customerdomain.Customer, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	return out, nil
}

func (s *gormCustomerStore) Append(ctx context.Context, customer *customerdomain.Customer) error {
	return s.repo.Insert(ctx, s.db, customer)
}

type gormCylinderStore struct {
	db   *gorm.DB
	repo cylinderdomain.Repository
}

func (s *gormCylinderStore) All(ctx context.Context) ([]cylinderdomain.Cylinder, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, customerdomain.ErrInvalidOrganization
	}
	rows, err := s.repo.ListAll(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]cylinderdomain.Cylinder, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	return out, nil
}

func (s *gormCylinderStore) Append(ctx context.Context, cylinder *cylinderdomain.Cylinder) error {
	return s.repo.Insert(ctx, s.db, cylinder)
}

func (s *gormCylinderStore) Save(ctx context.Context, cylinder *cylinderdomain.Cylinder) error {
	return s.repo.Update(ctx, s.db, cylinder)
}

type gormHistoryStore struct {
	db   *gorm.DB
	repo historydomain.Repository
}

func (s *gormHistoryStore) All(ctx context.Context) ([]historydomain.RentalHistoryRecord, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, customerdomain.ErrInvalidOrganization
	}
	rows, err := s.repo.ListAll(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]historydomain.RentalHistoryRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	return out, nil
}

func (s *gormHistoryStore) Append(ctx context.Context, record *historydomain.RentalHistoryRecord) error {
	return s.repo.Insert(ctx, s.db, record)
}

type gormTransactionStore struct {
	db *gorm.DB
}

func (s *gormTransactionStore) Append(ctx context.Context, txn *RentalTransaction) error {
	return s.db.WithContext(ctx).Create(txn).Error
}

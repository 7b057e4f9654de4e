package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/user7217/oxygentracker/internal/clock"
	"github.com/user7217/oxygentracker/internal/customer/domain"
	"github.com/user7217/oxygentracker/internal/orgcontext"
	"github.com/user7217/oxygentracker/pkg/db"
	"github.com/user7217/oxygentracker/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		clock: p.Clock,
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Customer{}, domain.ErrInvalidOrganization
	}

	customer := domain.Customer{
		CustomerNo: strings.TrimSpace(req.CustomerNo),
		Name:       strings.TrimSpace(req.Name),
		Address:    strings.TrimSpace(req.Address),
		City:       strings.TrimSpace(req.City),
		State:      strings.TrimSpace(req.State),
		Phone:      strings.TrimSpace(req.Phone),
		TaxID:      strings.TrimSpace(req.TaxID),
		TaxRegNo:   strings.TrimSpace(req.TaxRegNo),
	}
	if customer.CustomerNo == "" || customer.Name == "" || customer.Address == "" ||
		customer.City == "" || customer.State == "" || customer.Phone == "" {
		return domain.Customer{}, domain.ErrMissingField
	}

	existing, err := s.repo.FindByCustomerNo(ctx, s.db, orgID, customer.CustomerNo)
	if err != nil {
		return domain.Customer{}, err
	}
	if existing != nil {
		return domain.Customer{}, domain.ErrDuplicateCustomerNo
	}

	now := s.clock.Now()
	customer.ID = s.genID.Generate()
	customer.OrgID = orgID
	customer.CreatedAt = now
	customer.UpdatedAt = now

	if err := s.repo.Insert(ctx, s.db, &customer); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Customer{}, domain.ErrDuplicateCustomerNo
		}
		return domain.Customer{}, err
	}

	return customer, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateCustomerRequest) (domain.Customer, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Customer{}, domain.ErrInvalidOrganization
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Customer{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}

	if v := strings.TrimSpace(req.Name); v != "" {
		item.Name = v
	}
	if v := strings.TrimSpace(req.Address); v != "" {
		item.Address = v
	}
	if v := strings.TrimSpace(req.City); v != "" {
		item.City = v
	}
	if v := strings.TrimSpace(req.State); v != "" {
		item.State = v
	}
	if v := strings.TrimSpace(req.Phone); v != "" {
		item.Phone = v
	}
	if v := strings.TrimSpace(req.TaxID); v != "" {
		item.TaxID = v
	}
	if v := strings.TrimSpace(req.TaxRegNo); v != "" {
		item.TaxRegNo = v
	}
	item.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return domain.Customer{}, err
	}
	return *item, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ErrInvalidOrganization
	}

	id, err := s.parseID(rawID)
	if err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, s.db, orgID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ListCustomerResponse{}, domain.ErrInvalidOrganization
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, orgID, domain.ListCustomerFilter{
		CustomerNo: strings.TrimSpace(req.CustomerNo),
		Name:       strings.TrimSpace(req.Name),
		City:       strings.TrimSpace(req.City),
		State:      strings.TrimSpace(req.State),
	}, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(customer *domain.Customer) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        customer.ID.String(),
			CreatedAt: customer.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		customers = append(customers, *item)
	}

	return domain.ListCustomerResponse{
		PageInfo:  *pageInfo,
		Customers: customers,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetCustomerRequest) (domain.Customer, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Customer{}, domain.ErrInvalidOrganization
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Customer{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/user7217/oxygentracker/internal/clock"
	customerdomain "github.com/user7217/oxygentracker/internal/customer/domain"
	"github.com/user7217/oxygentracker/internal/cylinder/domain"
	"github.com/user7217/oxygentracker/internal/orgcontext"
	historydomain "github.com/user7217/oxygentracker/internal/rentalhistory/domain"
	"github.com/user7217/oxygentracker/pkg/db"
	"github.com/user7217/oxygentracker/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	GenID     *snowflake.Node
	Repo      domain.Repository
	Customers customerdomain.Repository
	History   historydomain.Service
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	genID     *snowflake.Node
	repo      domain.Repository
	customers customerdomain.Repository
	history   historydomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("cylinder.service"),
		clock:     p.Clock,
		genID:     p.GenID,
		repo:      p.Repo,
		customers: p.Customers,
		history:   p.History,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCylinderRequest) (domain.Cylinder, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Cylinder{}, domain.ErrInvalidOrganization
	}

	customID := strings.TrimSpace(req.CustomID)
	if customID == "" {
		return domain.Cylinder{}, domain.ErrMissingCustomID
	}

	existing, err := s.repo.FindByCustomID(ctx, s.db, orgID, customID)
	if err != nil {
		return domain.Cylinder{}, err
	}
	if existing != nil {
		return domain.Cylinder{}, domain.ErrDuplicateCustomID
	}

	now := s.clock.Now()
	cylinder := domain.Cylinder{
		ID:           s.genID.Generate(),
		OrgID:        orgID,
		CustomID:     customID,
		SerialNumber: strings.TrimSpace(req.SerialNumber),
		Type:         defaultIfEmpty(req.Type, domain.DefaultType),
		Size:         defaultIfEmpty(req.Size, domain.DefaultSize),
		Status:       domain.FoldStatus(req.Status),
		Location:     defaultIfEmpty(req.Location, domain.DefaultLocation),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, s.db, &cylinder); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Cylinder{}, domain.ErrDuplicateCustomID
		}
		return domain.Cylinder{}, err
	}
	return cylinder, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateCylinderRequest) (domain.Cylinder, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Cylinder{}, domain.ErrInvalidOrganization
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Cylinder{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Cylinder{}, err
	}
	if item == nil {
		return domain.Cylinder{}, domain.ErrNotFound
	}

	if v := strings.TrimSpace(req.SerialNumber); v != "" {
		item.SerialNumber = v
	}
	if v := strings.TrimSpace(req.Type); v != "" {
		item.Type = v
	}
	if v := strings.TrimSpace(req.Size); v != "" {
		item.Size = v
	}
	if v := strings.TrimSpace(req.Status); v != "" {
		item.Status = domain.FoldStatus(v)
	}
	if v := strings.TrimSpace(req.Location); v != "" {
		item.Location = v
	}
	item.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return domain.Cylinder{}, err
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

func (s *Service) List(ctx context.Context, req domain.ListCylinderRequest) (domain.ListCylinderResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ListCylinderResponse{}, domain.ErrInvalidOrganization
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	filter := domain.ListCylinderFilter{
		CustomID: strings.TrimSpace(req.CustomID),
		Type:     strings.TrimSpace(req.Type),
		RentedTo: strings.TrimSpace(req.RentedTo),
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		filter.Status = domain.FoldStatus(raw)
	}

	items, err := s.repo.List(ctx, s.db, orgID, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListCylinderResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(cylinder *domain.Cylinder) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        cylinder.ID.String(),
			CreatedAt: cylinder.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	cylinders := make([]domain.Cylinder, 0, len(items))
	for _, item := range items {
		cylinders = append(cylinders, *item)
	}

	return domain.ListCylinderResponse{
		PageInfo:  *pageInfo,
		Cylinders: cylinders,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetCylinderRequest) (domain.Cylinder, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Cylinder{}, domain.ErrInvalidOrganization
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Cylinder{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Cylinder{}, err
	}
	if item == nil {
		return domain.Cylinder{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Rent(ctx context.Context, req domain.RentCylinderRequest) (domain.Cylinder, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Cylinder{}, domain.ErrInvalidOrganization
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Cylinder{}, err
	}
	customerID, err := s.parseID(req.CustomerID)
	if err != nil {
		return domain.Cylinder{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Cylinder{}, err
	}
	if item == nil {
		return domain.Cylinder{}, domain.ErrNotFound
	}
	if item.Status != domain.StatusAvailable {
		return domain.Cylinder{}, domain.ErrNotAvailable
	}

	cust, err := s.customers.FindByID(ctx, s.db, orgID, customerID)
	if err != nil {
		return domain.Cylinder{}, err
	}
	if cust == nil {
		return domain.Cylinder{}, customerdomain.ErrNotFound
	}

	now := s.clock.Now()
	dispatched := now
	if req.Dispatched != nil {
		dispatched = *req.Dispatched
	}

	item.MarkRented(domain.RentalParty{
		CustomerID: cust.ID,
		Name:       cust.Name,
		Phone:      cust.Phone,
		Address:    cust.Address,
	}, dispatched, now)

	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return domain.Cylinder{}, err
	}

	s.log.Info("cylinder rented",
		zap.String("cylinder", item.CustomID),
		zap.String("customer_no", cust.CustomerNo),
		zap.Time("dispatched", dispatched),
	)
	return *item, nil
}

func (s *Service) Return(ctx context.Context, req domain.ReturnCylinderRequest) (domain.Cylinder, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Cylinder{}, domain.ErrInvalidOrganization
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Cylinder{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Cylinder{}, err
	}
	if item == nil {
		return domain.Cylinder{}, domain.ErrNotFound
	}

	now := s.clock.Now()
	returned := now
	if req.Returned != nil {
		returned = *req.Returned
	}

	var customerNo string
	if item.RentedTo != nil {
		if cust, err := s.customers.FindByID(ctx, s.db, orgID, *item.RentedTo); err == nil && cust != nil {
			customerNo = cust.CustomerNo
		}
	}

	cycle, completed := item.MarkReturned(returned, now)
	if !completed {
		return domain.Cylinder{}, domain.ErrNotRented
	}

	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return domain.Cylinder{}, err
	}

	if _, err := s.history.Append(ctx, historydomain.AppendRequest{
		CustomerID:       cycle.CustomerID,
		CustomerNo:       customerNo,
		CustomerName:     cycle.CustomerName,
		CustomerPhone:    cycle.CustomerPhone,
		CylinderID:       item.ID,
		CylinderCustomID: item.CustomID,
		SerialNumber:     item.SerialNumber,
		CylinderType:     item.Type,
		CylinderSize:     item.Size,
		DateBorrowed:     cycle.DateBorrowed,
		DateReturned:     cycle.DateReturned,
		RentalDays:       cycle.RentalDays,
	}); err != nil {
		// The cylinder transition already persisted. Losing the history row is
		// recoverable from the snapshot, so log and keep going.
		s.log.Error("history append failed", zap.Error(err), zap.String("cylinder", item.CustomID))
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

func defaultIfEmpty(value, def string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return def
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/user7217/oxygentracker/internal/clock"
	"github.com/user7217/oxygentracker/internal/config"
	"github.com/user7217/oxygentracker/internal/orgcontext"
	"github.com/user7217/oxygentracker/internal/rentalhistory/domain"
	"github.com/user7217/oxygentracker/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	GenID  *snowflake.Node
	Repo   domain.Repository
	Policy *config.ImportPolicyHolder
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	clock  clock.Clock
	genID  *snowflake.Node
	repo   domain.Repository
	policy *config.ImportPolicyHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("rentalhistory.service"),
		clock:  p.Clock,
		genID:  p.GenID,
		repo:   p.Repo,
		policy: p.Policy,
	}
}

func (s *Service) Append(ctx context.Context, req domain.AppendRequest) (domain.RentalHistoryRecord, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.RentalHistoryRecord{}, domain.ErrInvalidOrganization
	}
	if req.DateReturned.IsZero() {
		return domain.RentalHistoryRecord{}, domain.ErrMissingReturnDate
	}

	record := domain.RentalHistoryRecord{
		ID:               s.genID.Generate(),
		OrgID:            orgID,
		CustomerID:       req.CustomerID,
		CustomerNo:       req.CustomerNo,
		CustomerName:     req.CustomerName,
		CustomerPhone:    req.CustomerPhone,
		CylinderID:       req.CylinderID,
		CylinderCustomID: req.CylinderCustomID,
		SerialNumber:     req.SerialNumber,
		CylinderType:     req.CylinderType,
		CylinderSize:     req.CylinderSize,
		DateBorrowed:     req.DateBorrowed,
		DateReturned:     req.DateReturned,
		RentalDays:       req.RentalDays,
		CreatedAt:        s.clock.Now(),
	}
	if record.RentalDays < 0 {
		record.RentalDays = 0
	}

	if err := s.repo.Insert(ctx, s.db, &record); err != nil {
		return domain.RentalHistoryRecord{}, err
	}
	return record, nil
}

func (s *Service) List(ctx context.Context, req domain.ListHistoryRequest) (domain.ListHistoryResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ListHistoryResponse{}, domain.ErrInvalidOrganization
	}

	filter := domain.ListHistoryFilter{
		CustomerNo:   strings.TrimSpace(req.CustomerNo),
		ReturnedFrom: req.ReturnedFrom,
		ReturnedTo:   req.ReturnedTo,
	}
	if raw := strings.TrimSpace(req.CylinderID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return domain.ListHistoryResponse{}, domain.ErrInvalidID
		}
		filter.CylinderID = id
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, orgID, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListHistoryResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(record *domain.RentalHistoryRecord) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        record.ID.String(),
			CreatedAt: record.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	records := make([]domain.RentalHistoryRecord, 0, len(items))
	for _, item := range items {
		records = append(records, *item)
	}

	return domain.ListHistoryResponse{
		PageInfo: *pageInfo,
		Records:  records,
	}, nil
}

func (s *Service) Prune(ctx context.Context, olderThanDays int) (domain.PruneResult, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.PruneResult{}, domain.ErrInvalidOrganization
	}

	if olderThanDays <= 0 {
		olderThanDays = s.policy.Get().HistoryRetentionDays
	}
	cutoff := s.clock.Now().AddDate(0, 0, -olderThanDays)

	deleted, err := s.repo.DeleteReturnedBefore(ctx, s.db, orgID, cutoff)
	if err != nil {
		return domain.PruneResult{}, err
	}

	s.log.Info("rental history pruned",
		zap.Int64("deleted", deleted),
		zap.Time("cutoff", cutoff),
	)
	return domain.PruneResult{Deleted: deleted, Cutoff: cutoff}, nil
}

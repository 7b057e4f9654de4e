// Package scheduler runs the periodic maintenance jobs: the overdue-cylinder
// email digest and rental-history pruning.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/user7217/oxygentracker/internal/clock"
	"github.com/user7217/oxygentracker/internal/config"
	cylinderdomain "github.com/user7217/oxygentracker/internal/cylinder/domain"
	"github.com/user7217/oxygentracker/internal/orgcontext"
	organizationdomain "github.com/user7217/oxygentracker/internal/organization/domain"
	"github.com/user7217/oxygentracker/internal/providers/email"
	historydomain "github.com/user7217/oxygentracker/internal/rentalhistory/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("scheduler dependencies are incomplete")

// Config controls how often the maintenance loop runs.
type Config struct {
	RunInterval time.Duration
	JobTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		RunInterval: 24 * time.Hour,
		JobTimeout:  10 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}

func ProvideConfig() Config {
	return DefaultConfig()
}

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clock.Clock
	AppCfg       config.Config
	Policy       *config.ImportPolicyHolder
	OrgRepo      organizationdomain.Repository
	CylinderRepo cylinderdomain.Repository
	HistorySvc   historydomain.Service
	Email        email.Provider
	Config       Config `optional:"true"`
}

type Scheduler struct {
	db           *gorm.DB
	log          *zap.Logger
	cfg          Config
	appCfg       config.Config
	clock        clock.Clock
	policy       *config.ImportPolicyHolder
	orgRepo      organizationdomain.Repository
	cylinderRepo cylinderdomain.Repository
	historySvc   historydomain.Service
	email        email.Provider
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.Policy == nil ||
		p.OrgRepo == nil || p.CylinderRepo == nil || p.HistorySvc == nil || p.Email == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:           p.DB,
		log:          p.Log.Named("scheduler"),
		cfg:          p.Config.withDefaults(),
		appCfg:       p.AppCfg,
		clock:        p.Clock,
		policy:       p.Policy,
		orgRepo:      p.OrgRepo,
		cylinderRepo: p.CylinderRepo,
		historySvc:   p.HistorySvc,
		email:        p.Email,
	}, nil
}

// RunForever ticks until the context is canceled. One pass runs immediately
// on start so a daily interval does not delay the first sweep by a day.
func (s *Scheduler) RunForever(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	orgs, err := s.orgRepo.List(ctx, s.db)
	if err != nil {
		s.log.Error("listing organizations", zap.Error(err))
		return
	}

	for _, org := range orgs {
		orgCtx := orgcontext.WithOrgID(ctx, org.ID)
		if err := s.sweepOverdue(orgCtx, org.ID); err != nil {
			s.log.Error("overdue sweep failed", zap.String("org_id", org.ID.String()), zap.Error(err))
		}
		if err := s.pruneHistory(orgCtx, org.ID); err != nil {
			s.log.Error("history prune failed", zap.String("org_id", org.ID.String()), zap.Error(err))
		}
	}
}

// SweepOverdueNow runs the overdue sweep for one organization outside the
// regular schedule.
func (s *Scheduler) SweepOverdueNow(ctx context.Context, orgID snowflake.ID) error {
	return s.sweepOverdue(orgcontext.WithOrgID(ctx, orgID), orgID)
}

func (s *Scheduler) sweepOverdue(ctx context.Context, orgID snowflake.ID) error {
	if len(s.appCfg.OverdueNotifyTo) == 0 {
		return nil
	}

	pol := s.policy.Get()
	cylinders, err := s.cylinderRepo.ListRentedLongerThan(ctx, s.db, orgID, pol.OverdueDays)
	if err != nil {
		return err
	}
	if len(cylinders) == 0 {
		return nil
	}

	now := s.clock.Now()
	items := make([]email.OverdueItem, 0, len(cylinders))
	for _, cyl := range cylinders {
		item := email.OverdueItem{
			CustomID:     cyl.CustomID,
			CustomerName: cyl.CustomerName,
			RentalDays:   cylinderdomain.RentalDays(*cyl, now),
		}
		if cyl.DateBorrowed != nil {
			item.DateBorrowed = cyl.DateBorrowed.Format("2006-01-02")
		}
		items = append(items, item)
	}

	s.log.Info("sending overdue report",
		zap.String("org_id", orgID.String()),
		zap.Int("cylinders", len(items)),
	)
	return email.SendOverdueReport(ctx, s.email, s.appCfg.OverdueNotifyTo, pol.OverdueDays, items)
}

func (s *Scheduler) pruneHistory(ctx context.Context, orgID snowflake.ID) error {
	result, err := s.historySvc.Prune(ctx, 0)
	if err != nil {
		return err
	}
	if result.Deleted > 0 {
		s.log.Info("pruned rental history",
			zap.String("org_id", orgID.String()),
			zap.Int64("deleted", result.Deleted),
		)
	}
	return nil
}

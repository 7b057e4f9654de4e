package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/user7217/oxygentracker/internal/clock"
	"github.com/user7217/oxygentracker/internal/organization/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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

type serviceImpl struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &serviceImpl{
		db:    p.DB,
		log:   p.Log.Named("organization.service"),
		clock: p.Clock,
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req domain.CreateOrganizationRequest) (domain.Organization, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Organization{}, domain.ErrMissingName
	}

	now := s.clock.Now()
	org := domain.Organization{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      slug.Make(name),
		IsDefault: req.IsDefault,
		Metadata:  datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &org); err != nil {
		return domain.Organization{}, err
	}

	s.log.Info("organization created",
		zap.String("org_id", org.ID.String()),
		zap.String("slug", org.Slug),
	)
	return org, nil
}

func (s *serviceImpl) GetByID(ctx context.Context, id string) (domain.Organization, error) {
	orgID, err := snowflake.ParseString(id)
	if err != nil {
		return domain.Organization{}, domain.ErrInvalidID
	}
	org, err := s.repo.FindByID(ctx, s.db, orgID)
	if err != nil {
		return domain.Organization{}, err
	}
	return *org, nil
}

func (s *serviceImpl) List(ctx context.Context) ([]domain.Organization, error) {
	orgs, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Organization, 0, len(orgs))
	for _, org := range orgs {
		out = append(out, *org)
	}
	return out, nil
}

func (s *serviceImpl) EnsureDefault(ctx context.Context, name string) (domain.Organization, error) {
	org, err := s.repo.FindDefault(ctx, s.db)
	if err == nil {
		return *org, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Organization{}, err
	}
	return s.Create(ctx, domain.CreateOrganizationRequest{Name: name, IsDefault: true})
}

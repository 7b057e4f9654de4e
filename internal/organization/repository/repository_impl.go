package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/user7217/oxygentracker/internal/organization/domain"
	"gorm.io/gorm"
)

type repositoryImpl struct{}

func New() domain.Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Insert(ctx context.Context, db *gorm.DB, org *domain.Organization) error {
	return db.WithContext(ctx).Create(org).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Organization, error) {
	var org domain.Organization
	err := db.WithContext(ctx).Where("id = ?", id).First(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *repositoryImpl) FindDefault(ctx context.Context, db *gorm.DB) (*domain.Organization, error) {
	var org domain.Organization
	err := db.WithContext(ctx).Where("is_default = ?", true).First(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *repositoryImpl) List(ctx context.Context, db *gorm.DB) ([]*domain.Organization, error) {
	var orgs []*domain.Organization
	if err := db.WithContext(ctx).Order("created_at ASC").Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

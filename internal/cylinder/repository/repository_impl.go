package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/user7217/oxygentracker/internal/cylinder/domain"
	"github.com/user7217/oxygentracker/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, cylinder *domain.Cylinder) error {
	return db.WithContext(ctx).Create(cylinder).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, cylinder *domain.Cylinder) error {
	// Save skips zero-valued fields through struct updates, and clearing the
	// rental snapshot writes NULLs and empty strings. Select forces the full row.
	return db.WithContext(ctx).
		Model(cylinder).
		Select("*").
		Where("id = ?", cylinder.ID).
		Updates(cylinder).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&domain.Cylinder{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Cylinder, error) {
	var cylinder domain.Cylinder
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Limit(1).
		Find(&cylinder).Error
	if err != nil {
		return nil, err
	}
	if cylinder.ID == 0 {
		return nil, nil
	}
	return &cylinder, nil
}

func (r *repo) FindByCustomID(ctx context.Context, db *gorm.DB, orgID snowflake.ID, customID string) (*domain.Cylinder, error) {
	var cylinder domain.Cylinder
	err := db.WithContext(ctx).
		Where("org_id = ? AND UPPER(custom_id) = ?", orgID, strings.ToUpper(customID)).
		Limit(1).
		Find(&cylinder).Error
	if err != nil {
		return nil, err
	}
	if cylinder.ID == 0 {
		return nil, nil
	}
	return &cylinder, nil
}

func (r *repo) ListAll(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]*domain.Cylinder, error) {
	var cylinders []*domain.Cylinder
	err := db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("created_at asc, id asc").
		Find(&cylinders).Error
	if err != nil {
		return nil, err
	}
	return cylinders, nil
}

func (r *repo) ListRentedLongerThan(ctx context.Context, db *gorm.DB, orgID snowflake.ID, days int) ([]*domain.Cylinder, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	var cylinders []*domain.Cylinder
	err := db.WithContext(ctx).
		Where("org_id = ? AND status = ? AND date_borrowed IS NOT NULL AND date_borrowed <= ?",
			orgID, domain.StatusRented, cutoff).
		Order("date_borrowed asc").
		Find(&cylinders).Error
	if err != nil {
		return nil, err
	}
	return cylinders, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListCylinderFilter, page pagination.Pagination) ([]*domain.Cylinder, error) {
	var cylinders []*domain.Cylinder
	stmt := db.WithContext(ctx).
		Model(&domain.Cylinder{}).
		Where("org_id = ?", orgID)
	if filter.CustomID != "" {
		stmt = stmt.Where("UPPER(custom_id) = ?", strings.ToUpper(filter.CustomID))
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		stmt = stmt.Where("type = ?", filter.Type)
	}
	if filter.RentedTo != "" {
		stmt = stmt.Where("rented_to = ?", filter.RentedTo)
	}
	if cursor, err := pagination.DecodeCursor(page.PageToken); err == nil && cursor != nil && cursor.CreatedAt != "" {
		stmt = stmt.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	if page.PageSize > 0 {
		stmt = stmt.Limit(page.PageSize + 1)
	}
	err := stmt.
		Order("created_at asc, id asc").
		Find(&cylinders).Error
	if err != nil {
		return nil, fmt.Errorf("list cylinders: %w", err)
	}
	return cylinders, nil
}

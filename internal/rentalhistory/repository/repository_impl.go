package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/user7217/oxygentracker/internal/rentalhistory/domain"
	"github.com/user7217/oxygentracker/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.RentalHistoryRecord) error {
	return db.WithContext(ctx).Create(record).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListHistoryFilter, page pagination.Pagination) ([]*domain.RentalHistoryRecord, error) {
	var records []*domain.RentalHistoryRecord
	stmt := db.WithContext(ctx).
		Model(&domain.RentalHistoryRecord{}).
		Where("org_id = ?", orgID)
	if filter.CustomerNo != "" {
		stmt = stmt.Where("UPPER(customer_no) = ?", strings.ToUpper(filter.CustomerNo))
	}
	if filter.CylinderID != 0 {
		stmt = stmt.Where("cylinder_id = ?", filter.CylinderID)
	}
	if filter.ReturnedFrom != nil {
		stmt = stmt.Where("date_returned >= ?", *filter.ReturnedFrom)
	}
	if filter.ReturnedTo != nil {
		stmt = stmt.Where("date_returned <= ?", *filter.ReturnedTo)
	}
	if cursor, err := pagination.DecodeCursor(page.PageToken); err == nil && cursor != nil && cursor.CreatedAt != "" {
		stmt = stmt.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	if page.PageSize > 0 {
		stmt = stmt.Limit(page.PageSize + 1)
	}
	err := stmt.
		Order("created_at asc, id asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) ListAll(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]*domain.RentalHistoryRecord, error) {
	var records []*domain.RentalHistoryRecord
	err := db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("date_returned asc, id asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) CountByCylinder(ctx context.Context, db *gorm.DB, orgID, cylinderID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.RentalHistoryRecord{}).
		Where("org_id = ? AND cylinder_id = ?", orgID, cylinderID).
		Count(&count).Error
	return count, err
}

func (r *repo) DeleteReturnedBefore(ctx context.Context, db *gorm.DB, orgID snowflake.ID, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("org_id = ? AND date_returned < ?", orgID, cutoff).
		Delete(&domain.RentalHistoryRecord{})
	return res.RowsAffected, res.Error
}

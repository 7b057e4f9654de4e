package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/user7217/oxygentracker/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *RentalHistoryRecord) error
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListHistoryFilter, page pagination.Pagination) ([]*RentalHistoryRecord, error)
	ListAll(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]*RentalHistoryRecord, error)
	CountByCylinder(ctx context.Context, db *gorm.DB, orgID, cylinderID snowflake.ID) (int64, error)
	DeleteReturnedBefore(ctx context.Context, db *gorm.DB, orgID snowflake.ID, cutoff time.Time) (int64, error)
}

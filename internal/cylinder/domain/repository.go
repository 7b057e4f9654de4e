package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/user7217/oxygentracker/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, cylinder *Cylinder) error
	Update(ctx context.Context, db *gorm.DB, cylinder *Cylinder) error
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (bool, error)
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Cylinder, error)
	FindByCustomID(ctx context.Context, db *gorm.DB, orgID snowflake.ID, customID string) (*Cylinder, error)
	ListAll(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]*Cylinder, error)
	ListRentedLongerThan(ctx context.Context, db *gorm.DB, orgID snowflake.ID, days int) ([]*Cylinder, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListCylinderFilter, page pagination.Pagination) ([]*Cylinder, error)
}

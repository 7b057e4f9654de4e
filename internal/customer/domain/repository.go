package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/user7217/oxygentracker/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	Update(ctx context.Context, db *gorm.DB, customer *Customer) error
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (bool, error)
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Customer, error)
	FindByCustomerNo(ctx context.Context, db *gorm.DB, orgID snowflake.ID, customerNo string) (*Customer, error)
	ListAll(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]*Customer, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListCustomerFilter, page pagination.Pagination) ([]*Customer, error)
}

package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	organizationdomain "github.com/user7217/oxygentracker/internal/organization/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultOrgName = "Main"
	defaultOrgSlug = "main"
)

// EnsureMainOrg seeds the default organization for startup bootstrap.
func EnsureMainOrg(db *gorm.DB) error {
	return ensureOrg(db, 0)
}

// EnsureMainOrgWithID seeds the default organization under a fixed ID, so a
// DEFAULT_ORG configured in the environment always resolves.
func EnsureMainOrgWithID(db *gorm.DB, id int64) error {
	return ensureOrg(db, snowflake.ID(id))
}

func ensureOrg(db *gorm.DB, id snowflake.ID) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing organizationdomain.Organization
		err := tx.Where("is_default = ?", true).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if id == 0 {
			node, err := snowflake.NewNode(1)
			if err != nil {
				return err
			}
			id = node.Generate()
		}

		now := time.Now().UTC()
		org := organizationdomain.Organization{
			ID:        id,
			Name:      defaultOrgName,
			Slug:      defaultOrgSlug,
			IsDefault: true,
			Metadata:  datatypes.JSONMap{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.Create(&org).Error
	})
}

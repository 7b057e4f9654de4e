package domain

import (
	"context"
	"errors"
)

type CreateOrganizationRequest struct {
	Name      string
	IsDefault bool
}

type Service interface {
	Create(context.Context, CreateOrganizationRequest) (Organization, error)
	GetByID(ctx context.Context, id string) (Organization, error)
	List(context.Context) ([]Organization, error)
	// EnsureDefault returns the default organization, creating it when the
	// database has none.
	EnsureDefault(ctx context.Context, name string) (Organization, error)
}

var (
	ErrMissingName = errors.New("missing_name")
	ErrInvalidID   = errors.New("invalid_id")
	ErrNotFound    = errors.New("not_found")
)

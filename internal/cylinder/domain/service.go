package domain

import (
	"context"
	"errors"
	"time"

	"github.com/user7217/oxygentracker/pkg/db/pagination"
)

type ListCylinderRequest struct {
	PageToken string
	PageSize  int
	CustomID  string
	Status    string
	Type      string
	RentedTo  string
}

type ListCylinderFilter struct {
	CustomID string
	Status   Status
	Type     string
	RentedTo string
}

type ListCylinderResponse struct {
	pagination.PageInfo
	Cylinders []Cylinder `json:"cylinders"`
}

type CreateCylinderRequest struct {
	CustomID     string
	SerialNumber string
	Type         string
	Size         string
	Status       string
	Location     string
}

type UpdateCylinderRequest struct {
	ID           string
	SerialNumber string
	Type         string
	Size         string
	Status       string
	Location     string
}

type GetCylinderRequest struct {
	ID string
}

// RentCylinderRequest dispatches a cylinder to a customer.
type RentCylinderRequest struct {
	ID         string
	CustomerID string
	Dispatched *time.Time
}

// ReturnCylinderRequest completes the active rental cycle.
type ReturnCylinderRequest struct {
	ID       string
	Returned *time.Time
}

type Service interface {
	Create(context.Context, CreateCylinderRequest) (Cylinder, error)
	Update(context.Context, UpdateCylinderRequest) (Cylinder, error)
	Delete(context.Context, string) error
	List(context.Context, ListCylinderRequest) (ListCylinderResponse, error)
	GetByID(context.Context, GetCylinderRequest) (Cylinder, error)
	Rent(context.Context, RentCylinderRequest) (Cylinder, error)
	Return(context.Context, ReturnCylinderRequest) (Cylinder, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrMissingCustomID     = errors.New("missing_custom_id")
	ErrDuplicateCustomID   = errors.New("duplicate_custom_id")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
	ErrNotAvailable        = errors.New("cylinder_not_available")
	ErrNotRented           = errors.New("cylinder_not_rented")
)

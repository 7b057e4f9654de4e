package domain

import (
	"context"
	"errors"

	"github.com/user7217/oxygentracker/pkg/db/pagination"
)

type ListCustomerRequest struct {
	PageToken  string
	PageSize   int
	CustomerNo string
	Name       string
	City       string
	State      string
}

type ListCustomerFilter struct {
	CustomerNo string
	Name       string
	City       string
	State      string
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type CreateCustomerRequest struct {
	CustomerNo string
	Name       string
	Address    string
	City       string
	State      string
	Phone      string
	TaxID      string
	TaxRegNo   string
}

type UpdateCustomerRequest struct {
	ID         string
	Name       string
	Address    string
	City       string
	State      string
	Phone      string
	TaxID      string
	TaxRegNo   string
}

type GetCustomerRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	Update(context.Context, UpdateCustomerRequest) (Customer, error)
	Delete(context.Context, string) error
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	GetByID(context.Context, GetCustomerRequest) (Customer, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrMissingField        = errors.New("missing_required_field")
	ErrDuplicateCustomerNo = errors.New("duplicate_customer_no")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
)

package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/user7217/oxygentracker/pkg/db/pagination"
)

// AppendRequest carries one completed cycle into the history log.
type AppendRequest struct {
	CustomerID    *snowflake.ID
	CustomerNo    string
	CustomerName  string
	CustomerPhone string

	CylinderID       snowflake.ID
	CylinderCustomID string
	SerialNumber     string
	CylinderType     string
	CylinderSize     string

	DateBorrowed *time.Time
	DateReturned time.Time
	RentalDays   int
}

type ListHistoryRequest struct {
	PageToken    string
	PageSize     int
	CustomerNo   string
	CylinderID   string
	ReturnedFrom *time.Time
	ReturnedTo   *time.Time
}

type ListHistoryFilter struct {
	CustomerNo   string
	CylinderID   snowflake.ID
	ReturnedFrom *time.Time
	ReturnedTo   *time.Time
}

type ListHistoryResponse struct {
	pagination.PageInfo
	Records []RentalHistoryRecord `json:"records"`
}

type PruneResult struct {
	Deleted int64     `json:"deleted"`
	Cutoff  time.Time `json:"cutoff"`
}

type Service interface {
	Append(context.Context, AppendRequest) (RentalHistoryRecord, error)
	List(context.Context, ListHistoryRequest) (ListHistoryResponse, error)
	// Prune removes records whose return date is older than the given number
	// of days. Zero days means the configured default retention.
	Prune(ctx context.Context, olderThanDays int) (PruneResult, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrMissingReturnDate   = errors.New("missing_return_date")
)

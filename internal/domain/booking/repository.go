package booking

import (
	"context"
	"errors"
	"time"

	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
)

// ErrNotFound is returned by repositories for missing rows.
var ErrNotFound = errors.New("record not found")

type Repository interface {
	// -------- Transaction --------
	// Transaction runs fn inside one serializable transaction; fn must use
	// the repository it receives. Called on that repository it opens a
	// savepoint instead.
	Transaction(
		ctx context.Context,
		fn func(tx Repository) error,
	) error

	// -------- Company --------
	GetCompany(ctx context.Context, id uint) (*models.Company, error)
	GetCompanyBySlug(ctx context.Context, slug string) (*models.Company, error)
	ListActiveCompanies(ctx context.Context) ([]models.Company, error)

	// -------- Accounts / catalog --------
	GetAccount(ctx context.Context, id uint) (*models.Account, error)
	GetService(ctx context.Context, id uint) (*models.Service, error)

	// -------- Client --------
	FindClientByPhone(ctx context.Context, companyID uint, phone string) (*models.Client, error)
	FindClientByAccount(ctx context.Context, accountID uint) (*models.Client, error)
	CreateClient(ctx context.Context, c *models.Client) error
	UpdateClient(ctx context.Context, c *models.Client) error

	// -------- Working hours / availability --------
	ListWorkingHours(ctx context.Context, companyID uint, weekday int) ([]models.WorkingHours, error)
	ListAllWorkingHours(ctx context.Context, companyID uint) ([]models.WorkingHours, error)
	ReplaceWorkingHours(ctx context.Context, companyID uint, hours []models.WorkingHours) error

	ListAvailability(ctx context.Context, professionalID uint, weekday int) ([]models.Availability, error)
	ListAllAvailability(ctx context.Context, professionalID uint) ([]models.Availability, error)
	GetAvailability(ctx context.Context, id uint) (*models.Availability, error)
	SaveAvailability(ctx context.Context, a *models.Availability) error

	// -------- Date blocks --------
	ListDateBlocks(ctx context.Context, professionalID uint) ([]models.DateBlock, error)
	// FindBlockCovering returns nil, nil when no active block covers date.
	FindBlockCovering(ctx context.Context, professionalID uint, date time.Time) (*models.DateBlock, error)
	// FindOverlappingBlock returns nil, nil when no active block touches [start, end].
	FindOverlappingBlock(ctx context.Context, professionalID uint, start, end time.Time) (*models.DateBlock, error)
	GetDateBlock(ctx context.Context, id uint) (*models.DateBlock, error)
	SaveDateBlock(ctx context.Context, b *models.DateBlock) error

	// -------- Bookings --------
	GetBooking(ctx context.Context, id uint) (*models.Booking, error)
	GetBookingByCorrelation(ctx context.Context, correlationID string) (*models.Booking, error)

	// ListBookingsForDay returns the non-cancelled bookings ordered by start.
	ListBookingsForDay(ctx context.Context, professionalID uint, date time.Time) ([]models.Booking, error)
	// ListBookingsInRange filters by statuses when any are given; dates are inclusive.
	ListBookingsInRange(ctx context.Context, professionalID uint, from, to time.Time, statuses ...Status) ([]models.Booking, error)
	ListBookingsByStatus(ctx context.Context, companyID uint, date time.Time, status Status) ([]models.Booking, error)

	// HasOverlap is the overlap guard: any non-cancelled booking of the
	// professional on date whose window intersects window, except exclude.
	HasOverlap(ctx context.Context, professionalID uint, date time.Time, window schedule.TimeRange, exclude ...uint) (bool, error)

	CreateBooking(ctx context.Context, b *models.Booking) error
	UpdateBooking(ctx context.Context, b *models.Booking) error
}

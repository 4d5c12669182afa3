package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/agenda-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
)

type BookingGormRepository struct {
	db *gorm.DB
}

func NewBookingGormRepository(db *gorm.DB) *BookingGormRepository {
	return &BookingGormRepository{db: db}
}

// day renders a civil date for comparison against DATE columns, so the
// session time zone never shifts it.
func day(t time.Time) string {
	return t.Format(schedule.DateLayout)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

// firstOrNil turns "no row" into (nil, nil) for optional lookups.
func firstOrNil[T any](q *gorm.DB) (*T, error) {
	var out T
	err := q.First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// --------------------------------------------------
// Transaction
// --------------------------------------------------

// Transaction on a tx-bound repository nests through a gorm savepoint.
func (r *BookingGormRepository) Transaction(
	ctx context.Context,
	fn func(tx domain.Repository) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&BookingGormRepository{db: tx})
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}

// --------------------------------------------------
// Company
// --------------------------------------------------

func (r *BookingGormRepository) GetCompany(ctx context.Context, id uint) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).First(&company, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &company, nil
}

func (r *BookingGormRepository) GetCompanyBySlug(ctx context.Context, slug string) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&company).Error; err != nil {
		return nil, notFound(err)
	}
	return &company, nil
}

func (r *BookingGormRepository) ListActiveCompanies(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		Find(&companies).Error
	return companies, err
}

// --------------------------------------------------
// Accounts / catalog
// --------------------------------------------------

func (r *BookingGormRepository) GetAccount(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).
		Preload("Specializations").
		Preload("BlockedServices").
		First(&account, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &account, nil
}

func (r *BookingGormRepository) GetService(ctx context.Context, id uint) (*models.Service, error) {
	var service models.Service
	if err := r.db.WithContext(ctx).
		Preload("Specializations").
		First(&service, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &service, nil
}

// --------------------------------------------------
// Client
// --------------------------------------------------

func (r *BookingGormRepository) FindClientByPhone(
	ctx context.Context,
	companyID uint,
	phone string,
) (*models.Client, error) {
	return firstOrNil[models.Client](r.db.WithContext(ctx).
		Where("company_id = ? AND phone = ?", companyID, phone))
}

func (r *BookingGormRepository) FindClientByAccount(ctx context.Context, accountID uint) (*models.Client, error) {
	return firstOrNil[models.Client](r.db.WithContext(ctx).
		Where("account_id = ?", accountID))
}

func (r *BookingGormRepository) CreateClient(ctx context.Context, c *models.Client) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *BookingGormRepository) UpdateClient(ctx context.Context, c *models.Client) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// --------------------------------------------------
// Working hours / availability
// --------------------------------------------------

func (r *BookingGormRepository) ListWorkingHours(
	ctx context.Context,
	companyID uint,
	weekday int,
) ([]models.WorkingHours, error) {
	var hours []models.WorkingHours
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND weekday = ?", companyID, weekday).
		Order("start_minute ASC").
		Find(&hours).Error
	return hours, err
}

func (r *BookingGormRepository) ListAllWorkingHours(ctx context.Context, companyID uint) ([]models.WorkingHours, error) {
	var hours []models.WorkingHours
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("weekday ASC, start_minute ASC").
		Find(&hours).Error
	return hours, err
}

// ReplaceWorkingHours swaps the whole weekly schedule of the company.
func (r *BookingGormRepository) ReplaceWorkingHours(
	ctx context.Context,
	companyID uint,
	hours []models.WorkingHours,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("company_id = ?", companyID).
			Delete(&models.WorkingHours{}).Error; err != nil {
			return err
		}
		if len(hours) == 0 {
			return nil
		}
		for i := range hours {
			hours[i].ID = 0
			hours[i].CompanyID = companyID
		}
		return tx.Create(&hours).Error
	})
}

func (r *BookingGormRepository) ListAvailability(
	ctx context.Context,
	professionalID uint,
	weekday int,
) ([]models.Availability, error) {
	var ranges []models.Availability
	err := r.db.WithContext(ctx).
		Where("professional_id = ? AND weekday = ? AND active = ?", professionalID, weekday, true).
		Order("start_minute ASC").
		Find(&ranges).Error
	return ranges, err
}

func (r *BookingGormRepository) ListAllAvailability(ctx context.Context, professionalID uint) ([]models.Availability, error) {
	var ranges []models.Availability
	err := r.db.WithContext(ctx).
		Where("professional_id = ? AND active = ?", professionalID, true).
		Order("weekday ASC, start_minute ASC").
		Find(&ranges).Error
	return ranges, err
}

func (r *BookingGormRepository) GetAvailability(ctx context.Context, id uint) (*models.Availability, error) {
	var a models.Availability
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *BookingGormRepository) SaveAvailability(ctx context.Context, a *models.Availability) error {
	return r.db.WithContext(ctx).Save(a).Error
}

// --------------------------------------------------
// Date blocks
// --------------------------------------------------

func (r *BookingGormRepository) ListDateBlocks(ctx context.Context, professionalID uint) ([]models.DateBlock, error) {
	var blocks []models.DateBlock
	err := r.db.WithContext(ctx).
		Where("professional_id = ? AND active = ?", professionalID, true).
		Order("start_date ASC").
		Find(&blocks).Error
	return blocks, err
}

func (r *BookingGormRepository) FindBlockCovering(
	ctx context.Context,
	professionalID uint,
	date time.Time,
) (*models.DateBlock, error) {
	d := day(date)
	return firstOrNil[models.DateBlock](r.db.WithContext(ctx).
		Where("professional_id = ? AND active = ?", professionalID, true).
		Where("start_date <= ? AND COALESCE(end_date, start_date) >= ?", d, d))
}

func (r *BookingGormRepository) FindOverlappingBlock(
	ctx context.Context,
	professionalID uint,
	start, end time.Time,
) (*models.DateBlock, error) {
	return firstOrNil[models.DateBlock](r.db.WithContext(ctx).
		Where("professional_id = ? AND active = ?", professionalID, true).
		Where("start_date <= ? AND COALESCE(end_date, start_date) >= ?", day(end), day(start)).
		Order("start_date ASC"))
}

func (r *BookingGormRepository) GetDateBlock(ctx context.Context, id uint) (*models.DateBlock, error) {
	var b models.DateBlock
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (r *BookingGormRepository) SaveDateBlock(ctx context.Context, b *models.DateBlock) error {
	return r.db.WithContext(ctx).Save(b).Error
}

// --------------------------------------------------
// Bookings
// --------------------------------------------------

func (r *BookingGormRepository) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	var b models.Booking
	if err := r.db.WithContext(ctx).
		Preload("Service").
		Preload("Client").
		First(&b, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (r *BookingGormRepository) GetBookingByCorrelation(
	ctx context.Context,
	correlationID string,
) (*models.Booking, error) {
	var b models.Booking
	if err := r.db.WithContext(ctx).
		Where("reminder_correlation_id = ?", correlationID).
		First(&b).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (r *BookingGormRepository) ListBookingsForDay(
	ctx context.Context,
	professionalID uint,
	date time.Time,
) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("professional_id = ? AND date = ? AND status <> ?",
			professionalID, day(date), domain.StatusCancelled).
		Order("start_minute ASC").
		Find(&bookings).Error
	return bookings, err
}

func (r *BookingGormRepository) ListBookingsInRange(
	ctx context.Context,
	professionalID uint,
	from, to time.Time,
	statuses ...domain.Status,
) ([]models.Booking, error) {
	q := r.db.WithContext(ctx).
		Preload("Service").
		Preload("Client").
		Where("professional_id = ? AND date >= ? AND date <= ?", professionalID, day(from), day(to))
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}

	var bookings []models.Booking
	err := q.Order("date ASC, start_minute ASC").Find(&bookings).Error
	return bookings, err
}

func (r *BookingGormRepository) ListBookingsByStatus(
	ctx context.Context,
	companyID uint,
	date time.Time,
	status domain.Status,
) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Service").
		Preload("Client").
		Where("company_id = ? AND date = ? AND status = ?", companyID, day(date), status).
		Order("start_minute ASC").
		Find(&bookings).Error
	return bookings, err
}

// HasOverlap locks the colliding rows so a concurrent writer in another
// transaction waits or fails serialization. FOR UPDATE cannot be combined
// with COUNT, hence the id scan.
func (r *BookingGormRepository) HasOverlap(
	ctx context.Context,
	professionalID uint,
	date time.Time,
	window schedule.TimeRange,
	exclude ...uint,
) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("professional_id = ? AND date = ? AND status <> ?",
			professionalID, day(date), domain.StatusCancelled).
		Where("start_minute < ? AND end_minute > ?", int(window.End), int(window.Start))
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}

	var ids []uint
	if err := q.Limit(1).Pluck("id", &ids).Error; err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

func (r *BookingGormRepository) CreateBooking(ctx context.Context, b *models.Booking) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(b).Error
}

func (r *BookingGormRepository) UpdateBooking(ctx context.Context, b *models.Booking) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(b).Error
}

// Compile-time check
var _ domain.Repository = (*BookingGormRepository)(nil)

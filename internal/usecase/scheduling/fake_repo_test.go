package scheduling

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
)

// memRepo is an in-memory booking.Repository. Transactions are serialized
// and roll back on error; the overlap exclusion and the (company, phone)
// uniqueness behave like their PostgreSQL counterparts.
type memRepo struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   *memState

	// beforeCreateClient runs once before the next CreateClient, to
	// simulate a concurrent insert.
	beforeCreateClient func(st *memState)
}

type memState struct {
	nextID       uint
	companies    map[uint]models.Company
	accounts     map[uint]models.Account
	services     map[uint]models.Service
	clients      map[uint]models.Client
	workingHours map[uint]models.WorkingHours
	availability map[uint]models.Availability
	blocks       map[uint]models.DateBlock
	bookings     map[uint]models.Booking
}

func newMemRepo() *memRepo {
	return &memRepo{st: &memState{
		nextID:       100,
		companies:    map[uint]models.Company{},
		accounts:     map[uint]models.Account{},
		services:     map[uint]models.Service{},
		clients:      map[uint]models.Client{},
		workingHours: map[uint]models.WorkingHours{},
		availability: map[uint]models.Availability{},
		blocks:       map[uint]models.DateBlock{},
		bookings:     map[uint]models.Booking{},
	}}
}

func (s *memState) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memState) clone() *memState {
	c := *s
	c.companies = cloneMap(s.companies)
	c.accounts = cloneMap(s.accounts)
	c.services = cloneMap(s.services)
	c.clients = cloneMap(s.clients)
	c.workingHours = cloneMap(s.workingHours)
	c.availability = cloneMap(s.availability)
	c.blocks = cloneMap(s.blocks)
	c.bookings = cloneMap(s.bookings)
	return &c
}

func cloneMap[V any](m map[uint]V) map[uint]V {
	out := make(map[uint]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

var _ booking.Repository = (*memRepo)(nil)

// memTx shares the state of its parent but does not re-enter the tx lock.
// Nested calls stand in for savepoints; no fake write fails halfway.
type memTx struct{ *memRepo }

func (t memTx) Transaction(ctx context.Context, fn func(tx booking.Repository) error) error {
	return fn(t)
}

func (r *memRepo) Transaction(ctx context.Context, fn func(tx booking.Repository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	snapshot := r.st.clone()
	r.mu.Unlock()

	if err := fn(memTx{r}); err != nil {
		r.mu.Lock()
		r.st = snapshot
		r.mu.Unlock()
		return err
	}
	return nil
}

// -------- Company --------

func (r *memRepo) GetCompany(_ context.Context, id uint) (*models.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.st.companies[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return &c, nil
}

func (r *memRepo) GetCompanyBySlug(_ context.Context, slug string) (*models.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.st.companies {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, booking.ErrNotFound
}

func (r *memRepo) ListActiveCompanies(context.Context) ([]models.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Company
	for _, c := range r.st.companies {
		if c.Active {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// -------- Accounts / catalog --------

func (r *memRepo) GetAccount(_ context.Context, id uint) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.st.accounts[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return &a, nil
}

func (r *memRepo) GetService(_ context.Context, id uint) (*models.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.st.services[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return &s, nil
}

// -------- Client --------

func (r *memRepo) FindClientByPhone(_ context.Context, companyID uint, phone string) (*models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.st.clients {
		if c.CompanyID == companyID && c.Phone == phone {
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memRepo) FindClientByAccount(_ context.Context, accountID uint) (*models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.st.clients {
		if c.AccountID != nil && *c.AccountID == accountID {
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memRepo) CreateClient(_ context.Context, c *models.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hook := r.beforeCreateClient; hook != nil {
		r.beforeCreateClient = nil
		hook(r.st)
	}
	for _, other := range r.st.clients {
		if other.CompanyID == c.CompanyID && other.Phone == c.Phone {
			return &pgconn.PgError{Code: "23505", ConstraintName: "idx_clients_company_phone"}
		}
	}
	c.ID = r.st.id()
	r.st.clients[c.ID] = *c
	return nil
}

func (r *memRepo) UpdateClient(_ context.Context, c *models.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.st.clients[c.ID] = *c
	return nil
}

// -------- Working hours / availability --------

func (r *memRepo) ListWorkingHours(_ context.Context, companyID uint, weekday int) ([]models.WorkingHours, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.WorkingHours
	for _, w := range r.st.workingHours {
		if w.CompanyID == companyID && w.Weekday == weekday {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (r *memRepo) ListAllWorkingHours(_ context.Context, companyID uint) ([]models.WorkingHours, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.WorkingHours
	for _, w := range r.st.workingHours {
		if w.CompanyID == companyID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weekday != out[j].Weekday {
			return out[i].Weekday < out[j].Weekday
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (r *memRepo) ReplaceWorkingHours(_ context.Context, companyID uint, hours []models.WorkingHours) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, w := range r.st.workingHours {
		if w.CompanyID == companyID {
			delete(r.st.workingHours, id)
		}
	}
	for i := range hours {
		hours[i].ID = r.st.id()
		hours[i].CompanyID = companyID
		r.st.workingHours[hours[i].ID] = hours[i]
	}
	return nil
}

func (r *memRepo) ListAvailability(_ context.Context, professionalID uint, weekday int) ([]models.Availability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Availability
	for _, a := range r.st.availability {
		if a.ProfessionalID == professionalID && a.Weekday == weekday && a.Active {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (r *memRepo) ListAllAvailability(_ context.Context, professionalID uint) ([]models.Availability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Availability
	for _, a := range r.st.availability {
		if a.ProfessionalID == professionalID && a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memRepo) GetAvailability(_ context.Context, id uint) (*models.Availability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.st.availability[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return &a, nil
}

func (r *memRepo) SaveAvailability(_ context.Context, a *models.Availability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == 0 {
		a.ID = r.st.id()
	}
	r.st.availability[a.ID] = *a
	return nil
}

// -------- Date blocks --------

func (r *memRepo) ListDateBlocks(_ context.Context, professionalID uint) ([]models.DateBlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.DateBlock
	for _, b := range r.st.blocks {
		if b.ProfessionalID == professionalID && b.Active {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (r *memRepo) FindBlockCovering(_ context.Context, professionalID uint, date time.Time) (*models.DateBlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.st.blocks {
		if b.ProfessionalID == professionalID && b.Active && b.Covers(date) {
			return &b, nil
		}
	}
	return nil, nil
}

func (r *memRepo) FindOverlappingBlock(_ context.Context, professionalID uint, start, end time.Time) (*models.DateBlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.st.blocks {
		if b.ProfessionalID == professionalID && b.Active &&
			!b.StartDate.After(end) && !b.LastDay().Before(start) {
			return &b, nil
		}
	}
	return nil, nil
}

func (r *memRepo) GetDateBlock(_ context.Context, id uint) (*models.DateBlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.st.blocks[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	return &b, nil
}

func (r *memRepo) SaveDateBlock(_ context.Context, b *models.DateBlock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == 0 {
		b.ID = r.st.id()
	}
	r.st.blocks[b.ID] = *b
	return nil
}

// -------- Bookings --------

// hydrate mimics the repository's preloads.
func (r *memRepo) hydrate(b models.Booking) models.Booking {
	b.Service = r.st.services[b.ServiceID]
	b.Client = r.st.clients[b.ClientID]
	return b
}

func (r *memRepo) sorted(pred func(models.Booking) bool) []models.Booking {
	var out []models.Booking
	for _, b := range r.st.bookings {
		if pred(b) {
			out = append(out, r.hydrate(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

func (r *memRepo) GetBooking(_ context.Context, id uint) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.st.bookings[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	b = r.hydrate(b)
	return &b, nil
}

func (r *memRepo) GetBookingByCorrelation(_ context.Context, correlationID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.st.bookings {
		if b.ReminderCorrelationID != nil && *b.ReminderCorrelationID == correlationID {
			b = r.hydrate(b)
			return &b, nil
		}
	}
	return nil, booking.ErrNotFound
}

func (r *memRepo) ListBookingsForDay(_ context.Context, professionalID uint, date time.Time) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(b models.Booking) bool {
		return b.ProfessionalID == professionalID && b.Date.Equal(date) &&
			booking.Status(b.Status) != booking.StatusCancelled
	}), nil
}

func (r *memRepo) ListBookingsInRange(
	_ context.Context,
	professionalID uint,
	from, to time.Time,
	statuses ...booking.Status,
) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(b models.Booking) bool {
		if b.ProfessionalID != professionalID || b.Date.Before(from) || b.Date.After(to) {
			return false
		}
		if len(statuses) == 0 {
			return true
		}
		for _, s := range statuses {
			if booking.Status(b.Status) == s {
				return true
			}
		}
		return false
	}), nil
}

func (r *memRepo) ListBookingsByStatus(
	_ context.Context,
	companyID uint,
	date time.Time,
	status booking.Status,
) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(b models.Booking) bool {
		return b.CompanyID == companyID && b.Date.Equal(date) && booking.Status(b.Status) == status
	}), nil
}

func (r *memRepo) overlaps(b *models.Booking) bool {
	for _, other := range r.st.bookings {
		if other.ID == b.ID || other.ProfessionalID != b.ProfessionalID || !other.Date.Equal(b.Date) {
			continue
		}
		if booking.Status(other.Status) == booking.StatusCancelled || booking.Status(b.Status) == booking.StatusCancelled {
			continue
		}
		if b.Window().Overlaps(other.Window()) {
			return true
		}
	}
	return false
}

func (r *memRepo) HasOverlap(
	_ context.Context,
	professionalID uint,
	date time.Time,
	window schedule.TimeRange,
	exclude ...uint,
) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var day []models.Booking
	for _, b := range r.st.bookings {
		if b.ProfessionalID == professionalID && b.Date.Equal(date) {
			day = append(day, b)
		}
	}
	return booking.Conflicts(window, day, exclude...), nil
}

func (r *memRepo) CreateBooking(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.overlaps(b) {
		return &pgconn.PgError{Code: "23P01", ConstraintName: "bookings_no_overlap"}
	}
	b.ID = r.st.id()
	stored := *b
	stored.Service, stored.Client = models.Service{}, models.Client{}
	r.st.bookings[b.ID] = stored
	return nil
}

func (r *memRepo) UpdateBooking(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.overlaps(b) {
		return &pgconn.PgError{Code: "23P01", ConstraintName: "bookings_no_overlap"}
	}
	stored := *b
	stored.Service, stored.Client = models.Service{}, models.Client{}
	r.st.bookings[b.ID] = stored
	return nil
}

// -------- seeding helpers --------

func (r *memRepo) put(v any) uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.st.id()
	switch m := v.(type) {
	case *models.Company:
		m.ID = id
		r.st.companies[id] = *m
	case *models.Account:
		m.ID = id
		r.st.accounts[id] = *m
	case *models.Service:
		m.ID = id
		r.st.services[id] = *m
	case *models.Client:
		m.ID = id
		r.st.clients[id] = *m
	case *models.WorkingHours:
		m.ID = id
		r.st.workingHours[id] = *m
	case *models.Availability:
		m.ID = id
		r.st.availability[id] = *m
	case *models.DateBlock:
		m.ID = id
		r.st.blocks[id] = *m
	case *models.Booking:
		m.ID = id
		r.st.bookings[id] = *m
	default:
		panic("memRepo.put: unsupported type")
	}
	return id
}

func (r *memRepo) bookingByID(id uint) models.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.bookings[id]
}

func (r *memRepo) clientsWithPhone(companyID uint, phone string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.st.clients {
		if c.CompanyID == companyID && c.Phone == phone {
			n++
		}
	}
	return n
}

func (r *memRepo) blockCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.st.blocks)
}

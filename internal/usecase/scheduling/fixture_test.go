package scheduling

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/agenda-scheduler/internal/auth"
	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/agenda-scheduler/internal/httperr"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
)

// fixedNow is Monday 2026-03-02 08:00 in São Paulo.
var fixedNow = time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)

const (
	today      = "2026-03-02"
	nextMonday = "2026-03-09"
)

type fixture struct {
	repo *memRepo
	deps Deps

	company *models.Company
	owner   *models.Account
	prof    *models.Account
	other   *models.Account
	service *models.Service
	spec    models.Specialization

	clientAccount *models.Account
	client        *models.Client
}

// newFixture seeds one company open Mon-Fri 09:00-18:00 with an owner, two
// professionals, a registered client and a 30 minute service. The company
// buffer is 10 minutes and the minimum lead is 120 minutes.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newMemRepo()
	f := &fixture{repo: repo}

	f.company = &models.Company{
		Name:                 "Studio Bela",
		Slug:                 "studio-bela",
		Timezone:             "America/Sao_Paulo",
		DefaultBufferMinutes: 10,
		MinLeadMinutes:       120,
		MaxAdvanceDays:       60,
		Active:               true,
	}
	repo.put(f.company)

	f.spec = models.Specialization{ID: 1, CompanyID: f.company.ID, Name: "Cabelo"}

	f.owner = f.account("Olga", models.RoleOwner)
	f.prof = f.account("Paula", models.RoleProfessional)
	f.other = f.account("Otto", models.RoleProfessional)

	f.service = &models.Service{
		CompanyID:       f.company.ID,
		Name:            "Corte",
		DurationMinutes: 30,
		Price:           decimal.RequireFromString("45.90"),
		Active:          true,
		Specializations: []models.Specialization{f.spec},
	}
	repo.put(f.service)

	for wd := 1; wd <= 5; wd++ {
		repo.put(&models.WorkingHours{
			CompanyID: f.company.ID,
			Weekday:   wd,
			StartTime: schedule.MustClock("09:00"),
			EndTime:   schedule.MustClock("18:00"),
		})
	}

	f.clientAccount = f.account("Clara", models.RoleClient)
	accountID := f.clientAccount.ID
	f.client = &models.Client{
		CompanyID:  f.company.ID,
		Name:       "Clara",
		Phone:      "11999990000",
		HasAccount: true,
		AccountID:  &accountID,
	}
	repo.put(f.client)

	f.deps = Deps{Repo: repo, Now: func() time.Time { return fixedNow }}
	return f
}

func (f *fixture) account(name, role string) *models.Account {
	a := &models.Account{
		CompanyID: f.company.ID,
		Name:      name,
		Email:     name + "@example.com",
		Role:      role,
		Active:    true,
	}
	if role != models.RoleClient {
		a.Specializations = []models.Specialization{f.spec}
	}
	f.repo.put(a)
	return a
}

func (f *fixture) actor(a *models.Account) auth.Actor {
	return auth.Actor{AccountID: a.ID, Role: a.Role, CompanyID: a.CompanyID}
}

// book stores a booking directly, bypassing every check.
func (f *fixture) book(prof *models.Account, date, start string, status booking.Status) *models.Booking {
	d := mustDate(date)
	s := schedule.MustClock(start)
	b := &models.Booking{
		CompanyID:       f.company.ID,
		ServiceID:       f.service.ID,
		ProfessionalID:  prof.ID,
		ClientID:        f.client.ID,
		Date:            d,
		StartTime:       s,
		EndTime:         s.Add(40),
		DurationMinutes: 30,
		BufferMinutes:   10,
		Price:           f.service.Price,
		Status:          string(status),
	}
	f.repo.put(b)
	return b
}

func (f *fixture) guestInput(date, start string) CreateBookingInput {
	return CreateBookingInput{
		CompanyID:      f.company.ID,
		ServiceID:      f.service.ID,
		ProfessionalID: f.prof.ID,
		Date:           date,
		Time:           start,
		ClientName:     "Gabi",
		ClientPhone:    "(11) 98888-7777",
	}
}

func expectCode(t *testing.T, err error, kind httperr.Kind, code string) {
	t.Helper()
	be, ok := httperr.AsBusiness(err)
	if !ok {
		t.Fatalf("expected business error %s/%s, got %v", kind, code, err)
	}
	if be.Kind != kind || be.Code != code {
		t.Fatalf("expected %s/%s, got %s/%s (%s)", kind, code, be.Kind, be.Code, be.Message)
	}
}

func clocks(slots []schedule.Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Start.String())
	}
	return out
}

func mustDate(s string) time.Time {
	d, err := schedule.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func ptrDate(s string) *time.Time {
	d := mustDate(s)
	return &d
}

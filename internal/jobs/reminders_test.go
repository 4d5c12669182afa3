package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
	"github.com/BruksfildServices01/agenda-scheduler/internal/usecase/scheduling"
)

type fakeCompanies struct {
	list []models.Company
	err  error
}

func (f fakeCompanies) ListActiveCompanies(context.Context) ([]models.Company, error) {
	return f.list, f.err
}

type call struct {
	companyID uint
	date      string
}

type fakeSender struct {
	calls []call
	fail  map[uint]bool
}

func (f *fakeSender) Execute(_ context.Context, companyID uint, date string) (scheduling.ReminderReport, error) {
	f.calls = append(f.calls, call{companyID, date})
	if f.fail[companyID] {
		return scheduling.ReminderReport{}, errors.New("boom")
	}
	return scheduling.ReminderReport{Sent: 2, Failed: 1, Skipped: 1}, nil
}

func TestRunOnceUsesEachCompanyCalendar(t *testing.T) {
	companies := fakeCompanies{list: []models.Company{
		{ID: 1, Timezone: "America/Sao_Paulo"},
		{ID: 2, Timezone: "Asia/Tokyo"},
		{ID: 3, Timezone: "UTC"},
	}}
	sender := &fakeSender{fail: map[uint]bool{3: true}}

	job := NewReminderJob(companies, sender, 1, zap.NewNop())
	// 01:30 UTC on the 10th: still the 9th in São Paulo, already the 10th in Tokyo.
	job.now = func() time.Time { return time.Date(2026, 6, 10, 1, 30, 0, 0, time.UTC) }

	total := job.RunOnce(context.Background())

	want := []call{{1, "2026-06-10"}, {2, "2026-06-11"}, {3, "2026-06-11"}}
	if len(sender.calls) != len(want) {
		t.Fatalf("calls = %v", sender.calls)
	}
	for i := range want {
		if sender.calls[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, sender.calls[i], want[i])
		}
	}
	if total.Sent != 4 || total.Failed != 2 || total.Skipped != 2 {
		t.Fatalf("total = %+v", total)
	}
}

func TestRunOnceListFailure(t *testing.T) {
	sender := &fakeSender{}
	job := NewReminderJob(fakeCompanies{err: errors.New("db down")}, sender, 1, zap.NewNop())

	if total := job.RunOnce(context.Background()); total.Sent != 0 || len(sender.calls) != 0 {
		t.Fatalf("unexpected work: %+v %v", total, sender.calls)
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	job := NewReminderJob(fakeCompanies{}, &fakeSender{}, 1, zap.NewNop())
	if err := job.Start("not a spec"); err == nil {
		t.Fatal("expected invalid spec error")
	}
	job.Stop()

	if err := job.Start("0 * * * *"); err != nil {
		t.Fatal(err)
	}
	job.Stop()
}

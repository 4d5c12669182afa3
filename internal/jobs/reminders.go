package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/agenda-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/agenda-scheduler/internal/models"
	"github.com/BruksfildServices01/agenda-scheduler/internal/timezone"
	"github.com/BruksfildServices01/agenda-scheduler/internal/usecase/scheduling"
)

type companyLister interface {
	ListActiveCompanies(ctx context.Context) ([]models.Company, error)
}

type reminderSender interface {
	Execute(ctx context.Context, companyID uint, date string) (scheduling.ReminderReport, error)
}

// ReminderJob sends reminders for every active company, each for the date
// daysAhead days after its own local today.
type ReminderJob struct {
	companies companyLister
	send      reminderSender
	daysAhead int
	log       *zap.Logger
	now       func() time.Time

	cron *cron.Cron
}

func NewReminderJob(companies companyLister, send reminderSender, daysAhead int, log *zap.Logger) *ReminderJob {
	return &ReminderJob{
		companies: companies,
		send:      send,
		daysAhead: daysAhead,
		log:       log.Named("reminders"),
		now:       time.Now,
	}
}

// Start schedules the job on spec (standard five-field cron syntax).
func (j *ReminderJob) Start(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { j.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("reminder cron %q: %w", spec, err)
	}
	c.Start()
	j.cron = c
	j.log.Info("reminder job scheduled", zap.String("spec", spec), zap.Int("days_ahead", j.daysAhead))
	return nil
}

// Stop waits for a running pass to finish.
func (j *ReminderJob) Stop() {
	if j.cron == nil {
		return
	}
	<-j.cron.Stop().Done()
}

// RunOnce returns the totals over all companies. One company failing does
// not stop the others.
func (j *ReminderJob) RunOnce(ctx context.Context) scheduling.ReminderReport {
	var total scheduling.ReminderReport

	companies, err := j.companies.ListActiveCompanies(ctx)
	if err != nil {
		j.log.Error("list companies failed", zap.Error(err))
		return total
	}

	for _, company := range companies {
		today := timezone.In(j.now(), company.Timezone).Today
		date := today.AddDate(0, 0, j.daysAhead).Format(schedule.DateLayout)

		report, err := j.send.Execute(ctx, company.ID, date)
		if err != nil {
			j.log.Warn("reminders failed",
				zap.Uint("company_id", company.ID),
				zap.String("date", date),
				zap.Error(err),
			)
			continue
		}
		total.Sent += report.Sent
		total.Failed += report.Failed
		total.Skipped += report.Skipped

		if report.Sent > 0 || report.Failed > 0 || report.Skipped > 0 {
			j.log.Info("reminders dispatched",
				zap.Uint("company_id", company.ID),
				zap.String("date", date),
				zap.Int("sent", report.Sent),
				zap.Int("failed", report.Failed),
				zap.Int("skipped", report.Skipped),
			)
		}
	}
	return total
}

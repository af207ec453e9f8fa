package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/KuanyshAlmas/TelegramHabitBot/internal/config"
	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// JobID - идентификатор плановой задачи. Для проверок напоминаний
// после двоеточия идет время проверки ("check_notifications:08:00").
type JobID string

const (
	JobSweepExpired  JobID = "sweep_expired"
	JobSettleDay     JobID = "settle_day"
	JobWeeklyReport  JobID = "weekly_report"
	JobMonthlyReport JobID = "monthly_report"

	jobCheckPrefix = "check_notifications:"
)

// Dispatcher превращает минутные тики в запуски задач. Решение "что пора
// запускать" - чистая функция от момента времени, сами запуски идут в
// отдельных горутинах: одна и та же задача не накладывается сама на себя,
// разные задачи спокойно работают параллельно.
type Dispatcher struct {
	cfg        *config.ScheduleConfig
	notifier   *Notifier
	reconciler *Reconciler
	settlement *Settlement
	reporter   *Reporter
	clock      Clock
	logger     *zap.Logger

	scheduler *gocron.Scheduler

	mu      sync.Mutex
	running map[JobID]bool
	wg      sync.WaitGroup
}

func NewDispatcher(
	cfg *config.ScheduleConfig,
	notifier *Notifier,
	reconciler *Reconciler,
	settlement *Settlement,
	reporter *Reporter,
	clock Clock,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		cfg:        cfg,
		notifier:   notifier,
		reconciler: reconciler,
		settlement: settlement,
		reporter:   reporter,
		clock:      clock,
		logger:     logger,
		running:    make(map[JobID]bool),
	}
}

// DueJobs возвращает задачи, попадающие на минуту now. Чистая функция:
// одинаковый момент времени - одинаковый набор задач.
func (d *Dispatcher) DueJobs(now time.Time) []JobID {
	var jobs []JobID

	if now.Minute()%d.cfg.SweepIntervalMinutes == 0 {
		jobs = append(jobs, JobSweepExpired)
	}

	hhmm := now.Format("15:04")
	for _, ct := range d.cfg.CheckTimes {
		if ct == hhmm {
			jobs = append(jobs, JobID(jobCheckPrefix+ct))
			break
		}
	}

	if hhmm == d.cfg.SettlementTime {
		jobs = append(jobs, JobSettleDay)
	}
	if now.Weekday() == d.cfg.WeeklyWeekday() && hhmm == d.cfg.Weekly.Time {
		jobs = append(jobs, JobWeeklyReport)
	}
	if now.Day() == d.cfg.Monthly.Day && hhmm == d.cfg.Monthly.Time {
		jobs = append(jobs, JobMonthlyReport)
	}

	return jobs
}

// Start вешает минутный тик на планировщик
func (d *Dispatcher) Start(ctx context.Context) error {
	d.scheduler = gocron.NewScheduler(d.cfg.Location())

	_, err := d.scheduler.Cron("* * * * *").Do(func() {
		d.Tick(ctx, d.clock.Now())
	})
	if err != nil {
		return err
	}

	d.scheduler.StartAsync()
	d.logger.Info("dispatcher started",
		zap.String("timezone", d.cfg.Timezone),
		zap.Int("check_times", len(d.cfg.CheckTimes)),
	)
	return nil
}

// Stop останавливает планировщик и дожидается запущенных задач
func (d *Dispatcher) Stop() error {
	if d.scheduler != nil {
		d.scheduler.Stop()
	}
	d.wg.Wait()
	return nil
}

// Tick запускает все задачи этой минуты
func (d *Dispatcher) Tick(ctx context.Context, now time.Time) {
	for _, job := range d.DueJobs(now) {
		d.runJob(ctx, job, now)
	}
}

func (d *Dispatcher) runJob(ctx context.Context, job JobID, now time.Time) {
	d.mu.Lock()
	if d.running[job] {
		d.mu.Unlock()
		d.logger.Warn("previous run still in flight, skipping", zap.String("job", string(job)))
		return
	}
	d.running[job] = true
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer func() {
			d.mu.Lock()
			delete(d.running, job)
			d.mu.Unlock()
			d.wg.Done()
		}()

		res, err := d.dispatch(ctx, job, now)
		if err != nil {
			d.logger.Error("job failed", zap.String("job", string(job)), zap.Error(err))
			return
		}
		if res.Succeeded > 0 || res.Failed() > 0 {
			d.logger.Info("job finished",
				zap.String("job", string(job)),
				zap.Int("succeeded", res.Succeeded),
				zap.Int("failed", res.Failed()),
			)
		}
	}()
}

func (d *Dispatcher) dispatch(ctx context.Context, job JobID, now time.Time) (BatchResult, error) {
	switch {
	case job == JobSweepExpired:
		return d.reconciler.SweepExpired(ctx, now)
	case job == JobSettleDay:
		return d.settlement.SettleDay(ctx, DateOf(now))
	case job == JobWeeklyReport:
		return d.reporter.SendWeekly(ctx, DateOf(now))
	case job == JobMonthlyReport:
		return d.reporter.SendMonthly(ctx, DateOf(now))
	case strings.HasPrefix(string(job), jobCheckPrefix):
		checkTime := strings.TrimPrefix(string(job), jobCheckPrefix)
		return d.notifier.IssueIfDue(ctx, checkTime)
	}
	return BatchResult{}, nil
}

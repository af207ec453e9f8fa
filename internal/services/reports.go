package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/KuanyshAlmas/TelegramHabitBot/internal/models"
	"go.uber.org/zap"
)

// Summarize считает агрегат по привычке за период [start, end] без побочных
// эффектов. Логи должны идти по возрастанию даты - при равных значениях
// лучшим днем остается более ранний.
func Summarize(habit models.Habit, logs []models.DailyLog, start, end time.Time) models.HabitStats {
	totalDays := int(DateOf(end).Sub(DateOf(start)).Hours()/24) + 1
	if totalDays < 0 {
		totalDays = 0
	}

	stats := models.HabitStats{
		Habit:     habit,
		TotalDays: totalDays,
	}

	for i := range logs {
		log := logs[i]
		if log.Completed {
			stats.CompletedDays++
		}
		stats.TotalValue += log.Value
		if stats.BestDay == nil || log.Value > stats.BestDay.Value {
			stats.BestDay = &logs[i]
		}
	}

	stats.MissedDays = totalDays - stats.CompletedDays

	if totalDays > 0 {
		stats.Efficiency = math.Round(float64(stats.CompletedDays)/float64(totalDays)*100*10) / 10
		stats.Average = math.Round(stats.TotalValue/float64(totalDays)*100) / 100
	}
	return stats
}

// Reporter шлет недельные и месячные сводки
type Reporter struct {
	store   Store
	gateway Gateway
	logger  *zap.Logger
}

func NewReporter(store Store, gateway Gateway, logger *zap.Logger) *Reporter {
	return &Reporter{
		store:   store,
		gateway: gateway,
		logger:  logger,
	}
}

// SendWeekly - сводка за последние 7 дней, включая сегодня
func (r *Reporter) SendWeekly(ctx context.Context, today time.Time) (BatchResult, error) {
	start := DateOf(today).AddDate(0, 0, -6)
	end := DateOf(today)

	return r.sendRange(ctx, start, end, func(stats []models.HabitStats) string {
		return renderWeeklyReport(stats, start, end)
	})
}

// SendMonthly - сводка за прошлый календарный месяц
func (r *Reporter) SendMonthly(ctx context.Context, today time.Time) (BatchResult, error) {
	firstOfThisMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	lastOfPrevMonth := firstOfThisMonth.AddDate(0, 0, -1)
	firstOfPrevMonth := time.Date(lastOfPrevMonth.Year(), lastOfPrevMonth.Month(), 1, 0, 0, 0, 0, today.Location())

	return r.sendRange(ctx, firstOfPrevMonth, lastOfPrevMonth, func(stats []models.HabitStats) string {
		return renderMonthlyReport(stats, lastOfPrevMonth.Month())
	})
}

func (r *Reporter) sendRange(ctx context.Context, start, end time.Time, render func([]models.HabitStats) string) (BatchResult, error) {
	var res BatchResult

	users, err := r.store.ListUsers(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list users: %w", err)
	}

	for _, user := range users {
		if err := r.reportForUser(ctx, user.ID, start, end, render); err != nil {
			r.logger.Warn("failed to send report",
				zap.Int64("user_id", user.ID),
				zap.Error(err),
			)
			res.fail(user.ID, err)
			continue
		}
		res.ok()
	}

	r.logger.Info("report run finished",
		zap.String("start", start.Format("2006-01-02")),
		zap.String("end", end.Format("2006-01-02")),
		zap.Int("failed", res.Failed()),
	)
	return res, nil
}

func (r *Reporter) reportForUser(ctx context.Context, userID int64, start, end time.Time, render func([]models.HabitStats) string) error {
	habits, err := r.store.ListActiveHabits(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list habits: %w", err)
	}
	if len(habits) == 0 {
		return nil
	}

	stats := make([]models.HabitStats, 0, len(habits))
	for _, habit := range habits {
		logs, err := r.store.RangeLogs(ctx, habit.ID, start, end)
		if err != nil {
			return fmt.Errorf("failed to range logs for habit %d: %w", habit.ID, err)
		}
		stats = append(stats, Summarize(habit, logs, start, end))
	}

	if _, err := r.gateway.Send(ctx, userID, render(stats), nil); err != nil {
		return fmt.Errorf("failed to send report: %w", err)
	}
	return nil
}

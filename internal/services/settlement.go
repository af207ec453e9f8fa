package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Settlement подводит итоги дня: пересчитывает серии, начисляет очки
// марафонов и шлет каждому пользователю вечерний отчет.
type Settlement struct {
	store   Store
	gateway Gateway
	logger  *zap.Logger
}

func NewSettlement(store Store, gateway Gateway, logger *zap.Logger) *Settlement {
	return &Settlement{
		store:   store,
		gateway: gateway,
		logger:  logger,
	}
}

// SettleDay обрабатывает день day для всех пользователей. Итог считается
// по тому, что записано на момент запуска: открытые окна ответа не ждем.
// Повторный запуск за тот же день не двигает ни серии, ни очки - маркер
// settled_on в хранилище съедает обновление ровно один раз.
func (s *Settlement) SettleDay(ctx context.Context, day time.Time) (BatchResult, error) {
	var res BatchResult

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list users: %w", err)
	}

	for _, user := range users {
		if err := s.settleUser(ctx, user.ID, day); err != nil {
			s.logger.Warn("failed to settle day for user",
				zap.Int64("user_id", user.ID),
				zap.Error(err),
			)
			res.fail(user.ID, err)
			continue
		}
		res.ok()
	}

	s.logger.Info("day settled",
		zap.String("day", day.Format("2006-01-02")),
		zap.Int("users", len(users)),
		zap.Int("failed", res.Failed()),
	)
	return res, nil
}

func (s *Settlement) settleUser(ctx context.Context, userID int64, day time.Time) error {
	habits, err := s.store.ListActiveHabits(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list habits: %w", err)
	}
	if len(habits) == 0 {
		return nil
	}

	habitIDs := make([]int64, 0, len(habits))
	for _, h := range habits {
		habitIDs = append(habitIDs, h.ID)
	}
	logs, err := s.store.BatchLogsForDate(ctx, habitIDs, day)
	if err != nil {
		return fmt.Errorf("failed to batch logs: %w", err)
	}

	var (
		lines       []string
		streakNotes []string
	)

	for _, habit := range habits {
		var value float64
		if log, found := logs[habit.ID]; found {
			value = log.Value
		}
		completed := value >= habit.DailyGoal

		newStreak, applied, err := s.store.UpdateStreak(ctx, habit.ID, completed, day)
		if err != nil {
			return fmt.Errorf("failed to update streak for habit %d: %w", habit.ID, err)
		}

		lines = append(lines, renderDayLine(habit, value, completed))

		if !applied {
			// день уже был подведен (повторный запуск) - без побочных эффектов
			continue
		}

		if completed && newStreak > 1 {
			streakNotes = append(streakNotes, renderStreakExtended(habit, newStreak))
		} else if !completed && habit.Streak > 0 {
			streakNotes = append(streakNotes, renderStreakBroken(habit))
		}

		// начисление очков идет строго после пересчета серии:
		// оно опирается на только что вычисленный completed
		if habit.MarathonID != nil && completed {
			if err := s.store.CreditPoints(ctx, userID, *habit.MarathonID, 1); err != nil {
				return fmt.Errorf("failed to credit marathon points for habit %d: %w", habit.ID, err)
			}
		}
	}

	if _, err := s.gateway.Send(ctx, userID, renderDigest(lines, streakNotes), nil); err != nil {
		return fmt.Errorf("failed to send digest: %w", err)
	}
	return nil
}

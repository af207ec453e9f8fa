package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/KuanyshAlmas/TelegramHabitBot/internal/models"
	"go.uber.org/zap"
)

var ErrBadLogValue = errors.New("log value must be a non-negative number")

// HabitService - путь ручного ответа: запись значения за день и гашение
// ожидающего напоминания.
type HabitService struct {
	store  Store
	clock  Clock
	logger *zap.Logger
}

func NewHabitService(store Store, clock Clock, logger *zap.Logger) *HabitService {
	return &HabitService{
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

// LogHabit добавляет value к сегодняшней записи привычки. Кривые значения
// отсекаются здесь, до хранилища. Любая запись пользователя гасит его
// ожидающее напоминание: если свипер успел первым, гашение - пустой ход.
func (s *HabitService) LogHabit(ctx context.Context, habitID, userID int64, value float64) (*models.DailyLog, error) {
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, ErrBadLogValue
	}

	today := DateOf(s.clock.Now())

	log, err := s.store.UpsertLog(ctx, habitID, userID, value, today)
	if err != nil {
		return nil, fmt.Errorf("failed to log habit: %w", err)
	}

	responded, err := s.store.MarkResponded(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to mark pending responded",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	} else if responded {
		s.logger.Debug("pending notification resolved by response",
			zap.Int64("user_id", userID),
		)
	}

	return log, nil
}

// MarkDone - ответ "выполнено" по булевой привычке
func (s *HabitService) MarkDone(ctx context.Context, habitID, userID int64) (*models.DailyLog, error) {
	return s.LogHabit(ctx, habitID, userID, 1)
}

func (s *HabitService) GetHabit(ctx context.Context, habitID int64) (*models.Habit, error) {
	return s.store.GetHabit(ctx, habitID)
}

func (s *HabitService) ListActiveHabits(ctx context.Context, userID int64) ([]models.Habit, error) {
	return s.store.ListActiveHabits(ctx, userID)
}

func (s *HabitService) GetOrCreateUser(ctx context.Context, userID int64, username, firstName string) (*models.User, error) {
	user, err := s.store.GetOrCreateUser(ctx, userID, username, firstName)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create user: %w", err)
	}
	return user, nil
}

func (s *HabitService) UpdateNotificationTimes(ctx context.Context, userID int64, times []string) error {
	for _, t := range times {
		if _, err := time.Parse("15:04", t); err != nil {
			return fmt.Errorf("bad notification time %q: %w", t, err)
		}
	}
	return s.store.UpdateNotificationTimes(ctx, userID, times)
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KuanyshAlmas/TelegramHabitBot/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrMarathonNotFound = errors.New("marathon not found")

// MarathonService - жизненный цикл марафонов вокруг ядра начисления очков
type MarathonService struct {
	store  Store
	logger *zap.Logger
}

func NewMarathonService(store Store, logger *zap.Logger) *MarathonService {
	return &MarathonService{
		store:  store,
		logger: logger,
	}
}

func (s *MarathonService) CreateMarathon(ctx context.Context, creatorID int64, name string, startDate, endDate time.Time) (*models.Marathon, error) {
	inviteCode := strings.ToUpper(uuid.NewString()[:8])

	marathon, err := s.store.CreateMarathon(ctx, creatorID, name, inviteCode, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to create marathon: %w", err)
	}

	s.logger.Info("marathon created",
		zap.Int64("marathon_id", marathon.ID),
		zap.Int64("creator_id", creatorID),
		zap.String("invite_code", inviteCode),
	)
	return marathon, nil
}

func (s *MarathonService) AddHabitTemplate(ctx context.Context, marathonID int64, name string, habitType models.HabitType, dailyGoal float64, unit string) error {
	return s.store.AddMarathonHabit(ctx, marathonID, name, habitType, dailyGoal, unit, 1)
}

// JoinByCode подключает пользователя к марафону по коду приглашения и копирует
// ему шаблоны привычек. Повторный вход - пустой ход (joined=false).
func (s *MarathonService) JoinByCode(ctx context.Context, userID int64, inviteCode string) (*models.Marathon, bool, error) {
	marathon, err := s.store.GetMarathonByCode(ctx, strings.ToUpper(strings.TrimSpace(inviteCode)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, ErrMarathonNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to find marathon: %w", err)
	}

	joined, err := s.store.JoinMarathon(ctx, userID, marathon.ID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to join marathon: %w", err)
	}

	if joined {
		s.logger.Info("user joined marathon",
			zap.Int64("user_id", userID),
			zap.Int64("marathon_id", marathon.ID),
		)
	}
	return marathon, joined, nil
}

func (s *MarathonService) LeaderboardByCode(ctx context.Context, inviteCode string) (*models.Marathon, []models.MarathonParticipant, error) {
	marathon, err := s.store.GetMarathonByCode(ctx, strings.ToUpper(strings.TrimSpace(inviteCode)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrMarathonNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find marathon: %w", err)
	}

	participants, err := s.store.Leaderboard(ctx, marathon.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return marathon, participants, nil
}

// Leave убирает участника; его марафонские привычки либо остаются личными,
// либо удаляются вместе с логами.
func (s *MarathonService) Leave(ctx context.Context, userID, marathonID int64, keepHabits bool) error {
	if err := s.store.RemoveParticipant(ctx, userID, marathonID); err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}

	if keepHabits {
		if err := s.store.UnlinkFromMarathon(ctx, userID, marathonID); err != nil {
			return fmt.Errorf("failed to unlink habits: %w", err)
		}
	} else {
		if err := s.store.DeleteMarathonHabits(ctx, userID, marathonID); err != nil {
			return fmt.Errorf("failed to delete marathon habits: %w", err)
		}
	}

	s.logger.Info("user left marathon",
		zap.Int64("user_id", userID),
		zap.Int64("marathon_id", marathonID),
		zap.Bool("kept_habits", keepHabits),
	)
	return nil
}

// RenderLeaderboard отдает готовый текст таблицы очков
func (s *MarathonService) RenderLeaderboard(marathon models.Marathon, participants []models.MarathonParticipant) string {
	return renderLeaderboard(marathon, participants)
}

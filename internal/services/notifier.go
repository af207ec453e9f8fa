package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Notifier рассылает консолидированные напоминания в настроенные часы
// и заводит запись в реестре ожидающих ответов.
type Notifier struct {
	store   Store
	gateway Gateway
	window  time.Duration
	clock   Clock
	logger  *zap.Logger
}

func NewNotifier(store Store, gateway Gateway, window time.Duration, clock Clock, logger *zap.Logger) *Notifier {
	return &Notifier{
		store:   store,
		gateway: gateway,
		window:  window,
		clock:   clock,
		logger:  logger,
	}
}

// IssueIfDue обрабатывает всех пользователей, у которых checkTime ("HH:MM")
// входит в набор времен напоминаний. Пользователь без невыполненных привычек
// пропускается молча. Сбой отправки одному пользователю не трогает остальных.
func (n *Notifier) IssueIfDue(ctx context.Context, checkTime string) (BatchResult, error) {
	var res BatchResult

	users, err := n.store.ListUsersWithNotificationTime(ctx, checkTime)
	if err != nil {
		return res, fmt.Errorf("failed to list users for %s: %w", checkTime, err)
	}

	now := n.clock.Now()
	today := DateOf(now)

	for _, user := range users {
		if err := n.issueForUser(ctx, user.ID, now, today); err != nil {
			n.logger.Warn("failed to issue notification",
				zap.Int64("user_id", user.ID),
				zap.String("check_time", checkTime),
				zap.Error(err),
			)
			res.fail(user.ID, err)
			continue
		}
		res.ok()
	}

	n.logger.Info("notification check finished",
		zap.String("check_time", checkTime),
		zap.Int("users", len(users)),
		zap.Int("failed", res.Failed()),
	)
	return res, nil
}

func (n *Notifier) issueForUser(ctx context.Context, userID int64, now, today time.Time) error {
	habits, err := n.store.ListActiveHabits(ctx, userID)
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

	logs, err := n.store.BatchLogsForDate(ctx, habitIDs, today)
	if err != nil {
		return fmt.Errorf("failed to batch logs: %w", err)
	}

	uncompleted := habits[:0:0]
	for _, h := range habits {
		if log, found := logs[h.ID]; found && log.Completed {
			continue
		}
		uncompleted = append(uncompleted, h)
	}
	if len(uncompleted) == 0 {
		return nil
	}

	ref, err := n.gateway.Send(ctx, userID, renderPrompt(uncompleted, n.window), promptActions(uncompleted))
	if err != nil {
		return fmt.Errorf("failed to send prompt: %w", err)
	}

	uncompletedIDs := make([]int64, 0, len(uncompleted))
	for _, h := range uncompleted {
		uncompletedIDs = append(uncompletedIDs, h.ID)
	}

	if err := n.store.CreatePending(ctx, userID, uncompletedIDs, ref, now, now.Add(n.window)); err != nil {
		return fmt.Errorf("failed to create pending: %w", err)
	}
	return nil
}

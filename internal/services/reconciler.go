package services

import (
	"context"
	"fmt"
	"time"

	"github.com/KuanyshAlmas/TelegramHabitBot/internal/models"
	"go.uber.org/zap"
)

// Reconciler закрывает просроченные напоминания: удаляет сообщение,
// проставляет нули по невыполненным привычкам и убирает запись из реестра.
type Reconciler struct {
	store   Store
	gateway Gateway
	logger  *zap.Logger
}

func NewReconciler(store Store, gateway Gateway, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		store:   store,
		gateway: gateway,
		logger:  logger,
	}
}

// SweepExpired обрабатывает все записи с истекшим окном ответа. Повторный
// запуск с тем же now ничего не допишет: обработанные записи удалены, а
// нулевая дозапись ставится только по еще не выполненным привычкам.
func (r *Reconciler) SweepExpired(ctx context.Context, now time.Time) (BatchResult, error) {
	var res BatchResult

	expired, err := r.store.ListExpiredPending(ctx, now)
	if err != nil {
		return res, fmt.Errorf("failed to list expired pending: %w", err)
	}

	today := DateOf(now)

	for _, pending := range expired {
		if err := r.reconcile(ctx, pending, today); err != nil {
			r.logger.Warn("failed to reconcile expired notification",
				zap.Int64("user_id", pending.UserID),
				zap.Int64("pending_id", pending.ID),
				zap.Error(err),
			)
			res.fail(pending.UserID, err)
			continue
		}
		res.ok()
	}

	// отвеченные записи больше никого не интересуют
	if err := r.store.DeleteResolved(ctx); err != nil {
		r.logger.Warn("failed to delete resolved pending", zap.Error(err))
	}

	if len(expired) > 0 {
		r.logger.Info("expiry sweep finished",
			zap.Int("expired", len(expired)),
			zap.Int("failed", res.Failed()),
		)
	}
	return res, nil
}

func (r *Reconciler) reconcile(ctx context.Context, pending models.PendingNotification, today time.Time) error {
	// убираем напоминание из чата; его могли удалить руками
	if err := r.gateway.Delete(ctx, pending.Message); err != nil {
		r.logger.Debug("prompt message already gone",
			zap.Int64("user_id", pending.UserID),
			zap.Error(err),
		)
	}

	habits, err := r.store.ListActiveHabits(ctx, pending.UserID)
	if err != nil {
		return fmt.Errorf("failed to list habits: %w", err)
	}

	habitIDs := make([]int64, 0, len(habits))
	for _, h := range habits {
		habitIDs = append(habitIDs, h.ID)
	}
	logs, err := r.store.BatchLogsForDate(ctx, habitIDs, today)
	if err != nil {
		return fmt.Errorf("failed to batch logs: %w", err)
	}

	zeroFilled := false
	for _, habit := range habits {
		if log, found := logs[habit.ID]; found && log.Completed {
			continue
		}
		// та же добавляющая запись, что и при ручном вводе:
		// поздний ручной лог ляжет поверх нуля
		if _, err := r.store.UpsertLog(ctx, habit.ID, pending.UserID, 0, today); err != nil {
			return fmt.Errorf("failed to zero-fill habit %d: %w", habit.ID, err)
		}
		zeroFilled = true
	}

	if zeroFilled {
		if _, err := r.gateway.Send(ctx, pending.UserID, renderExpiredNotice(), nil); err != nil {
			r.logger.Debug("failed to send expiry notice",
				zap.Int64("user_id", pending.UserID),
				zap.Error(err),
			)
		}
	}

	if err := r.store.DeletePending(ctx, pending.ID); err != nil {
		return fmt.Errorf("failed to delete pending: %w", err)
	}
	return nil
}

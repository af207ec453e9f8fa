package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/KuanyshAlmas/TelegramHabitBot/internal/models"
	"github.com/lib/pq"
)

type PendingRepository struct {
	db *sql.DB
}

func NewPendingRepository(db *sql.DB) *PendingRepository {
	return &PendingRepository{db: db}
}

// CreatePending записывает новое ожидающее напоминание. Нерешенные записи
// пользователя убираются тем же запросом: на пользователя живет максимум
// одна нерешенная запись (частичный уникальный индекс это страхует).
func (r *PendingRepository) CreatePending(ctx context.Context, userID int64, habitIDs []int64, ref models.MessageRef, sentAt, expiresAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM pending_notifications WHERE user_id = $1 AND NOT responded`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear unresolved pending: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pending_notifications (user_id, habit_ids, chat_id, message_id, sent_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		userID, pq.Array(habitIDs), ref.ChatID, ref.MessageID, sentAt, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to create pending: %w", err)
	}

	return tx.Commit()
}

// MarkResponded гасит нерешенные записи пользователя. Возвращает, была ли
// хоть одна: гонка с свипером решается тем, что второй актор получает ноль строк.
func (r *PendingRepository) MarkResponded(ctx context.Context, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE pending_notifications SET responded = TRUE WHERE user_id = $1 AND NOT responded`,
		userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PendingRepository) ListExpiredPending(ctx context.Context, now time.Time) ([]models.PendingNotification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, habit_ids, chat_id, message_id, sent_at, expires_at, responded
		 FROM pending_notifications
		 WHERE NOT responded AND expires_at < $1
		 ORDER BY expires_at`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []models.PendingNotification
	for rows.Next() {
		p := models.PendingNotification{}
		err := rows.Scan(&p.ID, &p.UserID, pq.Array(&p.HabitIDs), &p.Message.ChatID,
			&p.Message.MessageID, &p.SentAt, &p.ExpiresAt, &p.Responded)
		if err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

func (r *PendingRepository) DeletePending(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pending_notifications WHERE id = $1`, id)
	return err
}

// DeleteResolved убирает уже отвеченные записи (они больше ничего не гонят)
func (r *PendingRepository) DeleteResolved(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pending_notifications WHERE responded`)
	return err
}

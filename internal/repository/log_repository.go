package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/KuanyshAlmas/TelegramHabitBot/internal/models"
	"github.com/lib/pq"
)

type LogRepository struct {
	db *sql.DB
}

func NewLogRepository(db *sql.DB) *LogRepository {
	return &LogRepository{db: db}
}

const logColumns = `id, habit_id, user_id, log_date, value, completed, logged_at`

// UpsertLog добавляет delta к значению за день (не заменяет его).
// completed пересчитывается от накопленного значения и цели привычки,
// поэтому ручная запись поверх нулевой от свипера работает как обычная.
func (r *LogRepository) UpsertLog(ctx context.Context, habitID, userID int64, delta float64, logDate time.Time) (*models.DailyLog, error) {
	logEntry := &models.DailyLog{}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO habit_logs (habit_id, user_id, log_date, value, completed)
		 SELECT h.id, $2, $3, $4, $4 >= h.daily_goal
		 FROM habits h WHERE h.id = $1
		 ON CONFLICT (habit_id, log_date) DO UPDATE
		 SET value = habit_logs.value + EXCLUDED.value,
		     completed = habit_logs.value + EXCLUDED.value >= (SELECT daily_goal FROM habits WHERE id = $1),
		     logged_at = NOW()
		 RETURNING `+logColumns,
		habitID, userID, logDate, delta).
		Scan(&logEntry.ID, &logEntry.HabitID, &logEntry.UserID, &logEntry.LogDate,
			&logEntry.Value, &logEntry.Completed, &logEntry.LoggedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert log: %w", err)
	}
	return logEntry, nil
}

func (r *LogRepository) GetDailyLog(ctx context.Context, habitID int64, logDate time.Time) (*models.DailyLog, error) {
	logEntry := &models.DailyLog{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+logColumns+` FROM habit_logs WHERE habit_id = $1 AND log_date = $2`,
		habitID, logDate).
		Scan(&logEntry.ID, &logEntry.HabitID, &logEntry.UserID, &logEntry.LogDate,
			&logEntry.Value, &logEntry.Completed, &logEntry.LoggedAt)
	if err != nil {
		return nil, err
	}
	return logEntry, nil
}

// BatchLogsForDate забирает логи всех привычек пользователя одним запросом
func (r *LogRepository) BatchLogsForDate(ctx context.Context, habitIDs []int64, logDate time.Time) (map[int64]models.DailyLog, error) {
	logs := make(map[int64]models.DailyLog, len(habitIDs))
	if len(habitIDs) == 0 {
		return logs, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+logColumns+` FROM habit_logs WHERE habit_id = ANY($1) AND log_date = $2`,
		pq.Array(habitIDs), logDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		logEntry := models.DailyLog{}
		err := rows.Scan(&logEntry.ID, &logEntry.HabitID, &logEntry.UserID, &logEntry.LogDate,
			&logEntry.Value, &logEntry.Completed, &logEntry.LoggedAt)
		if err != nil {
			return nil, err
		}
		logs[logEntry.HabitID] = logEntry
	}
	return logs, rows.Err()
}

func (r *LogRepository) RangeLogs(ctx context.Context, habitID int64, start, end time.Time) ([]models.DailyLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+logColumns+` FROM habit_logs
		 WHERE habit_id = $1 AND log_date BETWEEN $2 AND $3
		 ORDER BY log_date`,
		habitID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.DailyLog
	for rows.Next() {
		logEntry := models.DailyLog{}
		err := rows.Scan(&logEntry.ID, &logEntry.HabitID, &logEntry.UserID, &logEntry.LogDate,
			&logEntry.Value, &logEntry.Completed, &logEntry.LoggedAt)
		if err != nil {
			return nil, err
		}
		logs = append(logs, logEntry)
	}
	return logs, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/KuanyshAlmas/TelegramHabitBot/internal/models"
)

type HabitRepository struct {
	db *sql.DB
}

func NewHabitRepository(db *sql.DB) *HabitRepository {
	return &HabitRepository{db: db}
}

const habitColumns = `id, user_id, category_id, name, habit_type, daily_goal, unit, streak, max_streak, is_active, marathon_id, settled_on, created_at`

func (r *HabitRepository) CreateHabit(ctx context.Context, userID int64, name string, habitType models.HabitType, dailyGoal float64, unit string, categoryID, marathonID *int64) (*models.Habit, error) {
	habit := &models.Habit{
		UserID:     userID,
		CategoryID: categoryID,
		Name:       name,
		Type:       habitType,
		DailyGoal:  dailyGoal,
		Unit:       unit,
		IsActive:   true,
		MarathonID: marathonID,
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO habits (user_id, name, habit_type, daily_goal, unit, category_id, marathon_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		userID, name, habitType, dailyGoal, unit, categoryID, marathonID).
		Scan(&habit.ID, &habit.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create habit: %w", err)
	}
	return habit, nil
}

func (r *HabitRepository) GetHabit(ctx context.Context, habitID int64) (*models.Habit, error) {
	habit := &models.Habit{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+habitColumns+` FROM habits WHERE id = $1`, habitID).
		Scan(&habit.ID, &habit.UserID, &habit.CategoryID, &habit.Name, &habit.Type, &habit.DailyGoal,
			&habit.Unit, &habit.Streak, &habit.MaxStreak, &habit.IsActive, &habit.MarathonID,
			&habit.SettledOn, &habit.CreatedAt)
	if err != nil {
		return nil, err
	}
	return habit, nil
}

func (r *HabitRepository) ListActiveHabits(ctx context.Context, userID int64) ([]models.Habit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+habitColumns+` FROM habits
		 WHERE user_id = $1 AND is_active
		 ORDER BY category_id NULLS LAST, name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []models.Habit
	for rows.Next() {
		habit := models.Habit{}
		err := rows.Scan(&habit.ID, &habit.UserID, &habit.CategoryID, &habit.Name, &habit.Type,
			&habit.DailyGoal, &habit.Unit, &habit.Streak, &habit.MaxStreak, &habit.IsActive,
			&habit.MarathonID, &habit.SettledOn, &habit.CreatedAt)
		if err != nil {
			return nil, err
		}
		habits = append(habits, habit)
	}
	return habits, rows.Err()
}

// UpdateStreak применяет итог дня к серии. Повторный вызов за тот же день
// (или более ранний) ничего не меняет: settled_on работает как маркер
// уже подведенного дня. applied=false означает, что день уже был учтен.
func (r *HabitRepository) UpdateStreak(ctx context.Context, habitID int64, completed bool, day time.Time) (int, bool, error) {
	var newStreak int
	err := r.db.QueryRowContext(ctx,
		`UPDATE habits
		 SET streak = CASE WHEN $2 THEN streak + 1 ELSE 0 END,
		     max_streak = GREATEST(max_streak, CASE WHEN $2 THEN streak + 1 ELSE 0 END),
		     settled_on = $3
		 WHERE id = $1 AND (settled_on IS NULL OR settled_on < $3)
		 RETURNING streak`,
		habitID, completed, day).Scan(&newStreak)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to update streak: %w", err)
	}
	return newStreak, true, nil
}

func (r *HabitRepository) DeleteHabit(ctx context.Context, habitID int64) error {
	// логи уходят каскадом
	_, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = $1`, habitID)
	return err
}

func (r *HabitRepository) UnlinkFromMarathon(ctx context.Context, userID, marathonID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE habits SET marathon_id = NULL WHERE user_id = $1 AND marathon_id = $2`,
		userID, marathonID)
	return err
}

func (r *HabitRepository) DeleteMarathonHabits(ctx context.Context, userID, marathonID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM habits WHERE user_id = $1 AND marathon_id = $2`,
		userID, marathonID)
	return err
}

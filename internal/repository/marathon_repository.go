package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/KuanyshAlmas/TelegramHabitBot/internal/models"
)

type MarathonRepository struct {
	db *sql.DB
}

func NewMarathonRepository(db *sql.DB) *MarathonRepository {
	return &MarathonRepository{db: db}
}

func (r *MarathonRepository) CreateMarathon(ctx context.Context, creatorID int64, name, inviteCode string, startDate, endDate time.Time) (*models.Marathon, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	marathon := &models.Marathon{
		CreatorID:  creatorID,
		Name:       name,
		InviteCode: inviteCode,
		StartDate:  startDate,
		EndDate:    endDate,
		IsActive:   true,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO marathons (creator_id, name, invite_code, start_date, end_date)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		creatorID, name, inviteCode, startDate, endDate).
		Scan(&marathon.ID, &marathon.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create marathon: %w", err)
	}

	// создатель сразу участник
	_, err = tx.ExecContext(ctx,
		`INSERT INTO marathon_participants (marathon_id, user_id) VALUES ($1, $2)`,
		marathon.ID, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to add creator as participant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return marathon, nil
}

func (r *MarathonRepository) AddMarathonHabit(ctx context.Context, marathonID int64, name string, habitType models.HabitType, dailyGoal float64, unit string, pointsPerGoal float64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO marathon_habits (marathon_id, name, habit_type, daily_goal, unit, points_per_goal)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		marathonID, name, habitType, dailyGoal, unit, pointsPerGoal)
	return err
}

func (r *MarathonRepository) GetMarathonByCode(ctx context.Context, inviteCode string) (*models.Marathon, error) {
	marathon := &models.Marathon{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, creator_id, name, invite_code, start_date, end_date, is_active, created_at
		 FROM marathons WHERE invite_code = $1`, inviteCode).
		Scan(&marathon.ID, &marathon.CreatorID, &marathon.Name, &marathon.InviteCode,
			&marathon.StartDate, &marathon.EndDate, &marathon.IsActive, &marathon.CreatedAt)
	if err != nil {
		return nil, err
	}
	return marathon, nil
}

// JoinMarathon добавляет участника и копирует ему шаблоны привычек марафона.
// Возвращает false, если пользователь уже участвует.
func (r *MarathonRepository) JoinMarathon(ctx context.Context, userID, marathonID int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM marathon_participants WHERE marathon_id = $1 AND user_id = $2`,
		marathonID, userID).Scan(&exists)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO marathon_participants (marathon_id, user_id) VALUES ($1, $2)`,
		marathonID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to add participant: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO habits (user_id, name, habit_type, daily_goal, unit, marathon_id)
		 SELECT $1, name, habit_type, daily_goal, unit, marathon_id
		 FROM marathon_habits WHERE marathon_id = $2`,
		userID, marathonID)
	if err != nil {
		return false, fmt.Errorf("failed to copy marathon habits: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *MarathonRepository) Leaderboard(ctx context.Context, marathonID int64) ([]models.MarathonParticipant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT mp.id, mp.marathon_id, mp.user_id, mp.total_points, mp.joined_at,
		        COALESCE(u.first_name, ''), COALESCE(u.username, '')
		 FROM marathon_participants mp
		 JOIN users u ON mp.user_id = u.user_id
		 WHERE mp.marathon_id = $1
		 ORDER BY mp.total_points DESC`, marathonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []models.MarathonParticipant
	for rows.Next() {
		p := models.MarathonParticipant{}
		err := rows.Scan(&p.ID, &p.MarathonID, &p.UserID, &p.TotalPoints, &p.JoinedAt,
			&p.FirstName, &p.Username)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *MarathonRepository) CreditPoints(ctx context.Context, userID, marathonID int64, points float64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE marathon_participants
		 SET total_points = total_points + $1
		 WHERE user_id = $2 AND marathon_id = $3`,
		points, userID, marathonID)
	return err
}

func (r *MarathonRepository) RemoveParticipant(ctx context.Context, userID, marathonID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM marathon_participants WHERE user_id = $1 AND marathon_id = $2`,
		userID, marathonID)
	return err
}

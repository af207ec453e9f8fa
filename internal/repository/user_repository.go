package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/KuanyshAlmas/TelegramHabitBot/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// категории по умолчанию для нового пользователя
var defaultCategories = []struct {
	name string
	icon string
}{
	{"🏃 Здоровье", "🏃"},
	{"🕌 Духовное", "🕌"},
	{"📚 Образование", "📚"},
}

func (r *UserRepository) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user := &models.User{}
	var times string
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, COALESCE(username, ''), COALESCE(first_name, ''), language, notification_times, created_at
		 FROM users WHERE user_id = $1`, userID).
		Scan(&user.ID, &user.Username, &user.FirstName, &user.Language, &times, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(times), &user.NotificationTimes); err != nil {
		return nil, fmt.Errorf("bad notification_times for user %d: %w", userID, err)
	}
	return user, nil
}

func (r *UserRepository) GetOrCreateUser(ctx context.Context, userID int64, username, firstName string) (*models.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (user_id, username, first_name) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID, username, firstName)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		for _, c := range defaultCategories {
			_, err := r.db.ExecContext(ctx,
				`INSERT INTO categories (user_id, name, icon) VALUES ($1, $2, $3)`,
				userID, c.name, c.icon)
			if err != nil {
				return nil, fmt.Errorf("failed to create default category: %w", err)
			}
		}
	}

	return r.GetUser(ctx, userID)
}

func (r *UserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, COALESCE(username, ''), COALESCE(first_name, ''), language, notification_times, created_at
		 FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsers(rows)
}

// ListUsersWithNotificationTime выбирает пользователей, у которых в наборе
// времен напоминаний есть ровно это время ("HH:MM")
func (r *UserRepository) ListUsersWithNotificationTime(ctx context.Context, checkTime string) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, COALESCE(username, ''), COALESCE(first_name, ''), language, notification_times, created_at
		 FROM users WHERE notification_times LIKE '%"' || $1 || '"%'`, checkTime)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsers(rows)
}

func (r *UserRepository) UpdateNotificationTimes(ctx context.Context, userID int64, times []string) error {
	encoded, err := json.Marshal(times)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE users SET notification_times = $1 WHERE user_id = $2`, string(encoded), userID)
	return err
}

func (r *UserRepository) SetLanguage(ctx context.Context, userID int64, language string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET language = $1 WHERE user_id = $2`, language, userID)
	return err
}

func scanUsers(rows *sql.Rows) ([]models.User, error) {
	var users []models.User
	for rows.Next() {
		user := models.User{}
		var times string
		err := rows.Scan(&user.ID, &user.Username, &user.FirstName, &user.Language, &times, &user.CreatedAt)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(times), &user.NotificationTimes); err != nil {
			return nil, fmt.Errorf("bad notification_times for user %d: %w", user.ID, err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

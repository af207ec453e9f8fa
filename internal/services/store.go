package services

import (
	"context"
	"time"

	"github.com/KuanyshAlmas/TelegramHabitBot/internal/models"
)

// Store - контракт хранилища, который использует ядро.
// Реализуется repository.Storage, в тестах подменяется фейком.
type Store interface {
	// пользователи
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	GetOrCreateUser(ctx context.Context, userID int64, username, firstName string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListUsersWithNotificationTime(ctx context.Context, checkTime string) ([]models.User, error)
	UpdateNotificationTimes(ctx context.Context, userID int64, times []string) error

	// привычки и логи
	GetHabit(ctx context.Context, habitID int64) (*models.Habit, error)
	ListActiveHabits(ctx context.Context, userID int64) ([]models.Habit, error)
	BatchLogsForDate(ctx context.Context, habitIDs []int64, logDate time.Time) (map[int64]models.DailyLog, error)
	UpsertLog(ctx context.Context, habitID, userID int64, delta float64, logDate time.Time) (*models.DailyLog, error)
	RangeLogs(ctx context.Context, habitID int64, start, end time.Time) ([]models.DailyLog, error)
	UpdateStreak(ctx context.Context, habitID int64, completed bool, day time.Time) (int, bool, error)

	// реестр ожидающих напоминаний
	CreatePending(ctx context.Context, userID int64, habitIDs []int64, ref models.MessageRef, sentAt, expiresAt time.Time) error
	MarkResponded(ctx context.Context, userID int64) (bool, error)
	ListExpiredPending(ctx context.Context, now time.Time) ([]models.PendingNotification, error)
	DeletePending(ctx context.Context, id int64) error
	DeleteResolved(ctx context.Context) error

	// марафоны
	CreateMarathon(ctx context.Context, creatorID int64, name, inviteCode string, startDate, endDate time.Time) (*models.Marathon, error)
	AddMarathonHabit(ctx context.Context, marathonID int64, name string, habitType models.HabitType, dailyGoal float64, unit string, pointsPerGoal float64) error
	GetMarathonByCode(ctx context.Context, inviteCode string) (*models.Marathon, error)
	JoinMarathon(ctx context.Context, userID, marathonID int64) (bool, error)
	Leaderboard(ctx context.Context, marathonID int64) ([]models.MarathonParticipant, error)
	CreditPoints(ctx context.Context, userID, marathonID int64, points float64) error
	RemoveParticipant(ctx context.Context, userID, marathonID int64) error
	UnlinkFromMarathon(ctx context.Context, userID, marathonID int64) error
	DeleteMarathonHabits(ctx context.Context, userID, marathonID int64) error
}

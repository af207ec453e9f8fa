package models

import "time"

// User - пользователь бота
type User struct {
	ID                int64
	Username          string
	FirstName         string
	Language          string
	NotificationTimes []string // "HH:MM", локальное время
	CreatedAt         time.Time
}

type HabitType string

const (
	HabitBoolean HabitType = "boolean"
	HabitNumeric HabitType = "numeric"
)

// Habit - привычка (личная или марафонская)
type Habit struct {
	ID         int64
	UserID     int64
	CategoryID *int64
	Name       string
	Type       HabitType
	DailyGoal  float64 // для boolean всегда 1
	Unit       string
	Streak     int
	MaxStreak  int
	IsActive   bool
	MarathonID *int64
	SettledOn  *time.Time // последний день, учтенный итогами дня
	CreatedAt  time.Time
}

// DailyLog - запись за день, одна строка на (habit_id, log_date).
// Повторные записи за тот же день суммируются, не заменяются.
type DailyLog struct {
	ID        int64
	HabitID   int64
	UserID    int64
	LogDate   time.Time
	Value     float64
	Completed bool
	LoggedAt  time.Time
}

// MessageRef - ссылка на доставленное сообщение в Telegram
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// PendingNotification - ожидающее ответа напоминание.
// Одна запись покрывает все невыполненные привычки пользователя на момент отправки.
type PendingNotification struct {
	ID        int64
	UserID    int64
	HabitIDs  []int64
	Message   MessageRef
	SentAt    time.Time
	ExpiresAt time.Time
	Responded bool
}

// Marathon - групповой челлендж
type Marathon struct {
	ID         int64
	CreatorID  int64
	Name       string
	InviteCode string
	StartDate  time.Time
	EndDate    time.Time
	IsActive   bool
	CreatedAt  time.Time
}

// MarathonHabit - шаблон привычки марафона, копируется участнику при входе
type MarathonHabit struct {
	ID            int64
	MarathonID    int64
	Name          string
	Type          HabitType
	DailyGoal     float64
	Unit          string
	PointsPerGoal float64
}

// MarathonParticipant - участник с накопленными очками
type MarathonParticipant struct {
	ID          int64
	MarathonID  int64
	UserID      int64
	TotalPoints float64
	FirstName   string
	Username    string
	JoinedAt    time.Time
}

// HabitStats - агрегат по привычке за период (недельный/месячный отчет)
type HabitStats struct {
	Habit         Habit
	TotalDays     int
	CompletedDays int
	MissedDays    int
	Efficiency    float64 // процент, 1 знак после запятой
	TotalValue    float64
	Average       float64 // 2 знака после запятой
	BestDay       *DailyLog
}

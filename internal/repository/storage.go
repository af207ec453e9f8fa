package repository

import (
	"database/sql"
)

// Storage собирает все репозитории в один фасад для сервисного слоя
type Storage struct {
	*UserRepository
	*HabitRepository
	*LogRepository
	*PendingRepository
	*MarathonRepository
}

func NewStorage(db *sql.DB) *Storage {
	return &Storage{
		UserRepository:     NewUserRepository(db),
		HabitRepository:    NewHabitRepository(db),
		LogRepository:      NewLogRepository(db),
		PendingRepository:  NewPendingRepository(db),
		MarathonRepository: NewMarathonRepository(db),
	}
}

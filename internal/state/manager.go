package state

import (
	"sync"
)

type DialogState string

const (
	StateIdle          DialogState = "idle"
	StateEnteringValue DialogState = "entering_value"
)

type UserSession struct {
	UserID   int64
	State    DialogState
	TempData map[string]string
}

// StateManager держит состояние диалога в памяти процесса
type StateManager struct {
	mu       sync.RWMutex
	sessions map[int64]*UserSession
}

func NewStateManager() *StateManager {
	return &StateManager{
		sessions: make(map[int64]*UserSession),
	}
}

func (m *StateManager) Get(userID int64) *UserSession {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, ok := m.sessions[userID]; ok {
		return s
	}
	return &UserSession{UserID: userID, State: StateIdle, TempData: map[string]string{}}
}

func (m *StateManager) Set(userID int64, state DialogState, tempData map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tempData == nil {
		tempData = map[string]string{}
	}
	m.sessions[userID] = &UserSession{UserID: userID, State: state, TempData: tempData}
}

func (m *StateManager) Reset(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

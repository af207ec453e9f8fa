package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/KuanyshAlmas/TelegramHabitBot/internal/models"
	"go.uber.org/zap"
)

var (
	_ Store   = (*fakeStore)(nil)
	_ Gateway = (*fakeGateway)(nil)
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

type fakeClock struct {
	t time.Time
}

func (c fakeClock) Now() time.Time { return c.t }

func dayKey(habitID int64, d time.Time) string {
	return fmt.Sprintf("%d|%s", habitID, d.Format("2006-01-02"))
}

func pointsKey(userID, marathonID int64) string {
	return fmt.Sprintf("%d|%d", userID, marathonID)
}

// fakeStore - хранилище в памяти с той же семантикой, что и репозитории:
// добавляющий upsert лога, маркер settled_on, одна нерешенная запись на
// пользователя.
type fakeStore struct {
	mu sync.Mutex

	users     map[int64]models.User
	habits    map[int64]*models.Habit
	logs      map[string]*models.DailyLog
	pendings  map[int64]*models.PendingNotification
	nextID    int64
	points    map[string]float64
	marathons map[int64]*models.Marathon
	byCode    map[string]int64
	templates map[int64][]models.MarathonHabit
	members   map[string]*models.MarathonParticipant

	upsertCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     map[int64]models.User{},
		habits:    map[int64]*models.Habit{},
		logs:      map[string]*models.DailyLog{},
		pendings:  map[int64]*models.PendingNotification{},
		points:    map[string]float64{},
		marathons: map[int64]*models.Marathon{},
		byCode:    map[string]int64{},
		templates: map[int64][]models.MarathonHabit{},
		members:   map[string]*models.MarathonParticipant{},
	}
}

func (s *fakeStore) addUser(u models.User) {
	s.users[u.ID] = u
}

func (s *fakeStore) addHabit(h models.Habit) {
	s.habits[h.ID] = &h
}

func testUser(id int64, times ...string) models.User {
	return models.User{ID: id, FirstName: fmt.Sprintf("user%d", id), Language: "ru", NotificationTimes: times}
}

// testHabit строит активную привычку: goal=1 дает булеву, иначе числовую
func testHabit(id, userID int64, name string, goal float64) models.Habit {
	habitType := models.HabitNumeric
	if goal == 1 {
		habitType = models.HabitBoolean
	}
	return models.Habit{
		ID: id, UserID: userID, Name: name, Type: habitType,
		DailyGoal: goal, IsActive: true,
	}
}

func (s *fakeStore) GetUser(_ context.Context, userID int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (s *fakeStore) GetOrCreateUser(_ context.Context, userID int64, username, firstName string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		return &u, nil
	}
	u := models.User{
		ID: userID, Username: username, FirstName: firstName,
		Language:          "ru",
		NotificationTimes: []string{"08:00", "14:00", "21:00"},
	}
	s.users[userID] = u
	return &u, nil
}

func (s *fakeStore) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var users []models.User
	for _, u := range s.users {
		users = append(users, u)
	}
	return users, nil
}

func (s *fakeStore) ListUsersWithNotificationTime(_ context.Context, checkTime string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var users []models.User
	for _, u := range s.users {
		for _, t := range u.NotificationTimes {
			if t == checkTime {
				users = append(users, u)
				break
			}
		}
	}
	return users, nil
}

func (s *fakeStore) UpdateNotificationTimes(_ context.Context, userID int64, times []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	u.NotificationTimes = times
	s.users[userID] = u
	return nil
}

func (s *fakeStore) GetHabit(_ context.Context, habitID int64) (*models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.habits[habitID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *h
	return &copied, nil
}

func (s *fakeStore) ListActiveHabits(_ context.Context, userID int64) ([]models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var habits []models.Habit
	for _, h := range s.habits {
		if h.UserID == userID && h.IsActive {
			habits = append(habits, *h)
		}
	}
	return habits, nil
}

func (s *fakeStore) BatchLogsForDate(_ context.Context, habitIDs []int64, logDate time.Time) (map[int64]models.DailyLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logs := map[int64]models.DailyLog{}
	for _, id := range habitIDs {
		if l, ok := s.logs[dayKey(id, logDate)]; ok {
			logs[id] = *l
		}
	}
	return logs, nil
}

func (s *fakeStore) UpsertLog(_ context.Context, habitID, userID int64, delta float64, logDate time.Time) (*models.DailyLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	habit, ok := s.habits[habitID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	s.upsertCalls++

	key := dayKey(habitID, logDate)
	l, ok := s.logs[key]
	if !ok {
		l = &models.DailyLog{HabitID: habitID, UserID: userID, LogDate: DateOf(logDate)}
		s.logs[key] = l
	}
	l.Value += delta
	l.Completed = l.Value >= habit.DailyGoal
	l.LoggedAt = time.Now()
	copied := *l
	return &copied, nil
}

func (s *fakeStore) RangeLogs(_ context.Context, habitID int64, start, end time.Time) ([]models.DailyLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var logs []models.DailyLog
	for d := DateOf(start); !d.After(DateOf(end)); d = d.AddDate(0, 0, 1) {
		if l, ok := s.logs[dayKey(habitID, d)]; ok {
			logs = append(logs, *l)
		}
	}
	return logs, nil
}

func (s *fakeStore) UpdateStreak(_ context.Context, habitID int64, completed bool, day time.Time) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.habits[habitID]
	if !ok {
		return 0, false, nil
	}
	if h.SettledOn != nil && !h.SettledOn.Before(DateOf(day)) {
		return 0, false, nil
	}
	if completed {
		h.Streak++
		if h.Streak > h.MaxStreak {
			h.MaxStreak = h.Streak
		}
	} else {
		h.Streak = 0
	}
	settled := DateOf(day)
	h.SettledOn = &settled
	return h.Streak, true, nil
}

func (s *fakeStore) CreatePending(_ context.Context, userID int64, habitIDs []int64, ref models.MessageRef, sentAt, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.pendings {
		if p.UserID == userID && !p.Responded {
			delete(s.pendings, id)
		}
	}
	s.nextID++
	s.pendings[s.nextID] = &models.PendingNotification{
		ID: s.nextID, UserID: userID, HabitIDs: habitIDs,
		Message: ref, SentAt: sentAt, ExpiresAt: expiresAt,
	}
	return nil
}

func (s *fakeStore) MarkResponded(_ context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	marked := false
	for _, p := range s.pendings {
		if p.UserID == userID && !p.Responded {
			p.Responded = true
			marked = true
		}
	}
	return marked, nil
}

func (s *fakeStore) ListExpiredPending(_ context.Context, now time.Time) ([]models.PendingNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []models.PendingNotification
	for _, p := range s.pendings {
		if !p.Responded && p.ExpiresAt.Before(now) {
			expired = append(expired, *p)
		}
	}
	return expired, nil
}

func (s *fakeStore) DeletePending(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pendings, id)
	return nil
}

func (s *fakeStore) DeleteResolved(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.pendings {
		if p.Responded {
			delete(s.pendings, id)
		}
	}
	return nil
}

func (s *fakeStore) CreateMarathon(_ context.Context, creatorID int64, name, inviteCode string, startDate, endDate time.Time) (*models.Marathon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	m := &models.Marathon{
		ID: s.nextID, CreatorID: creatorID, Name: name, InviteCode: inviteCode,
		StartDate: startDate, EndDate: endDate, IsActive: true,
	}
	s.marathons[m.ID] = m
	s.byCode[inviteCode] = m.ID
	s.members[pointsKey(creatorID, m.ID)] = &models.MarathonParticipant{MarathonID: m.ID, UserID: creatorID}
	return m, nil
}

func (s *fakeStore) AddMarathonHabit(_ context.Context, marathonID int64, name string, habitType models.HabitType, dailyGoal float64, unit string, pointsPerGoal float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[marathonID] = append(s.templates[marathonID], models.MarathonHabit{
		MarathonID: marathonID, Name: name, Type: habitType, DailyGoal: dailyGoal,
		Unit: unit, PointsPerGoal: pointsPerGoal,
	})
	return nil
}

func (s *fakeStore) GetMarathonByCode(_ context.Context, inviteCode string) (*models.Marathon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byCode[inviteCode]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *s.marathons[id]
	return &copied, nil
}

func (s *fakeStore) JoinMarathon(_ context.Context, userID, marathonID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pointsKey(userID, marathonID)
	if _, ok := s.members[key]; ok {
		return false, nil
	}
	s.members[key] = &models.MarathonParticipant{MarathonID: marathonID, UserID: userID}
	mid := marathonID
	for _, tpl := range s.templates[marathonID] {
		s.nextID++
		s.habits[s.nextID] = &models.Habit{
			ID: s.nextID, UserID: userID, Name: tpl.Name, Type: tpl.Type,
			DailyGoal: tpl.DailyGoal, Unit: tpl.Unit, IsActive: true, MarathonID: &mid,
		}
	}
	return true, nil
}

func (s *fakeStore) Leaderboard(_ context.Context, marathonID int64) ([]models.MarathonParticipant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var participants []models.MarathonParticipant
	for _, p := range s.members {
		if p.MarathonID == marathonID {
			copied := *p
			copied.TotalPoints = s.points[pointsKey(p.UserID, marathonID)]
			participants = append(participants, copied)
		}
	}
	return participants, nil
}

func (s *fakeStore) CreditPoints(_ context.Context, userID, marathonID int64, points float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points[pointsKey(userID, marathonID)] += points
	return nil
}

func (s *fakeStore) RemoveParticipant(_ context.Context, userID, marathonID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, pointsKey(userID, marathonID))
	return nil
}

func (s *fakeStore) UnlinkFromMarathon(_ context.Context, userID, marathonID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.habits {
		if h.UserID == userID && h.MarathonID != nil && *h.MarathonID == marathonID {
			h.MarathonID = nil
		}
	}
	return nil
}

func (s *fakeStore) DeleteMarathonHabits(_ context.Context, userID, marathonID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, h := range s.habits {
		if h.UserID == userID && h.MarathonID != nil && *h.MarathonID == marathonID {
			delete(s.habits, id)
		}
	}
	return nil
}

type sentMessage struct {
	UserID  int64
	Text    string
	Actions []Action
}

type fakeGateway struct {
	mu      sync.Mutex
	sent    []sentMessage
	deleted []models.MessageRef
	failFor map[int64]bool
	nextID  int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{failFor: map[int64]bool{}}
}

func (g *fakeGateway) Send(_ context.Context, userID int64, text string, actions []Action) (models.MessageRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failFor[userID] {
		return models.MessageRef{}, fmt.Errorf("delivery failed for %d", userID)
	}
	g.nextID++
	g.sent = append(g.sent, sentMessage{UserID: userID, Text: text, Actions: actions})
	return models.MessageRef{ChatID: userID, MessageID: g.nextID}, nil
}

func (g *fakeGateway) Delete(_ context.Context, ref models.MessageRef) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted = append(g.deleted, ref)
	return nil
}

func (g *fakeGateway) sentTo(userID int64) []sentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	var msgs []sentMessage
	for _, m := range g.sent {
		if m.UserID == userID {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

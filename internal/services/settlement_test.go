package services

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestSettleDayStreakTransitions(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	store.addUser(testUser(1, "08:00"))

	kept := testHabit(10, 1, "Бег", 1)
	kept.Streak = 4
	kept.MaxStreak = 7
	store.addHabit(kept)

	broken := testHabit(11, 1, "Чтение", 30)
	broken.Streak = 9
	broken.MaxStreak = 9
	store.addHabit(broken)

	if _, err := store.UpsertLog(context.Background(), 10, 1, 1, day); err != nil {
		t.Fatalf("UpsertLog: %v", err)
	}
	// чтение: 15 из 30, цель не взята
	if _, err := store.UpsertLog(context.Background(), 11, 1, 15, day); err != nil {
		t.Fatalf("UpsertLog: %v", err)
	}

	s := NewSettlement(store, gw, testLogger())
	res, err := s.SettleDay(context.Background(), day)
	if err != nil {
		t.Fatalf("SettleDay: %v", err)
	}
	if res.Succeeded != 1 || res.Failed() != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	if h := store.habits[10]; h.Streak != 5 || h.MaxStreak != 7 {
		t.Errorf("kept habit: streak=%d max=%d, want 5/7", h.Streak, h.MaxStreak)
	}
	if h := store.habits[11]; h.Streak != 0 || h.MaxStreak != 9 {
		t.Errorf("broken habit: streak=%d max=%d, want 0/9", h.Streak, h.MaxStreak)
	}
}

func TestSettleDayMaxStreakAdvances(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	store.addUser(testUser(1, "08:00"))
	h := testHabit(10, 1, "Бег", 1)
	h.Streak = 7
	h.MaxStreak = 7
	store.addHabit(h)
	if _, err := store.UpsertLog(context.Background(), 10, 1, 1, day); err != nil {
		t.Fatalf("UpsertLog: %v", err)
	}

	s := NewSettlement(store, gw, testLogger())
	if _, err := s.SettleDay(context.Background(), day); err != nil {
		t.Fatalf("SettleDay: %v", err)
	}
	if got := store.habits[10]; got.Streak != 8 || got.MaxStreak != 8 {
		t.Errorf("streak=%d max=%d, want 8/8", got.Streak, got.MaxStreak)
	}
}

func TestSettleDayGoalBoundary(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	store.addUser(testUser(1, "08:00"))
	store.addHabit(testHabit(10, 1, "Вода", 2))
	// ровно цель - выполнено
	if _, err := store.UpsertLog(context.Background(), 10, 1, 2, day); err != nil {
		t.Fatalf("UpsertLog: %v", err)
	}

	s := NewSettlement(store, gw, testLogger())
	if _, err := s.SettleDay(context.Background(), day); err != nil {
		t.Fatalf("SettleDay: %v", err)
	}
	if got := store.habits[10]; got.Streak != 1 {
		t.Errorf("value equal to goal must count as completed, streak=%d", got.Streak)
	}
}

func TestSettleDayMissingLogBreaksStreak(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	store.addUser(testUser(1, "08:00"))
	h := testHabit(10, 1, "Бег", 1)
	h.Streak = 3
	h.MaxStreak = 3
	store.addHabit(h)

	s := NewSettlement(store, gw, testLogger())
	if _, err := s.SettleDay(context.Background(), day); err != nil {
		t.Fatalf("SettleDay: %v", err)
	}
	if got := store.habits[10]; got.Streak != 0 || got.MaxStreak != 3 {
		t.Errorf("streak=%d max=%d, want 0/3", got.Streak, got.MaxStreak)
	}
}

func TestSettleDayMarathonPoints(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	store.addUser(testUser(1, "08:00"))
	marathonID := int64(100)

	done := testHabit(10, 1, "Бег", 1)
	done.MarathonID = &marathonID
	store.addHabit(done)

	missed := testHabit(11, 1, "Чтение", 30)
	missed.MarathonID = &marathonID
	store.addHabit(missed)

	if _, err := store.UpsertLog(context.Background(), 10, 1, 1, day); err != nil {
		t.Fatalf("UpsertLog: %v", err)
	}

	s := NewSettlement(store, gw, testLogger())
	if _, err := s.SettleDay(context.Background(), day); err != nil {
		t.Fatalf("SettleDay: %v", err)
	}

	// очко только за выполненную марафонскую привычку
	if got := store.points[pointsKey(1, marathonID)]; got != 1 {
		t.Errorf("points = %v, want 1", got)
	}
}

func TestSettleDayRerunIsNoop(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	store.addUser(testUser(1, "08:00"))
	marathonID := int64(100)
	h := testHabit(10, 1, "Бег", 1)
	h.MarathonID = &marathonID
	store.addHabit(h)
	if _, err := store.UpsertLog(context.Background(), 10, 1, 1, day); err != nil {
		t.Fatalf("UpsertLog: %v", err)
	}

	s := NewSettlement(store, gw, testLogger())
	if _, err := s.SettleDay(context.Background(), day); err != nil {
		t.Fatalf("first SettleDay: %v", err)
	}
	if _, err := s.SettleDay(context.Background(), day); err != nil {
		t.Fatalf("second SettleDay: %v", err)
	}

	if got := store.habits[10]; got.Streak != 1 {
		t.Errorf("rerun moved the streak: %d", got.Streak)
	}
	if got := store.points[pointsKey(1, marathonID)]; got != 1 {
		t.Errorf("rerun credited points again: %v", got)
	}

	// вечерний отчет при этом уходит оба раза
	if msgs := gw.sentTo(1); len(msgs) != 2 {
		t.Errorf("expected 2 digests, got %d", len(msgs))
	}
}

func TestSettleDayNextDayAdvancesAgain(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway()
	day1 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	store.addUser(testUser(1, "08:00"))
	store.addHabit(testHabit(10, 1, "Бег", 1))

	s := NewSettlement(store, gw, testLogger())
	for _, day := range []time.Time{day1, day2} {
		if _, err := store.UpsertLog(context.Background(), 10, 1, 1, day); err != nil {
			t.Fatalf("UpsertLog: %v", err)
		}
		if _, err := s.SettleDay(context.Background(), day); err != nil {
			t.Fatalf("SettleDay %s: %v", day.Format("2006-01-02"), err)
		}
	}

	if got := store.habits[10]; got.Streak != 2 {
		t.Errorf("streak=%d, want 2 after two settled days", got.Streak)
	}
}

func TestSettleDayDigestContent(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	store.addUser(testUser(1, "08:00"))
	kept := testHabit(10, 1, "Бег", 1)
	kept.Streak = 4
	store.addHabit(kept)
	broken := testHabit(11, 1, "Чтение", 30)
	broken.Streak = 2
	store.addHabit(broken)
	if _, err := store.UpsertLog(context.Background(), 10, 1, 1, day); err != nil {
		t.Fatalf("UpsertLog: %v", err)
	}

	s := NewSettlement(store, gw, testLogger())
	if _, err := s.SettleDay(context.Background(), day); err != nil {
		t.Fatalf("SettleDay: %v", err)
	}

	msgs := gw.sentTo(1)
	if len(msgs) != 1 {
		t.Fatalf("expected one digest, got %d", len(msgs))
	}
	text := msgs[0].Text
	if !strings.Contains(text, "Бег") || !strings.Contains(text, "Чтение") {
		t.Errorf("digest must mention both habits: %q", text)
	}
	if !strings.Contains(text, "5") {
		t.Errorf("digest must mention the extended streak: %q", text)
	}
}

func TestSettleDayUserFailureIsolated(t *testing.T) {
	store := newFakeStore()
	gw := newFakeGateway()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	store.addUser(testUser(1, "08:00"))
	store.addUser(testUser(2, "08:00"))
	store.addHabit(testHabit(10, 1, "Бег", 1))
	store.addHabit(testHabit(20, 2, "Вода", 2))
	if _, err := store.UpsertLog(context.Background(), 20, 2, 2, day); err != nil {
		t.Fatalf("UpsertLog: %v", err)
	}
	gw.failFor[1] = true

	s := NewSettlement(store, gw, testLogger())
	res, err := s.SettleDay(context.Background(), day)
	if err != nil {
		t.Fatalf("SettleDay: %v", err)
	}

	if res.Succeeded != 1 || res.Failed() != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := store.habits[20]; got.Streak != 1 {
		t.Errorf("second user must still be settled, streak=%d", got.Streak)
	}
}

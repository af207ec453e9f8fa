package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/KuanyshAlmas/TelegramHabitBot/internal/models"
)

var monthsRU = [...]string{"", "января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря"}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func renderPrompt(habits []models.Habit, window time.Duration) string {
	var b strings.Builder
	b.WriteString("🔔 **Пора сдать отчет!**\n\n")
	b.WriteString("Невыполненные привычки:\n")

	for _, h := range habits {
		if h.Type == models.HabitBoolean {
			fmt.Fprintf(&b, "• %s\n", h.Name)
		} else {
			fmt.Fprintf(&b, "• %s (цель: %s %s)\n", h.Name, formatValue(h.DailyGoal), h.Unit)
		}
	}

	fmt.Fprintf(&b, "\n⏱ У тебя есть %d минут на ответ.", int(window.Minutes()))
	return b.String()
}

func promptActions(habits []models.Habit) []Action {
	actions := make([]Action, 0, len(habits))
	for _, h := range habits {
		if h.Type == models.HabitBoolean {
			actions = append(actions, Action{
				Label: "✅ " + h.Name,
				Data:  fmt.Sprintf("done_%d", h.ID),
			})
		} else {
			actions = append(actions, Action{
				Label: "➕ " + h.Name,
				Data:  fmt.Sprintf("log_%d", h.ID),
			})
		}
	}
	return actions
}

func renderExpiredNotice() string {
	return "⏳ Время вышло.\nЗасчитан 0. Ты можешь внести результат вручную позже."
}

func renderDayLine(habit models.Habit, value float64, completed bool) string {
	if habit.Type == models.HabitBoolean {
		if completed {
			return fmt.Sprintf("• %s: ✅ Выполнено", habit.Name)
		}
		return fmt.Sprintf("• %s: ❌ Не выполнено", habit.Name)
	}

	status := "❌"
	if completed {
		status = "✅"
	}
	return fmt.Sprintf("• %s: %s/%s %s %s",
		habit.Name, formatValue(value), formatValue(habit.DailyGoal), habit.Unit, status)
}

func renderStreakExtended(habit models.Habit, streak int) string {
	return fmt.Sprintf("🔥 %s: %d дней подряд!", habit.Name, streak)
}

func renderStreakBroken(habit models.Habit) string {
	return fmt.Sprintf("💔 %s: огонек погас...", habit.Name)
}

func renderDigest(lines, streakNotes []string) string {
	text := "🌙 **Итоги дня:**\n\n" + strings.Join(lines, "\n")
	if len(streakNotes) > 0 {
		text += "\n\n" + strings.Join(streakNotes, "\n")
	}
	return text
}

func renderWeeklyReport(stats []models.HabitStats, start, end time.Time) string {
	var b strings.Builder
	b.WriteString("📊 **Отчет за неделю**\n")
	fmt.Fprintf(&b, "(%s - %s)\n\n", start.Format("02.01"), end.Format("02.01"))

	for _, s := range stats {
		if s.Habit.Type == models.HabitBoolean {
			fmt.Fprintf(&b, "• %s: %d/%d дней (%.1f%%)\n",
				s.Habit.Name, s.CompletedDays, s.TotalDays, s.Efficiency)
		} else {
			fmt.Fprintf(&b, "• %s: %s %s\n", s.Habit.Name, formatValue(s.TotalValue), s.Habit.Unit)
			fmt.Fprintf(&b, "  (в среднем %.2f в день)\n", s.Average)
		}
	}
	return b.String()
}

func renderMonthlyReport(stats []models.HabitStats, month time.Month) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 **Отчет за %s**\n\n", monthsRU[month])

	for _, s := range stats {
		fmt.Fprintf(&b, "**%s**\n", s.Habit.Name)
		if s.Habit.Type == models.HabitBoolean {
			fmt.Fprintf(&b, "• Выполнено: %d из %d дней\n", s.CompletedDays, s.TotalDays)
			fmt.Fprintf(&b, "• Эффективность: %.1f%%\n\n", s.Efficiency)
		} else {
			fmt.Fprintf(&b, "• Всего: %s %s\n", formatValue(s.TotalValue), s.Habit.Unit)
			fmt.Fprintf(&b, "• В среднем: %.2f в день\n", s.Average)
			if s.BestDay != nil {
				fmt.Fprintf(&b, "• Лучший день: %s (%s)\n",
					formatValue(s.BestDay.Value), s.BestDay.LogDate.Format("02.01.2006"))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderLeaderboard(marathon models.Marathon, participants []models.MarathonParticipant) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 **%s**\n\n", marathon.Name)

	for i, p := range participants {
		name := p.FirstName
		if name == "" {
			name = p.Username
		}
		fmt.Fprintf(&b, "%d. %s — %s очков\n", i+1, name, formatValue(p.TotalPoints))
	}
	return b.String()
}

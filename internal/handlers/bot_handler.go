package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/KuanyshAlmas/TelegramHabitBot/internal/models"
	"github.com/KuanyshAlmas/TelegramHabitBot/internal/services"
	"github.com/KuanyshAlmas/TelegramHabitBot/internal/state"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// BotHandler разбирает команды и ответы на напоминания. Диалоги создания
// привычек и марафонов сюда не входят - только путь ответа и справочные
// команды.
type BotHandler struct {
	bot          *tgbotapi.BotAPI
	habitService *services.HabitService
	marathons    *services.MarathonService
	stateManager *state.StateManager
	logger       *zap.Logger
}

func NewBotHandler(
	bot *tgbotapi.BotAPI,
	habitService *services.HabitService,
	marathons *services.MarathonService,
	stateManager *state.StateManager,
	logger *zap.Logger,
) *BotHandler {
	return &BotHandler{
		bot:          bot,
		habitService: habitService,
		marathons:    marathons,
		stateManager: stateManager,
		logger:       logger,
	}
}

func (h *BotHandler) HandleStart(ctx context.Context, msg *tgbotapi.Message) {
	user, err := h.habitService.GetOrCreateUser(ctx, msg.From.ID, msg.From.UserName, msg.From.FirstName)
	if err != nil {
		h.logger.Error("failed to register user", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		h.reply(msg.Chat.ID, "😔 Что-то пошло не так, попробуй еще раз.")
		return
	}

	h.reply(msg.Chat.ID, fmt.Sprintf(
		"👋 Привет, %s!\n\nЯ напомню о привычках в %s и подведу итоги в конце дня.\n"+
			"Команды: /habits, /times, /join, /leaderboard",
		user.FirstName, strings.Join(user.NotificationTimes, ", ")))
}

func (h *BotHandler) HandleHelp(msg *tgbotapi.Message) {
	h.reply(msg.Chat.ID,
		"📖 Команды:\n"+
			"/habits — список привычек\n"+
			"/times 08:00,14:00,21:00 — времена напоминаний\n"+
			"/join КОД — вступить в марафон\n"+
			"/leaderboard КОД — таблица очков\n"+
			"/cancel — отменить ввод")
}

func (h *BotHandler) HandleCancel(msg *tgbotapi.Message) {
	h.stateManager.Reset(msg.From.ID)
	h.reply(msg.Chat.ID, "Ок, отменил.")
}

func (h *BotHandler) HandleHabits(ctx context.Context, msg *tgbotapi.Message) {
	habits, err := h.habitService.ListActiveHabits(ctx, msg.From.ID)
	if err != nil {
		h.logger.Error("failed to list habits", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		h.reply(msg.Chat.ID, "😔 Не смог получить список привычек.")
		return
	}
	if len(habits) == 0 {
		h.reply(msg.Chat.ID, "Пока нет активных привычек.")
		return
	}

	var b strings.Builder
	b.WriteString("📋 Твои привычки:\n")
	for _, habit := range habits {
		if habit.Type == models.HabitBoolean {
			fmt.Fprintf(&b, "• %s (серия: %d, рекорд: %d)\n", habit.Name, habit.Streak, habit.MaxStreak)
		} else {
			fmt.Fprintf(&b, "• %s — %g %s/день (серия: %d, рекорд: %d)\n",
				habit.Name, habit.DailyGoal, habit.Unit, habit.Streak, habit.MaxStreak)
		}
	}
	h.reply(msg.Chat.ID, b.String())
}

func (h *BotHandler) HandleTimes(ctx context.Context, msg *tgbotapi.Message) {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		h.reply(msg.Chat.ID, "Укажи времена: /times 08:00,14:00,21:00")
		return
	}

	times, err := ParseTimes(arg)
	if err != nil {
		h.reply(msg.Chat.ID, "⚠️ "+err.Error())
		return
	}

	if err := h.habitService.UpdateNotificationTimes(ctx, msg.From.ID, times); err != nil {
		h.logger.Error("failed to update times", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		h.reply(msg.Chat.ID, "😔 Не смог сохранить времена.")
		return
	}
	h.reply(msg.Chat.ID, "✅ Напоминания: "+strings.Join(times, ", "))
}

func (h *BotHandler) HandleJoin(ctx context.Context, msg *tgbotapi.Message) {
	code := strings.TrimSpace(msg.CommandArguments())
	if code == "" {
		h.reply(msg.Chat.ID, "Укажи код приглашения: /join КОД")
		return
	}

	marathon, joined, err := h.marathons.JoinByCode(ctx, msg.From.ID, code)
	if errors.Is(err, services.ErrMarathonNotFound) {
		h.reply(msg.Chat.ID, "🤷 Марафон с таким кодом не найден.")
		return
	}
	if err != nil {
		h.logger.Error("failed to join marathon", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		h.reply(msg.Chat.ID, "😔 Не получилось вступить в марафон.")
		return
	}

	if !joined {
		h.reply(msg.Chat.ID, fmt.Sprintf("Ты уже участвуешь в «%s».", marathon.Name))
		return
	}
	h.reply(msg.Chat.ID, fmt.Sprintf("🎉 Ты в марафоне «%s»! Привычки уже добавлены.", marathon.Name))
}

func (h *BotHandler) HandleLeaderboard(ctx context.Context, msg *tgbotapi.Message) {
	code := strings.TrimSpace(msg.CommandArguments())
	if code == "" {
		h.reply(msg.Chat.ID, "Укажи код марафона: /leaderboard КОД")
		return
	}

	marathon, participants, err := h.marathons.LeaderboardByCode(ctx, code)
	if errors.Is(err, services.ErrMarathonNotFound) {
		h.reply(msg.Chat.ID, "🤷 Марафон с таким кодом не найден.")
		return
	}
	if err != nil {
		h.logger.Error("failed to load leaderboard", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		h.reply(msg.Chat.ID, "😔 Не смог получить таблицу очков.")
		return
	}

	h.reply(msg.Chat.ID, h.marathons.RenderLeaderboard(*marathon, participants))
}

// HandleCallback - нажатия кнопок под напоминанием: "done_<id>" сразу пишет
// выполнение, "log_<id>" переводит диалог в режим ввода числа.
func (h *BotHandler) HandleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	defer func() {
		// убираем "часики" на кнопке
		if _, err := h.bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			h.logger.Debug("failed to answer callback", zap.Error(err))
		}
	}()

	data := cb.Data
	userID := cb.From.ID

	switch {
	case strings.HasPrefix(data, "done_"):
		habitID, err := strconv.ParseInt(strings.TrimPrefix(data, "done_"), 10, 64)
		if err != nil {
			return
		}
		log, err := h.habitService.MarkDone(ctx, habitID, userID)
		if err != nil {
			h.logger.Error("failed to mark done", zap.Int64("user_id", userID), zap.Error(err))
			h.reply(cb.Message.Chat.ID, "😔 Не получилось записать, попробуй еще раз.")
			return
		}
		if log.Completed {
			h.reply(cb.Message.Chat.ID, "✅ Записал, так держать!")
		}

	case strings.HasPrefix(data, "log_"):
		habitID := strings.TrimPrefix(data, "log_")
		if _, err := strconv.ParseInt(habitID, 10, 64); err != nil {
			return
		}
		h.stateManager.Set(userID, state.StateEnteringValue, map[string]string{"habit_id": habitID})
		h.reply(cb.Message.Chat.ID, "Сколько получилось сегодня? Введи число.")
	}
}

// HandleTextMessage - ручной ввод значения после нажатия "➕"
func (h *BotHandler) HandleTextMessage(ctx context.Context, msg *tgbotapi.Message) {
	session := h.stateManager.Get(msg.From.ID)
	if session.State != state.StateEnteringValue {
		return
	}

	habitID, err := strconv.ParseInt(session.TempData["habit_id"], 10, 64)
	if err != nil {
		h.stateManager.Reset(msg.From.ID)
		return
	}

	value, err := ParseLogValue(msg.Text)
	if err != nil {
		h.reply(msg.Chat.ID, "⚠️ "+err.Error())
		return
	}

	log, err := h.habitService.LogHabit(ctx, habitID, msg.From.ID, value)
	if err != nil {
		h.logger.Error("failed to log habit",
			zap.Int64("user_id", msg.From.ID),
			zap.Int64("habit_id", habitID),
			zap.Error(err),
		)
		h.reply(msg.Chat.ID, "😔 Не получилось записать, попробуй еще раз.")
		return
	}

	h.stateManager.Reset(msg.From.ID)
	if log.Completed {
		h.reply(msg.Chat.ID, "✅ Цель на сегодня закрыта!")
	} else {
		h.reply(msg.Chat.ID, fmt.Sprintf("Записал %g. Всего за сегодня: %g.", value, log.Value))
	}
}

func (h *BotHandler) HandleUnknownCommand(msg *tgbotapi.Message) {
	h.reply(msg.Chat.ID, "Не знаю такую команду. Попробуй /help.")
}

func (h *BotHandler) reply(chatID int64, text string) {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.logger.Warn("failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

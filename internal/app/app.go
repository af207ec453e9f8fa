package app

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/KuanyshAlmas/TelegramHabitBot/internal/closer"
	"github.com/KuanyshAlmas/TelegramHabitBot/internal/config"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

var (
	configPath   string
	schedulePath string
)

func init() {
	flag.StringVar(&configPath, "config-path", ".env", "path to env file")
	flag.StringVar(&schedulePath, "schedule-path", "config.yaml", "path to schedule config")
}

type App struct {
	serviceProvider *ServiceProvider
	bot             *tgbotapi.BotAPI
}

func NewApp(ctx context.Context) (*App, error) {
	a := &App{}

	err := a.initDeps(ctx)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) Run(ctx context.Context) error {
	defer func() {
		if err := closer.CloseAll(); err != nil {
			a.serviceProvider.Logger().Warn("shutdown errors", zap.Error(err))
		}
	}()

	return a.runTelegramBot(ctx)
}

func (a *App) initDeps(ctx context.Context) error {
	inits := []func(context.Context) error{
		a.initConfig,
		a.initServiceProvider,
		a.initTelegramBot,
		a.initDispatcher,
	}

	for _, f := range inits {
		err := f(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *App) initConfig(context.Context) error {
	err := config.Load(configPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (a *App) initServiceProvider(context.Context) error {
	a.serviceProvider = NewServiceProvider()
	return nil
}

func (a *App) initTelegramBot(ctx context.Context) error {
	bot, err := a.serviceProvider.TelegramBot(ctx)
	if err != nil {
		return err
	}
	a.bot = bot
	return nil
}

func (a *App) initDispatcher(ctx context.Context) error {
	return a.serviceProvider.Dispatcher(ctx).Start(ctx)
}

func (a *App) runTelegramBot(ctx context.Context) error {
	log := a.serviceProvider.Logger()
	botHandler := a.serviceProvider.BotHandler(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := a.bot.GetUpdatesChan(u)

	log.Info("bot is running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ctx.Done():
			log.Info("context canceled, shutting down")
			return nil

		case <-sigChan:
			log.Info("shutting down gracefully")
			return nil

		case update := <-updates:
			if update.Message != nil {
				if update.Message.IsCommand() {
					switch update.Message.Command() {
					case "start":
						botHandler.HandleStart(ctx, update.Message)
					case "help":
						botHandler.HandleHelp(update.Message)
					case "cancel":
						botHandler.HandleCancel(update.Message)
					case "habits":
						botHandler.HandleHabits(ctx, update.Message)
					case "times":
						botHandler.HandleTimes(ctx, update.Message)
					case "join":
						botHandler.HandleJoin(ctx, update.Message)
					case "leaderboard":
						botHandler.HandleLeaderboard(ctx, update.Message)
					default:
						botHandler.HandleUnknownCommand(update.Message)
					}
				} else {
					botHandler.HandleTextMessage(ctx, update.Message)
				}
			}

			if update.CallbackQuery != nil {
				botHandler.HandleCallback(ctx, update.CallbackQuery)
			}
		}
	}
}

package app

import (
	"context"
	"database/sql"
	"os"

	"github.com/KuanyshAlmas/TelegramHabitBot/internal/client/db"
	"github.com/KuanyshAlmas/TelegramHabitBot/internal/client/db/pg"
	"github.com/KuanyshAlmas/TelegramHabitBot/internal/closer"
	"github.com/KuanyshAlmas/TelegramHabitBot/internal/config"
	"github.com/KuanyshAlmas/TelegramHabitBot/internal/config/env"
	"github.com/KuanyshAlmas/TelegramHabitBot/internal/handlers"
	"github.com/KuanyshAlmas/TelegramHabitBot/internal/logger"
	"github.com/KuanyshAlmas/TelegramHabitBot/internal/migrations"
	"github.com/KuanyshAlmas/TelegramHabitBot/internal/repository"
	"github.com/KuanyshAlmas/TelegramHabitBot/internal/services"
	"github.com/KuanyshAlmas/TelegramHabitBot/internal/state"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type ServiceProvider struct {
	pgConfig    config.PGConfig
	botConfig   config.BotConfig
	scheduleCfg *config.ScheduleConfig

	log *zap.Logger

	dbClient db.Client
	storage  *repository.Storage

	clock   services.Clock
	gateway services.Gateway

	habitService    *services.HabitService
	marathonService *services.MarathonService
	notifier        *services.Notifier
	reconciler      *services.Reconciler
	settlement      *services.Settlement
	reporter        *services.Reporter
	dispatcher      *services.Dispatcher

	stateManager *state.StateManager
	botHandler   *handlers.BotHandler

	bot *tgbotapi.BotAPI
}

func NewServiceProvider() *ServiceProvider {
	return &ServiceProvider{}
}

func (s *ServiceProvider) Logger() *zap.Logger {
	if s.log == nil {
		s.log = logger.NewLogger(os.Getenv("LOG_LEVEL") == "debug")
		closer.Add(func() error {
			_ = s.log.Sync()
			return nil
		})
	}
	return s.log
}

func (s *ServiceProvider) PGConfig() config.PGConfig {
	if s.pgConfig == nil {
		pgConfig, err := env.NewPGConfig()
		if err != nil {
			s.Logger().Fatal("failed to get pg config", zap.Error(err))
		}
		s.pgConfig = pgConfig
	}
	return s.pgConfig
}

func (s *ServiceProvider) BotConfig() config.BotConfig {
	if s.botConfig == nil {
		botConfig, err := env.NewBotConfig()
		if err != nil {
			s.Logger().Fatal("failed to get bot config", zap.Error(err))
		}
		s.botConfig = botConfig
	}
	return s.botConfig
}

func (s *ServiceProvider) ScheduleConfig() *config.ScheduleConfig {
	if s.scheduleCfg == nil {
		cfg, err := config.LoadSchedule(schedulePath)
		if err != nil {
			s.Logger().Fatal("failed to load schedule config", zap.Error(err))
		}
		s.scheduleCfg = cfg
	}
	return s.scheduleCfg
}

func (s *ServiceProvider) DBClient(ctx context.Context) db.Client {
	if s.dbClient == nil {
		cl, err := pg.New(ctx, s.PGConfig().DSN())
		if err != nil {
			s.Logger().Fatal("failed to get db client", zap.Error(err))
		}

		if err := migrations.Up(cl.DB()); err != nil {
			s.Logger().Fatal("failed to migrate db", zap.Error(err))
		}

		closer.Add(func() error {
			return cl.Close()
		})
		s.dbClient = cl
	}
	return s.dbClient
}

func (s *ServiceProvider) SQLDB(ctx context.Context) *sql.DB {
	return s.DBClient(ctx).DB()
}

func (s *ServiceProvider) Storage(ctx context.Context) *repository.Storage {
	if s.storage == nil {
		s.storage = repository.NewStorage(s.SQLDB(ctx))
	}
	return s.storage
}

func (s *ServiceProvider) Clock() services.Clock {
	if s.clock == nil {
		s.clock = services.NewSystemClock(s.ScheduleConfig().Location())
	}
	return s.clock
}

func (s *ServiceProvider) Gateway(ctx context.Context) services.Gateway {
	if s.gateway == nil {
		bot, err := s.TelegramBot(ctx)
		if err != nil {
			s.Logger().Fatal("failed to get telegram bot", zap.Error(err))
		}
		s.gateway = services.NewTelegramGateway(bot)
	}
	return s.gateway
}

func (s *ServiceProvider) HabitService(ctx context.Context) *services.HabitService {
	if s.habitService == nil {
		s.habitService = services.NewHabitService(s.Storage(ctx), s.Clock(), s.Logger())
	}
	return s.habitService
}

func (s *ServiceProvider) MarathonService(ctx context.Context) *services.MarathonService {
	if s.marathonService == nil {
		s.marathonService = services.NewMarathonService(s.Storage(ctx), s.Logger())
	}
	return s.marathonService
}

func (s *ServiceProvider) Notifier(ctx context.Context) *services.Notifier {
	if s.notifier == nil {
		s.notifier = services.NewNotifier(
			s.Storage(ctx),
			s.Gateway(ctx),
			s.ScheduleConfig().ResponseWindow(),
			s.Clock(),
			s.Logger(),
		)
	}
	return s.notifier
}

func (s *ServiceProvider) Reconciler(ctx context.Context) *services.Reconciler {
	if s.reconciler == nil {
		s.reconciler = services.NewReconciler(s.Storage(ctx), s.Gateway(ctx), s.Logger())
	}
	return s.reconciler
}

func (s *ServiceProvider) Settlement(ctx context.Context) *services.Settlement {
	if s.settlement == nil {
		s.settlement = services.NewSettlement(s.Storage(ctx), s.Gateway(ctx), s.Logger())
	}
	return s.settlement
}

func (s *ServiceProvider) Reporter(ctx context.Context) *services.Reporter {
	if s.reporter == nil {
		s.reporter = services.NewReporter(s.Storage(ctx), s.Gateway(ctx), s.Logger())
	}
	return s.reporter
}

func (s *ServiceProvider) Dispatcher(ctx context.Context) *services.Dispatcher {
	if s.dispatcher == nil {
		s.dispatcher = services.NewDispatcher(
			s.ScheduleConfig(),
			s.Notifier(ctx),
			s.Reconciler(ctx),
			s.Settlement(ctx),
			s.Reporter(ctx),
			s.Clock(),
			s.Logger(),
		)
		closer.Add(s.dispatcher.Stop)
	}
	return s.dispatcher
}

func (s *ServiceProvider) StateManager() *state.StateManager {
	if s.stateManager == nil {
		s.stateManager = state.NewStateManager()
	}
	return s.stateManager
}

func (s *ServiceProvider) BotHandler(ctx context.Context) *handlers.BotHandler {
	if s.botHandler == nil {
		bot, err := s.TelegramBot(ctx)
		if err != nil {
			s.Logger().Fatal("failed to get telegram bot", zap.Error(err))
		}
		s.botHandler = handlers.NewBotHandler(
			bot,
			s.HabitService(ctx),
			s.MarathonService(ctx),
			s.StateManager(),
			s.Logger(),
		)
	}
	return s.botHandler
}

func (s *ServiceProvider) TelegramBot(ctx context.Context) (*tgbotapi.BotAPI, error) {
	if s.bot == nil {
		bot, err := tgbotapi.NewBotAPI(s.BotConfig().Token())
		if err != nil {
			return nil, err
		}
		bot.Debug = s.BotConfig().Debug()
		s.Logger().Info("bot authorized", zap.String("username", bot.Self.UserName))
		s.bot = bot
	}
	return s.bot, nil
}

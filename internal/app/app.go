// Package app assembles the services, storage and adapters named by a Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/recallbe/recall/internal/agent"
	"github.com/recallbe/recall/internal/calendar"
	"github.com/recallbe/recall/internal/config"
	"github.com/recallbe/recall/internal/database"
	"github.com/recallbe/recall/internal/domain"
	"github.com/recallbe/recall/internal/domain/business"
	"github.com/recallbe/recall/internal/domain/callhistory"
	"github.com/recallbe/recall/internal/domain/messages"
	"github.com/recallbe/recall/internal/domain/scheduling"
	"github.com/recallbe/recall/internal/httpapi"
	"github.com/recallbe/recall/internal/storage/memory"
	"github.com/recallbe/recall/internal/storage/sqlstore"
	"github.com/recallbe/recall/internal/storage/supabase"
	"github.com/recallbe/recall/internal/telephony"
)

// App holds everything a process needs to serve calls.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	DB       *database.DB
	Services domain.Container
	Sessions *agent.Manager
	// LiveKit is nil when telephony credentials are absent.
	LiveKit *telephony.LiveKit

	closers []func() error
}

// Build connects storage, the calendar, the model client and telephony.
// Close releases whatever was opened, including on error paths.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	if err := a.openDatabase(ctx); err != nil {
		a.Close()
		return nil, err
	}

	historyRepo, messageRepo, err := a.repositories()
	if err != nil {
		a.Close()
		return nil, err
	}

	cal, err := a.calendar(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Services = domain.New(domain.Options{
		HistoryRepo: historyRepo,
		MessageRepo: messageRepo,
		Calendar:    cal,
		Profile:     Profile(cfg),
	})

	var phone agent.Phone = agent.NullPhone{Logger: logger}
	if cfg.TelephonyEnabled() {
		a.LiveKit = telephony.NewLiveKit(telephony.LiveKitConfig{
			URL:               cfg.LiveKitURL,
			APIKey:            cfg.LiveKitAPIKey,
			APISecret:         cfg.LiveKitAPISecret,
			OutboundAgentName: cfg.OutboundAgentName,
			DialTimeout:       cfg.DialTimeout,
			BusinessName:      cfg.BusinessName,
		}, logger)
		phone = a.LiveKit
		logger.Info("livekit telephony enabled", "url", cfg.LiveKitURL)
	} else {
		logger.Info("telephony disabled; hang-ups are logged only")
	}

	engine := agent.NewEngine(a.messageClient(), agent.EngineConfig{
		Model:     cfg.LLMModel,
		MaxTokens: int64(cfg.LLMMaxTokens),
		MaxRounds: cfg.LLMMaxToolRounds,
	}, logger)
	a.Sessions = agent.NewManager(engine, agent.Deps{
		Scheduling:        a.Services.Scheduling,
		History:           a.Services.History,
		Messages:          a.Services.Messages,
		Phone:             phone,
		Logger:            logger,
		SchedulingEnabled: a.Services.SchedulingEnabled,
	}, agent.ManagerConfig{
		InboundTemperature:  cfg.InboundTemperature,
		OutboundTemperature: cfg.OutboundTemperature,
	})
	return a, nil
}

// Profile builds the business profile from configuration.
func Profile(cfg config.Config) business.Profile {
	p := business.Default()
	p.Name = cfg.BusinessName
	p.HoursText = cfg.BusinessHours
	p.Phone = cfg.BusinessPhone
	p.Days = cfg.Weekdays()
	p.StartHour = cfg.BusinessStart
	p.EndHour = cfg.BusinessEnd
	p.Location = cfg.Location()
	p.MeetingDuration = cfg.MeetingLength()
	return p
}

// Voice exposes the live call surface for HTTP registration.
func (a *App) Voice() httpapi.Voice {
	v := httpapi.Voice{
		Sessions: a.Sessions,
		Defaults: a.Defaults(),
	}
	if a.LiveKit != nil {
		v.Dialer = a.LiveKit
		v.Dispatcher = a.LiveKit
	}
	return v
}

// Defaults are the trunk and caller ID applied to outbound metadata.
func (a *App) Defaults() telephony.Defaults {
	return telephony.Defaults{TrunkID: a.Config.OutboundTrunkID, CallerID: a.Config.CallerID}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) openDatabase(ctx context.Context) error {
	cfg := a.Config
	if cfg.DatabaseURL == "" || cfg.DatabaseDriver == "" {
		return nil
	}
	db, err := database.Connect(ctx, database.Options{
		Driver:          cfg.DatabaseDriver,
		DSN:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		Logger:          a.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("database migrations: %w", err)
	}
	return nil
}

func (a *App) repositories() (callhistory.Repository, messages.Repository, error) {
	cfg := a.Config
	switch cfg.DataBackend {
	case "memory":
		a.Logger.Info("using in-memory repositories (DATA_BACKEND=memory)")
		return memory.NewCallHistoryRepository(), memory.NewMessageRepository(), nil
	case "postgres", "sqlite":
		if a.DB == nil {
			return nil, nil, fmt.Errorf("%s backend requires database connection", cfg.DataBackend)
		}
		a.Logger.Info("using sql repositories", "backend", cfg.DataBackend, "dialect", string(a.DB.Dialect))
		return sqlstore.NewCallHistoryRepository(a.DB.DB, a.DB.Dialect),
			sqlstore.NewMessageRepository(a.DB.DB, a.DB.Dialect), nil
	case "supabase":
		history, err := supabase.NewCallHistoryRepository(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			return nil, nil, err
		}
		if a.DB != nil {
			a.Logger.Info("using supabase call history with sql messages")
			return history, sqlstore.NewMessageRepository(a.DB.DB, a.DB.Dialect), nil
		}
		a.Logger.Warn("using supabase call history; messages are kept in memory")
		return history, memory.NewMessageRepository(), nil
	default:
		return nil, nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}

func (a *App) calendar(ctx context.Context) (scheduling.Calendar, error) {
	cfg := a.Config
	switch cfg.CalendarBackend {
	case "none":
		a.Logger.Info("no calendar configured; receptionist takes messages only")
		return nil, nil
	case "memory":
		a.Logger.Info("using in-memory calendar (CALENDAR_BACKEND=memory)")
		return memory.NewCalendar(), nil
	case "google":
		g, err := calendar.NewGoogle(ctx, calendar.GoogleConfig{
			CredentialsFile: cfg.GoogleCredentialsFile,
			CalendarID:      cfg.CalendarID,
			Location:        cfg.Location(),
		})
		if err != nil {
			return nil, fmt.Errorf("google calendar: %w", err)
		}
		cached, err := calendar.NewCached(g, cfg.CalendarCacheTTL)
		if err != nil {
			return nil, err
		}
		if c, ok := cached.(*calendar.Cached); ok {
			a.closers = append(a.closers, func() error { c.Close(); return nil })
		}
		a.Logger.Info("using google calendar", "calendar_id", cfg.CalendarID, "cache_ttl", cfg.CalendarCacheTTL)
		return cached, nil
	default:
		return nil, fmt.Errorf("unsupported calendar backend: %s", cfg.CalendarBackend)
	}
}

func (a *App) messageClient() agent.MessageClient {
	if a.Config.LLMDisabled {
		a.Logger.Warn("LLM disabled; sessions answer with a fixed apology")
		return agent.OfflineClient{}
	}
	client := anthropic.NewClient(option.WithAPIKey(a.Config.AnthropicKey))
	return &client.Messages
}

// Package app composes the poll bot from the reusable core packages.
package app

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/jmoiron/sqlx"

	"pollbot/core/bootstrap"
	"pollbot/core/dialog"
	"pollbot/core/logger"
	"pollbot/core/poll"
	coretelegram "pollbot/core/telegram"
	tghelpers "pollbot/core/telegram/helpers"
	"pollbot/core/telegram/router"
	"pollbot/core/telegram/ui"

	tele "gopkg.in/telebot.v4"
)

const msgWelcome = "Welcome to the Poll Bot! To create a poll, use the /poll command."

// App holds the wired bot components.
type App struct {
	cfg      *Config
	db       *sqlx.DB
	sessions *dialog.MemoryStore
	polls    *countingCreator
	engine   *dialog.Engine
	conv     *coretelegram.Conversation
}

// countingCreator tracks how many polls were persisted since startup.
type countingCreator struct {
	inner   poll.Creator
	created atomic.Int64
}

func (c *countingCreator) Create(ctx context.Context, d poll.Draft) (int64, error) {
	id, err := c.inner.Create(ctx, d)
	if err == nil {
		c.created.Add(1)
	}
	return id, err
}

// Bootstrap initializes infrastructure and wires the dialogue engine.
// Without a configured database, finalized polls are kept in memory.
func Bootstrap(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}

	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	var sink poll.Creator
	if res.DB != nil {
		sink = poll.NewPostgresStore(res.DB)
	} else {
		sink = poll.NewMemoryStore()
	}
	polls := &countingCreator{inner: sink}

	sessions := dialog.NewMemoryStore()

	a := &App{
		cfg:      cfg,
		db:       res.DB,
		sessions: sessions,
		polls:    polls,
		engine:   dialog.NewEngine(sessions, polls),
	}
	a.conv = coretelegram.NewConversation(a.engine)
	return a, nil
}

// TelegramRunOptions builds the registry, routes, and middleware chain.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := a.cfg.CoreConfig()
	reg := coretelegram.NewRegistry()

	reg.RegisterCommand("/start", coretelegram.Command{
		Handler:     a.handleStart,
		Description: "Show how to use the bot",
	})
	reg.RegisterCommand("/poll", coretelegram.Command{
		Handler:     a.conv.CommandHandler(dialog.CommandPoll),
		Description: "Create a new poll",
	})
	reg.RegisterCommand("/cancel", coretelegram.Command{
		Handler:     a.conv.CommandHandler(dialog.CommandCancel),
		Description: "Cancel poll creation",
	})
	reg.RegisterCommand("/stats", coretelegram.Command{
		Handler:     a.handleStats,
		Description: "Show bot counters",
		AdminOnly:   true,
		Hidden:      true,
	})

	cb := a.conv.CallbackHandler()
	if err := reg.RegisterCallback(ui.CallbackAnonymous, cb); err != nil {
		return coretelegram.RunOptions{}, err
	}
	if err := reg.RegisterCallback(ui.CallbackLimit, cb); err != nil {
		return coretelegram.RunOptions{}, err
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: core.Telegram.AdminID,
	})
	routes = append(routes,
		router.TextRoute(a.conv, reg, router.TextOptions{}),
		router.CallbackRoute(reg, router.CallbackOptions{}),
	)

	return coretelegram.RunOptions{
		Config:      core,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(core, nil),
		Routes:      routes,
		OnStop: func(ctx context.Context, _ coretelegram.Runtime) error {
			return a.Close()
		},
	}, nil
}

func (a *App) handleStart(c tele.Context) error {
	return tghelpers.SendText(c, msgWelcome)
}

func (a *App) handleStats(c tele.Context) error {
	text := fmt.Sprintf("Active dialogues: %d\nPolls created: %d",
		a.sessions.ActiveCount(), a.polls.created.Load())
	return tghelpers.SendText(c, text)
}

// Close releases infrastructure owned by the app.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	if err != nil {
		logger.DB.Error("db close failed")
		return err
	}
	return nil
}

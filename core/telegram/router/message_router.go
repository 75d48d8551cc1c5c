package router

import (
	"time"

	tg "pollbot/core/telegram"
	"pollbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Dialogue is the minimal interface of an active conversation engine.
// Text updates are diverted to it whenever the chat has a dialogue in flight.
type Dialogue interface {
	InProgress(c tele.Context) bool
	HandleText(c tele.Context) error
}

// TextOptions controls fallback behaviour for text updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc
}

// TextRoute builds the handler for plain text routing: an in-flight dialogue
// wins over the command registry, which wins over the text fallback.
func TextRoute(dlg Dialogue, reg *tg.Registry, opts TextOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if dlg != nil && dlg.InProgress(c) {
			return handleWithSummary(c, "dialogue", start, "", "", func() error {
				return dlg.HandleText(c)
			})
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	return tg.Route{
		Endpoint: tele.OnText,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}

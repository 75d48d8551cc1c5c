// Package ui renders conversation engine instructions into Telegram messages.
package ui

import (
	"fmt"
	"strings"

	"pollbot/core/dialog"
	"pollbot/core/telegram/format"
	"pollbot/core/telegram/helpers"
	"pollbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// Callback uniques for the yes/no dialogue steps.
const (
	CallbackAnonymous = "poll_anon"
	CallbackLimit     = "poll_limit"
)

// RenderInstruction sends the message(s) an instruction describes to the chat
// behind c. Prompts go out as plain text; button prompts attach a single-row
// inline keyboard whose data round-trips back into the engine untouched.
func RenderInstruction(c tele.Context, ins dialog.Instruction) error {
	switch ins.Kind {
	case dialog.InstructionPrompt, dialog.InstructionRetry:
		if len(ins.Buttons) > 0 {
			return helpers.SendText(c, ins.Text, &tele.SendOptions{ReplyMarkup: buttonsMarkup(ins.Buttons)})
		}
		return helpers.SendText(c, ins.Text)
	case dialog.InstructionPromptWithButtons:
		return helpers.SendText(c, ins.Text, &tele.SendOptions{ReplyMarkup: buttonsMarkup(ins.Buttons)})
	case dialog.InstructionPollCreated:
		return helpers.SendMD(c, pollCreatedText(ins))
	}
	return fmt.Errorf("ui: unknown instruction kind %q", ins.Kind)
}

func buttonsMarkup(specs []dialog.ButtonSpec) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(specs))
	for _, s := range specs {
		btns = append(btns, keyboard.InlineBtn{
			Text:   s.Label,
			Unique: uniqueFor(s.Payload),
			Data:   string(s.Payload),
		})
	}
	return keyboard.SingleRow(btns...)
}

func uniqueFor(b dialog.Button) string {
	switch b {
	case dialog.ButtonLimitYes, dialog.ButtonLimitNo:
		return CallbackLimit
	default:
		return CallbackAnonymous
	}
}

func pollCreatedText(ins dialog.Instruction) string {
	var sb strings.Builder
	sb.WriteString("Poll created successfully!\n\n")
	sb.WriteString("*" + escapeMD(ins.Question) + "*")
	sb.WriteString("\n\n")
	for i, opt := range ins.Options {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, escapeMD(opt))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func escapeMD(s string) string {
	escaped, err := format.EscapeMarkdown(s, format.MarkdownV1)
	if err != nil {
		return s
	}
	return escaped
}

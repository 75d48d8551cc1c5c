// Package dialog implements the poll-creation conversation: the dialogue
// states, the transition rules between them, and the per-session draft that
// accumulates across messages. It is transport-agnostic; the Telegram layer
// feeds it events and renders the instructions it returns.
package dialog

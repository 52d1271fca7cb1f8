// Package tghtml provides small helpers for composing Telegram messages
// with ParseMode="HTML":
//   - An H type marking already-escaped HTML
//   - Escaping and tag builders (bold, italic, code, links)
//   - Rune-safe truncation and the message length limit
//
// Design goals:
//   - Safe by default: every interpolated string goes through Esc
//   - Messages stay below Telegram's length limit with balanced tags
package tghtml

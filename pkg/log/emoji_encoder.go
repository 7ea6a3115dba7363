package log

import (
	"fmt"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// emojiMap maps log "type" field values to a leading emoji.
// Helpers in this package set the "type" field so console output stays
// scannable during live trading sessions.
var emojiMap = map[string]string{
	"api":        "🔗",
	"request":    "🌐",
	"success":    "✅",
	"error":      "❌",
	"warning":    "⚠️",
	"database":   "💾",
	"redis":      "📦",
	"rate_limit": "🚦",
	"breaker":    "🔌",
	"retry":      "🔁",
	"idempotent": "🎫",
	"order":      "📈",
	"market":     "💹",
	"alert":      "🔔",
	"account":    "👤",
	"scheduler":  "🎯",
	"startup":    "🚀",
	"security":   "🔒",
	"slow_request": "🐌",
	"cache_stats":  "🧹",
}

// statusEmoji picks an emoji for an HTTP status code
func statusEmoji(status int) string {
	if status >= 500 {
		return "🔴"
	} else if status >= 400 {
		return "🟠"
	} else if status >= 300 {
		return "🟡"
	}
	return "🟢"
}

// EmojiConsoleEncoder wraps zapcore's ConsoleEncoder and prefixes messages
// with an emoji derived from the "type" or "status" field.
type EmojiConsoleEncoder struct {
	zapcore.Encoder
	config zapcore.EncoderConfig
}

// NewEmojiConsoleEncoder creates a console encoder with emoji prefixes
func NewEmojiConsoleEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return &EmojiConsoleEncoder{
		Encoder: zapcore.NewConsoleEncoder(cfg),
		config:  cfg,
	}
}

// EncodeEntry prefixes the message with an emoji, then delegates to the
// wrapped encoder. Priority: status code, then "type" mapping, then level.
func (enc *EmojiConsoleEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	var logType string
	var status int64

	for _, field := range fields {
		if field.Key == "type" && field.Type == zapcore.StringType {
			logType = field.String
		} else if field.Key == "status" && (field.Type == zapcore.Int64Type || field.Type == zapcore.Int32Type) {
			status = field.Integer
		}
	}

	emoji := ""
	if status > 0 {
		emoji = statusEmoji(int(status))
	} else if logType != "" {
		if e, ok := emojiMap[logType]; ok {
			emoji = e
		}
	}

	if emoji == "" {
		switch entry.Level {
		case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
			emoji = "❌"
		case zapcore.WarnLevel:
			emoji = "⚠️"
		case zapcore.InfoLevel:
			emoji = "ℹ️"
		case zapcore.DebugLevel:
			emoji = "🐛"
		}
	}

	if emoji != "" {
		entry.Message = emoji + " " + entry.Message
	}

	return enc.Encoder.EncodeEntry(entry, fields)
}

// Clone clones the encoder (used internally by Zap)
func (enc *EmojiConsoleEncoder) Clone() zapcore.Encoder {
	return &EmojiConsoleEncoder{
		Encoder: enc.Encoder.Clone(),
		config:  enc.config,
	}
}

// AddEmojiToMap registers a custom type-to-emoji mapping
func AddEmojiToMap(logType, emoji string) {
	emojiMap[logType] = emoji
}

// GetEmojiMap returns a copy of the current emoji mapping
func GetEmojiMap() map[string]string {
	result := make(map[string]string, len(emojiMap))
	for k, v := range emojiMap {
		result[k] = v
	}
	return result
}

// formatDuration renders a millisecond duration as 1ms, 150ms, 2.5s
func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	seconds := float64(ms) / 1000.0
	return fmt.Sprintf("%.1fs", seconds)
}

// Package debug gates verbose diagnostics by subsystem category.
//
// Categories name subsystems: prefs, storage, coach, auth, transport, mcp,
// config. "all" enables every category. They come from the debug.categories
// config key or the VORRAT_DEBUG environment variable (comma separated; the
// environment wins, so a deployed binary can be inspected without touching
// its config file). VORRAT_LOG_LEVEL selects the slog level; TRACE sits
// below DEBUG and additionally dumps full stored values.
//
//	debug.Log("prefs", "put", "scope", scope, "key", key)
//	debug.Trace("prefs", "put value", "value", string(raw))
package debug

import (
	"log/slog"
	"os"
	"strings"
)

// LevelTrace is one notch below slog.LevelDebug. Records at this level
// carry untruncated values and never belong in production logs.
const LevelTrace = slog.LevelDebug - 4

// enabled is written once by init/Init and read everywhere after.
var enabled map[string]struct{}

func init() {
	enabled = splitCategories(os.Getenv("VORRAT_DEBUG"))
}

// Init applies the configured categories and log level, with environment
// variables taking precedence. It replaces the default slog handler, so
// call it before anything logs.
func Init(categories, level string) {
	if env := os.Getenv("VORRAT_DEBUG"); env != "" {
		categories = env
	}
	enabled = splitCategories(categories)

	if env := os.Getenv("VORRAT_LOG_LEVEL"); env != "" {
		level = env
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: Level(level),
	})))
}

// Enabled reports whether the category emits debug output.
func Enabled(category string) bool {
	if _, ok := enabled["all"]; ok {
		return true
	}
	_, ok := enabled[category]
	return ok
}

// Log emits one DEBUG record when the category is enabled.
func Log(category, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// Trace emits one TRACE record when the category is enabled. The record
// only surfaces when the handler level is TRACE as well.
func Trace(category, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Log(nil, LevelTrace, msg, append([]any{"debug", category}, args...)...)
}

// Level maps a config string to a slog.Level. Unknown or empty strings
// mean INFO.
func Level(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitCategories(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, cat := range strings.Split(s, ",") {
		cat = strings.ToLower(strings.TrimSpace(cat))
		if cat != "" {
			set[cat] = struct{}{}
		}
	}
	return set
}

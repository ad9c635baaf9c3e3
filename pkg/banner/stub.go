package banner

import (
	"fmt"
)

// Console methods usable in stub scripts.
const (
	LevelLog   = "log"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// NoopScript returns a script consisting of a single console call. It is
// served on every path that must not render a banner, so it has to parse
// as valid JavaScript whatever msg contains.
func NoopScript(level, msg string) string {
	switch level {
	case LevelLog, LevelInfo, LevelWarn, LevelError:
	default:
		level = LevelLog
	}
	return fmt.Sprintf("console.%s(%s);\n", level, jsString("[consent-banner] "+msg))
}

// InactiveScript is served (and cached) for banners that are switched off.
func InactiveScript(id string) string {
	return NoopScript(LevelInfo, fmt.Sprintf("banner %s is inactive", id))
}

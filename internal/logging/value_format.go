package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// attrString renders v without quoting, for values lifted into the console
// subject (component, run id, stage).
func attrString(v slog.Value) string {
	return valueText(v.Resolve())
}

// formatValue renders v for a key=value console field, quoting text that
// would otherwise be ambiguous.
func formatValue(v slog.Value) string {
	v = v.Resolve()
	text := valueText(v)
	switch v.Kind() {
	case slog.KindString, slog.KindAny:
		if needsQuotes(text) {
			return strconv.Quote(text)
		}
	}
	return text
}

func valueText(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		// Sub-microsecond digits are noise for frame timings.
		return v.Duration().Round(time.Microsecond).String()
	case slog.KindTime:
		return v.Time().In(time.Local).Format(logTimestampLayout)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

func needsQuotes(s string) bool {
	return s == "" || strings.IndexFunc(s, func(r rune) bool {
		return r <= ' ' || r == '=' || r == '"'
	}) >= 0
}

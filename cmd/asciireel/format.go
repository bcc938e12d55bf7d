package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	numberPrinter = message.NewPrinter(language.English)
	titleCaser    = cases.Title(language.Und)
)

func formatCount(n int64) string {
	return numberPrinter.Sprintf("%d", n)
}

func formatFPS(fps float64) string {
	text := numberPrinter.Sprintf("%.3f", fps)
	text = strings.TrimRight(text, "0")
	return strings.TrimSuffix(text, ".")
}

func formatElapsed(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(10 * time.Millisecond).String()
	}
}

func titleCase(value string) string {
	return titleCaser.String(strings.ReplaceAll(value, "_", " "))
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}

func printElapsed(out io.Writer, started time.Time) {
	fmt.Fprintf(out, "Command completed in: %s\n", formatElapsed(time.Since(started)))
}

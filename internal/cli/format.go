// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/theirongolddev/cbudget/internal/model"
)

// Currency is the symbol prepended to money amounts.
var Currency = "€"

// FormatMoney formats an amount with thousands separators and two decimals.
// e.g., 1234.5 -> "€1,234.50", -80 -> "-€80.00"
func FormatMoney(v float64) string {
	if v < 0 && math.Round(v*100) != 0 {
		return "-" + FormatMoney(-v)
	}
	return Currency + humanize.FormatFloat("#,###.##", math.Abs(v))
}

// FormatSignedMoney formats an amount with an explicit sign.
func FormatSignedMoney(v float64) string {
	if v >= 0 {
		return "+" + FormatMoney(v)
	}
	return FormatMoney(v)
}

// FormatCompactMoney formats large amounts with an SI suffix.
// e.g., 1234567 -> "€1.2M"
func FormatCompactMoney(v float64) string {
	if math.Abs(v) < 10_000 {
		return FormatMoney(v)
	}
	value, prefix := humanize.ComputeSI(v)
	return Currency + humanize.Ftoa(math.Round(value*10)/10) + prefix
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatPercent formats a value already expressed in percent.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// FormatSignedPercent formats a variation with an explicit sign.
func FormatSignedPercent(p float64) string {
	if p >= 0 {
		return fmt.Sprintf("+%.1f%%", p)
	}
	return fmt.Sprintf("%.1f%%", p)
}

// FormatVariation formats a period-over-period variation, or "n/a" when
// the previous period holds no data.
func FormatVariation(p float64, hasPrevious bool) string {
	if !hasPrevious {
		return "n/a"
	}
	return FormatSignedPercent(p)
}

// FormatDirection renders a trend direction with an arrow.
func FormatDirection(d model.Direction) string {
	switch d {
	case model.Up:
		return "↑ up"
	case model.Down:
		return "↓ down"
	}
	return "→ stable"
}

// FormatMonth renders a month as "Mar 2025".
func FormatMonth(year, month int) string {
	if month < 1 || month > 12 {
		return fmt.Sprintf("%04d", year)
	}
	return fmt.Sprintf("%s %04d", monthAbbrev[month-1], year)
}

var monthAbbrev = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// FormatPeriod renders a period selection for titles.
func FormatPeriod(p model.Period) string {
	if p.IsYear() {
		return fmt.Sprintf("Year %04d", p.Year)
	}
	return FormatMonth(p.Year, p.Month)
}

// Humanize turns a snake_case identifier into a label.
// e.g., "savings_rate" -> "Savings rate"
func Humanize(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

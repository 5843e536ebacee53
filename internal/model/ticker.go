package model

import (
	"fmt"
	"strings"
	"time"
)

// NormalizeTicker uppercases a symbol and replaces "." with "-" so that
// class-share tickers match the form providers index them under
// (BRK.B -> BRK-B).
func NormalizeTicker(ticker string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(ticker)), ".", "-")
}

// Period identifies the reporting period kind of a metrics snapshot.
type Period string

const (
	PeriodTTM    Period = "ttm"
	PeriodAnnual Period = "annual"
	PeriodQ1     Period = "Q1"
	PeriodQ2     Period = "Q2"
	PeriodQ3     Period = "Q3"
	PeriodQ4     Period = "Q4"
)

// ParsePeriod validates a provider-supplied period string.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodTTM, PeriodAnnual, PeriodQ1, PeriodQ2, PeriodQ3, PeriodQ4:
		return Period(s), nil
	}
	return "", fmt.Errorf("unknown period kind %q", s)
}

// DateLayout is the wire format for all dates handled by the pipeline.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string to a UTC-midnight time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a time as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

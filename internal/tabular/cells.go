package tabular

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrEmptyCell is returned by the parse helpers for a blank value.
var ErrEmptyCell = errors.New("empty value")

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
	"2006-1-2",
	"2006.01.02",
	"2006.1.2",
	"2006年1月2日",
}

var timeSuffixes = []string{"", " 15:04", " 15:04:05"}

// ParseFloat accepts plain decimals plus thousands separators and a leading yen sign.
// NaN and infinities are rejected.
func ParseFloat(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "¥")
	s = strings.TrimPrefix(s, "￥")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, ErrEmptyCell
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("not a number")
	}
	return value, nil
}

// ParseInt accepts whole numbers, including ones written as "3.0".
func ParseInt(raw string) (int, error) {
	value, err := ParseFloat(raw)
	if err != nil {
		return 0, err
	}
	if value != float64(int(value)) {
		return 0, fmt.Errorf("not a whole number")
	}
	return int(value), nil
}

// ParseDate accepts ISO and common Japanese date spellings, optionally with a
// time of day, and RFC 3339 timestamps.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, ErrEmptyCell
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range dateLayouts {
		for _, suffix := range timeSuffixes {
			if t, err := time.ParseInLocation(layout+suffix, s, time.UTC); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("not a date")
}

// ParseBool accepts the usual true/false spellings plus ○/済 markers.
func ParseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "0", "false", "no", "n", "×", "未":
		return false, nil
	case "1", "true", "yes", "y", "○", "済":
		return true, nil
	}
	return false, fmt.Errorf("not a boolean")
}

// FormatFloat writes v with the shortest representation that round-trips.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Package normalize turns heterogeneous stored values into canonical forms:
// instants, published dates and comparison keys for titles and names.
package normalize

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// layouts accepted for string timestamps, tried in order.
//
//nolint:gochecknoglobals // Static parse table
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// Epoch numbers above this are milliseconds; below are seconds.
// 1e11 seconds is the year 5138, 1e11 milliseconds is 1973.
const millisThreshold = 1e11

// Time converts a stored timestamp into a UTC instant. It accepts time.Time,
// RFC 3339 and date-only strings, epoch seconds or milliseconds as numbers or
// numeric strings, and objects shaped like {"seconds": s, "nanoseconds": n}
// (also with leading underscores). The second result is false when raw is
// empty or unrecognised.
func Time(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return v.UTC(), !v.IsZero()
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return v.UTC(), !v.IsZero()
	case string:
		return parseTimeString(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromEpoch(f)
	case float64:
		return fromEpoch(v)
	case float32:
		return fromEpoch(float64(v))
	case int:
		return fromEpoch(float64(v))
	case int64:
		return fromEpoch(float64(v))
	case map[string]any:
		return fromSecondsObject(v)
	default:
		return time.Time{}, false
	}
}

func parseTimeString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromEpoch(f)
	}
	return time.Time{}, false
}

func fromEpoch(f float64) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return time.Time{}, false
	}
	if f >= millisThreshold {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
}

func fromSecondsObject(m map[string]any) (time.Time, bool) {
	secRaw, ok := m["seconds"]
	if !ok {
		secRaw, ok = m["_seconds"]
	}
	if !ok {
		return time.Time{}, false
	}
	sec, ok := number(secRaw)
	if !ok {
		return time.Time{}, false
	}
	nanoRaw, ok := m["nanoseconds"]
	if !ok {
		nanoRaw = m["_nanoseconds"]
	}
	nanos, _ := number(nanoRaw)
	return time.Unix(int64(sec), int64(nanos)).UTC(), true
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// IsTimestampField reports whether a document key names a timestamp:
// snake_case keys ending in "_at" or camelCase keys ending in "At".
func IsTimestampField(key string) bool {
	return strings.HasSuffix(key, "_at") || (len(key) > 2 && strings.HasSuffix(key, "At"))
}

// TimestampFields rewrites every timestamp-named field of a decoded JSON
// document, at any depth, to an RFC 3339 string. Unrecognised values become
// nil so typed decoding never sees a foreign representation.
func TimestampFields(doc map[string]any) {
	for k, v := range doc {
		if IsTimestampField(k) {
			if v == nil {
				continue
			}
			if t, ok := Time(v); ok {
				doc[k] = t.Format(time.RFC3339Nano)
			} else {
				doc[k] = nil
			}
			continue
		}
		walkTimestamps(v)
	}
}

func walkTimestamps(v any) {
	switch x := v.(type) {
	case map[string]any:
		TimestampFields(x)
	case []any:
		for _, item := range x {
			walkTimestamps(item)
		}
	}
}

//nolint:gochecknoglobals // Compiled once
var (
	yearOnly  = regexp.MustCompile(`^\d{4}$`)
	yearMonth = regexp.MustCompile(`^(\d{4})-(\d{1,2})$`)
	fullDate  = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})`)
)

// PublishedDate canonicalises a publication date to YYYY, YYYY-MM or
// YYYY-MM-DD. Free-form values ("March 2004", "c1999") are trimmed and kept.
func PublishedDate(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return ""
	case yearOnly.MatchString(s):
		return s
	case yearMonth.MatchString(s):
		m := yearMonth.FindStringSubmatch(s)
		return m[1] + "-" + pad2(m[2])
	case fullDate.MatchString(s):
		m := fullDate.FindStringSubmatch(s)
		return m[1] + "-" + pad2(m[2]) + "-" + pad2(m[3])
	}
	for _, layout := range []string{"January 2, 2006", "Jan 2, 2006", "January 2006", "Jan 2006", "2 January 2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			if strings.Contains(layout, "2,") || strings.HasPrefix(layout, "2 ") {
				return t.Format("2006-01-02")
			}
			return t.Format("2006-01")
		}
	}
	return s
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// Spaces trims s and collapses internal whitespace runs to one space.
func Spaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Key is the comparison form of a title or author: NFKC-normalized,
// case-folded and whitespace-collapsed. Two strings are "the same" for
// duplicate detection when their keys are equal.
func Key(s string) string {
	if s == "" {
		return ""
	}
	return Spaces(cases.Fold().String(norm.NFKC.String(s)))
}

// IndexFold returns the byte range of the first case-insensitive occurrence
// of sub in s, or -1, -1. Offsets index s itself, so the range can slice the
// original display string even when case mapping changes byte lengths.
func IndexFold(s, sub string) (int, int) {
	if sub == "" {
		return -1, -1
	}
	width := utf8.RuneCountInString(sub)
	for start := 0; start < len(s); {
		end := start
		for n := 0; n < width && end < len(s); n++ {
			_, size := utf8.DecodeRuneInString(s[end:])
			end += size
		}
		if strings.EqualFold(s[start:end], sub) {
			return start, end
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		start += size
	}
	return -1, -1
}

// ContainsFold reports whether sub occurs in s ignoring case.
func ContainsFold(s, sub string) bool {
	start, _ := IndexFold(s, sub)
	return start >= 0
}

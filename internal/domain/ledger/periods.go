package ledger

import (
	"fmt"
	"time"
)

type Bucket string

const (
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

// KeyLayout formats every bucket key as the bucket's first civil date.
const KeyLayout = "2006-01-02"

var Buckets = []Bucket{BucketDay, BucketWeek, BucketMonth}

func ParseBucket(s string) (Bucket, error) {
	switch b := Bucket(s); b {
	case BucketDay, BucketWeek, BucketMonth:
		return b, nil
	case "today":
		return BucketDay, nil
	}
	return "", fmt.Errorf("unknown bucket %q", s)
}

// Keys holds the bucket keys that are current at one instant.
type Keys struct {
	Day   string
	Week  string
	Month string
}

func (k Keys) For(b Bucket) string {
	switch b {
	case BucketWeek:
		return k.Week
	case BucketMonth:
		return k.Month
	default:
		return k.Day
	}
}

// KeysAt computes the day, ISO week (Monday) and month keys for t in loc.
func KeysAt(t time.Time, loc *time.Location) Keys {
	day := startOfDay(t, loc)
	offset := (int(day.Weekday()) + 6) % 7
	week := day.AddDate(0, 0, -offset)
	month := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, loc)

	return Keys{
		Day:   day.Format(KeyLayout),
		Week:  week.Format(KeyLayout),
		Month: month.Format(KeyLayout),
	}
}

// PreviousMonth returns the key of the month before the one containing t.
func PreviousMonth(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return first.AddDate(0, -1, 0).Format(KeyLayout)
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

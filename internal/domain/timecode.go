package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrBadSceneName reports a granule identifier without a parseable
// start-of-scan marker.
var ErrBadSceneName = errors.New("scene name has no parseable start-of-scan marker")

// sceneTimeRe matches the start-of-scan marker embedded in GOES granule names:
// "_s" followed by YYYYDDDHHMMSS and an optional tenth-of-second digit.
var sceneTimeRe = regexp.MustCompile(`_s(\d{4})(\d{3})(\d{2})(\d{2})(\d{2})\d?`)

// ParseSceneTime extracts the start-of-scan timestamp from a granule
// identifier (a bare name or a full path/object key both work). The result is
// UTC. Returns an error wrapping [ErrBadSceneName] when the marker is absent
// or its fields are out of range; callers must not fall back to a default,
// because a mis-decoded scene time silently corrupts window computation.
func ParseSceneTime(name string) (time.Time, error) {
	m := sceneTimeRe.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadSceneName, name)
	}

	year := mustAtoi(m[1])
	doy := mustAtoi(m[2])
	hour := mustAtoi(m[3])
	min := mustAtoi(m[4])
	sec := mustAtoi(m[5])

	if hour > 23 || min > 59 || sec > 59 {
		return time.Time{}, fmt.Errorf("%w: time of day out of range in %q", ErrBadSceneName, name)
	}

	// Day-of-year 1 is January 1st: add doy-1 days to the start of the year.
	t := time.Date(year, time.January, 1, hour, min, sec, 0, time.UTC)
	return t.AddDate(0, 0, doy-1), nil
}

// EncodeSceneTime renders t as the sYYYYDDDHHMMSS marker used in granule
// names, without the trailing tenth-of-second digit.
func EncodeSceneTime(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("s%04d%03d%02d%02d%02d",
		t.Year(), t.YearDay(), t.Hour(), t.Minute(), t.Second())
}

// mustAtoi converts a digits-only regexp submatch; the pattern guarantees it parses.
func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		panic(err)
	}
	return n
}

package models

import (
	"regexp"
	"strconv"
	"time"

	apperrors "discord-giveaways/internal/common/errors"
)

// durationGrammar accepts strings like "1d 2h 3m 4s", "10m", "1d 30s". Every
// group is optional, so an explicit emptiness check below rejects degenerate
// matches.
var durationGrammar = regexp.MustCompile(`^(\d+d)?\s?(((\d+h)\s?(\d+m))?|\d+h|\d+m)\s?(\d+s)?$`)

var (
	daysPattern    = regexp.MustCompile(`(\d+)d`)
	hoursPattern   = regexp.MustCompile(`(\d+)h`)
	minutesPattern = regexp.MustCompile(`(\d+)m`)
	secondsPattern = regexp.MustCompile(`(\d+)s`)
)

// ParseDuration converts a duration string in the giveaway grammar into a
// time.Duration. Empty input and strings with no recognized component are
// rejected.
func ParseDuration(input string) (time.Duration, error) {
	if input == "" || !durationGrammar.MatchString(input) {
		return 0, apperrors.Newf(apperrors.ErrCodeInvalidDuration, "invalid duration string %q", input).
			WithDetail("input", input)
	}

	var ms int64
	var matched bool

	for _, unit := range []struct {
		pattern *regexp.Regexp
		factor  int64
	}{
		{daysPattern, 86400000},
		{hoursPattern, 3600000},
		{minutesPattern, 60000},
		{secondsPattern, 1000},
	} {
		groups := unit.pattern.FindStringSubmatch(input)
		if groups == nil {
			continue
		}
		value, err := strconv.ParseInt(groups[1], 10, 64)
		if err != nil {
			return 0, apperrors.Wrapf(err, apperrors.ErrCodeInvalidDuration, "invalid duration string %q", input)
		}
		ms += value * unit.factor
		matched = true
	}

	if !matched {
		return 0, apperrors.Newf(apperrors.ErrCodeInvalidDuration, "invalid duration string %q", input).
			WithDetail("input", input)
	}

	return time.Duration(ms) * time.Millisecond, nil
}

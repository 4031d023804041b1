package tradedesk

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidPeriod is returned when a period identifier cannot be
	// resolved to a duration.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrIncompatiblePeriods is returned when a target period is not an
	// exact multiple of a base period.
	ErrIncompatiblePeriods = errors.New("incompatible periods")

	// ErrNoCompatibleBasePeriod is returned when no base period can be
	// chosen from the supported set.
	ErrNoCompatibleBasePeriod = errors.New("no compatible base period")
)

// Period identifies a fixed candle duration. Supported forms are SECOND,
// minute multiples like 1MINUTE, 5MINUTE or 15MINUTE, and hour multiples
// like HOUR or 4HOUR.
type Period string

const (
	PeriodSecond   Period = "SECOND"
	Period1Minute  Period = "1MINUTE"
	Period5Minute  Period = "5MINUTE"
	Period15Minute Period = "15MINUTE"
	Period30Minute Period = "30MINUTE"
	PeriodHour     Period = "HOUR"
)

// DefaultSupportedPeriods are the broker chart scales assumed to be
// available when no explicit set is given.
var DefaultSupportedPeriods = []Period{
	PeriodSecond,
	Period1Minute,
	Period5Minute,
	PeriodHour,
}

func (p Period) normalize() string {
	return strings.ToUpper(strings.TrimSpace(string(p)))
}

func (p Period) String() string {
	return p.normalize()
}

// Duration resolves the period to its fixed duration.
func (p Period) Duration() (time.Duration, error) {
	normalized := p.normalize()

	switch {
	case normalized == "SECOND":
		return time.Second, nil
	case normalized == "HOUR":
		return time.Hour, nil
	case strings.HasSuffix(normalized, "HOUR"):
		multiple, err := strconv.Atoi(strings.TrimSuffix(normalized, "HOUR"))
		if err != nil || multiple <= 0 {
			return 0, fmt.Errorf("%w: [%v]", ErrInvalidPeriod, p)
		}

		return time.Duration(multiple) * time.Hour, nil
	case strings.HasSuffix(normalized, "MINUTE"):
		multiple, err := strconv.Atoi(strings.TrimSuffix(normalized, "MINUTE"))
		if err != nil || multiple <= 0 {
			return 0, fmt.Errorf("%w: [%v]", ErrInvalidPeriod, p)
		}

		return time.Duration(multiple) * time.Minute, nil
	}

	return 0, fmt.Errorf("%w: [%v]", ErrInvalidPeriod, p)
}

// BucketStart computes the start of the period-aligned bucket containing
// the given instant. Buckets are anchored to the UTC epoch so all
// instruments and all periods share the same global grid.
func BucketStart(instant time.Time, period Period) (time.Time, error) {
	duration, err := period.Duration()
	if err != nil {
		return time.Time{}, err
	}

	durationMs := duration.Milliseconds()
	instantMs := instant.UnixMilli()

	remainder := instantMs % durationMs
	if remainder < 0 {
		remainder += durationMs
	}

	return time.UnixMilli(instantMs - remainder).UTC(), nil
}

// PeriodFactor returns how many base periods fit into the target period.
// The target must be an exact multiple of the base.
func PeriodFactor(basePeriod, targetPeriod Period) (int, error) {
	baseDuration, err := basePeriod.Duration()
	if err != nil {
		return 0, err
	}

	targetDuration, err := targetPeriod.Duration()
	if err != nil {
		return 0, err
	}

	if baseDuration > targetDuration ||
		targetDuration%baseDuration != 0 {
		return 0, fmt.Errorf(
			"%w: target [%v] is not a multiple of base [%v]",
			ErrIncompatiblePeriods,
			targetPeriod,
			basePeriod,
		)
	}

	return int(targetDuration / baseDuration), nil
}

// ChooseBasePeriod picks the coarsest base period that can build the given
// target period from the supported set. Larger bases are preferred to
// minimize the update frequency: hour scale first, then 5MINUTE, then
// 1MINUTE, with SECOND as the last resort.
func ChooseBasePeriod(
	targetPeriod Period,
	supportedPeriods []Period,
) (Period, error) {
	if len(supportedPeriods) == 0 {
		return "", fmt.Errorf(
			"%w: empty supported set for target [%v]",
			ErrNoCompatibleBasePeriod,
			targetPeriod,
		)
	}

	targetDuration, err := targetPeriod.Duration()
	if err != nil {
		return "", err
	}

	candidates := []Period{PeriodHour, Period5Minute, Period1Minute, PeriodSecond}

	for _, candidate := range candidates {
		if !containsPeriod(supportedPeriods, candidate) {
			continue
		}

		candidateDuration, _ := candidate.Duration()

		if targetDuration >= candidateDuration &&
			targetDuration%candidateDuration == 0 {
			return candidate, nil
		}
	}

	return "", fmt.Errorf(
		"%w: target [%v] with supported set %v",
		ErrNoCompatibleBasePeriod,
		targetPeriod,
		supportedPeriods,
	)
}

func containsPeriod(periods []Period, period Period) bool {
	expected, err := period.Duration()
	if err != nil {
		return false
	}

	for _, candidate := range periods {
		duration, err := candidate.Duration()
		if err != nil {
			continue
		}

		if duration == expected {
			return true
		}
	}

	return false
}

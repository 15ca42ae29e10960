package rating

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidRating = errors.New("invalid rating value")

const (
	MinScore = 0.0
	MaxScore = 10.0
)

// Validate parses a raw submission value and normalizes it to the engine's
// two-decimal score domain. Out-of-range values are rejected, never clamped.
// No side effects; callers may retry freely.
func Validate(raw any) (float64, error) {
	value, err := parseScore(raw)
	if err != nil {
		return 0, err
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, ErrInvalidRating
	}
	if value < MinScore || value > MaxScore {
		return 0, ErrInvalidRating
	}

	return Round2(value), nil
}

func parseScore(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, ErrInvalidRating
		}
		return parsed, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, ErrInvalidRating
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, ErrInvalidRating
		}
		return parsed, nil
	case nil:
		return 0, ErrInvalidRating
	default:
		return 0, ErrInvalidRating
	}
}

// Round2 rounds half-up to two decimal places. The epsilon compensates for
// decimal inputs that sit just below the .xx5 midpoint in binary, so 5.555
// rounds to 5.56 rather than 5.55.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5+1e-9) / 100
}

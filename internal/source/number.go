package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrNotNumeric = errors.New("not_numeric")

// ToInt64 normalizes a decoded JSON scalar into a native int64.
// Null and empty strings are absent. Integral floats such as "12.0" are accepted.
func ToInt64(value any) (*int64, error) {
	text, ok, err := numericText(value)
	if err != nil || !ok {
		return nil, err
	}

	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return &n, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, text)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("%w: %q is not an integer", ErrNotNumeric, text)
	}
	n := int64(f)
	return &n, nil
}

// ToFloat64 normalizes a decoded JSON scalar into a native float64.
func ToFloat64(value any) (*float64, error) {
	text, ok, err := numericText(value)
	if err != nil || !ok {
		return nil, err
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, text)
	}
	return &f, nil
}

// ToString returns nil for null and blank values.
func ToString(value any) *string {
	var text string
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		text = v
	case json.Number:
		text = v.String()
	case bool:
		text = strconv.FormatBool(v)
	default:
		text = fmt.Sprint(v)
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return &text
}

func numericText(value any) (string, bool, error) {
	switch v := value.(type) {
	case nil:
		return "", false, nil
	case json.Number:
		return v.String(), true, nil
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return "", false, nil
		}
		return text, true, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true, nil
	case int64:
		return strconv.FormatInt(v, 10), true, nil
	case int:
		return strconv.Itoa(v), true, nil
	default:
		return "", false, fmt.Errorf("%w: %T", ErrNotNumeric, value)
	}
}

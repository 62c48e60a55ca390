package ui

import (
	"fmt"
	"strings"

	"github.com/SimonSchneider/goslu/date"
)

func ParseDate(val string) (date.Date, error) {
	d, err := date.ParseDate(strings.TrimSpace(val))
	if err != nil {
		return 0, fmt.Errorf("parsing date %q: %w", val, err)
	}
	return d, nil
}

func ParseNullableDate(val string) (*date.Date, error) {
	if strings.TrimSpace(val) == "" {
		return nil, nil
	}
	d, err := ParseDate(val)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ParseList splits a comma separated value, dropping empty items.
func ParseList(val string) ([]string, error) {
	var out []string
	for _, s := range strings.Split(val, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func OrDefault[T any](val *T, def T) T {
	if val == nil {
		return def
	}
	return *val
}

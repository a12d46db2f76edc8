package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration accepts either a Go duration string ("30s", "5m") or a number of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if unquoted := strings.Trim(raw, `"'`); unquoted != raw {
		parsed, err := time.ParseDuration(unquoted)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid duration %s", raw)
	}
	*d = Duration(seconds * float64(time.Second))
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

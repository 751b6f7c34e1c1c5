package ops

import (
	"time"

	"github.com/yanun0323/errors"
)

// Duration is a time.Duration written as a Go duration string ("30s", "1m30s").
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(string(b))
	if err != nil {
		return errors.Wrap(err, "parse duration").With("value", string(b))
	}
	*d = Duration(parsed)
	return nil
}

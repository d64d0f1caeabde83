// internal/app/features/announcements/timestamp.go
package announcements

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Layouts accepted for announcement dates. Values without a zone are UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

var errBadTimestamp = errors.New("invalid datetime format")

// ParseTimestamp parses s with the accepted layouts and returns it in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errBadTimestamp
}

// timestamp is a JSON date that remembers whether it was present and
// non-null in the payload.
type timestamp struct {
	Time time.Time
	Set  bool
}

func (ts *timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*ts = timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errBadTimestamp
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*ts = timestamp{Time: t, Set: true}
	return nil
}

func (ts timestamp) ptr() *time.Time {
	if !ts.Set {
		return nil
	}
	t := ts.Time
	return &t
}

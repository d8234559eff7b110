package sources

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

var looseLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseLooseTimestamp accepts RFC 3339 and the zone-less variants some
// aggregators emit. Zone-less values are taken as UTC.
func parseLooseTimestamp(v string) *time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	for _, layout := range looseLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// unixOrString decodes a timestamp sent either as unix seconds or as a string.
type unixOrString struct {
	t *time.Time
}

func (u *unixOrString) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		if v > 0 {
			t := time.Unix(int64(v), 0).UTC()
			u.t = &t
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			t := time.Unix(n, 0).UTC()
			u.t = &t
			return nil
		}
		u.t = parseLooseTimestamp(v)
	}
	return nil
}

package cli

import (
	"fmt"
	"time"
)

// parseTimeFlag accepts either a bare date or a full RFC3339 timestamp.
func parseTimeFlag(flag, value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s value %q: expected YYYY-MM-DD or RFC3339", flag, value)
	}
	return t.UTC(), nil
}

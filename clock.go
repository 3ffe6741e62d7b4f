package asr

import (
	"time"
)

// Clock supplies the current time. Every timestamp comparison in the registry
// goes through an injected Clock so tests can steer expiry and
// reverification boundaries deterministically.
type Clock func() time.Time

// Now returns the current time according to the clock. A nil Clock falls
// back to time.Now.
func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

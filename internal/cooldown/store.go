// Package cooldown persists per-session trigger firing times and answers
// whether a trigger is currently suppressed.
package cooldown

import (
	"time"

	"github.com/theirongolddev/cgate/internal/trigger"
)

// Policy selects how firings are keyed within a session.
type Policy int

const (
	// PolicyGlobal keeps one marker per session: any firing suppresses
	// the whole session for the window. Used by the usage gate.
	PolicyGlobal Policy = iota
	// PolicyPerTrigger keeps independent markers per trigger type, so a
	// synthesis firing does not suppress a later branch-point firing.
	// Used by the semantic gate.
	PolicyPerTrigger
)

// String returns the config-facing name of the policy.
func (p Policy) String() string {
	if p == PolicyPerTrigger {
		return "per-trigger"
	}
	return "global"
}

// Store records trigger firings and answers suppression queries. Each key
// is (session, trigger type) under PolicyPerTrigger and just (session)
// under PolicyGlobal. Implementations tolerate concurrent invocations
// racing on the same key; a double fire under a race is acceptable.
type Store interface {
	// Policy reports which key shape this store was configured with.
	Policy() Policy

	// IsSuppressed reports whether the key fired within the window before
	// now. Read failures report false so storage trouble never swallows a
	// legitimate block.
	IsSuppressed(sessionID string, t trigger.Type, window time.Duration, now time.Time) bool

	// RecordFire unconditionally overwrites the key's marker with now.
	RecordFire(sessionID string, t trigger.Type, now time.Time) error
}

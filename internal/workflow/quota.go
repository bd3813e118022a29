package workflow

import (
	"sync"

	"github.com/jmallet/capgen/internal/session"
)

// GuestQuotaGuard tracks whether an anonymous user has consumed the one
// free generation this process allows. The flag only ever moves from
// false to true; a new process starts fresh. The guard is advisory: the
// service enforces the same limit authoritatively and the classifier
// reconciles its rejection into OutcomeQuotaExceeded.
type GuestQuotaGuard struct {
	mu   sync.Mutex
	used bool
}

// MayGenerate reports whether a generation may be dispatched for this
// session. Authenticated sessions are never limited.
func (g *GuestQuotaGuard) MayGenerate(sess session.Session) bool {
	if sess.Authenticated() {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.used
}

// RecordAttempt marks the free generation consumed after a request was
// actually dispatched for a guest. Every dispatched outcome counts,
// success, warning and generic error alike; a server-side quota
// rejection sets the flag too, defensively, since the service has
// already decided this guest is over the limit.
func (g *GuestQuotaGuard) RecordAttempt(sess session.Session, _ Outcome) {
	if sess.Authenticated() {
		return
	}
	g.mu.Lock()
	g.used = true
	g.mu.Unlock()
}

// Used reports whether the free generation has been consumed.
func (g *GuestQuotaGuard) Used() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.used
}

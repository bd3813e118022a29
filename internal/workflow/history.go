package workflow

import (
	"context"
	"sync"

	"github.com/jmallet/capgen/internal/api"
	"github.com/jmallet/capgen/internal/logging"
	"github.com/jmallet/capgen/internal/session"
)

// HistoryService fetches the recent-caption list from the service.
type HistoryService interface {
	Recent(ctx context.Context, token string) (*api.RecentResult, error)
}

// HistoryCache persists the last known list per user so a failed refresh
// on a fresh start can still show something.
type HistoryCache interface {
	SaveRecent(userID int, items []api.HistoryItem) error
	LoadRecent(userID int) ([]api.HistoryItem, error)
}

// RecentHistory holds the displayed recent-caption list and keeps it in
// sync with the service. The list is replaced wholesale on every
// successful refresh; a failed refresh leaves it untouched. Refreshes
// are ordered by generation token, so a slow response from an older
// attempt can never overwrite the list produced by a newer one.
type RecentHistory struct {
	svc   HistoryService
	cache HistoryCache // optional
	log   *logging.Logger

	mu         sync.Mutex
	items      []api.HistoryItem
	appliedGen string

	wg sync.WaitGroup
}

// NewRecentHistory creates a sync over the given service. cache may be
// nil to disable local persistence.
func NewRecentHistory(svc HistoryService, cache HistoryCache) *RecentHistory {
	return &RecentHistory{
		svc:   svc,
		cache: cache,
		log:   logging.New("history"),
	}
}

// Items returns a copy of the currently displayed list.
func (h *RecentHistory) Items() []api.HistoryItem {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]api.HistoryItem, len(h.items))
	copy(out, h.items)
	return out
}

// Refresh fetches the recent list and replaces the displayed one. For a
// guest session it clears the list without touching the network. gen
// orders concurrent refreshes; pass the generation token of the attempt
// that triggered it, or NewGeneration() for a standalone refresh.
//
// A fetch failure is logged, the previous list stays as it was, and the
// error is returned for callers that want to know. When nothing is
// displayed yet the local cache, if any, seeds the list instead.
func (h *RecentHistory) Refresh(ctx context.Context, sess session.Session, gen string) ([]api.HistoryItem, error) {
	if !sess.Authenticated() {
		h.apply(gen, nil)
		return nil, nil
	}

	res, err := h.svc.Recent(ctx, sess.Token)
	if err != nil {
		h.log.Error("refresh_failed", nil, err)
		h.seedFromCache(sess)
		return h.Items(), err
	}

	h.apply(gen, res.Items)
	h.saveToCache(sess, res.Items)
	return h.Items(), nil
}

// RefreshAsync runs Refresh in the background, for the fire-and-forget
// follow-up after a successful generation.
func (h *RecentHistory) RefreshAsync(sess session.Session, gen string) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.Refresh(context.Background(), sess, gen)
	}()
}

// Wait blocks until all background refreshes finish (for tests and for
// CLI teardown).
func (h *RecentHistory) Wait() {
	h.wg.Wait()
}

// apply replaces the list unless a newer refresh already did. Generation
// tokens are ULIDs, so lexicographic order is creation order.
func (h *RecentHistory) apply(gen string, items []api.HistoryItem) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if gen < h.appliedGen {
		h.log.Debug("stale_refresh_dropped", map[string]interface{}{"gen": gen})
		return
	}
	h.appliedGen = gen
	h.items = items
}

func (h *RecentHistory) seedFromCache(sess session.Session) {
	if h.cache == nil || sess.User == nil {
		return
	}
	h.mu.Lock()
	empty := len(h.items) == 0
	h.mu.Unlock()
	if !empty {
		return
	}

	cached, err := h.cache.LoadRecent(sess.User.ID)
	if err != nil {
		h.log.Warn("cache_load_failed", nil, err)
		return
	}
	if len(cached) == 0 {
		return
	}

	h.mu.Lock()
	if len(h.items) == 0 {
		h.items = cached
	}
	h.mu.Unlock()
}

func (h *RecentHistory) saveToCache(sess session.Session, items []api.HistoryItem) {
	if h.cache == nil || sess.User == nil {
		return
	}
	if err := h.cache.SaveRecent(sess.User.ID, items); err != nil {
		h.log.Warn("cache_save_failed", nil, err)
	}
}

package workflow

import (
	"context"
	"crypto/rand"
	"errors"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/jmallet/capgen/internal/api"
	"github.com/jmallet/capgen/internal/logging"
	"github.com/jmallet/capgen/internal/session"
)

// CaptionService dispatches one generation request.
type CaptionService interface {
	GenerateCaption(ctx context.Context, token string, up api.Upload) (*api.UploadResult, error)
}

// HistoryRefresher receives the fire-and-forget refresh signal after a
// successful authenticated generation. *RecentHistory implements it.
type HistoryRefresher interface {
	RefreshAsync(sess session.Session, gen string)
}

var _ HistoryRefresher = (*RecentHistory)(nil)

// ErrBusy is returned when a generation is already in flight; the
// trigger is supposed to be disabled for the duration.
var ErrBusy = errors.New("a generation is already in progress")

// ErrNoDraft is returned when no validated image is available to submit.
var ErrNoDraft = errors.New("no image selected")

var (
	genMu      sync.Mutex
	genEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewGeneration mints an ordering token for one attempt. Tokens are
// ULIDs with monotonic entropy, so lexicographic order is issue order
// even within one millisecond; that is what lets a stale history
// refresh be detected.
func NewGeneration() string {
	genMu.Lock()
	defer genMu.Unlock()
	return ulid.MustNew(ulid.Now(), genEntropy).String()
}

// Orchestrator drives the submit-to-result workflow. It consults the
// quota guard before dispatching, classifies the response, records guest
// usage, and signals the history refresher on success.
type Orchestrator struct {
	svc     CaptionService
	quota   *GuestQuotaGuard
	history HistoryRefresher // optional; nil when the caller sequences refreshes itself
	log     *logging.Logger

	mu         sync.Mutex
	submitting bool
}

// NewOrchestrator wires the workflow. history may be nil; the TUI passes
// nil and issues the refresh from its own event loop instead.
func NewOrchestrator(svc CaptionService, quota *GuestQuotaGuard, history HistoryRefresher) *Orchestrator {
	return &Orchestrator{
		svc:     svc,
		quota:   quota,
		history: history,
		log:     logging.New("workflow"),
	}
}

// Submitting reports whether a generation is in flight.
func (o *Orchestrator) Submitting() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.submitting
}

// Generate submits the draft and returns the classified outcome.
//
// The error return covers pre-dispatch conditions only (ErrBusy,
// ErrNoDraft); everything that happens after a request could have been
// issued is expressed as an Outcome, including the local guest-quota
// denial, which short-circuits without any network call.
func (o *Orchestrator) Generate(ctx context.Context, sess session.Session, draft *ImageDraft) (Outcome, error) {
	if draft == nil {
		return Outcome{}, ErrNoDraft
	}

	o.mu.Lock()
	if o.submitting {
		o.mu.Unlock()
		return Outcome{}, ErrBusy
	}
	o.submitting = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.submitting = false
		o.mu.Unlock()
	}()

	if !o.quota.MayGenerate(sess) {
		o.log.Info("guest_quota_denied", map[string]interface{}{"file": draft.Name})
		return Outcome{Kind: OutcomeQuotaExceeded, Message: QuotaMessage}, nil
	}

	gen := NewGeneration()
	o.log.Info("generate_start", map[string]interface{}{
		"gen":           gen,
		"file":          draft.Name,
		"mime":          draft.MIME,
		"authenticated": sess.Authenticated(),
	})

	res, err := o.svc.GenerateCaption(ctx, sess.Token, draft.Upload())
	outcome := Classify(res, err)

	o.quota.RecordAttempt(sess, outcome)

	o.log.Info("generate_done", map[string]interface{}{
		"gen":     gen,
		"outcome": outcome.Kind.String(),
	})

	if outcome.Kind == OutcomeSuccess && sess.Authenticated() && o.history != nil {
		o.history.RefreshAsync(sess, gen)
	}

	return outcome, nil
}

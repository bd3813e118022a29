package workflow

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmallet/capgen/internal/api"
	"github.com/jmallet/capgen/internal/session"
)

type fakeCaptionService struct {
	mu      sync.Mutex
	calls   int
	result  *api.UploadResult
	err     error
	block   chan struct{} // when set, GenerateCaption waits on it
	started chan struct{} // closed on first call when block is set
}

func (f *fakeCaptionService) GenerateCaption(ctx context.Context, token string, up api.Upload) (*api.UploadResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block != nil {
		close(f.started)
		<-f.block
	}
	return f.result, f.err
}

func (f *fakeCaptionService) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRefresher struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeRefresher) RefreshAsync(sess session.Session, gen string) {
	f.mu.Lock()
	f.calls = append(f.calls, gen)
	f.mu.Unlock()
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func pngDraft() *ImageDraft {
	return &ImageDraft{Path: "cat.png", Name: "cat.png", MIME: "image/png", Size: 3, Data: []byte("png")}
}

func TestGenerateNoDraft(t *testing.T) {
	o := NewOrchestrator(&fakeCaptionService{}, &GuestQuotaGuard{}, nil)

	_, err := o.Generate(context.Background(), guest, nil)
	assert.ErrorIs(t, err, ErrNoDraft)
}

func TestGenerateGuestScenario(t *testing.T) {
	svc := &fakeCaptionService{result: &api.UploadResult{Caption: "a cat on a sofa"}}
	quota := &GuestQuotaGuard{}
	o := NewOrchestrator(svc, quota, nil)

	// First guest generation succeeds and consumes the quota.
	out, err := o.Generate(context.Background(), guest, pngDraft())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, out.Kind)
	assert.Equal(t, "a cat on a sofa", out.Caption)
	assert.True(t, quota.Used())

	// Second attempt is blocked locally, no network call issued.
	out, err = o.Generate(context.Background(), guest, pngDraft())
	require.NoError(t, err)
	assert.Equal(t, OutcomeQuotaExceeded, out.Kind)
	assert.Equal(t, QuotaMessage, out.Message)
	assert.Equal(t, 1, svc.callCount())
}

func TestGenerateGuestWarningAlsoConsumesQuota(t *testing.T) {
	svc := &fakeCaptionService{result: &api.UploadResult{Warning: "low confidence"}}
	quota := &GuestQuotaGuard{}
	o := NewOrchestrator(svc, quota, nil)

	out, err := o.Generate(context.Background(), guest, pngDraft())
	require.NoError(t, err)
	assert.Equal(t, OutcomeWarning, out.Kind)
	assert.True(t, quota.Used())
}

func TestGenerateServerEnforcedQuota(t *testing.T) {
	svc := &fakeCaptionService{err: &api.APIError{Status: 429, Detail: "Guest limit reached. Please login to generate more captions."}}
	quota := &GuestQuotaGuard{}
	o := NewOrchestrator(svc, quota, nil)

	out, err := o.Generate(context.Background(), guest, pngDraft())
	require.NoError(t, err)
	assert.Equal(t, OutcomeQuotaExceeded, out.Kind)
	assert.True(t, quota.Used(), "server-side rejection sets the flag defensively")
}

func TestGenerateSuccessTriggersOneRefresh(t *testing.T) {
	svc := &fakeCaptionService{result: &api.UploadResult{Caption: "a dog running"}}
	ref := &fakeRefresher{}
	o := NewOrchestrator(svc, &GuestQuotaGuard{}, ref)

	out, err := o.Generate(context.Background(), authed, &ImageDraft{Name: "dog.jpg", MIME: "image/jpeg", Data: []byte("jpg")})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, out.Kind)
	assert.Equal(t, 1, ref.callCount())
}

func TestGenerateWarningTriggersNoRefresh(t *testing.T) {
	svc := &fakeCaptionService{result: &api.UploadResult{Warning: "low confidence"}}
	ref := &fakeRefresher{}
	o := NewOrchestrator(svc, &GuestQuotaGuard{}, ref)

	out, err := o.Generate(context.Background(), authed, &ImageDraft{Name: "blurry.jpg", MIME: "image/jpeg", Data: []byte("jpg")})
	require.NoError(t, err)
	assert.Equal(t, OutcomeWarning, out.Kind)
	assert.Equal(t, 0, ref.callCount())
}

func TestGenerateGuestSuccessTriggersNoRefresh(t *testing.T) {
	svc := &fakeCaptionService{result: &api.UploadResult{Caption: "x"}}
	ref := &fakeRefresher{}
	o := NewOrchestrator(svc, &GuestQuotaGuard{}, ref)

	_, err := o.Generate(context.Background(), guest, pngDraft())
	require.NoError(t, err)
	assert.Equal(t, 0, ref.callCount())
}

func TestGenerateErrorOutcome(t *testing.T) {
	svc := &fakeCaptionService{err: &api.APIError{Status: 500, Detail: "Error processing image: boom"}}
	o := NewOrchestrator(svc, &GuestQuotaGuard{}, nil)

	out, err := o.Generate(context.Background(), authed, pngDraft())
	require.NoError(t, err)
	assert.Equal(t, OutcomeError, out.Kind)
	assert.Contains(t, out.Message, "boom")
}

func TestGenerateRejectsReentrantSubmission(t *testing.T) {
	svc := &fakeCaptionService{
		result:  &api.UploadResult{Caption: "x"},
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	o := NewOrchestrator(svc, &GuestQuotaGuard{}, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.Generate(context.Background(), authed, pngDraft())
	}()

	<-svc.started
	assert.True(t, o.Submitting())

	_, err := o.Generate(context.Background(), authed, pngDraft())
	assert.ErrorIs(t, err, ErrBusy)

	close(svc.block)
	<-done
	assert.False(t, o.Submitting())
}

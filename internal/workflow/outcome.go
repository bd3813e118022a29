// Package workflow implements the caption generation workflow: upload
// validation, guest quota enforcement, outcome classification, and
// recent-history synchronization.
package workflow

import (
	"errors"
	"strings"

	"github.com/jmallet/capgen/internal/api"
)

// OutcomeKind discriminates the result of one generation attempt.
type OutcomeKind int

const (
	// OutcomeSuccess carries a caption, possibly empty.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeWarning means the model could not confidently caption the
	// image; the user may retry with a different one.
	OutcomeWarning
	// OutcomeQuotaExceeded is terminal for a guest session; only logging
	// in recovers it.
	OutcomeQuotaExceeded
	// OutcomeError is any other transport or server failure.
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeWarning:
		return "warning"
	case OutcomeQuotaExceeded:
		return "quota_exceeded"
	case OutcomeError:
		return "error"
	}
	return "unknown"
}

// Outcome is the classified result of one generation attempt. Exactly one
// is produced per attempt and it fully replaces any prior outcome.
type Outcome struct {
	Kind    OutcomeKind
	Caption string // set for OutcomeSuccess; empty string is a valid caption
	Message string // set for OutcomeWarning, OutcomeQuotaExceeded and OutcomeError
}

// guestLimitPhrase is the service's only quota signal: a literal phrase
// inside the free-text error detail. Fragile coupling to server wording,
// contained here so it can change in one place.
const guestLimitPhrase = "Guest limit reached"

// QuotaMessage is shown when a guest has exhausted the free generation.
const QuotaMessage = "You must login to generate more captions."

// Classify maps a service response (or failure) to an Outcome.
//
// Success with a warning field is a Warning: any caption text that came
// along is ignored. A quota rejection is detected by phrase-matching the
// error detail and is never folded into Warning or Error. Everything
// else that failed is a generic Error.
func Classify(res *api.UploadResult, err error) Outcome {
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && strings.Contains(apiErr.Detail, guestLimitPhrase) {
			return Outcome{Kind: OutcomeQuotaExceeded, Message: QuotaMessage}
		}
		return Outcome{Kind: OutcomeError, Message: err.Error()}
	}

	if res.Warning != "" {
		return Outcome{Kind: OutcomeWarning, Message: res.Warning}
	}
	return Outcome{Kind: OutcomeSuccess, Caption: res.Caption}
}

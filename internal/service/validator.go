package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/drug-response-server/internal/domain"
	"github.com/drug-response-server/pkg/external"
)

// Validation reasons surfaced alongside the invalid state. Transport
// failures are deliberately distinguishable from a genuine miss.
const (
	ReasonNameRequired       = "name required"
	ReasonNotFound           = "not found"
	ReasonServiceUnavailable = "service unavailable"
)

// ValidationResult is the outcome of one validation call
type ValidationResult struct {
	State  domain.ValidationState `json:"state"`
	Reason string                 `json:"reason,omitempty"`
}

// DrugNameValidator gates submission on the drug name existing in the
// external compound vocabulary. Calls are superseding: issuing a new
// validation cancels the previous in-flight one, and only the latest
// generation may write the shared state, so a stale response can never
// overwrite a newer result.
type DrugNameValidator struct {
	suggester external.CompoundSuggester
	timeout   time.Duration
	logger    *logrus.Logger

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	state  domain.ValidationState
	reason string
}

// NewDrugNameValidator creates a new validator in the idle state
func NewDrugNameValidator(suggester external.CompoundSuggester, logger *logrus.Logger) *DrugNameValidator {
	return &DrugNameValidator{
		suggester: suggester,
		timeout:   5 * time.Second,
		logger:    logger,
		state:     domain.ValidationIdle,
	}
}

// State returns the current validation state and reason
func (v *DrugNameValidator) State() (domain.ValidationState, string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state, v.reason
}

// Reset returns the validator to idle and cancels any in-flight call.
// Callers invoke this whenever the drug-name input changes.
func (v *DrugNameValidator) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seq++
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.state = domain.ValidationIdle
	v.reason = ""
}

// Validate checks a candidate drug name against the compound
// vocabulary. Only a case-insensitive exact match among the returned
// suggestions is valid.
func (v *DrugNameValidator) Validate(ctx context.Context, name string) ValidationResult {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		res := ValidationResult{State: domain.ValidationInvalid, Reason: ReasonNameRequired}
		v.mu.Lock()
		v.seq++
		if v.cancel != nil {
			v.cancel()
			v.cancel = nil
		}
		v.state, v.reason = res.State, res.Reason
		v.mu.Unlock()
		return res
	}

	v.mu.Lock()
	v.seq++
	generation := v.seq
	if v.cancel != nil {
		v.cancel()
	}
	callCtx, cancel := context.WithTimeout(ctx, v.timeout)
	v.cancel = cancel
	v.state = domain.ValidationChecking
	v.reason = ""
	v.mu.Unlock()

	suggestions, err := v.suggester.Suggest(callCtx, trimmed)
	cancel()

	var res ValidationResult
	switch {
	case errors.Is(err, context.Canceled):
		// Superseded by a newer call; the newer generation owns the state
		v.logger.WithField("name", trimmed).Debug("Validation call superseded")
		return ValidationResult{State: domain.ValidationChecking}
	case err != nil:
		v.logger.WithFields(logrus.Fields{
			"name":  trimmed,
			"error": err.Error(),
		}).Warn("Drug name validation transport failure")
		res = ValidationResult{State: domain.ValidationInvalid, Reason: ReasonServiceUnavailable}
	case containsExactMatch(suggestions, trimmed):
		res = ValidationResult{State: domain.ValidationValid}
	default:
		res = ValidationResult{State: domain.ValidationInvalid, Reason: ReasonNotFound}
	}

	v.mu.Lock()
	if generation == v.seq {
		v.state, v.reason = res.State, res.Reason
	}
	v.mu.Unlock()

	return res
}

// containsExactMatch reports whether the suggestion set contains the
// name as a case-insensitive exact match
func containsExactMatch(suggestions []string, name string) bool {
	for _, s := range suggestions {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

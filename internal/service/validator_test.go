package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drug-response-server/internal/domain"
)

// stubSuggester returns a fixed suggestion set or error
type stubSuggester struct {
	suggestions []string
	err         error
}

func (s *stubSuggester) Suggest(ctx context.Context, term string) ([]string, error) {
	return s.suggestions, s.err
}

func TestValidate_ExactMatch(t *testing.T) {
	suggester := &stubSuggester{suggestions: []string{"aspirin", "aspirin buffered"}}
	v := NewDrugNameValidator(suggester, testLogger())

	res := v.Validate(context.Background(), "Aspirin")
	assert.Equal(t, domain.ValidationValid, res.State)
	assert.Empty(t, res.Reason)

	state, reason := v.State()
	assert.Equal(t, domain.ValidationValid, state)
	assert.Empty(t, reason)
}

func TestValidate_SuggestionsWithoutExactMatch(t *testing.T) {
	suggester := &stubSuggester{suggestions: []string{"aspirin", "aspirin buffered"}}
	v := NewDrugNameValidator(suggester, testLogger())

	// A typo surfaces suggestions but none matches exactly
	res := v.Validate(context.Background(), "Aspirinn")
	assert.Equal(t, domain.ValidationInvalid, res.State)
	assert.Equal(t, ReasonNotFound, res.Reason)
}

func TestValidate_EmptyName(t *testing.T) {
	v := NewDrugNameValidator(&stubSuggester{}, testLogger())

	res := v.Validate(context.Background(), "   ")
	assert.Equal(t, domain.ValidationInvalid, res.State)
	assert.Equal(t, ReasonNameRequired, res.Reason)
}

func TestValidate_ServiceUnavailable(t *testing.T) {
	suggester := &stubSuggester{err: fmt.Errorf("connection refused")}
	v := NewDrugNameValidator(suggester, testLogger())

	res := v.Validate(context.Background(), "Metformin")
	assert.Equal(t, domain.ValidationInvalid, res.State)
	assert.Equal(t, ReasonServiceUnavailable, res.Reason)
}

// blockingSuggester parks the first call until its context is canceled,
// letting the test hold a validation in flight
type blockingSuggester struct {
	entered chan struct{}
	calls   int32
}

func (s *blockingSuggester) Suggest(ctx context.Context, term string) ([]string, error) {
	if atomic.AddInt32(&s.calls, 1) == 1 {
		close(s.entered)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return []string{"aspirin"}, nil
}

func TestValidate_SupersedingCallCancelsPrevious(t *testing.T) {
	suggester := &blockingSuggester{entered: make(chan struct{})}
	v := NewDrugNameValidator(suggester, testLogger())

	firstDone := make(chan ValidationResult, 1)
	go func() {
		firstDone <- v.Validate(context.Background(), "Ibuprofen")
	}()

	// Wait until the first lookup is actually in flight, then supersede it
	<-suggester.entered
	second := v.Validate(context.Background(), "Aspirin")
	assert.Equal(t, domain.ValidationValid, second.State)

	first := <-firstDone
	// The superseded call reports checking and never writes the state
	assert.Equal(t, domain.ValidationChecking, first.State)

	state, reason := v.State()
	assert.Equal(t, domain.ValidationValid, state)
	assert.Empty(t, reason)
}

func TestReset(t *testing.T) {
	suggester := &stubSuggester{suggestions: []string{"aspirin"}}
	v := NewDrugNameValidator(suggester, testLogger())

	res := v.Validate(context.Background(), "Aspirin")
	require.Equal(t, domain.ValidationValid, res.State)

	v.Reset()
	state, reason := v.State()
	assert.Equal(t, domain.ValidationIdle, state)
	assert.Empty(t, reason)
}

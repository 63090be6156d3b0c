package external

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/drug-response-server/internal/domain"
)

// DrugInfoAggregator merges drug reference information from the backend
// and the three external sources under a fixed priority policy. The
// backend's own drug-info endpoint wins outright when it answers;
// otherwise RxNorm, openFDA and PubChem are queried concurrently and
// whatever succeeds is merged. Individual source failures are logged
// and swallowed; aggregation degrades, it never hard-fails.
type DrugInfoAggregator struct {
	backend *BackendClient
	rxNorm  *RxNormClient
	openFDA *OpenFDAClient
	pubChem *PubChemClient
	cache   *DrugInfoCache
	logger  *logrus.Logger

	backendBreaker *gobreaker.CircuitBreaker
	rxNormBreaker  *gobreaker.CircuitBreaker
	openFDABreaker *gobreaker.CircuitBreaker
	pubChemBreaker *gobreaker.CircuitBreaker
}

// NewDrugInfoAggregator creates a new aggregator with one circuit
// breaker per source
func NewDrugInfoAggregator(
	backend *BackendClient,
	rxNorm *RxNormClient,
	openFDA *OpenFDAClient,
	pubChem *PubChemClient,
	cache *DrugInfoCache,
	logger *logrus.Logger,
) *DrugInfoAggregator {
	return &DrugInfoAggregator{
		backend:        backend,
		rxNorm:         rxNorm,
		openFDA:        openFDA,
		pubChem:        pubChem,
		cache:          cache,
		logger:         logger,
		backendBreaker: newSourceBreaker("internal_api", logger),
		rxNormBreaker:  newSourceBreaker("rxnorm", logger),
		openFDABreaker: newSourceBreaker("openfda", logger),
		pubChemBreaker: newSourceBreaker("pubchem", logger),
	}
}

// newSourceBreaker builds a circuit breaker for one drug-info source
func newSourceBreaker(name string, logger *logrus.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from_state":      from.String(),
				"to_state":        to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
}

// FetchDrugInfo returns the aggregated drug information for a drug name,
// or (nil, nil) when no source produced data
func (a *DrugInfoAggregator) FetchDrugInfo(ctx context.Context, drugName string) (*domain.DrugInfo, error) {
	if a.cache != nil {
		if info, found := a.cache.Get(ctx, drugName); found {
			return info, nil
		}
	}

	// Priority 1: the backend's own drug-info endpoint. Its payload is
	// used directly; no further sources are queried on success.
	if info, err := a.queryBackend(ctx, drugName); err == nil {
		if len(info.Sources) == 0 {
			info.Sources = []string{string(SourceInternalAPI)}
		}
		a.store(ctx, drugName, info)
		return info, nil
	} else {
		a.logger.WithFields(logrus.Fields{
			"drug_name": drugName,
			"error":     err.Error(),
		}).Debug("Backend drug-info unavailable, falling back to external sources")
	}

	// Priority 2: the three independent reference sources, queried
	// concurrently; results merge only after all have settled.
	type result struct {
		rxNormData  *domain.RxNormData
		fdaData     *domain.FDAData
		pubChemData *domain.PubChemData
		rxNormErr   error
		fdaErr      error
		pubChemErr  error
	}

	res := result{}
	done := make(chan struct{})

	go func() {
		res.rxNormData, res.rxNormErr = a.queryRxNorm(ctx, drugName)
		done <- struct{}{}
	}()
	go func() {
		res.fdaData, res.fdaErr = a.queryOpenFDA(ctx, drugName)
		done <- struct{}{}
	}()
	go func() {
		res.pubChemData, res.pubChemErr = a.queryPubChem(ctx, drugName)
		done <- struct{}{}
	}()

	for i := 0; i < 3; i++ {
		<-done
	}

	info := &domain.DrugInfo{DrugName: drugName}

	if res.rxNormErr == nil {
		info.RxNorm = res.rxNormData
		info.Sources = append(info.Sources, string(SourceRxNorm))
	} else {
		a.logSourceFailure(drugName, SourceRxNorm, res.rxNormErr)
	}
	if res.fdaErr == nil {
		info.FDA = res.fdaData
		info.Sources = append(info.Sources, string(SourceOpenFDA))
	} else {
		a.logSourceFailure(drugName, SourceOpenFDA, res.fdaErr)
	}
	if res.pubChemErr == nil {
		info.PubChem = res.pubChemData
		info.Sources = append(info.Sources, string(SourcePubChem))
	} else {
		a.logSourceFailure(drugName, SourcePubChem, res.pubChemErr)
	}

	if len(info.Sources) == 0 {
		a.logger.WithField("drug_name", drugName).Warn("All drug-info sources failed")
		return nil, nil
	}

	a.store(ctx, drugName, info)
	return info, nil
}

// queryBackend queries the backend drug-info endpoint behind its breaker
func (a *DrugInfoAggregator) queryBackend(ctx context.Context, drugName string) (*domain.DrugInfo, error) {
	result, err := a.backendBreaker.Execute(func() (interface{}, error) {
		return a.backend.GetDrugInfo(ctx, drugName)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return nil, fmt.Errorf("backend drug-info unavailable (circuit breaker open)")
		}
		return nil, err
	}
	return result.(*domain.DrugInfo), nil
}

// queryRxNorm queries RxNorm behind its breaker
func (a *DrugInfoAggregator) queryRxNorm(ctx context.Context, drugName string) (*domain.RxNormData, error) {
	result, err := a.rxNormBreaker.Execute(func() (interface{}, error) {
		return a.rxNorm.QueryDrug(ctx, drugName)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return nil, fmt.Errorf("RxNorm unavailable (circuit breaker open)")
		}
		return nil, err
	}
	return result.(*domain.RxNormData), nil
}

// queryOpenFDA queries openFDA behind its breaker
func (a *DrugInfoAggregator) queryOpenFDA(ctx context.Context, drugName string) (*domain.FDAData, error) {
	result, err := a.openFDABreaker.Execute(func() (interface{}, error) {
		return a.openFDA.QueryLabel(ctx, drugName)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return nil, fmt.Errorf("openFDA unavailable (circuit breaker open)")
		}
		return nil, err
	}
	return result.(*domain.FDAData), nil
}

// queryPubChem queries PubChem behind its breaker
func (a *DrugInfoAggregator) queryPubChem(ctx context.Context, drugName string) (*domain.PubChemData, error) {
	result, err := a.pubChemBreaker.Execute(func() (interface{}, error) {
		return a.pubChem.QueryCompound(ctx, drugName)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return nil, fmt.Errorf("PubChem unavailable (circuit breaker open)")
		}
		return nil, err
	}
	return result.(*domain.PubChemData), nil
}

// store writes a record to the cache when caching is configured
func (a *DrugInfoAggregator) store(ctx context.Context, drugName string, info *domain.DrugInfo) {
	if a.cache != nil {
		a.cache.Set(ctx, drugName, info)
	}
}

// logSourceFailure records a swallowed per-source failure
func (a *DrugInfoAggregator) logSourceFailure(drugName string, source DrugSourceType, err error) {
	a.logger.WithFields(logrus.Fields{
		"drug_name": drugName,
		"source":    string(source),
		"error":     err.Error(),
	}).Debug("Drug-info source failed")
}

// BreakerStates returns the current state of all source circuit breakers
func (a *DrugInfoAggregator) BreakerStates() map[string]gobreaker.State {
	return map[string]gobreaker.State{
		string(SourceInternalAPI): a.backendBreaker.State(),
		string(SourceRxNorm):      a.rxNormBreaker.State(),
		string(SourceOpenFDA):     a.openFDABreaker.State(),
		string(SourcePubChem):     a.pubChemBreaker.State(),
	}
}

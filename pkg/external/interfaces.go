package external

import (
	"context"

	"github.com/drug-response-server/internal/domain"
)

// DrugSourceType identifies an external drug-information source
type DrugSourceType string

const (
	SourceInternalAPI DrugSourceType = "internal_api"
	SourceRxNorm      DrugSourceType = "rxnorm"
	SourceOpenFDA     DrugSourceType = "openfda"
	SourcePubChem     DrugSourceType = "pubchem"
)

// DrugInfoProvider fetches merged drug reference information. A nil
// record with a nil error means no source produced data.
type DrugInfoProvider interface {
	FetchDrugInfo(ctx context.Context, drugName string) (*domain.DrugInfo, error)
}

// CompoundSuggester looks up compound name suggestions for a query term
type CompoundSuggester interface {
	Suggest(ctx context.Context, term string) ([]string, error)
}

// PredictionGateway is the prediction backend boundary consumed by the
// orchestrator
type PredictionGateway interface {
	PredictEnhanced(ctx context.Context, req *EnhancedRequest) (*EnhancedResponse, error)
	PredictStandard(ctx context.Context, req *StandardRequest) (*StandardResponse, error)
}

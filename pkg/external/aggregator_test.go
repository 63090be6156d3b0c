package external

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drug-response-server/internal/domain"
)

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// aggregatorFixture wires an aggregator against four scripted servers
type aggregatorFixture struct {
	backendHits int32
	rxNormHits  int32
	openFDAHits int32
	pubChemHits int32
	aggregator  *DrugInfoAggregator
	servers     []*httptest.Server
}

func (f *aggregatorFixture) close() {
	for _, s := range f.servers {
		s.Close()
	}
}

func newAggregatorFixture(t *testing.T, backend, rxNorm, openFDA, pubChem http.HandlerFunc) *aggregatorFixture {
	t.Helper()
	f := &aggregatorFixture{}

	backendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.backendHits, 1)
		backend(w, r)
	}))
	rxNormSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.rxNormHits, 1)
		rxNorm(w, r)
	}))
	openFDASrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.openFDAHits, 1)
		openFDA(w, r)
	}))
	pubChemSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.pubChemHits, 1)
		pubChem(w, r)
	}))
	f.servers = []*httptest.Server{backendSrv, rxNormSrv, openFDASrv, pubChemSrv}

	cache, err := NewDrugInfoCache(domain.CacheConfig{})
	require.NoError(t, err)

	f.aggregator = NewDrugInfoAggregator(
		NewBackendClient(domain.BackendConfig{BaseURL: backendSrv.URL, RateLimit: 100}),
		NewRxNormClient(testClientConfig(rxNormSrv.URL+"/")),
		NewOpenFDAClient(testClientConfig(openFDASrv.URL+"/")),
		NewPubChemClient(testClientConfig(pubChemSrv.URL+"/")),
		cache,
		discardLogger(),
	)
	return f
}

func serveJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}
}

func serveStatus(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}
}

func TestFetchDrugInfo_BackendWinsOutright(t *testing.T) {
	f := newAggregatorFixture(t,
		serveJSON(`{"data": {"drug_name": "Metformin", "sources": []}}`),
		serveStatus(http.StatusInternalServerError),
		serveStatus(http.StatusInternalServerError),
		serveStatus(http.StatusInternalServerError),
	)
	defer f.close()

	info, err := f.aggregator.FetchDrugInfo(context.Background(), "Metformin")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, []string{"internal_api"}, info.Sources)

	// No fallback source is queried when the backend answers
	assert.EqualValues(t, 1, f.backendHits)
	assert.EqualValues(t, 0, f.rxNormHits)
	assert.EqualValues(t, 0, f.openFDAHits)
	assert.EqualValues(t, 0, f.pubChemHits)
}

func TestFetchDrugInfo_MergesExternalSources(t *testing.T) {
	f := newAggregatorFixture(t,
		serveStatus(http.StatusServiceUnavailable),
		serveJSON(`{"drugGroup": {"conceptGroup": [{"conceptProperties": [{"rxcui": "6809", "name": "metformin"}]}]}}`),
		serveJSON(`{"results": [{"openfda": {"generic_name": ["metformin hydrochloride"]}, "warnings": ["Lactic acidosis risk."]}]}`),
		serveJSON(`{"PropertyTable": {"Properties": [{"CID": 4091, "MolecularFormula": "C4H11N5"}]}}`),
	)
	defer f.close()

	info, err := f.aggregator.FetchDrugInfo(context.Background(), "Metformin")
	require.NoError(t, err)
	require.NotNil(t, info)

	assert.Equal(t, "Metformin", info.DrugName)
	assert.Equal(t, []string{"rxnorm", "openfda", "pubchem"}, info.Sources)
	require.NotNil(t, info.RxNorm)
	assert.Equal(t, "6809", info.RxNorm.RxCUI)
	require.NotNil(t, info.FDA)
	assert.Equal(t, "Lactic acidosis risk.", info.FDA.Warnings)
	require.NotNil(t, info.PubChem)
	assert.Equal(t, 4091, info.PubChem.CID)
}

func TestFetchDrugInfo_PartialFailureDegrades(t *testing.T) {
	f := newAggregatorFixture(t,
		serveStatus(http.StatusServiceUnavailable),
		serveStatus(http.StatusInternalServerError),
		serveJSON(`{"results": [{"openfda": {"generic_name": ["metformin hydrochloride"]}}]}`),
		serveStatus(http.StatusInternalServerError),
	)
	defer f.close()

	info, err := f.aggregator.FetchDrugInfo(context.Background(), "Metformin")
	require.NoError(t, err)
	require.NotNil(t, info)

	assert.Equal(t, []string{"openfda"}, info.Sources)
	require.NotNil(t, info.FDA)
	assert.Nil(t, info.RxNorm)
	assert.Nil(t, info.PubChem)
}

func TestFetchDrugInfo_AllSourcesFailed(t *testing.T) {
	f := newAggregatorFixture(t,
		serveStatus(http.StatusServiceUnavailable),
		serveStatus(http.StatusInternalServerError),
		serveStatus(http.StatusInternalServerError),
		serveStatus(http.StatusInternalServerError),
	)
	defer f.close()

	info, err := f.aggregator.FetchDrugInfo(context.Background(), "Metformin")
	assert.NoError(t, err)
	assert.Nil(t, info)
}

func TestFetchDrugInfo_CacheHitSkipsSources(t *testing.T) {
	f := newAggregatorFixture(t,
		serveJSON(`{"data": {"drug_name": "Metformin", "sources": ["internal_api"]}}`),
		serveStatus(http.StatusInternalServerError),
		serveStatus(http.StatusInternalServerError),
		serveStatus(http.StatusInternalServerError),
	)
	defer f.close()

	_, err := f.aggregator.FetchDrugInfo(context.Background(), "Metformin")
	require.NoError(t, err)

	// Case-insensitive cache key: the second lookup never leaves process
	info, err := f.aggregator.FetchDrugInfo(context.Background(), "metformin")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.EqualValues(t, 1, f.backendHits)
}

func TestBreakerStates(t *testing.T) {
	f := newAggregatorFixture(t,
		serveStatus(http.StatusServiceUnavailable),
		serveStatus(http.StatusInternalServerError),
		serveStatus(http.StatusInternalServerError),
		serveStatus(http.StatusInternalServerError),
	)
	defer f.close()

	states := f.aggregator.BreakerStates()
	assert.Len(t, states, 4)
	assert.Contains(t, states, "internal_api")
	assert.Contains(t, states, "rxnorm")
	assert.Contains(t, states, "openfda")
	assert.Contains(t, states, "pubchem")
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docparse/internal/async"
	"docparse/internal/entity"
	"docparse/internal/extract"
	"docparse/internal/parser"
	"docparse/internal/repository"
	"docparse/internal/template"
	"docparse/internal/validate"
)

func testServer(t *testing.T) (*Server, *template.Store, *async.LearnQueue) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := template.NewStore(repository.NewMemoryKV(), nil)
	validator := validate.New(validate.Config{
		Now: func() time.Time { return time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC) },
	})
	p := parser.New(store, extract.NewLexical(nil), extract.NewRecognizer(nil), validator, parser.Config{}, nil)
	learner := template.NewLearner(store, validator, template.LearnerConfig{}, nil)
	q := async.NewLearnQueue(learner, nil, async.WithWorkers(1))
	t.Cleanup(func() { q.Shutdown(context.Background()) })

	return New(p, q, store, nil, entity.OwnerIdentity{}, nil), store, q
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	srv, _, _ := testServer(t)
	w := doJSON(t, srv.Router(), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestParseEndpoint(t *testing.T) {
	srv, _, _ := testServer(t)

	req := ParseRequest{
		Fragments: []entity.TextFragment{
			{Text: "UAB Tavo Finansininkas"},
			{Text: "Invoice date: 2025-12-01"},
			{Text: "PVM kodas: LT300581697"},
			{Text: "Suma be PVM: 100.00"},
			{Text: "PVM suma: 21.00"},
		},
	}
	w := doJSON(t, srv.Router(), http.MethodPost, "/v1/parse", req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ParseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2025-12-01", resp.Fields.Get(entity.FieldDate))
	assert.Equal(t, "LT300581697", resp.Fields.Get(entity.FieldTaxID))
	assert.Equal(t, "100.00", resp.Fields.Get(entity.FieldAmountExclTax))
	assert.Equal(t, "21", resp.Fields.Get(entity.FieldVATRate))
	assert.Equal(t, "UAB Tavo Finansininkas", resp.Counterparty.Name)
}

func TestParseEndpointAppliesConfiguredOwner(t *testing.T) {
	srv, _, _ := testServer(t)
	srv.owner = entity.OwnerIdentity{TaxID: "LT300581697"}

	req := ParseRequest{
		Fragments: []entity.TextFragment{
			{Text: "UAB Tavo Finansininkas"},
			{Text: "PVM kodas: LT300581697"},
		},
	}
	w := doJSON(t, srv.Router(), http.MethodPost, "/v1/parse", req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ParseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Counterparty.TaxID)
	assert.Equal(t, "UAB Tavo Finansininkas", resp.Counterparty.Name)
}

func TestParseEndpointRejectsMissingFragments(t *testing.T) {
	srv, _, _ := testServer(t)
	w := doJSON(t, srv.Router(), http.MethodPost, "/v1/parse", gin.H{"image": gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseImageWithoutEngine(t *testing.T) {
	srv, _, _ := testServer(t)
	w := doJSON(t, srv.Router(), http.MethodPost, "/v1/parse/image", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestLearnEndpointAcceptsAndStores(t *testing.T) {
	srv, store, q := testServer(t)

	req := LearnRequest{
		Fragments: []entity.TextFragment{{
			Text: "LT300581697",
			Box:  &entity.Rect{X: 600, Y: 100, Width: 200, Height: 40},
		}},
		Confirmed: entity.ParsedFieldSet{entity.FieldTaxID: "LT300581697"},
		Keys:      []string{"lt300581697"},
		Image:     entity.ImageSize{Width: 1000, Height: 1000},
	}
	w := doJSON(t, srv.Router(), http.MethodPost, "/v1/learn", req)
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.JobID)

	// drain the worker so the write is visible
	q.Shutdown(context.Background())

	tpl, err := store.Get(context.Background(), "lt300581697")
	require.NoError(t, err)
	region := tpl.Region(entity.FieldTaxID)
	require.NotNil(t, region)
	assert.InDelta(t, 0.6, region.Box.X, 1e-9)
}

func TestLearnEndpointRejectsMissingKeys(t *testing.T) {
	srv, _, _ := testServer(t)
	w := doJSON(t, srv.Router(), http.MethodPost, "/v1/learn", gin.H{
		"fragments": []gin.H{{"text": "x"}},
		"confirmed": gin.H{"tax_id": "LT300581697"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTemplate(t *testing.T) {
	srv, store, _ := testServer(t)

	w := doJSON(t, srv.Router(), http.MethodGet, "/v1/templates/lt300581697", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	tpl := &entity.Template{Regions: []entity.FieldRegion{{
		Field:       entity.FieldTaxID,
		Box:         entity.Rect{X: 0.6, Y: 0.1, Width: 0.2, Height: 0.04},
		Confidence:  1.0,
		SampleCount: 1,
	}}}
	require.NoError(t, store.Put(context.Background(), "lt300581697", tpl))

	w = doJSON(t, srv.Router(), http.MethodGet, "/v1/templates/lt300581697", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got entity.Template
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Regions, 1)
	assert.Equal(t, entity.FieldTaxID, got.Regions[0].Field)
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usrn-labs/streetwise/internal/model"
)

type stubRunner struct {
	gotUSRN        string
	gotAnalysis    model.AnalysisType
	gotCollections []string
	report         *model.ExternalReport
	err            error
}

func (s *stubRunner) Run(_ context.Context, usrn string, analysis model.AnalysisType, collections []string) (*model.ExternalReport, error) {
	s.gotUSRN = usrn
	s.gotAnalysis = analysis
	s.gotCollections = collections
	return s.report, s.err
}

type stubSummarizer struct{ text string }

func (s *stubSummarizer) Summarize(context.Context, *model.ExternalReport) (string, error) {
	return s.text, nil
}

func okReport(usrn string) *model.ExternalReport {
	return &model.ExternalReport{
		USRN:     usrn,
		Analysis: model.AnalysisStreet,
		Records:  map[model.Domain][]model.NormalizedRecord{},
	}
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestStreetEndpoint(t *testing.T) {
	runner := &stubRunner{report: okReport("8100239")}
	rec := get(t, NewServer(runner, nil), "/v1/street/8100239")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "8100239", runner.gotUSRN)
	assert.Equal(t, model.AnalysisStreet, runner.gotAnalysis)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var out model.ExternalReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "8100239", out.USRN)
}

func TestAnalysisRoutes(t *testing.T) {
	runner := &stubRunner{report: okReport("1")}
	srv := NewServer(runner, nil)

	get(t, srv, "/v1/land-use/1")
	assert.Equal(t, model.AnalysisLandUse, runner.gotAnalysis)

	get(t, srv, "/v1/collaborative/1")
	assert.Equal(t, model.AnalysisCollaborative, runner.gotAnalysis)
}

func TestCollectionsOverride(t *testing.T) {
	runner := &stubRunner{report: okReport("1")}
	get(t, NewServer(runner, nil), "/v1/street/1?collections=trn-rami-specialdesignationline-1,trn-ntwk-street-1")

	assert.Equal(t, []string{"trn-rami-specialdesignationline-1", "trn-ntwk-street-1"}, runner.gotCollections)
}

func TestSummarize(t *testing.T) {
	runner := &stubRunner{report: okReport("8100239")}
	srv := NewServer(runner, &stubSummarizer{text: "A quiet street."})

	rec := get(t, srv, "/v1/street/8100239?summarize=true")
	require.Equal(t, http.StatusOK, rec.Code)

	var out summarizedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "A quiet street.", out.Summary)
	assert.Equal(t, "8100239", out.Report.USRN)
}

func TestSummarizeNotConfigured(t *testing.T) {
	runner := &stubRunner{report: okReport("1")}
	rec := get(t, NewServer(runner, nil), "/v1/street/1?summarize=true")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &model.ValidationError{Msg: "usrn is required"}, http.StatusBadRequest},
		{"resolution", &model.ResolutionError{USRN: "999"}, http.StatusNotFound},
		{"upstream", eris.New("boom"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(t, NewServer(&stubRunner{err: tc.err}, nil), "/v1/street/999")
			assert.Equal(t, tc.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestHealthz(t *testing.T) {
	rec := get(t, NewServer(&stubRunner{}, nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

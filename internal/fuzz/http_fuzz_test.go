package fuzz

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Billy-Davies-2/psl-draft/internal/auth"
	"github.com/Billy-Davies-2/psl-draft/internal/draft"
	"github.com/Billy-Davies-2/psl-draft/internal/handlers"
	"github.com/Billy-Davies-2/psl-draft/internal/logger"
	"github.com/Billy-Davies-2/psl-draft/internal/pubsub"
)

func init() {
	logger.Init("error")
}

func newMux(t *testing.T, started bool) (*http.ServeMux, *draft.Engine) {
	t.Helper()
	engine, err := draft.New(nil, draft.Options{})
	if err != nil {
		t.Fatalf("draft.New() error = %v", err)
	}
	if started {
		if _, err := engine.StartDraft(2); err != nil {
			t.Fatalf("StartDraft() error = %v", err)
		}
	}
	ps := pubsub.New()
	t.Cleanup(ps.Close)

	mux := http.NewServeMux()
	handlers.NewAPIHandlers(engine, auth.NewGate(engine, "admin123"), ps).Register(mux)
	return mux, engine
}

// fuzzEndpoint posts data to path and fails on a server error or a broken
// engine invariant. Client errors are expected for most inputs.
func fuzzEndpoint(f *testing.F, path string, started bool, seeds ...string) {
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, data string) {
		mux, engine := newMux(t, started)

		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(data))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		if w.Code >= 500 {
			t.Fatalf("POST %s %q returned %d: %s", path, data, w.Code, w.Body.String())
		}
		checkInvariants(t, engine)
	})
}

// FuzzHTTPDraftPick fuzzes the HTTP draft pick endpoint
func FuzzHTTPDraftPick(f *testing.F) {
	fuzzEndpoint(f, "/api/draft/pick", true,
		`{"playerId":"P1001"}`,
		`{"playerId":"P1001","team":"Karachi Kings"}`,
		`{"playerId":"invalid","team":"999"}`,
		`{"playerId":7}`,
	)
}

// FuzzHTTPPreDraftBuy fuzzes the pre-draft purchase endpoint
func FuzzHTTPPreDraftBuy(f *testing.F) {
	fuzzEndpoint(f, "/api/predraft/buy", false,
		`{"team":"Lahore Qalandars","password":"lahore123","playerId":"P1001"}`,
		`{"team":"Lahore Qalandars","password":"wrong","playerId":"P1001"}`,
		`{"team":"","password":"","playerId":""}`,
	)
}

// FuzzHTTPRegisterPlayer fuzzes player registration
func FuzzHTTPRegisterPlayer(f *testing.F) {
	fuzzEndpoint(f, "/api/players/register", false,
		`{"name":"Saim Ayub","rating":84,"price":300000,"country":"Pakistan"}`,
		`{"name":"","rating":-1,"price":0}`,
		`{"id":"P1001","name":"Dup","rating":50,"price":1}`,
		`{"name":"`+string(make([]byte, 10000))+`"}`,
	)
}

// FuzzHTTPUpdateBudgets fuzzes the bulk budget endpoint
func FuzzHTTPUpdateBudgets(f *testing.F) {
	fuzzEndpoint(f, "/api/teams/budgets", false,
		`{"adminPassword":"admin123","budgets":{"Lahore Qalandars":6000000}}`,
		`{"adminPassword":"admin123","budgets":{"Karachi Kings":-5}}`,
		`{"adminPassword":"nope","budgets":{}}`,
	)
}

// FuzzHTTPStartDraft fuzzes draft start
func FuzzHTTPStartDraft(f *testing.F) {
	fuzzEndpoint(f, "/api/draft/start", false,
		`{"adminPassword":"admin123","rounds":3}`,
		`{"adminPassword":"admin123","rounds":-1}`,
		`{"adminPassword":"admin123","rounds":100000}`,
		`{}`,
	)
}

// FuzzJSONParsing fuzzes general JSON parsing
func FuzzJSONParsing(f *testing.F) {
	f.Add(`{"key":"value"}`)
	f.Add(`[1,2,3]`)
	f.Add(`null`)
	f.Add(`"string"`)
	f.Add(`123`)
	f.Add(`true`)

	f.Fuzz(func(t *testing.T, data string) {
		var result interface{}
		json.Unmarshal([]byte(data), &result)
		pubsub.NewEvent("fuzz", result)
	})
}

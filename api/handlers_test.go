package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gcbaptista/go-lostfound/config"
	"github.com/gcbaptista/go-lostfound/internal/engine"
	"github.com/gcbaptista/go-lostfound/internal/errors"
	"github.com/gcbaptista/go-lostfound/internal/metrics"
	"github.com/gcbaptista/go-lostfound/internal/notify"
	"github.com/gcbaptista/go-lostfound/internal/records"
	testutil "github.com/gcbaptista/go-lostfound/internal/testing"
	"github.com/gcbaptista/go-lostfound/model"
	"github.com/gcbaptista/go-lostfound/store"
)

// recordingDispatcher keeps every message it is asked to deliver.
type recordingDispatcher struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (d *recordingDispatcher) Dispatch(_ context.Context, msg notify.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, msg)
	return nil
}

// unavailableStore fails every call, like a database that is down.
type unavailableStore struct{}

func (unavailableStore) GetRecords(context.Context, store.Filter) ([]model.Item, error) {
	return nil, errors.NewStoreUnavailableError("get records", fmt.Errorf("connection refused"))
}

func (unavailableStore) Get(context.Context, string) (model.Item, error) {
	return model.Item{}, errors.NewStoreUnavailableError("get", fmt.Errorf("connection refused"))
}

func (unavailableStore) Add(context.Context, model.Item) error {
	return errors.NewStoreUnavailableError("add", fmt.Errorf("connection refused"))
}

func (unavailableStore) Delete(context.Context, string) error {
	return errors.NewStoreUnavailableError("delete", fmt.Errorf("connection refused"))
}

func (unavailableStore) Close() error { return nil }

type testEnv struct {
	router     *gin.Engine
	dispatcher *recordingDispatcher
}

type envOptions struct {
	store         store.Store
	notifyEnabled bool
	items         []model.Item
}

func setupTestRouter(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := opts.store
	if st == nil {
		mem, err := store.NewMemoryStore("", nil)
		require.NoError(t, err)
		testutil.SeedStore(t, mem, opts.items...)
		st = mem
	}

	m := metrics.New(prometheus.NewRegistry())
	eng, err := engine.New(st, engine.WithMetrics(m), engine.WithPoolSize(2))
	require.NoError(t, err)
	t.Cleanup(eng.Release)

	var n int
	svc, err := records.NewService(st,
		records.WithObserver(eng),
		records.WithIDGenerator(func() string { n++; return fmt.Sprintf("new-%d", n) }),
		records.WithClock(func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }),
	)
	require.NoError(t, err)

	dispatcher := &recordingDispatcher{}
	router := NewRouter(Dependencies{
		Records:      svc,
		Matcher:      eng,
		Notifier:     notify.NewNotifier(dispatcher, opts.notifyEnabled),
		Settings:     config.MatcherSettings{},
		Metrics:      m,
		Logger:       zaptest.NewLogger(t),
		MaxBodyBytes: 1 << 16,
	})
	return &testEnv{router: router, dispatcher: dispatcher}
}

func fixtures() []model.Item {
	return append(testutil.FoundFixtures(), testutil.LostFixtures()...)
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	return apiErr
}

func TestHealthCheckHandler(t *testing.T) {
	env := setupTestRouter(t, envOptions{})

	w := env.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, engine.StrategyRebuild, response["strategy"])
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestRequestIDPropagation(t *testing.T) {
	env := setupTestRouter(t, envOptions{})

	req, err := http.NewRequest(http.MethodGet, "/items/missing", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, "req-42")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(requestIDHeader))
	assert.Equal(t, "req-42", decodeError(t, w).RequestID)
}

func TestCreateItemHandler(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		expectedCode   ErrorCode
	}{
		{
			name: "valid lost report",
			requestBody: model.NewItem{
				Type:    model.ItemTypeLost,
				Name:    model.Str("Black wallet"),
				Place:   model.Str("Library"),
				Contact: "owner@example.com",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "type in any case",
			requestBody:    map[string]interface{}{"type": " LOST ", "name": "Black wallet"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "body over the size limit",
			requestBody:    map[string]interface{}{"type": "found", "description": strings.Repeat("x", 1<<17)},
			expectedStatus: http.StatusRequestEntityTooLarge,
			expectedCode:   ErrorCodeRequestTooLarge,
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid json",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidationFailed,
		},
		{
			name:           "unknown type",
			requestBody:    map[string]interface{}{"type": "stolen", "name": "Bike"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeInvalidRecord,
		},
		{
			name:           "name too long",
			requestBody:    map[string]interface{}{"type": "found", "name": strings.Repeat("x", 201)},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidationFailed,
		},
		{
			name:           "malformed date",
			requestBody:    map[string]interface{}{"type": "found", "name": "Bike", "date": "01/06/2024"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrorCodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestRouter(t, envOptions{items: testutil.FoundFixtures()})

			w := env.do(t, http.MethodPost, "/items", tt.requestBody)

			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Code)
			}
		})
	}
}

func TestCreateItemHandler_ReturnsMatches(t *testing.T) {
	env := setupTestRouter(t, envOptions{items: testutil.FoundFixtures()})

	w := env.do(t, http.MethodPost, "/items", model.NewItem{
		Type:  model.ItemTypeLost,
		Name:  model.Str("Black wallet"),
		Place: model.Str("Library"),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var response struct {
		Item    model.Item      `json:"item"`
		Matches *model.MatchSet `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.Equal(t, "new-1", response.Item.ID)
	assert.Equal(t, "2024-06-01", response.Item.Date)
	require.NotNil(t, response.Matches)
	require.NotEmpty(t, response.Matches.Matches)
	assert.Equal(t, "found-wallet", response.Matches.Matches[0].ID)
	assert.InDelta(t, 1.0, response.Matches.Matches[0].Score, 1e-9)
	assert.LessOrEqual(t, len(response.Matches.Matches), 5)

	// The new record is now part of the lost corpus.
	w = env.do(t, http.MethodGet, "/items/found-wallet/matches?top_k=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var set model.MatchSet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &set))
	require.Len(t, set.Matches, 1)
	assert.Equal(t, "new-1", set.Matches[0].ID)
}

func TestListItemsHandler(t *testing.T) {
	env := setupTestRouter(t, envOptions{items: fixtures()})

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedIDs    []string
	}{
		{
			name:           "all records in insertion order",
			query:          "",
			expectedStatus: http.StatusOK,
			expectedIDs:    testutil.IDs(fixtures()),
		},
		{
			name:           "type filter",
			query:          "?type=lost",
			expectedStatus: http.StatusOK,
			expectedIDs:    []string{"lost-wallet", "lost-umbrella", "lost-phone"},
		},
		{
			name:           "text search",
			query:          "?q=UMBRELLA",
			expectedStatus: http.StatusOK,
			expectedIDs:    []string{"found-umbrella-blue", "found-umbrella-red", "lost-umbrella"},
		},
		{
			name:           "type and text",
			query:          "?type=found&q=library",
			expectedStatus: http.StatusOK,
			expectedIDs:    []string{"found-wallet"},
		},
		{
			name:           "invalid type",
			query:          "?type=stolen",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/items"+tt.query, nil)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var response struct {
				Items []model.Item `json:"items"`
				Total int          `json:"total"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tt.expectedIDs, testutil.IDs(response.Items))
			assert.Equal(t, len(tt.expectedIDs), response.Total)
		})
	}
}

func TestGetAndDeleteItemHandlers(t *testing.T) {
	env := setupTestRouter(t, envOptions{items: fixtures()})

	w := env.do(t, http.MethodGet, "/items/found-keys", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var item model.Item
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, "Keys", item.NameText())

	w = env.do(t, http.MethodDelete, "/items/found-keys", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/items/found-keys", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrorCodeRecordNotFound, decodeError(t, w).Code)

	w = env.do(t, http.MethodDelete, "/items/found-keys", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetMatchesHandler(t *testing.T) {
	env := setupTestRouter(t, envOptions{items: fixtures()})

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expectedIDs    []string
	}{
		{
			name:           "wallet finds wallet first",
			path:           "/items/lost-wallet/matches?top_k=1",
			expectedStatus: http.StatusOK,
			expectedIDs:    []string{"found-wallet"},
		},
		{
			name:           "shorter umbrella text scores higher",
			path:           "/items/lost-umbrella/matches?top_k=2",
			expectedStatus: http.StatusOK,
			expectedIDs:    []string{"found-umbrella-red", "found-umbrella-blue"},
		},
		{
			name:           "top_k zero",
			path:           "/items/lost-wallet/matches?top_k=0",
			expectedStatus: http.StatusOK,
			expectedIDs:    []string{},
		},
		{
			name:           "negative top_k",
			path:           "/items/lost-wallet/matches?top_k=-1",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown item",
			path:           "/items/missing/matches",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, tt.path, nil)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var set model.MatchSet
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &set))
			ids := make([]string, len(set.Matches))
			for i, m := range set.Matches {
				ids[i] = m.ID
				assert.GreaterOrEqual(t, m.Score, 0.0)
				assert.LessOrEqual(t, m.Score, 1.0)
			}
			assert.Equal(t, tt.expectedIDs, ids)
		})
	}
}

func TestGetMatchesHandler_DefaultTopKAndEmptyCorpus(t *testing.T) {
	env := setupTestRouter(t, envOptions{items: testutil.FoundFixtures()})

	w := env.do(t, http.MethodGet, "/items/found-wallet/matches", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var set model.MatchSet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &set))
	assert.Empty(t, set.Matches)
	assert.Equal(t, model.EmptyReasonEmptyCorpus, set.Reason)
	assert.Equal(t, 0, set.CorpusSize)
}

func TestGetReportHandler(t *testing.T) {
	env := setupTestRouter(t, envOptions{items: fixtures()})

	w := env.do(t, http.MethodGet, "/items/lost-wallet/report?top_k=1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	body := w.Body.String()
	assert.Contains(t, body, "Lost & Found Report for Lost - Black wallet")
	assert.Contains(t, body, "- Found | Black wallet | Score: 1.00 | Place: Library | Contact: found-wallet@example.com")
}

func TestNotifyMatchHandler(t *testing.T) {
	t.Run("dispatches to the match contact", func(t *testing.T) {
		env := setupTestRouter(t, envOptions{items: fixtures(), notifyEnabled: true})

		w := env.do(t, http.MethodPost, "/items/lost-wallet/notify/found-wallet", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		require.Len(t, env.dispatcher.sent, 1)
		msg := env.dispatcher.sent[0]
		assert.Equal(t, notify.ChannelEmail, msg.Channel)
		assert.Equal(t, "found-wallet@example.com", msg.To)
		assert.Equal(t, "Possible match for your found item: Black wallet", msg.Subject)
	})

	t.Run("disabled notifications", func(t *testing.T) {
		env := setupTestRouter(t, envOptions{items: fixtures()})

		w := env.do(t, http.MethodPost, "/items/lost-wallet/notify/found-wallet", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, ErrorCodeNotificationsDisabled, decodeError(t, w).Code)
		assert.Empty(t, env.dispatcher.sent)
	})

	t.Run("same type is rejected", func(t *testing.T) {
		env := setupTestRouter(t, envOptions{items: fixtures(), notifyEnabled: true})

		w := env.do(t, http.MethodPost, "/items/lost-wallet/notify/lost-phone", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, ErrorCodeInvalidRequest, decodeError(t, w).Code)
	})

	t.Run("unknown match", func(t *testing.T) {
		env := setupTestRouter(t, envOptions{items: fixtures(), notifyEnabled: true})

		w := env.do(t, http.MethodPost, "/items/lost-wallet/notify/missing", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDashboardHandler(t *testing.T) {
	env := setupTestRouter(t, envOptions{items: fixtures()})

	w := env.do(t, http.MethodGet, "/dashboard?type=lost&top_k=1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response struct {
		Type    model.ItemType    `json:"type"`
		TopK    int               `json:"top_k"`
		Results []*model.MatchSet `json:"results"`
		Total   int               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.Equal(t, model.ItemTypeLost, response.Type)
	assert.Equal(t, 1, response.TopK)
	require.Len(t, response.Results, 3)
	sources := make([]string, len(response.Results))
	for i, set := range response.Results {
		sources[i] = set.Source.ID
		assert.LessOrEqual(t, len(set.Matches), 1)
	}
	assert.Equal(t, []string{"lost-wallet", "lost-umbrella", "lost-phone"}, sources)
	assert.Equal(t, "found-wallet", response.Results[0].Matches[0].ID)

	w = env.do(t, http.MethodGet, "/dashboard?type=stolen", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStoreUnavailable(t *testing.T) {
	env := setupTestRouter(t, envOptions{store: unavailableStore{}})

	tests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{method: http.MethodGet, path: "/items"},
		{method: http.MethodGet, path: "/items/x"},
		{method: http.MethodGet, path: "/items/x/matches"},
		{method: http.MethodGet, path: "/dashboard"},
		{method: http.MethodPost, path: "/items", body: model.NewItem{Type: model.ItemTypeFound, Name: model.Str("Bike")}},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusServiceUnavailable, w.Code)
			assert.Equal(t, ErrorCodeStoreUnavailable, decodeError(t, w).Code)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestRouter(t, envOptions{items: fixtures()})

	env.do(t, http.MethodGet, "/items/lost-wallet/matches", nil)
	w := env.do(t, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `lostfound_http_requests_total{method="GET",path="/items/:itemId/matches",status="200"} 1`)
	assert.Contains(t, body, `lostfound_match_requests_total{outcome="matched",strategy="rebuild"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	env := setupTestRouter(t, envOptions{})

	w := env.do(t, http.MethodOptions, "/items", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

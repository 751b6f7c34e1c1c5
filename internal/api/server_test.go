package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrade/internal/core"
	"papertrade/internal/ops"
	"papertrade/internal/store"
	"papertrade/pkg/exception"
)

type testServer struct {
	t   *testing.T
	srv *httptest.Server
	svc *core.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg, err := ops.Load("")
	require.NoError(t, err)
	cfg.Features.EnableSimulator = false
	svc, err := core.New(t.Context(), cfg, store.NewMemory())
	require.NoError(t, err)
	h, err := NewHandler(svc.Ledger, svc.Catalog, svc, svc.Metrics, svc.Currency())
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv, svc: svc}
}

func (s *testServer) do(method, path string, body any, out any) int {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := sonic.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(s.t.Context(), method, s.srv.URL+path, reader)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.srv.Client().Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(s.t, sonic.ConfigDefault.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *testServer) open() string {
	s.t.Helper()
	var acc accountResponse
	require.Equal(s.t, http.StatusCreated, s.do(http.MethodPost, "/v1/accounts", nil, &acc))
	require.NotEmpty(s.t, acc.ID)
	return acc.ID
}

func TestTradeFlow(t *testing.T) {
	s := newTestServer(t)
	id := s.open()

	var txn transactionResponse
	status := s.do(http.MethodPost, "/v1/accounts/"+id+"/buy", map[string]any{"symbol": "aapl", "shares": 10}, &txn)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "AAPL", txn.Symbol)
	assert.Equal(t, "1800", txn.Total.String())

	var snap snapshotResponse
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/accounts/"+id, nil, &snap))
	assert.Equal(t, "8200", snap.CashBalance.String())
	assert.Equal(t, "10000", snap.TotalValue.String())
	assert.Equal(t, "$10,000.00", snap.TotalValueDisplay)
	require.Len(t, snap.Holdings, 1)
	assert.Equal(t, int64(10), snap.Holdings[0].Shares)

	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/v1/accounts/"+id+"/sell", map[string]any{"symbol": "AAPL", "shares": 4}, &txn))

	var txns []transactionResponse
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/accounts/"+id+"/transactions", nil, &txns))
	assert.Len(t, txns, 2)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	id := s.open()

	testCases := []struct {
		desc   string
		method string
		path   string
		body   any
		status int
		kind   string
	}{
		{desc: "insufficient funds", method: http.MethodPost, path: "/v1/accounts/" + id + "/buy", body: map[string]any{"symbol": "BTC", "shares": 1}, status: http.StatusUnprocessableEntity, kind: exception.KindInsufficientFunds.String()},
		{desc: "insufficient shares", method: http.MethodPost, path: "/v1/accounts/" + id + "/sell", body: map[string]any{"symbol": "AAPL", "shares": 1}, status: http.StatusUnprocessableEntity, kind: exception.KindInsufficientShares.String()},
		{desc: "invalid quantity", method: http.MethodPost, path: "/v1/accounts/" + id + "/buy", body: map[string]any{"symbol": "AAPL", "shares": 0}, status: http.StatusBadRequest, kind: exception.KindInvalidQuantity.String()},
		{desc: "fractional shares", method: http.MethodPost, path: "/v1/accounts/" + id + "/buy", body: map[string]any{"symbol": "AAPL", "shares": 1.5}, status: http.StatusBadRequest, kind: exception.KindInvalidQuantity.String()},
		{desc: "negative shares", method: http.MethodPost, path: "/v1/accounts/" + id + "/sell", body: map[string]any{"symbol": "AAPL", "shares": -3}, status: http.StatusBadRequest, kind: exception.KindInvalidQuantity.String()},
		{desc: "oversized shares", method: http.MethodPost, path: "/v1/accounts/" + id + "/buy", body: map[string]any{"symbol": "AAPL", "shares": "99999999999999999999"}, status: http.StatusBadRequest, kind: exception.KindInvalidQuantity.String()},
		{desc: "malformed shares", method: http.MethodPost, path: "/v1/accounts/" + id + "/buy", body: map[string]any{"symbol": "AAPL", "shares": "ten"}, status: http.StatusBadRequest, kind: "InvalidArgument"},
		{desc: "unknown symbol", method: http.MethodPost, path: "/v1/accounts/" + id + "/buy", body: map[string]any{"symbol": "NOPE", "shares": 1}, status: http.StatusNotFound, kind: exception.KindInstrumentUnavailable.String()},
		{desc: "unknown account", method: http.MethodGet, path: "/v1/accounts/missing", status: http.StatusNotFound, kind: exception.KindAccountNotFound.String()},
		{desc: "invalid amount", method: http.MethodPost, path: "/v1/accounts/" + id + "/transfers", body: map[string]any{"direction": "cash_to_savings", "amount": "0"}, status: http.StatusBadRequest, kind: exception.KindInvalidAmount.String()},
		{desc: "insufficient balance", method: http.MethodPost, path: "/v1/accounts/" + id + "/transfers", body: map[string]any{"direction": "savings_to_cash", "amount": "1"}, status: http.StatusUnprocessableEntity, kind: exception.KindInsufficientBalance.String()},
		{desc: "bad direction", method: http.MethodPost, path: "/v1/accounts/" + id + "/transfers", body: map[string]any{"direction": "sideways", "amount": "1"}, status: http.StatusBadRequest, kind: "InvalidArgument"},
		{desc: "incomplete assessment", method: http.MethodPost, path: "/v1/accounts/" + id + "/risk-assessment", body: map[string]any{"answers": []any{}}, status: http.StatusBadRequest, kind: exception.KindIncompleteAssessment.String()},
		{desc: "unknown game", method: http.MethodPost, path: "/v1/accounts/" + id + "/games", body: map[string]any{"kind": "chess", "delta": 1}, status: http.StatusBadRequest, kind: "InvalidArgument"},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			var body errorBody
			status := s.do(tc.method, tc.path, tc.body, &body)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.kind, body.Error.Kind)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestTransfersEndpoint(t *testing.T) {
	s := newTestServer(t)
	id := s.open()

	var tr transferResponse
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/v1/accounts/"+id+"/transfers", map[string]any{"direction": "cash_to_savings", "amount": "1500.25"}, &tr))
	assert.Equal(t, "1500.25", tr.Amount.String())

	var trs []transferResponse
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/accounts/"+id+"/transfers", nil, &trs))
	assert.Len(t, trs, 1)

	var snap snapshotResponse
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/accounts/"+id, nil, &snap))
	assert.Equal(t, "1500.25", snap.SavingsBalance.String())
}

func TestRiskEndpoints(t *testing.T) {
	s := newTestServer(t)
	id := s.open()

	var questions []struct {
		ID      string `json:"id"`
		Options []struct {
			Score int `json:"score"`
		} `json:"options"`
	}
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/risk/questionnaire", nil, &questions))
	require.Len(t, questions, 7)

	answers := make([]map[string]any, 0, len(questions))
	for _, q := range questions {
		low := q.Options[0].Score
		for _, o := range q.Options {
			low = min(low, o.Score)
		}
		answers = append(answers, map[string]any{"questionId": q.ID, "selectedScore": low})
	}
	var res assessmentResponse
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/v1/accounts/"+id+"/risk-assessment", map[string]any{"answers": answers}, &res))
	assert.Equal(t, "conservative", res.Profile.String())

	var align alignmentResponse
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/accounts/"+id+"/alignment/tsla", nil, &align))
	assert.Equal(t, "TSLA", align.Symbol)
	assert.False(t, align.Aligned)

	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/accounts/"+id+"/alignment/SPY", nil, &align))
	assert.True(t, align.Aligned)
}

func TestGamesAndAchievements(t *testing.T) {
	s := newTestServer(t)
	id := s.open()

	var counters countersResponse
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/v1/accounts/"+id+"/games", map[string]any{"kind": "market_prediction", "delta": 10}, &counters))
	assert.Equal(t, int64(10), counters.CorrectPredictions)

	var res achievementsResponse
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/accounts/"+id+"/achievements", nil, &res))
	assert.Len(t, res.Achievements, 8)
	assert.Equal(t, []string{"prediction_expert"}, res.NewUnlocks)

	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/accounts/"+id+"/achievements", nil, &res))
	assert.Empty(t, res.NewUnlocks)
}

func TestInstrumentsAndMetrics(t *testing.T) {
	s := newTestServer(t)
	id := s.open()

	var instruments []instrumentResponse
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/instruments", nil, &instruments))
	assert.Len(t, instruments, 12)

	var inst instrumentResponse
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/instruments/gold", nil, &inst))
	assert.Equal(t, "GOLD", inst.Symbol)
	assert.Equal(t, "commodity", inst.Volatility.String())

	var body errorBody
	require.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/v1/instruments/NOPE", nil, &body))

	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/v1/accounts/"+id+"/buy", map[string]any{"symbol": "SPY", "shares": 1}, nil))
	require.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/v1/accounts/"+id+"/buy", map[string]any{"symbol": "SPY", "shares": -1}, nil))

	var m metricsResponse
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/metrics", nil, &m))
	assert.Equal(t, uint64(1), m.Trades["buy"])
	assert.Equal(t, uint64(1), m.Rejections[exception.KindInvalidQuantity.String()])
}

func TestMalformedBody(t *testing.T) {
	s := newTestServer(t)
	id := s.open()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, s.srv.URL+"/v1/accounts/"+id+"/buy", bytes.NewReader([]byte(`{"symbol":`)))
	require.NoError(t, err)
	resp, err := s.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

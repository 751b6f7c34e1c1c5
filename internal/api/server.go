/*
Api exposes the ledger over JSON and HTTP.

# Module
  - accounts: open, snapshot, history
  - trading: buy, sell, transfer
  - risk: questionnaire, assessment, alignment
  - games and achievements
  - instruments and metrics

Errors are mapped to a status code and the user-facing message of their kind.
*/
package api

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"papertrade/internal/achievement"
	"papertrade/internal/obs"
	"papertrade/internal/risk"
	"papertrade/internal/schema"
	"papertrade/pkg/exception"
)

const maxBodyBytes = 1 << 16

// Ledger is the account surface served by the API.
type Ledger interface {
	OpenAccount(ctx context.Context) (schema.Account, error)
	Snapshot(ctx context.Context, accountID string) (schema.AccountSnapshot, error)
	Buy(ctx context.Context, accountID, symbol string, shares int64) (schema.Transaction, error)
	Sell(ctx context.Context, accountID, symbol string, shares int64) (schema.Transaction, error)
	Transfer(ctx context.Context, accountID string, direction schema.TransferDirection, amount decimal.Decimal) (schema.Transfer, error)
	Transactions(ctx context.Context, accountID string) ([]schema.Transaction, error)
	Transfers(ctx context.Context, accountID string) ([]schema.Transfer, error)
	AssessRisk(ctx context.Context, accountID string, answers []schema.Answer) (schema.RiskAssessment, error)
	CheckSymbolAlignment(ctx context.Context, accountID, symbol string) (bool, error)
	Questionnaire() *risk.Questionnaire
}

// Instruments lists tradable instruments.
type Instruments interface {
	ListActive() []schema.Instrument
	Instrument(symbol string) (schema.Instrument, bool)
}

// Games records game counters and reports achievements.
type Games interface {
	RecordGameScore(ctx context.Context, accountID string, kind schema.GameKind, delta int64) (schema.GameCounters, error)
	Achievements(ctx context.Context, accountID string) (achievement.Result, error)
}

// Handler routes API requests.
type Handler struct {
	ledger      Ledger
	instruments Instruments
	games       Games
	metrics     *obs.Metrics
	currency    string
	mux         *http.ServeMux
}

// NewHandler builds the route table.
func NewHandler(l Ledger, instruments Instruments, games Games, metrics *obs.Metrics, currency string) (*Handler, error) {
	if l == nil || instruments == nil || games == nil {
		return nil, errors.Wrap(exception.ErrNilInstance, "api dependencies")
	}
	h := &Handler{
		ledger:      l,
		instruments: instruments,
		games:       games,
		metrics:     metrics,
		currency:    currency,
		mux:         http.NewServeMux(),
	}
	h.mux.HandleFunc("GET /v1/instruments", h.listInstruments)
	h.mux.HandleFunc("GET /v1/instruments/{symbol}", h.getInstrument)
	h.mux.HandleFunc("GET /v1/risk/questionnaire", h.questionnaire)
	h.mux.HandleFunc("GET /v1/metrics", h.getMetrics)
	h.mux.HandleFunc("POST /v1/accounts", h.openAccount)
	h.mux.HandleFunc("GET /v1/accounts/{id}", h.snapshot)
	h.mux.HandleFunc("POST /v1/accounts/{id}/buy", h.buy)
	h.mux.HandleFunc("POST /v1/accounts/{id}/sell", h.sell)
	h.mux.HandleFunc("GET /v1/accounts/{id}/transactions", h.transactions)
	h.mux.HandleFunc("POST /v1/accounts/{id}/transfers", h.transfer)
	h.mux.HandleFunc("GET /v1/accounts/{id}/transfers", h.transfers)
	h.mux.HandleFunc("POST /v1/accounts/{id}/risk-assessment", h.assess)
	h.mux.HandleFunc("GET /v1/accounts/{id}/alignment/{symbol}", h.alignment)
	h.mux.HandleFunc("POST /v1/accounts/{id}/games", h.recordGame)
	h.mux.HandleFunc("GET /v1/accounts/{id}/achievements", h.achievements)
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) listInstruments(w http.ResponseWriter, _ *http.Request) {
	active := h.instruments.ListActive()
	out := make([]instrumentResponse, 0, len(active))
	for _, inst := range active {
		out = append(out, toInstrument(inst))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getInstrument(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	inst, ok := h.instruments.Instrument(symbol)
	if !ok {
		writeError(w, errors.Wrap(exception.ErrInstrumentUnavailable, "get instrument").With("symbol", symbol))
		return
	}
	writeJSON(w, http.StatusOK, toInstrument(inst))
}

func (h *Handler) questionnaire(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ledger.Questionnaire().Questions())
}

func (h *Handler) getMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toMetrics(h.metrics.Snapshot()))
}

func (h *Handler) openAccount(w http.ResponseWriter, r *http.Request) {
	acc, err := h.ledger.OpenAccount(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccount(acc))
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.ledger.Snapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshot(snap, h.currency))
}

func (h *Handler) buy(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.ledger.Buy)
}

func (h *Handler) sell(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.ledger.Sell)
}

func (h *Handler) trade(w http.ResponseWriter, r *http.Request, exec func(context.Context, string, string, int64) (schema.Transaction, error)) {
	var req tradeRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	shares, err := req.wholeShares()
	if err != nil {
		writeError(w, err)
		return
	}
	txn, err := exec(r.Context(), r.PathValue("id"), strings.ToUpper(strings.TrimSpace(req.Symbol)), shares)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransaction(txn))
}

func (h *Handler) transactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.ledger.Transactions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, toTransaction(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	tr, err := h.ledger.Transfer(r.Context(), r.PathValue("id"), req.Direction, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransfer(tr))
}

func (h *Handler) transfers(w http.ResponseWriter, r *http.Request) {
	trs, err := h.ledger.Transfers(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]transferResponse, 0, len(trs))
	for _, t := range trs {
		out = append(out, toTransfer(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) assess(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	answers := make([]schema.Answer, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, schema.Answer{QuestionID: a.QuestionID, SelectedScore: a.SelectedScore})
	}
	res, err := h.ledger.AssessRisk(r.Context(), r.PathValue("id"), answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assessmentResponse{
		Score:       res.Score,
		Profile:     res.Profile,
		Description: res.Description,
		AssessedAt:  res.AssessedAt,
	})
}

func (h *Handler) alignment(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	aligned, err := h.ledger.CheckSymbolAlignment(r.Context(), r.PathValue("id"), symbol)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alignmentResponse{Symbol: symbol, Aligned: aligned})
}

func (h *Handler) recordGame(w http.ResponseWriter, r *http.Request) {
	var req gameRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	counters, err := h.games.RecordGameScore(r.Context(), r.PathValue("id"), req.Kind, req.Delta)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, countersResponse{QuizScore: counters.QuizScore, CorrectPredictions: counters.CorrectPredictions})
}

func (h *Handler) achievements(w http.ResponseWriter, r *http.Request) {
	res, err := h.games.Achievements(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAchievements(res))
}

func readJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return errors.Wrap(exception.ErrInvalidArgument, "read body").With("cause", err.Error())
	}
	if len(body) > maxBodyBytes {
		return errors.Wrap(exception.ErrInvalidArgument, "body too large")
	}
	if err := sonic.Unmarshal(body, v); err != nil {
		return errors.Wrap(exception.ErrInvalidArgument, "decode body").With("cause", err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	payload, err := sonic.Marshal(v)
	if err != nil {
		logs.Errorf("api encode response, err: %+v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func writeError(w http.ResponseWriter, err error) {
	kind := exception.KindOf(err)
	status := statusOf(err, kind)
	if status >= http.StatusInternalServerError {
		logs.Errorf("api request failed, kind: %s, err: %+v", kind, err)
	}
	detail := errorDetail{Kind: kind.String(), Message: exception.Message(err), Retryable: exception.Retryable(err)}
	if kind == exception.KindUnknown && stderrors.Is(err, exception.ErrInvalidArgument) {
		detail.Kind = "InvalidArgument"
		detail.Message = "The request is malformed."
	}
	writeJSON(w, status, errorBody{Error: detail})
}

func statusOf(err error, kind exception.Kind) int {
	switch kind {
	case exception.KindInvalidQuantity, exception.KindInvalidAmount, exception.KindIncompleteAssessment, exception.KindInvalidAnswer:
		return http.StatusBadRequest
	case exception.KindAccountNotFound, exception.KindInstrumentUnavailable:
		return http.StatusNotFound
	case exception.KindInsufficientFunds, exception.KindInsufficientShares, exception.KindInsufficientBalance:
		return http.StatusUnprocessableEntity
	case exception.KindLimitExceeded:
		return http.StatusForbidden
	case exception.KindTimeout, exception.KindPersistenceFailure:
		return http.StatusServiceUnavailable
	}
	if stderrors.Is(err, exception.ErrInvalidArgument) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

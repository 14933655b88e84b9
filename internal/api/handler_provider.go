package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fastprodman/payments-engine/internal/csvio"
	"github.com/fastprodman/payments-engine/internal/repos/transactions"
	"github.com/fastprodman/payments-engine/internal/services/accounts"
	"github.com/fastprodman/payments-engine/internal/services/engine"
)

// DefaultMaxBodyBytes caps the CSV body of a run request.
const DefaultMaxBodyBytes int64 = 10 << 20

// RunProcessor runs one CSV input to completion.
type RunProcessor interface {
	Process(ctx context.Context, r io.Reader) (engine.Result, error)
}

// RunLister reads back the summaries of an exported run.
type RunLister interface {
	ListRun(ctx context.Context, runID uuid.UUID) ([]accounts.Snapshot, error)
}

// HandlerProvider wraps a RunProcessor and exposes HTTP handlers.
type HandlerProvider struct {
	svc          RunProcessor
	runs         RunLister
	maxBodyBytes int64
}

// NewHandler returns a new handler provider. runs may be nil when no
// summary store is configured.
func NewHandler(svc RunProcessor, runs RunLister, maxBodyBytes int64) *HandlerProvider {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}

	return &HandlerProvider{svc: svc, runs: runs, maxBodyBytes: maxBodyBytes}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type accountResponse struct {
	Client    uint16 `json:"client"`
	Available string `json:"available"`
	Held      string `json:"held"`
	Total     string `json:"total"`
	Locked    bool   `json:"locked"`
}

type runResponse struct {
	RunID    string            `json:"runId"`
	Accounts []accountResponse `json:"accounts"`
}

func newRunResponse(runID uuid.UUID, snapshots []accounts.Snapshot) runResponse {
	out := runResponse{
		RunID:    runID.String(),
		Accounts: make([]accountResponse, 0, len(snapshots)),
	}

	for _, s := range snapshots {
		out.Accounts = append(out.Accounts, newAccountResponse(s))
	}

	return out
}

func newAccountResponse(s accounts.Snapshot) accountResponse {
	return accountResponse{
		Client:    s.ClientID,
		Available: s.Available.StringFixed(engine.AmountPrecision),
		Held:      s.Held.StringFixed(engine.AmountPrecision),
		Total:     s.Total.StringFixed(engine.AmountPrecision),
		Locked:    s.Locked,
	}
}

// errorStatus maps a failed run to a status code.
func errorStatus(err error) int {
	var maxErr *http.MaxBytesError

	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, csvio.ErrMalformedRecord), errors.Is(err, csvio.ErrMissingColumn):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrUnknownTransactionType),
		errors.Is(err, engine.ErrAmountMissing),
		errors.Is(err, engine.ErrInvalidAmount),
		errors.Is(err, engine.ErrUnableToProcessTransaction),
		errors.Is(err, transactions.ErrDuplicateTransaction),
		errors.Is(err, accounts.ErrAccountLocked),
		errors.Is(err, accounts.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// --- Handlers ---

// CreateRunHandler handles POST /v1/runs. The body is the CSV input.
func (h *HandlerProvider) CreateRunHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	defer r.Body.Close()

	res, err := h.svc.Process(r.Context(), r.Body)
	if err != nil {
		status := errorStatus(err)
		if status == http.StatusInternalServerError {
			slog.Error("run failed", "error", err)
			writeError(w, status, "internal error")

			return
		}

		slog.Info("run rejected", "status", status, "error", err)
		writeError(w, status, err.Error())

		return
	}

	writeJSON(w, http.StatusOK, newRunResponse(res.RunID, res.Accounts))
}

// GetRunHandler handles GET /v1/runs/{runId} for exported runs.
func (h *HandlerProvider) GetRunHandler(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeError(w, http.StatusNotFound, "run export disabled")

		return
	}

	runID, err := uuid.Parse(chi.URLParam(r, "runId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid runId in path")

		return
	}

	snapshots, err := h.runs.ListRun(r.Context(), runID)
	if err != nil {
		slog.Error("list run failed", "run_id", runID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")

		return
	}

	// Runs are stored as account rows only, so a run that touched no
	// account cannot be told apart from an unknown one.
	if len(snapshots) == 0 {
		writeError(w, http.StatusNotFound, "run not found")

		return
	}

	writeJSON(w, http.StatusOK, newRunResponse(runID, snapshots))
}

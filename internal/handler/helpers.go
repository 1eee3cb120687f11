package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/mateusffsc/sapataria-ledger-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func parsePagination(r *http.Request) (page, pageSize int) {
	page = 1
	pageSize = 50
	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if ps, err := strconv.Atoi(v); err == nil && ps > 0 && ps <= 500 {
			pageSize = ps
		}
	}
	return
}

// parseDateRange reads from/to query parameters. Accepts RFC3339
// timestamps or plain dates; a plain "to" date is widened to the end of
// that day so the bound stays inclusive.
func parseDateRange(r *http.Request) (domain.DateRange, error) {
	var rng domain.DateRange

	if v := r.URL.Query().Get("from"); v != "" {
		t, _, err := parseTimeParam(v)
		if err != nil {
			return rng, &domain.ErrValidation{Field: "from", Message: "must be RFC3339 or YYYY-MM-DD"}
		}
		rng.From = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, dateOnly, err := parseTimeParam(v)
		if err != nil {
			return rng, &domain.ErrValidation{Field: "to", Message: "must be RFC3339 or YYYY-MM-DD"}
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		rng.To = t
	}
	if !rng.From.IsZero() && !rng.To.IsZero() && rng.To.Before(rng.From) {
		return rng, &domain.ErrValidation{Field: "to", Message: "must not be before from"}
	}
	return rng, nil
}

func parseTimeParam(v string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse(time.RFC3339, v); err == nil {
		return t, false, nil
	}
	if t, err = time.Parse("2006-01-02", v); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, err
}

// handleServiceError maps domain errors to HTTP status codes.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var (
		notFound        *domain.ErrNotFound
		validation      *domain.ErrValidation
		accountNotFound *domain.ErrAccountNotFound
		overpayment     *domain.ErrOverpayment
		inconsistency   *domain.ErrInconsistency
		external        *domain.ErrExternalService
	)

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &accountNotFound):
		logger.Warn("referenced account missing", zap.String("account_id", accountNotFound.AccountID))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &overpayment):
		logger.Warn("overpayment rejected",
			zap.String("credit_sale_id", overpayment.SaleID),
			zap.String("amount_paid", overpayment.AmountPaid.String()),
			zap.String("attempted", overpayment.Attempted.String()),
			zap.String("total_due", overpayment.TotalDue.String()),
		)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &inconsistency):
		logger.Error("ledger inconsistency", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	case errors.As(err, &external):
		logger.Error("external service error", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

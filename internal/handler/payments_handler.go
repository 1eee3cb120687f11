package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mateusffsc/sapataria-ledger-go/internal/domain"
	"github.com/mateusffsc/sapataria-ledger-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// paymentRequest is the wire shape for record and amend. Amount comes
// in as a decimal string ("149.90"); it is parsed to centavos at the
// edge and never handled as a float.
type paymentRequest struct {
	Amount               string              `json:"amount"`
	MovementKind         string              `json:"movement_kind"`
	OccurredAt           string              `json:"occurred_at"`
	SourceAccountID      string              `json:"source_account_id"`
	DestinationAccountID string              `json:"destination_account_id"`
	PaymentMethodID      string              `json:"payment_method_id"`
	Link                 *domain.PaymentLink `json:"link"`
}

func (req *paymentRequest) toDraft() (*domain.PaymentDraft, error) {
	amount, err := domain.ParseCentavos(req.Amount)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "amount", Message: err.Error()}
	}

	occurredAt := time.Now()
	if req.OccurredAt != "" {
		occurredAt, err = time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			return nil, &domain.ErrValidation{Field: "occurred_at", Message: "must be RFC3339"}
		}
	}

	return &domain.PaymentDraft{
		Amount:               amount,
		Kind:                 domain.MovementKind(req.MovementKind),
		OccurredAt:           occurredAt,
		SourceAccountID:      req.SourceAccountID,
		DestinationAccountID: req.DestinationAccountID,
		PaymentMethodID:      req.PaymentMethodID,
		Link:                 req.Link,
	}, nil
}

// ============================================================
// Payments — /v1/payments
// ============================================================

func createPaymentHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/payments")
		defer span.End()

		var req paymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		draft, err := req.toDraft()
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("movement.kind", string(draft.Kind)))

		payment, err := svc.Record(ctx, draft)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, payment)
	}
}

func listPaymentsHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/payments")
		defer span.End()

		rng, err := parseDateRange(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		filter := domain.PaymentFilter{
			Kind:      domain.MovementKind(r.URL.Query().Get("movement_kind")),
			AccountID: r.URL.Query().Get("account_id"),
			LinkKind:  domain.LinkKind(r.URL.Query().Get("link_type")),
		}
		if filter.Kind != "" && !filter.Kind.Valid() {
			writeError(w, http.StatusBadRequest, "movement_kind must be one of: revenue, expense, transfer")
			return
		}
		if filter.LinkKind != "" && !filter.LinkKind.Valid() {
			writeError(w, http.StatusBadRequest, "link_type must be one of: sale, service_order, credit_sale, payable")
			return
		}

		page, pageSize := parsePagination(r)

		payments, err := svc.List(ctx, rng, filter, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"payments":  payments,
			"page":      page,
			"page_size": pageSize,
			"count":     len(payments),
		})
	}
}

func getPaymentHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/payments/{paymentId}")
		defer span.End()

		paymentID := chi.URLParam(r, "paymentId")
		span.SetAttributes(attribute.String("payment.id", paymentID))

		payment, err := svc.GetByID(ctx, paymentID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, payment)
	}
}

func updatePaymentHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/payments/{paymentId}")
		defer span.End()

		paymentID := chi.URLParam(r, "paymentId")
		span.SetAttributes(attribute.String("payment.id", paymentID))

		var req paymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		draft, err := req.toDraft()
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		payment, err := svc.Amend(ctx, paymentID, draft)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, payment)
	}
}

func deletePaymentHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/payments/{paymentId}")
		defer span.End()

		paymentID := chi.URLParam(r, "paymentId")
		span.SetAttributes(attribute.String("payment.id", paymentID))

		if err := svc.Remove(ctx, paymentID); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

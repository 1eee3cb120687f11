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

// creditSaleResponse decorates a credit sale with its effective status,
// so overdue shows up in API reads without ever being stored.
type creditSaleResponse struct {
	domain.CreditSale
	EffectiveStatus domain.CreditSaleStatus `json:"effective_status"`
}

func toCreditSaleResponse(sale *domain.CreditSale, now time.Time) creditSaleResponse {
	return creditSaleResponse{
		CreditSale:      *sale,
		EffectiveStatus: sale.EffectiveStatus(now),
	}
}

// ============================================================
// Credit sales (crediário) — /v1/credit-sales
// ============================================================

func createCreditSaleHandler(svc *service.SettlementService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/credit-sales")
		defer span.End()

		var req struct {
			SaleID   string `json:"sale_id"`
			ClientID string `json:"client_id"`
			TotalDue string `json:"total_amount_due"`
			DueDate  string `json:"due_date"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		totalDue, err := domain.ParseCentavos(req.TotalDue)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var dueDate time.Time
		if req.DueDate != "" {
			dueDate, _, err = parseTimeParam(req.DueDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "due_date must be RFC3339 or YYYY-MM-DD")
				return
			}
		}

		sale, err := svc.Create(ctx, &domain.CreditSaleDraft{
			SaleID:   req.SaleID,
			ClientID: req.ClientID,
			TotalDue: totalDue,
			DueDate:  dueDate,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, toCreditSaleResponse(sale, time.Now()))
	}
}

func listCreditSalesHandler(svc *service.SettlementService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/credit-sales")
		defer span.End()

		status := domain.CreditSaleStatus(r.URL.Query().Get("status"))
		switch status {
		case "", domain.CreditSaleOpen, domain.CreditSalePaid, domain.CreditSaleOverdue:
		default:
			writeError(w, http.StatusBadRequest, "status must be one of: open, paid, overdue")
			return
		}

		now := time.Now()
		sales, err := svc.List(ctx, status, now)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		out := make([]creditSaleResponse, 0, len(sales))
		for i := range sales {
			out = append(out, toCreditSaleResponse(&sales[i], now))
		}

		writeJSON(w, http.StatusOK, map[string]any{"credit_sales": out})
	}
}

func getCreditSaleHandler(svc *service.SettlementService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/credit-sales/{saleId}")
		defer span.End()

		saleID := chi.URLParam(r, "saleId")
		span.SetAttributes(attribute.String("credit_sale.id", saleID))

		sale, err := svc.Get(ctx, saleID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, toCreditSaleResponse(sale, time.Now()))
	}
}

// collectCreditSaleHandler records a crediário collection in one call:
// a revenue payment into the receiving account, linked to the sale, so
// the ledger service settles the sale and moves the balance together.
func collectCreditSaleHandler(ledger *service.LedgerService, settlement *service.SettlementService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/credit-sales/{saleId}/payments")
		defer span.End()

		saleID := chi.URLParam(r, "saleId")
		span.SetAttributes(attribute.String("credit_sale.id", saleID))

		var req struct {
			Amount               string `json:"amount"`
			DestinationAccountID string `json:"destination_account_id"`
			PaymentMethodID      string `json:"payment_method_id"`
			OccurredAt           string `json:"occurred_at"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		amount, err := domain.ParseCentavos(req.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		occurredAt := time.Now()
		if req.OccurredAt != "" {
			occurredAt, err = time.Parse(time.RFC3339, req.OccurredAt)
			if err != nil {
				writeError(w, http.StatusBadRequest, "occurred_at must be RFC3339")
				return
			}
		}

		payment, err := ledger.Record(ctx, &domain.PaymentDraft{
			Amount:               amount,
			Kind:                 domain.MovementRevenue,
			OccurredAt:           occurredAt,
			DestinationAccountID: req.DestinationAccountID,
			PaymentMethodID:      req.PaymentMethodID,
			Link:                 &domain.PaymentLink{Kind: domain.LinkCreditSale, ID: saleID},
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		sale, err := settlement.Get(ctx, saleID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"payment":     payment,
			"credit_sale": toCreditSaleResponse(sale, time.Now()),
		})
	}
}

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/adotaqui/adotaqui-backend/internal/domain"
	"github.com/adotaqui/adotaqui-backend/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Doações
// ============================================================

func createDonationHandler(svc *service.DonationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/donations")
		defer span.End()

		var req domain.CreateDonationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		// Donor identity falls back to the authenticated user
		user := UserFromContext(ctx)
		if req.DonorName == "" {
			req.DonorName = user.DisplayName
		}
		if req.DonorEmail == "" {
			req.DonorEmail = user.Email
		}

		resp, err := svc.CreateDonation(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func listDonationsHandler(svc *service.DonationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/ongs/{ongId}/donations")
		defer span.End()

		ongID := chi.URLParam(r, "ongId")
		donations, err := svc.ListDonations(ctx, ongID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if donations == nil {
			donations = []domain.Donation{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"donations": donations})
	}
}

// syncDonationHandler reconciles one donation against the payment gateway.
// The result always comes back 200 with a success flag; the app polls this
// after showing the PIX QR code.
func syncDonationHandler(svc *service.DonationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/donations/{donationId}/sync")
		defer span.End()

		donationID := chi.URLParam(r, "donationId")
		if donationID == "" {
			writeError(w, http.StatusBadRequest, "donationId is required")
			return
		}
		span.SetAttributes(attribute.String("donation.id", donationID))

		user := UserFromContext(ctx)
		result := svc.SyncStatus(ctx, donationID, user.ID)
		writeJSON(w, http.StatusOK, result)
	}
}

func transferDonationHandler(svc *service.DonationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/donations/{donationId}/transfer")
		defer span.End()

		donationID := chi.URLParam(r, "donationId")
		if donationID == "" {
			writeError(w, http.StatusBadRequest, "donationId is required")
			return
		}

		var body domain.TransferRequestBody
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		// Transfer runs behind the admin gate; the notification targets the
		// donation's ONG owner through the user in context when present.
		userID := ""
		if user := UserFromContext(ctx); user != nil {
			userID = user.ID
		}

		result := svc.ProcessAutomaticTransfer(ctx, donationID, userID, &body)
		writeJSON(w, http.StatusOK, result)
	}
}

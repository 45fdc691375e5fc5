package handler

import (
	"encoding/json"
	"net/http"

	"github.com/adotaqui/adotaqui-backend/internal/domain"
	"github.com/adotaqui/adotaqui-backend/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// ONGs
// ============================================================

func listONGsHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/ongs")
		defer span.End()

		ongs, err := svc.ListONGs(ctx, r.URL.Query().Get("city"), r.URL.Query().Get("state"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if ongs == nil {
			ongs = []domain.ONG{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"ongs": ongs})
	}
}

func getONGHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/ongs/{ongId}")
		defer span.End()

		ong, err := svc.GetONG(ctx, chi.URLParam(r, "ongId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, ong)
	}
}

func createONGHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/ongs")
		defer span.End()

		var ong domain.ONG
		if err := json.NewDecoder(r.Body).Decode(&ong); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		ong.OwnerUserID = UserFromContext(ctx).ID

		created, err := svc.CreateONG(ctx, &ong)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func updateONGHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/ongs/{ongId}")
		defer span.End()

		var ong domain.ONG
		if err := json.NewDecoder(r.Body).Decode(&ong); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		ong.ID = chi.URLParam(r, "ongId")

		if err := svc.UpdateONG(ctx, UserFromContext(ctx).ID, &ong); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "ONG atualizada", ID: ong.ID})
	}
}

// deleteONGHandler runs behind the admin gate: removal affects donation
// history and published pets, so regular owners only deactivate via update.
func deleteONGHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/ongs/{ongId}")
		defer span.End()

		ongID := chi.URLParam(r, "ongId")
		ong, err := svc.GetONG(ctx, ongID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if err := svc.DeleteONG(ctx, ong.OwnerUserID, ongID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Clínicas
// ============================================================

func listClinicsHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/clinics")
		defer span.End()

		clinics, err := svc.ListClinics(ctx, r.URL.Query().Get("city"), r.URL.Query().Get("state"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if clinics == nil {
			clinics = []domain.Clinic{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"clinics": clinics})
	}
}

func getClinicHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/clinics/{clinicId}")
		defer span.End()

		clinic, err := svc.GetClinic(ctx, chi.URLParam(r, "clinicId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, clinic)
	}
}

func createClinicHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/clinics")
		defer span.End()

		var clinic domain.Clinic
		if err := json.NewDecoder(r.Body).Decode(&clinic); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		clinic.OwnerUserID = UserFromContext(ctx).ID

		created, err := svc.CreateClinic(ctx, &clinic)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func updateClinicHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/clinics/{clinicId}")
		defer span.End()

		var clinic domain.Clinic
		if err := json.NewDecoder(r.Body).Decode(&clinic); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		clinic.ID = chi.URLParam(r, "clinicId")

		if err := svc.UpdateClinic(ctx, UserFromContext(ctx).ID, &clinic); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "clínica atualizada", ID: clinic.ID})
	}
}

func deleteClinicHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/clinics/{clinicId}")
		defer span.End()

		clinicID := chi.URLParam(r, "clinicId")
		clinic, err := svc.GetClinic(ctx, clinicID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if err := svc.DeleteClinic(ctx, clinic.OwnerUserID, clinicID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

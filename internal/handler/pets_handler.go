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
// Pets
// ============================================================

// actingProfileID returns the profile the caller is acting as. The apps send
// it in the profileId query parameter; absent, the personal profile applies.
func actingProfileID(r *http.Request) string {
	if pid := r.URL.Query().Get("profileId"); pid != "" {
		return pid
	}
	if user := UserFromContext(r.Context()); user != nil {
		return user.ID
	}
	return ""
}

func listPetsHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/pets")
		defer span.End()

		q := r.URL.Query()
		filter := domain.PetFilter{
			Species: q.Get("species"),
			Size:    q.Get("size"),
			City:    q.Get("city"),
			State:   q.Get("state"),
			Status:  q.Get("status"),
			OwnerID: q.Get("ownerId"),
		}

		pets, err := svc.ListPets(ctx, filter)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if pets == nil {
			pets = []domain.Pet{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"pets": pets})
	}
}

func getPetHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/pets/{petId}")
		defer span.End()

		pet, err := svc.GetPet(ctx, chi.URLParam(r, "petId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, pet)
	}
}

func createPetHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/pets")
		defer span.End()

		var pet domain.Pet
		if err := json.NewDecoder(r.Body).Decode(&pet); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if pet.OwnerID == "" {
			pet.OwnerID = actingProfileID(r)
		}
		if pet.OwnerType == "" {
			pet.OwnerType = domain.ProfileTypeUser
		}

		created, err := svc.CreatePet(ctx, &pet)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func updatePetHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/pets/{petId}")
		defer span.End()

		var pet domain.Pet
		if err := json.NewDecoder(r.Body).Decode(&pet); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		pet.ID = chi.URLParam(r, "petId")

		if err := svc.UpdatePet(ctx, actingProfileID(r), &pet); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "pet atualizado", ID: pet.ID})
	}
}

func deletePetHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/pets/{petId}")
		defer span.End()

		petID := chi.URLParam(r, "petId")
		if err := svc.DeletePet(ctx, actingProfileID(r), petID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

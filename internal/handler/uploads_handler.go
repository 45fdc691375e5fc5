package handler

import (
	"net/http"

	"github.com/adotaqui/adotaqui-backend/internal/domain"
	"github.com/adotaqui/adotaqui-backend/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Uploads
// ============================================================

const maxMultipartMemory = 8 << 20 // 8 MiB

func uploadImageHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/uploads")
		defer span.End()

		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			writeError(w, http.StatusBadRequest, "corpo multipart inválido")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "campo 'file' é obrigatório")
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		ownerID := actingProfileID(r)

		result, err := svc.UploadImage(ctx, ownerID, header.Filename, contentType, file, header.Size)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}

func deleteUploadHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/uploads")
		defer span.End()

		path := r.URL.Query().Get("path")
		if path == "" {
			writeError(w, http.StatusBadRequest, "path is required")
			return
		}

		if err := svc.DeleteImage(ctx, actingProfileID(r), path); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "arquivo removido"})
	}
}

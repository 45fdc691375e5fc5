package handler

import (
	"encoding/json"
	"net/http"

	"github.com/adotaqui/adotaqui-backend/internal/domain"
	"github.com/adotaqui/adotaqui-backend/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Dispositivos
// ============================================================

func registerDeviceHandler(svc *service.DeviceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/devices/register")
		defer span.End()

		user := UserFromContext(ctx)

		var req domain.RegisterDeviceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Platform == "" {
			writeError(w, http.StatusBadRequest, "platform is required")
			return
		}

		resp, err := svc.Register(ctx, user.ID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func unregisterDeviceHandler(svc *service.DeviceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/devices/unregister")
		defer span.End()

		user := UserFromContext(ctx)

		var req domain.DeviceIDRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := svc.Unregister(ctx, user.ID, req.DeviceID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "dispositivo desativado", ID: req.DeviceID})
	}
}

func deviceHeartbeatHandler(svc *service.DeviceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/devices/heartbeat")
		defer span.End()

		user := UserFromContext(ctx)

		var req domain.DeviceIDRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := svc.Heartbeat(ctx, user.ID, req.DeviceID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "ok", ID: req.DeviceID})
	}
}

func listDevicesHandler(svc *service.DeviceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/devices")
		defer span.End()

		user := UserFromContext(ctx)
		devices, err := svc.ListDevices(ctx, user.ID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if devices == nil {
			devices = []domain.DeviceRegistration{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"devices": devices})
	}
}

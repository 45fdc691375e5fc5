package domain

// ============================================================
// API request / response types (matches the app's API contract)
// ============================================================

// SelectProfileRequest is the body for POST /v1/accounts/select.
type SelectProfileRequest struct {
	ProfileID string `json:"profileId"`
}

// CreateDonationRequest is the body for POST /v1/donations.
type CreateDonationRequest struct {
	ONGID      string  `json:"ongId"`
	DonorName  string  `json:"donorName"`
	DonorEmail string  `json:"donorEmail"`
	Amount     float64 `json:"amount"`
}

// CreateDonationResponse is returned by POST /v1/donations.
type CreateDonationResponse struct {
	DonationID        string `json:"donationId"`
	ExternalPaymentID string `json:"externalPaymentId"`
	PixPayload        string `json:"pixPayload,omitempty"` // copy-and-paste PIX code
	QRCodeImage       string `json:"qrCodeImage,omitempty"`
	Status            string `json:"status"`
}

// TransferRequestBody is the body for POST /v1/donations/{donationId}/transfer.
type TransferRequestBody struct {
	PixKey string  `json:"pixKey,omitempty"` // defaults to the ONG's registered key
	Amount float64 `json:"amount,omitempty"` // defaults to the donation amount
}

// RegisterDeviceRequest is the body for POST /v1/devices/register.
// DeviceID is empty on first install; the backend then generates one and
// returns it so the client can persist it locally.
type RegisterDeviceRequest struct {
	DeviceID          string `json:"deviceId,omitempty"`
	PushToken         string `json:"pushToken,omitempty"`
	Platform          string `json:"platform"`
	PermissionGranted bool   `json:"permissionGranted"`
}

// RegisterDeviceResponse is returned by POST /v1/devices/register.
type RegisterDeviceResponse struct {
	Registered bool   `json:"registered"`
	DeviceID   string `json:"deviceId"`
}

// DeviceIDRequest carries just a device identifier (unregister, heartbeat).
type DeviceIDRequest struct {
	DeviceID string `json:"deviceId"`
}

// ReauthenticateRequest is the body for POST /v1/auth/reauthenticate.
// Destructive actions (account deletion) require a fresh credential check
// against the auth provider.
type ReauthenticateRequest struct {
	Password string `json:"password"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// AppMetrics is returned by GET /v1/metrics/app.
type AppMetrics struct {
	TotalRequests     int64   `json:"totalRequests"`
	ErrorRate         float64 `json:"errorRate"`
	PushesSent        int64   `json:"pushesSent"`
	PushesFailed      int64   `json:"pushesFailed"`
	DonationsSynced   int64   `json:"donationsSynced"`
	DevicesRegistered int64   `json:"devicesRegistered"`
	CacheHitRate      float64 `json:"cacheHitRate"`
	Period            string  `json:"period"`
}

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// Package domain defines the core business entities for the AdotaQui
// backend. These models are independent of external services and represent
// the canonical data structures used throughout the API.
package domain

import "time"

// ============================================================
// Account profiles
// ============================================================

// Profile types. A single authenticated user may own one personal profile
// plus any number of ONG and clinic profiles.
const (
	ProfileTypeUser   = "user"
	ProfileTypeONG    = "ong"
	ProfileTypeClinic = "clinic"
)

// AccountProfile is one identity a user can act as.
// For personal profiles, ProfileID equals the user ID.
type AccountProfile struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Type         string    `json:"type"`
	ProfileID    string    `json:"profile_id"`
	ProfileName  string    `json:"profile_name"`
	ProfileImage string    `json:"profile_image,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AccountResolution is the result of resolving all profiles for a user.
// Current is never nil: when the user has no profiles at all (or the store
// is unreachable) it degrades to an empty-state personal profile.
type AccountResolution struct {
	Profiles []AccountProfile `json:"profiles"`
	Current  *AccountProfile  `json:"current"`
}

// AccountPreference records the profile a user last selected.
type AccountPreference struct {
	UserID            string    `json:"user_id"`
	SelectedProfileID string    `json:"selected_profile_id"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ============================================================
// Donations
// ============================================================

// Donation statuses.
const (
	DonationPending   = "pending"
	DonationPaid      = "paid"
	DonationCancelled = "cancelled"
)

// Donation is a PIX donation to an ONG, mirrored against the payment
// gateway record identified by ExternalPaymentID.
type Donation struct {
	ID                string    `json:"id"`
	ONGID             string    `json:"ong_id"`
	ONGName           string    `json:"ong_name"`
	DonorName         string    `json:"donor_name"`
	DonorEmail        string    `json:"donor_email"`
	Amount            float64   `json:"amount"`
	PixKey            string    `json:"pix_key"`
	ExternalPaymentID string    `json:"external_payment_id"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// SyncResult is the outcome of reconciling a donation against the gateway.
// Gateway/store failures are reported here, never as a returned error.
type SyncResult struct {
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message"`
}

// TransferResult is the outcome of an automatic PIX transfer to an ONG.
type TransferResult struct {
	Success    bool   `json:"success"`
	TransferID string `json:"transfer_id,omitempty"`
	Message    string `json:"message"`
}

// ============================================================
// Devices
// ============================================================

// DeviceRegistration is one install of the app for one user. DeviceID is
// generated once per install and survives reinstalls of the record.
type DeviceRegistration struct {
	DeviceID     string    `json:"device_id"`
	UserID       string    `json:"user_id"`
	PushToken    string    `json:"push_token"`
	Platform     string    `json:"platform"` // ios, android, web
	IsActive     bool      `json:"is_active"`
	LastSeen     time.Time `json:"last_seen"`
	RegisteredAt time.Time `json:"registered_at"`
}

// StaleDeviceAge is how long a device may go unseen before the sweep
// removes its registration.
const StaleDeviceAge = 30 * 24 * time.Hour

// ============================================================
// Pets
// ============================================================

// Pet statuses.
const (
	PetAvailable = "available"
	PetPending   = "pending"
	PetAdopted   = "adopted"
)

// Pet is an animal listed for adoption by a user, ONG or clinic profile.
type Pet struct {
	ID          string    `json:"id"`
	OwnerType   string    `json:"owner_type"` // user, ong, clinic
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Species     string    `json:"species"` // dog, cat, ...
	Breed       string    `json:"breed,omitempty"`
	AgeMonths   int       `json:"age_months,omitempty"`
	Size        string    `json:"size,omitempty"` // small, medium, large
	Sex         string    `json:"sex,omitempty"`
	Description string    `json:"description,omitempty"`
	ImageURLs   []string  `json:"image_urls,omitempty"`
	City        string    `json:"city,omitempty"`
	State       string    `json:"state,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PetFilter narrows pet listings.
type PetFilter struct {
	Species string
	Size    string
	City    string
	State   string
	Status  string
	OwnerID string
}

// ============================================================
// Organizations and clinics
// ============================================================

// ONG is an animal-welfare organization profile.
type ONG struct {
	ID          string    `json:"id"`
	OwnerUserID string    `json:"owner_user_id"`
	Name        string    `json:"name"`
	Document    string    `json:"document,omitempty"` // CNPJ
	Description string    `json:"description,omitempty"`
	PixKey      string    `json:"pix_key,omitempty"`
	City        string    `json:"city,omitempty"`
	State       string    `json:"state,omitempty"`
	LogoURL     string    `json:"logo_url,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Clinic is a veterinary clinic profile, identified by its CRMV number.
type Clinic struct {
	ID          string    `json:"id"`
	OwnerUserID string    `json:"owner_user_id"`
	Name        string    `json:"name"`
	CRMV        string    `json:"crmv,omitempty"`
	Description string    `json:"description,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Address     string    `json:"address,omitempty"`
	City        string    `json:"city,omitempty"`
	State       string    `json:"state,omitempty"`
	LogoURL     string    `json:"logo_url,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// ============================================================
// Blog
// ============================================================

// BlogPost is an article published by a profile.
type BlogPost struct {
	ID              string    `json:"id"`
	AuthorProfileID string    `json:"author_profile_id"`
	AuthorName      string    `json:"author_name"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	CoverURL        string    `json:"cover_url,omitempty"`
	Published       bool      `json:"published"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ============================================================
// Notifications
// ============================================================

// Notification classes used by the donation reconciler.
const (
	NotifPaymentConfirmed = "payment_confirmed"
	NotifPaymentCancelled = "payment_cancelled"
	NotifPaymentPending   = "payment_pending"
	NotifPaymentError     = "payment_error"
	NotifTransfer         = "transfer"
)

// Notification is an in-app notification record; active devices also
// receive it as a push message.
type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	IsRead    bool              `json:"is_read"`
	CreatedAt time.Time         `json:"created_at"`
}

// ============================================================
// Auth
// ============================================================

// AuthUser is the identity extracted from a Supabase Auth access token.
type AuthUser struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// ============================================================
// Uploads
// ============================================================

// UploadResult is returned after storing an image in object storage.
type UploadResult struct {
	Path      string `json:"path"`
	PublicURL string `json:"public_url"`
}

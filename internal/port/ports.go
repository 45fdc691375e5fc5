// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"io"
	"time"

	"github.com/adotaqui/adotaqui-backend/internal/domain"
)

// AccountStore persists account profiles and selection preferences.
type AccountStore interface {
	ListProfiles(ctx context.Context, userID string) ([]domain.AccountProfile, error)
	// UpsertProfile is idempotent on (user_id, type, profile_id) so that
	// concurrent resolutions cannot create duplicates.
	UpsertProfile(ctx context.Context, profile *domain.AccountProfile) (*domain.AccountProfile, error)
	DeactivateProfiles(ctx context.Context, userID string) error

	GetPreference(ctx context.Context, userID string) (*domain.AccountPreference, error)
	SavePreference(ctx context.Context, userID, profileID string) error
}

// DonationStore persists donation records.
type DonationStore interface {
	CreateDonation(ctx context.Context, d *domain.Donation) (*domain.Donation, error)
	GetDonation(ctx context.Context, donationID string) (*domain.Donation, error)
	ListDonationsByONG(ctx context.Context, ongID string) ([]domain.Donation, error)
	UpdateDonationStatus(ctx context.Context, donationID, status string) error
}

// DeviceStore persists device registrations, keyed by (device_id, user_id).
type DeviceStore interface {
	UpsertDevice(ctx context.Context, d *domain.DeviceRegistration) error
	GetDevice(ctx context.Context, deviceID, userID string) (*domain.DeviceRegistration, error)
	ListDevices(ctx context.Context, userID string) ([]domain.DeviceRegistration, error)
	ListActiveDevices(ctx context.Context, userID string) ([]domain.DeviceRegistration, error)
	DeleteDevice(ctx context.Context, deviceID, userID string) error
	TouchDevice(ctx context.Context, deviceID, userID string, seen time.Time) error
}

// CatalogStore persists pets, ONGs, clinics and blog posts.
type CatalogStore interface {
	// Pets
	ListPets(ctx context.Context, filter domain.PetFilter) ([]domain.Pet, error)
	GetPet(ctx context.Context, petID string) (*domain.Pet, error)
	CreatePet(ctx context.Context, pet *domain.Pet) (*domain.Pet, error)
	UpdatePet(ctx context.Context, pet *domain.Pet) error
	DeletePet(ctx context.Context, petID string) error

	// ONGs
	ListONGs(ctx context.Context, city, state string) ([]domain.ONG, error)
	GetONG(ctx context.Context, ongID string) (*domain.ONG, error)
	ListONGsByOwner(ctx context.Context, userID string) ([]domain.ONG, error)
	CreateONG(ctx context.Context, ong *domain.ONG) (*domain.ONG, error)
	UpdateONG(ctx context.Context, ong *domain.ONG) error
	DeleteONG(ctx context.Context, ongID string) error

	// Clinics
	ListClinics(ctx context.Context, city, state string) ([]domain.Clinic, error)
	GetClinic(ctx context.Context, clinicID string) (*domain.Clinic, error)
	ListClinicsByOwner(ctx context.Context, userID string) ([]domain.Clinic, error)
	CreateClinic(ctx context.Context, clinic *domain.Clinic) (*domain.Clinic, error)
	UpdateClinic(ctx context.Context, clinic *domain.Clinic) error
	DeleteClinic(ctx context.Context, clinicID string) error

	// Blog
	ListPosts(ctx context.Context, publishedOnly bool) ([]domain.BlogPost, error)
	GetPost(ctx context.Context, postID string) (*domain.BlogPost, error)
	CreatePost(ctx context.Context, post *domain.BlogPost) (*domain.BlogPost, error)
	UpdatePost(ctx context.Context, post *domain.BlogPost) error
	DeletePost(ctx context.Context, postID string) error
}

// NotificationStore persists notification records.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
	ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, notifID string) error
}

// PaymentGateway is the narrow contract with the external PIX payment
// provider (Asaas-style REST API).
type PaymentGateway interface {
	CreateCustomer(ctx context.Context, name, email string) (customerID string, err error)
	CreatePixPayment(ctx context.Context, customerID string, amount float64, description string) (*PixPayment, error)
	GetPayment(ctx context.Context, paymentID string) (*PixPayment, error)
	GetBalance(ctx context.Context) (float64, error)
	CreatePixTransfer(ctx context.Context, pixKey string, amount float64, description string) (transferID string, err error)
}

// PixPayment is the gateway's view of a payment.
type PixPayment struct {
	ID          string
	Status      string // RECEIVED, CONFIRMED, OVERDUE, ... (gateway vocabulary)
	Amount      float64
	PixPayload  string
	QRCodeImage string
}

// PushSender dispatches push messages and validates push tokens.
type PushSender interface {
	// Send delivers title/body/data to the given tokens. Invalid tokens are
	// reported back so callers can deactivate the owning devices.
	Send(ctx context.Context, tokens []string, title, body string, data map[string]string) (invalid []string, err error)
	// ValidateToken checks that a token is acceptable to the transport.
	ValidateToken(ctx context.Context, token string) error
}

// ObjectStorage stores uploaded binaries and serves public URLs.
type ObjectStorage interface {
	Upload(ctx context.Context, path, contentType string, r io.Reader, size int64) (*domain.UploadResult, error)
	Delete(ctx context.Context, path string) error
}

// Reauthenticator re-checks a user's credentials against the auth provider
// before destructive actions.
type Reauthenticator interface {
	Reauthenticate(ctx context.Context, email, password string) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/adotaqui/adotaqui-backend/internal/domain"
	"github.com/adotaqui/adotaqui-backend/internal/infra/observability"
	"github.com/adotaqui/adotaqui-backend/internal/port"

	"go.uber.org/zap"
)

// fakeDonationStore is an in-memory DonationStore.
type fakeDonationStore struct {
	donations map[string]*domain.Donation

	updateErr     error
	updatedStatus string
	updateCalls   int
}

func newFakeDonationStore(ds ...*domain.Donation) *fakeDonationStore {
	m := make(map[string]*domain.Donation)
	for _, d := range ds {
		m[d.ID] = d
	}
	return &fakeDonationStore{donations: m}
}

func (f *fakeDonationStore) CreateDonation(_ context.Context, d *domain.Donation) (*domain.Donation, error) {
	if d.ID == "" {
		d.ID = "don-new"
	}
	f.donations[d.ID] = d
	return d, nil
}

func (f *fakeDonationStore) GetDonation(_ context.Context, id string) (*domain.Donation, error) {
	d, ok := f.donations[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "donation", ID: id}
	}
	return d, nil
}

func (f *fakeDonationStore) ListDonationsByONG(_ context.Context, ongID string) ([]domain.Donation, error) {
	var out []domain.Donation
	for _, d := range f.donations {
		if d.ONGID == ongID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDonationStore) UpdateDonationStatus(_ context.Context, id, status string) error {
	f.updateCalls++
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updatedStatus = status
	if d, ok := f.donations[id]; ok {
		d.Status = status
	}
	return nil
}

// fakeGateway is a scriptable PaymentGateway.
type fakeGateway struct {
	paymentStatus string
	paymentErr    error
	balance       float64
	balanceErr    error
	transferID    string
	transferErr   error

	transferCalls int
}

func (f *fakeGateway) CreateCustomer(_ context.Context, _, _ string) (string, error) {
	return "cus-1", nil
}

func (f *fakeGateway) CreatePixPayment(_ context.Context, _ string, amount float64, _ string) (*port.PixPayment, error) {
	return &port.PixPayment{ID: "pay-1", Status: "PENDING", Amount: amount, PixPayload: "00020126..."}, nil
}

func (f *fakeGateway) GetPayment(_ context.Context, id string) (*port.PixPayment, error) {
	if f.paymentErr != nil {
		return nil, f.paymentErr
	}
	return &port.PixPayment{ID: id, Status: f.paymentStatus}, nil
}

func (f *fakeGateway) GetBalance(_ context.Context) (float64, error) {
	return f.balance, f.balanceErr
}

func (f *fakeGateway) CreatePixTransfer(_ context.Context, _ string, _ float64, _ string) (string, error) {
	f.transferCalls++
	if f.transferErr != nil {
		return "", f.transferErr
	}
	return f.transferID, nil
}

// fakeNotificationStore records created notifications.
type fakeNotificationStore struct {
	created []domain.Notification
}

func (f *fakeNotificationStore) CreateNotification(_ context.Context, n *domain.Notification) (*domain.Notification, error) {
	f.created = append(f.created, *n)
	return n, nil
}

func (f *fakeNotificationStore) ListNotifications(_ context.Context, _ string, _ bool) ([]domain.Notification, error) {
	return f.created, nil
}

func (f *fakeNotificationStore) MarkNotificationRead(_ context.Context, _ string) error {
	return nil
}

// fakeDeviceStore is an in-memory DeviceStore shared by the notifier and
// device tests.
type fakeDeviceStore struct {
	devices map[string]*domain.DeviceRegistration

	upsertErr error
	deleted   []string
}

func newFakeDeviceStore(ds ...*domain.DeviceRegistration) *fakeDeviceStore {
	m := make(map[string]*domain.DeviceRegistration)
	for _, d := range ds {
		m[d.DeviceID] = d
	}
	return &fakeDeviceStore{devices: m}
}

func (f *fakeDeviceStore) UpsertDevice(_ context.Context, d *domain.DeviceRegistration) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	cp := *d
	f.devices[d.DeviceID] = &cp
	return nil
}

func (f *fakeDeviceStore) GetDevice(_ context.Context, deviceID, _ string) (*domain.DeviceRegistration, error) {
	d, ok := f.devices[deviceID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "device", ID: deviceID}
	}
	return d, nil
}

func (f *fakeDeviceStore) ListDevices(_ context.Context, userID string) ([]domain.DeviceRegistration, error) {
	var out []domain.DeviceRegistration
	for _, d := range f.devices {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDeviceStore) ListActiveDevices(_ context.Context, userID string) ([]domain.DeviceRegistration, error) {
	var out []domain.DeviceRegistration
	for _, d := range f.devices {
		if d.UserID == userID && d.IsActive && d.PushToken != "" {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDeviceStore) DeleteDevice(_ context.Context, deviceID, _ string) error {
	delete(f.devices, deviceID)
	f.deleted = append(f.deleted, deviceID)
	return nil
}

func (f *fakeDeviceStore) TouchDevice(_ context.Context, deviceID, _ string, seen time.Time) error {
	if d, ok := f.devices[deviceID]; ok {
		d.LastSeen = seen
		d.IsActive = true
	}
	return nil
}

// fakePushSender records sends and scripts validation outcomes.
type fakePushSender struct {
	invalid     []string
	sendErr     error
	validateErr error

	sends         int
	validateCalls int
	sentTokens    []string
}

func (f *fakePushSender) Send(_ context.Context, tokens []string, _, _ string, _ map[string]string) ([]string, error) {
	f.sends++
	f.sentTokens = append(f.sentTokens, tokens...)
	return f.invalid, f.sendErr
}

func (f *fakePushSender) ValidateToken(_ context.Context, _ string) error {
	f.validateCalls++
	return f.validateErr
}

// fakeONGCatalog serves GetONG only.
type fakeONGCatalog struct {
	port.CatalogStore
	ong *domain.ONG
}

func (f *fakeONGCatalog) GetONG(_ context.Context, id string) (*domain.ONG, error) {
	if f.ong == nil || f.ong.ID != id {
		return nil, &domain.ErrNotFound{Resource: "ong", ID: id}
	}
	return f.ong, nil
}

func newTestNotifier(ns *fakeNotificationStore, ds *fakeDeviceStore, ps *fakePushSender) *Notifier {
	return NewNotifier(ns, ds, ps, zap.NewNop())
}

func TestSyncStatusMapsGatewayStatuses(t *testing.T) {
	tests := []struct {
		gatewayStatus string
		want          string
	}{
		{"RECEIVED", domain.DonationPaid},
		{"CONFIRMED", domain.DonationPaid},
		{"RECEIVED_IN_CASH", domain.DonationPaid},
		{"OVERDUE", domain.DonationCancelled},
		{"REFUNDED", domain.DonationCancelled},
		{"CHARGEBACK_REQUESTED", domain.DonationCancelled},
		{"PENDING", domain.DonationPending},
		{"AWAITING_RISK_ANALYSIS", domain.DonationPending},
		{"", domain.DonationPending},
	}

	for _, tt := range tests {
		t.Run(tt.gatewayStatus, func(t *testing.T) {
			store := newFakeDonationStore(&domain.Donation{
				ID: "don-1", ONGID: "ong-1", ONGName: "Patas Felizes",
				Amount: 50, ExternalPaymentID: "pay-1", Status: domain.DonationPending,
			})
			notifs := &fakeNotificationStore{}
			svc := NewDonationService(store, &fakeONGCatalog{}, &fakeGateway{paymentStatus: tt.gatewayStatus},
				newTestNotifier(notifs, newFakeDeviceStore(), &fakePushSender{}),
				observability.NewMetrics(), zap.NewNop())

			res := svc.SyncStatus(context.Background(), "don-1", "user-1")

			if !res.Success {
				t.Fatalf("expected success, got %+v", res)
			}
			if res.Status != tt.want {
				t.Errorf("mapped status = %q, want %q", res.Status, tt.want)
			}
			if store.updatedStatus != tt.want {
				t.Errorf("persisted status = %q, want %q", store.updatedStatus, tt.want)
			}
			if store.updateCalls != 1 {
				t.Errorf("status must be persisted exactly once, got %d writes", store.updateCalls)
			}
			if len(notifs.created) != 1 {
				t.Errorf("expected exactly one notification, got %d", len(notifs.created))
			}
		})
	}
}

func TestSyncStatusPersistsEvenWhenUnchanged(t *testing.T) {
	store := newFakeDonationStore(&domain.Donation{
		ID: "don-1", ONGID: "ong-1", Amount: 50,
		ExternalPaymentID: "pay-1", Status: domain.DonationPaid,
	})
	notifs := &fakeNotificationStore{}
	svc := NewDonationService(store, &fakeONGCatalog{}, &fakeGateway{paymentStatus: "CONFIRMED"},
		newTestNotifier(notifs, newFakeDeviceStore(), &fakePushSender{}),
		observability.NewMetrics(), zap.NewNop())

	res := svc.SyncStatus(context.Background(), "don-1", "user-1")

	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if store.updateCalls != 1 {
		t.Errorf("already-paid donation must still be written, got %d writes", store.updateCalls)
	}
	if len(notifs.created) != 1 {
		t.Errorf("already-paid donation must still notify once, got %d", len(notifs.created))
	}
}

func TestSyncStatusReportsFailuresInResult(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeDonationStore, *fakeGateway)
	}{
		{
			name:  "donation missing",
			setup: func(s *fakeDonationStore, _ *fakeGateway) { delete(s.donations, "don-1") },
		},
		{
			name:  "gateway down",
			setup: func(_ *fakeDonationStore, g *fakeGateway) { g.paymentErr = errors.New("503") },
		},
		{
			name:  "store write fails",
			setup: func(s *fakeDonationStore, _ *fakeGateway) { s.updateErr = errors.New("timeout") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeDonationStore(&domain.Donation{
				ID: "don-1", ONGID: "ong-1", Amount: 50,
				ExternalPaymentID: "pay-1", Status: domain.DonationPending,
			})
			gateway := &fakeGateway{paymentStatus: "CONFIRMED"}
			tt.setup(store, gateway)

			notifs := &fakeNotificationStore{}
			svc := NewDonationService(store, &fakeONGCatalog{}, gateway,
				newTestNotifier(notifs, newFakeDeviceStore(), &fakePushSender{}),
				observability.NewMetrics(), zap.NewNop())

			res := svc.SyncStatus(context.Background(), "don-1", "user-1")

			if res.Success {
				t.Fatalf("expected failure result, got %+v", res)
			}
			if res.Message == "" {
				t.Error("failure result must carry a message")
			}
			if len(notifs.created) != 1 {
				t.Errorf("failures still notify exactly once, got %d", len(notifs.created))
			}
		})
	}
}

func TestProcessAutomaticTransferInsufficientBalance(t *testing.T) {
	store := newFakeDonationStore(&domain.Donation{
		ID: "don-1", ONGID: "ong-1", ONGName: "Patas Felizes",
		Amount: 150, PixKey: "pix@ong.org", Status: domain.DonationPending,
	})
	gateway := &fakeGateway{balance: 100}
	notifs := &fakeNotificationStore{}
	svc := NewDonationService(store, &fakeONGCatalog{}, gateway,
		newTestNotifier(notifs, newFakeDeviceStore(), &fakePushSender{}),
		observability.NewMetrics(), zap.NewNop())

	res := svc.ProcessAutomaticTransfer(context.Background(), "don-1", "user-1", nil)

	if res.Success {
		t.Fatalf("expected failure, got %+v", res)
	}
	if !strings.Contains(res.Message, "100.00") || !strings.Contains(res.Message, "150.00") {
		t.Errorf("message must carry both figures, got %q", res.Message)
	}
	if gateway.transferCalls != 0 {
		t.Error("no transfer may be attempted on insufficient balance")
	}
	if store.updateCalls != 0 {
		t.Error("donation status must stay untouched")
	}
	if len(notifs.created) != 1 {
		t.Fatalf("insufficient balance must notify the user, got %d notifications", len(notifs.created))
	}
	if n := notifs.created[0]; n.Type != domain.NotifPaymentError || !strings.Contains(n.Body, "100.00") {
		t.Errorf("notification must carry the shortfall, got %+v", n)
	}
}

func TestProcessAutomaticTransferSuccess(t *testing.T) {
	store := newFakeDonationStore(&domain.Donation{
		ID: "don-1", ONGID: "ong-1", ONGName: "Patas Felizes",
		Amount: 50, PixKey: "pix@ong.org", Status: domain.DonationPending,
	})
	gateway := &fakeGateway{balance: 500, transferID: "tr-9"}
	notifs := &fakeNotificationStore{}
	svc := NewDonationService(store, &fakeONGCatalog{}, gateway,
		newTestNotifier(notifs, newFakeDeviceStore(), &fakePushSender{}),
		observability.NewMetrics(), zap.NewNop())

	res := svc.ProcessAutomaticTransfer(context.Background(), "don-1", "user-1", nil)

	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.TransferID != "tr-9" {
		t.Errorf("transfer id = %q, want tr-9", res.TransferID)
	}
	if store.updatedStatus != domain.DonationPaid {
		t.Errorf("donation must be marked paid, got %q", store.updatedStatus)
	}
	if gateway.transferCalls != 1 {
		t.Errorf("exactly one transfer attempt expected, got %d", gateway.transferCalls)
	}
	if len(notifs.created) != 1 || notifs.created[0].Type != domain.NotifTransfer {
		t.Errorf("expected one transfer notification, got %+v", notifs.created)
	}
}

func TestProcessAutomaticTransferMissingPixKey(t *testing.T) {
	store := newFakeDonationStore(&domain.Donation{
		ID: "don-1", ONGID: "ong-1", Amount: 50, Status: domain.DonationPending,
	})
	gateway := &fakeGateway{balance: 500}
	svc := NewDonationService(store, &fakeONGCatalog{}, gateway,
		newTestNotifier(&fakeNotificationStore{}, newFakeDeviceStore(), &fakePushSender{}),
		observability.NewMetrics(), zap.NewNop())

	res := svc.ProcessAutomaticTransfer(context.Background(), "don-1", "user-1", nil)
	if res.Success {
		t.Fatalf("expected failure without a PIX key, got %+v", res)
	}
	if gateway.transferCalls != 0 {
		t.Error("no transfer may be attempted without a PIX key")
	}
}

func TestCreateDonationValidation(t *testing.T) {
	svc := NewDonationService(newFakeDonationStore(), &fakeONGCatalog{}, &fakeGateway{},
		newTestNotifier(&fakeNotificationStore{}, newFakeDeviceStore(), &fakePushSender{}),
		observability.NewMetrics(), zap.NewNop())

	_, err := svc.CreateDonation(context.Background(), &domain.CreateDonationRequest{ONGID: "ong-1", Amount: 0})
	var vErr *domain.ErrValidation
	if !errors.As(err, &vErr) {
		t.Errorf("expected validation error for zero amount, got %v", err)
	}
}

func TestCreateDonation(t *testing.T) {
	store := newFakeDonationStore()
	catalog := &fakeONGCatalog{ong: &domain.ONG{ID: "ong-1", Name: "Patas Felizes", PixKey: "pix@ong.org"}}
	svc := NewDonationService(store, catalog, &fakeGateway{},
		newTestNotifier(&fakeNotificationStore{}, newFakeDeviceStore(), &fakePushSender{}),
		observability.NewMetrics(), zap.NewNop())

	resp, err := svc.CreateDonation(context.Background(), &domain.CreateDonationRequest{
		ONGID: "ong-1", DonorName: "Ana", DonorEmail: "ana@example.com", Amount: 25,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ExternalPaymentID != "pay-1" {
		t.Errorf("payment id = %q, want pay-1", resp.ExternalPaymentID)
	}
	if resp.Status != domain.DonationPending {
		t.Errorf("new donation must start pending, got %q", resp.Status)
	}
	if resp.PixPayload == "" {
		t.Error("response must carry the PIX payload")
	}
	if d := store.donations[resp.DonationID]; d == nil || d.PixKey != "pix@ong.org" {
		t.Error("donation must record the ONG's PIX key")
	}
}

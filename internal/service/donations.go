package service

import (
	"context"
	"fmt"

	"github.com/adotaqui/adotaqui-backend/internal/domain"
	"github.com/adotaqui/adotaqui-backend/internal/infra/observability"
	"github.com/adotaqui/adotaqui-backend/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DonationService creates PIX donations and reconciles their status against
// the payment gateway.
type DonationService struct {
	donations port.DonationStore
	catalog   port.CatalogStore
	gateway   port.PaymentGateway
	notifier  *Notifier
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewDonationService creates a DonationService.
func NewDonationService(donations port.DonationStore, catalog port.CatalogStore, gateway port.PaymentGateway, notifier *Notifier, metrics *observability.Metrics, logger *zap.Logger) *DonationService {
	return &DonationService{
		donations: donations,
		catalog:   catalog,
		gateway:   gateway,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
	}
}

// mapGatewayStatus translates the gateway vocabulary into ours. Anything
// unrecognized stays pending rather than guessing.
func mapGatewayStatus(gatewayStatus string) string {
	switch gatewayStatus {
	case "RECEIVED", "CONFIRMED", "RECEIVED_IN_CASH":
		return domain.DonationPaid
	case "OVERDUE", "REFUNDED", "CHARGEBACK_REQUESTED":
		return domain.DonationCancelled
	default:
		return domain.DonationPending
	}
}

// CreateDonation registers the donor with the gateway, opens a PIX charge
// and persists the donation as pending.
func (s *DonationService) CreateDonation(ctx context.Context, req *domain.CreateDonationRequest) (*domain.CreateDonationResponse, error) {
	ctx, span := tracer.Start(ctx, "DonationService.CreateDonation")
	defer span.End()
	span.SetAttributes(
		attribute.String("ong.id", req.ONGID),
		attribute.Float64("donation.amount", req.Amount),
	)

	if req.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "valor deve ser maior que zero"}
	}
	if req.ONGID == "" {
		return nil, &domain.ErrValidation{Field: "ongId", Message: "ONG é obrigatória"}
	}

	ong, err := s.catalog.GetONG(ctx, req.ONGID)
	if err != nil {
		return nil, err
	}

	customerID, err := s.gateway.CreateCustomer(ctx, req.DonorName, req.DonorEmail)
	if err != nil {
		s.metrics.IncrExternalError("asaas")
		return nil, err
	}

	payment, err := s.gateway.CreatePixPayment(ctx, customerID, req.Amount, fmt.Sprintf("Doação para %s", ong.Name))
	if err != nil {
		s.metrics.IncrExternalError("asaas")
		return nil, err
	}

	donation, err := s.donations.CreateDonation(ctx, &domain.Donation{
		ONGID:             ong.ID,
		ONGName:           ong.Name,
		DonorName:         req.DonorName,
		DonorEmail:        req.DonorEmail,
		Amount:            req.Amount,
		PixKey:            ong.PixKey,
		ExternalPaymentID: payment.ID,
		Status:            domain.DonationPending,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("donation created",
		zap.String("donation_id", donation.ID),
		zap.String("payment_id", payment.ID),
		zap.Float64("amount", req.Amount),
	)

	return &domain.CreateDonationResponse{
		DonationID:        donation.ID,
		ExternalPaymentID: payment.ID,
		PixPayload:        payment.PixPayload,
		QRCodeImage:       payment.QRCodeImage,
		Status:            donation.Status,
	}, nil
}

// SyncStatus reconciles one donation against the gateway. The mapped status
// is persisted unconditionally and exactly one notification goes out per
// call, even when nothing changed. Failures come back in the result, never
// as an error, so a flaky gateway cannot break the screen that polls this.
func (s *DonationService) SyncStatus(ctx context.Context, donationID, userID string) *domain.SyncResult {
	ctx, span := tracer.Start(ctx, "DonationService.SyncStatus")
	defer span.End()
	span.SetAttributes(attribute.String("donation.id", donationID))

	donation, err := s.donations.GetDonation(ctx, donationID)
	if err != nil {
		s.logger.Warn("sync: donation lookup failed", zap.String("donation_id", donationID), zap.Error(err))
		s.notifier.Notify(ctx, userID, domain.NotifPaymentError,
			"Erro na doação", "Não foi possível localizar a doação.", nil)
		return &domain.SyncResult{Success: false, Message: "doação não encontrada"}
	}

	payment, err := s.gateway.GetPayment(ctx, donation.ExternalPaymentID)
	if err != nil {
		s.metrics.IncrExternalError("asaas")
		s.logger.Warn("sync: gateway lookup failed",
			zap.String("donation_id", donationID),
			zap.String("payment_id", donation.ExternalPaymentID),
			zap.Error(err),
		)
		s.notifier.Notify(ctx, userID, domain.NotifPaymentError,
			"Erro na doação", "Não foi possível consultar o pagamento. Tente novamente.", nil)
		return &domain.SyncResult{Success: false, Message: "falha ao consultar o gateway de pagamento"}
	}

	status := mapGatewayStatus(payment.Status)
	if err := s.donations.UpdateDonationStatus(ctx, donationID, status); err != nil {
		s.logger.Warn("sync: status persist failed", zap.String("donation_id", donationID), zap.Error(err))
		s.notifier.Notify(ctx, userID, domain.NotifPaymentError,
			"Erro na doação", "Não foi possível atualizar a doação. Tente novamente.", nil)
		return &domain.SyncResult{Success: false, Message: "falha ao atualizar a doação"}
	}

	s.metrics.IncrDonationSync(status)
	s.notifyStatus(ctx, userID, donation, status)

	return &domain.SyncResult{Success: true, Status: status, Message: "status sincronizado"}
}

func (s *DonationService) notifyStatus(ctx context.Context, userID string, donation *domain.Donation, status string) {
	data := map[string]string{"donation_id": donation.ID, "status": status}
	switch status {
	case domain.DonationPaid:
		s.notifier.Notify(ctx, userID, domain.NotifPaymentConfirmed,
			"Doação confirmada",
			fmt.Sprintf("Sua doação de R$ %.2f para %s foi confirmada. Obrigado!", donation.Amount, donation.ONGName),
			data)
	case domain.DonationCancelled:
		s.notifier.Notify(ctx, userID, domain.NotifPaymentCancelled,
			"Doação cancelada",
			fmt.Sprintf("Sua doação de R$ %.2f para %s foi cancelada.", donation.Amount, donation.ONGName),
			data)
	default:
		s.notifier.Notify(ctx, userID, domain.NotifPaymentPending,
			"Doação pendente",
			fmt.Sprintf("Sua doação de R$ %.2f para %s ainda aguarda pagamento.", donation.Amount, donation.ONGName),
			data)
	}
}

// ProcessAutomaticTransfer forwards a paid donation to the ONG's PIX key.
// One attempt only: when the gateway balance does not cover the amount the
// donation is left untouched and the caller gets both figures back.
func (s *DonationService) ProcessAutomaticTransfer(ctx context.Context, donationID, userID string, body *domain.TransferRequestBody) *domain.TransferResult {
	ctx, span := tracer.Start(ctx, "DonationService.ProcessAutomaticTransfer")
	defer span.End()
	span.SetAttributes(attribute.String("donation.id", donationID))

	donation, err := s.donations.GetDonation(ctx, donationID)
	if err != nil {
		return &domain.TransferResult{Success: false, Message: "doação não encontrada"}
	}

	pixKey := donation.PixKey
	amount := donation.Amount
	if body != nil {
		if body.PixKey != "" {
			pixKey = body.PixKey
		}
		if body.Amount > 0 {
			amount = body.Amount
		}
	}
	if pixKey == "" {
		return &domain.TransferResult{Success: false, Message: "a ONG não possui chave PIX cadastrada"}
	}

	balance, err := s.gateway.GetBalance(ctx)
	if err != nil {
		s.metrics.IncrExternalError("asaas")
		return &domain.TransferResult{Success: false, Message: "falha ao consultar o saldo da conta"}
	}
	if balance < amount {
		insufficient := &domain.ErrInsufficientBalance{Available: balance, Required: amount}
		s.logger.Warn("transfer: insufficient balance",
			zap.String("donation_id", donationID),
			zap.Error(insufficient),
		)
		s.notifier.Notify(ctx, userID, domain.NotifPaymentError,
			"Saldo insuficiente",
			fmt.Sprintf("O repasse para %s não pôde ser realizado: saldo disponível R$ %.2f, necessário R$ %.2f.",
				donation.ONGName, balance, amount),
			map[string]string{"donation_id": donationID})
		return &domain.TransferResult{
			Success: false,
			Message: fmt.Sprintf("saldo insuficiente: disponível R$ %.2f, necessário R$ %.2f", balance, amount),
		}
	}

	transferID, err := s.gateway.CreatePixTransfer(ctx, pixKey, amount, fmt.Sprintf("Repasse de doação para %s", donation.ONGName))
	if err != nil {
		s.metrics.IncrExternalError("asaas")
		return &domain.TransferResult{Success: false, Message: "falha ao executar a transferência PIX"}
	}

	if err := s.donations.UpdateDonationStatus(ctx, donationID, domain.DonationPaid); err != nil {
		// The money moved; log loudly but still report success.
		s.logger.Error("transfer: status persist failed after transfer",
			zap.String("donation_id", donationID),
			zap.String("transfer_id", transferID),
			zap.Error(err),
		)
	}

	s.notifier.Notify(ctx, userID, domain.NotifTransfer,
		"Repasse realizado",
		fmt.Sprintf("R$ %.2f foram repassados para %s.", amount, donation.ONGName),
		map[string]string{"donation_id": donationID, "transfer_id": transferID})

	return &domain.TransferResult{Success: true, TransferID: transferID, Message: "transferência realizada"}
}

// ListDonations returns the donations received by an ONG.
func (s *DonationService) ListDonations(ctx context.Context, ongID string) ([]domain.Donation, error) {
	ctx, span := tracer.Start(ctx, "DonationService.ListDonations")
	defer span.End()
	return s.donations.ListDonationsByONG(ctx, ongID)
}

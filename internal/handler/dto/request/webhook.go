package request

import "github.com/google/uuid"

// PaymentWebhookRequest is the gateway callback payload. The provider keys
// events by its own payment id; booking_id is carried in the charge metadata.
type PaymentWebhookRequest struct {
	ProviderPaymentID string    `json:"provider_payment_id" binding:"required"`
	BookingID         uuid.UUID `json:"booking_id" binding:"required"`
	Status            string    `json:"status" binding:"required"`
}

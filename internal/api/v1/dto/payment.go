package dto

// OrderCreateDTO asks for a payable order for a plan.
type OrderCreateDTO struct {
	PlanID string `json:"plan_id" validate:"required"`
}

// OrderCreateResponseDTO carries the processor-assigned order id, or
// null when order creation failed and the client should retry.
type OrderCreateResponseDTO struct {
	OrderID *string `json:"order_id"`
}

// PaymentVerifyDTO is the client-supplied proof of a completed Razorpay
// payment.
type PaymentVerifyDTO struct {
	OrderID   string `json:"order_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// CheckoutCreateDTO asks for a Stripe checkout session for a plan.
type CheckoutCreateDTO struct {
	PlanID string `json:"plan_id" validate:"required"`
}

// CheckoutCreateResponseDTO carries the session id and hosted URL.
type CheckoutCreateResponseDTO struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// PaymentResultDTO reports reconciliation outcome.
type PaymentResultDTO struct {
	Success bool `json:"success"`
}

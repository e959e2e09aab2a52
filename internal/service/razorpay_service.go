package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/razorpay/razorpay-go"
	"github.com/rs/zerolog"
)

// razorpayOrderAPI is the slice of the Razorpay SDK this service uses.
// Satisfied by razorpay.Client.Order.
type razorpayOrderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Fetch(orderID string, data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// RazorpayService handles the signature-verified payment flow: create a
// payable order, then verify the client-supplied payment signature and
// grant the plan's credits exactly once per order.
type RazorpayService struct {
	orders      razorpayOrderAPI
	keySecret   string
	paymentRepo repository.PaymentRepository
	logger      zerolog.Logger
}

// NewRazorpayService creates a RazorpayService backed by the official
// SDK. The SDK does not take a context per call, so the bounded
// deadline is applied through its HTTP client timeout.
func NewRazorpayService(keyID, keySecret string, timeout time.Duration, paymentRepo repository.PaymentRepository, logger zerolog.Logger) *RazorpayService {
	client := razorpay.NewClient(keyID, keySecret)
	client.SetTimeout(int16(timeout.Seconds()))
	return &RazorpayService{
		orders:      client.Order,
		keySecret:   keySecret,
		paymentRepo: paymentRepo,
		logger:      logger.With().Str("service", "RazorpayService").Logger(),
	}
}

// CreateOrder creates a payable order for the plan and returns its id.
// Vendor failures are advisory: they are logged and reported as an
// empty id so the client can simply retry.
func (s *RazorpayService) CreateOrder(ctx context.Context, planID string) (string, error) {
	plan, ok := model.PlanByID(planID)
	if !ok {
		return "", ErrUnknownPlan
	}

	data := map[string]interface{}{
		"amount":   plan.PriceMinorUnits,
		"currency": "INR",
	}
	order, err := s.orders.Create(data, nil)
	if err != nil {
		s.logger.Error().Err(err).Str("plan_id", planID).Msg("Failed to create Razorpay order")
		return "", nil
	}
	orderID, _ := order["id"].(string)
	if orderID == "" {
		s.logger.Error().Str("plan_id", planID).Msg("Razorpay order response missing id")
		return "", nil
	}
	return orderID, nil
}

// VerifyPayment checks the signature the Razorpay checkout handed to
// the client, confirms the order is paid for an exact plan price, and
// grants the credits. The ledger keyed on the order id makes repeated
// verification calls a no-op after the first grant.
func (s *RazorpayService) VerifyPayment(ctx context.Context, userID, orderID, paymentID, signature string) error {
	expected := signPayload(orderID+"|"+paymentID, s.keySecret)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		s.logger.Warn().Str("user_id", userID).Str("order_id", orderID).Msg("Payment signature mismatch")
		return ErrSignatureMismatch
	}

	order, err := s.orders.Fetch(orderID, nil, nil)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID).Msg("Failed to fetch Razorpay order")
		return fmt.Errorf("fetching order %s: %w", orderID, err)
	}
	status, _ := order["status"].(string)
	if status != "paid" {
		s.logger.Warn().Str("order_id", orderID).Str("status", status).Msg("Order is not paid")
		return ErrPaymentNotComplete
	}

	amountPaid, err := numberField(order, "amount_paid")
	if err != nil {
		return fmt.Errorf("reading amount_paid for order %s: %w", orderID, err)
	}
	plan, ok := model.PlanByAmount(amountPaid)
	if !ok {
		s.logger.Warn().Str("order_id", orderID).Int64("amount_paid", amountPaid).Msg("Paid amount matches no plan")
		return ErrAmountMismatch
	}

	granted, err := s.paymentRepo.GrantCredits(ctx, userID, orderID, "razorpay", plan.Credits)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("order_id", orderID).Msg("Failed to grant credits")
		return err
	}
	if !granted {
		s.logger.Info().Str("order_id", orderID).Msg("Order already credited, skipping grant")
		return nil
	}
	s.logger.Info().Str("user_id", userID).Str("order_id", orderID).Int("credits", plan.Credits).Msg("Credits granted")
	return nil
}

func signPayload(payload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// numberField reads a numeric field from a decoded SDK response, which
// may carry numbers as float64 or json.Number depending on the decoder.
func numberField(m map[string]interface{}, key string) (int64, error) {
	switch v := m[key].(type) {
	case float64:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case int64:
		return v, nil
	default:
		return 0, fmt.Errorf("field %s has unexpected type %T", key, m[key])
	}
}

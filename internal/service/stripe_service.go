package service

import (
	"context"
	"fmt"
	"time"

	"app/internal/config"
	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
)

// StripeService handles the hosted-checkout payment flow: create a
// one-off checkout session for a plan, then retrieve the completed
// session and grant its credits. The shared ledger makes retrieval
// idempotent per session id.
type StripeService struct {
	cfg         *config.Config
	userRepo    repository.UserRepository
	paymentRepo repository.PaymentRepository
	logger      zerolog.Logger
}

// NewStripeService initializes the Stripe key and returns the service
// with a scoped logger.
func NewStripeService(cfg *config.Config, userRepo repository.UserRepository, paymentRepo repository.PaymentRepository, logger zerolog.Logger) *StripeService {
	stripe.Key = cfg.StripeSecretKey
	lg := logger.With().Str("service", "StripeService").Logger()
	return &StripeService{cfg: cfg, userRepo: userRepo, paymentRepo: paymentRepo, logger: lg}
}

// vendorContext bounds a Stripe API call with the configured payment
// deadline.
func (s *StripeService) vendorContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(s.cfg.PaymentTimeoutSec)*time.Second)
}

// CreateCheckoutSession creates a Stripe Checkout session for the plan
// and returns its id and hosted URL.
func (s *StripeService) CreateCheckoutSession(ctx context.Context, userID, planID string) (string, string, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch user for checkout session")
		return "", "", fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return "", "", ErrUserNotFound
	}
	plan, ok := model.PlanByID(planID)
	if !ok {
		return "", "", ErrUnknownPlan
	}

	vendorCtx, cancel := s.vendorContext(ctx)
	defer cancel()
	sessParams := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: vendorCtx},
		CustomerEmail:      stripe.String(user.Email),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String("inr"),
				UnitAmount: stripe.Int64(plan.PriceMinorUnits),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf("%d blog credits", plan.Credits)),
				},
			},
			Quantity: stripe.Int64(1),
		}},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.cfg.StripeSuccessURL),
		CancelURL:  stripe.String(s.cfg.StripeCancelURL),
		Metadata:   map[string]string{"user_id": userID, "plan_id": planID},
	}
	sess, err := checkoutsession.New(sessParams)
	if err != nil {
		s.logger.Error().Err(err).Str("plan_id", planID).Msg("Failed to create Stripe checkout session")
		return "", "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.ID, sess.URL, nil
}

// RetrieveCheckoutSession completes the checkout round-trip. Sessions
// already in the ledger succeed without contacting Stripe or touching
// the balance, so calling this twice grants the credits once.
func (s *StripeService) RetrieveCheckoutSession(ctx context.Context, userID, sessionID string) error {
	processed, err := s.paymentRepo.IsProcessed(ctx, sessionID)
	if err != nil {
		return err
	}
	if processed {
		s.logger.Info().Str("session_id", sessionID).Msg("Checkout session already credited, skipping")
		return nil
	}

	vendorCtx, cancel := s.vendorContext(ctx)
	defer cancel()
	params := &stripe.CheckoutSessionParams{Params: stripe.Params{Context: vendorCtx}}
	params.AddExpand("customer")
	params.AddExpand("payment_intent")
	sess, err := checkoutsession.Get(sessionID, params)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to retrieve checkout session")
		return fmt.Errorf("retrieve checkout session: %w", err)
	}
	return s.creditSession(ctx, userID, sess)
}

// creditSession grants the session's plan credits to userID. The
// session must carry userID in its metadata: sessions are created with
// the buyer's id, and crediting someone else's session would let a
// caller claim a payment that is not theirs.
func (s *StripeService) creditSession(ctx context.Context, userID string, sess *stripe.CheckoutSession) error {
	if owner := sess.Metadata["user_id"]; owner != userID {
		s.logger.Warn().Str("session_id", sess.ID).Str("user_id", userID).Str("session_owner", owner).Msg("Checkout session belongs to another user")
		return ErrPaymentOwnerMismatch
	}
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		s.logger.Warn().Str("session_id", sess.ID).Str("payment_status", string(sess.PaymentStatus)).Msg("Checkout session is not paid")
		return ErrPaymentNotComplete
	}

	// The plan id travels in the session metadata; the paid amount must
	// still match its price exactly. Sessions without the metadata fall
	// back to amount matching.
	var plan model.Plan
	if planID := sess.Metadata["plan_id"]; planID != "" {
		p, ok := model.PlanByID(planID)
		if !ok {
			s.logger.Warn().Str("session_id", sess.ID).Str("plan_id", planID).Msg("Session references unknown plan")
			return ErrUnknownPlan
		}
		if sess.AmountTotal != p.PriceMinorUnits {
			s.logger.Warn().Str("session_id", sess.ID).Int64("amount_total", sess.AmountTotal).Str("plan_id", planID).Msg("Paid amount does not match plan price")
			return ErrAmountMismatch
		}
		plan = p
	} else {
		p, ok := model.PlanByAmount(sess.AmountTotal)
		if !ok {
			s.logger.Warn().Str("session_id", sess.ID).Int64("amount_total", sess.AmountTotal).Msg("Paid amount matches no plan")
			return ErrAmountMismatch
		}
		plan = p
	}

	granted, err := s.paymentRepo.GrantCredits(ctx, userID, sess.ID, "stripe", plan.Credits)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("session_id", sess.ID).Msg("Failed to grant credits")
		return err
	}
	if !granted {
		return nil
	}

	var customerID, paymentIntentID string
	if sess.Customer != nil {
		customerID = sess.Customer.ID
	}
	if sess.PaymentIntent != nil {
		paymentIntentID = sess.PaymentIntent.ID
	}
	if customerID != "" || paymentIntentID != "" {
		if err := s.userRepo.UpdateStripeIdentifiers(ctx, userID, customerID, paymentIntentID); err != nil {
			// The credits are granted; identifier bookkeeping is not
			// worth failing the request over.
			s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to store stripe identifiers")
		}
	}
	s.logger.Info().Str("user_id", userID).Str("session_id", sess.ID).Int("credits", plan.Credits).Msg("Credits granted")
	return nil
}

package service

import (
	"context"
	"errors"
	"testing"

	"app/internal/config"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
)

// The happy path needs the Stripe API; what is covered here is the
// replay guard, which must short-circuit before any vendor call.
func TestRetrieveCheckoutSessionIdempotent(t *testing.T) {
	repo := newFakePaymentRepo()
	repo.processed["cs_test_123"] = true
	repo.credits["user-1"] = 200

	users := &fakeUserRepo{credits: 200}
	svc := NewStripeService(&config.Config{}, users, repo, zerolog.Nop())

	if err := svc.RetrieveCheckoutSession(context.Background(), "user-1", "cs_test_123"); err != nil {
		t.Fatalf("expected replayed session to succeed without mutation, got %v", err)
	}
	if repo.credits["user-1"] != 200 {
		t.Fatalf("expected credits unchanged at 200, got %d", repo.credits["user-1"])
	}
	if repo.grantCalls != 0 {
		t.Fatalf("expected no grant attempt for a processed session, got %d", repo.grantCalls)
	}
}

func newTestStripeService(users *fakeUserRepo, repo *fakePaymentRepo) *StripeService {
	return NewStripeService(&config.Config{PaymentTimeoutSec: 5}, users, repo, zerolog.Nop())
}

func paidSession(owner, planID string, amount int64) *stripe.CheckoutSession {
	return &stripe.CheckoutSession{
		ID:            "cs_test_456",
		Metadata:      map[string]string{"user_id": owner, "plan_id": planID},
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal:   amount,
	}
}

func TestCreditSessionGrantsPlanFromMetadata(t *testing.T) {
	repo := newFakePaymentRepo()
	svc := newTestStripeService(&fakeUserRepo{}, repo)

	if err := svc.creditSession(context.Background(), "user-1", paidSession("user-1", "PRO", 251200)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.credits["user-1"] != 200 {
		t.Fatalf("expected 200 credits granted for PRO, got %d", repo.credits["user-1"])
	}
}

func TestCreditSessionRejectsForeignSession(t *testing.T) {
	repo := newFakePaymentRepo()
	svc := newTestStripeService(&fakeUserRepo{}, repo)

	err := svc.creditSession(context.Background(), "attacker", paidSession("user-1", "PRO", 251200))
	if !errors.Is(err, ErrPaymentOwnerMismatch) {
		t.Fatalf("expected ErrPaymentOwnerMismatch, got %v", err)
	}
	if repo.grantCalls != 0 || len(repo.credits) != 0 {
		t.Fatal("expected no grant for a session owned by another user")
	}
}

func TestCreditSessionRejectsUnpaidSession(t *testing.T) {
	repo := newFakePaymentRepo()
	svc := newTestStripeService(&fakeUserRepo{}, repo)

	sess := paidSession("user-1", "BASIC", 84900)
	sess.PaymentStatus = stripe.CheckoutSessionPaymentStatusUnpaid

	err := svc.creditSession(context.Background(), "user-1", sess)
	if !errors.Is(err, ErrPaymentNotComplete) {
		t.Fatalf("expected ErrPaymentNotComplete, got %v", err)
	}
	if repo.grantCalls != 0 {
		t.Fatal("expected no grant for an unpaid session")
	}
}

func TestCreditSessionRejectsAmountPlanMismatch(t *testing.T) {
	repo := newFakePaymentRepo()
	svc := newTestStripeService(&fakeUserRepo{}, repo)

	err := svc.creditSession(context.Background(), "user-1", paidSession("user-1", "ENTERPRISE", 84900))
	if !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("expected ErrAmountMismatch, got %v", err)
	}
	if repo.grantCalls != 0 {
		t.Fatal("expected no grant when the paid amount does not match the plan price")
	}
}

func TestCreditSessionFallsBackToAmountWithoutPlanMetadata(t *testing.T) {
	repo := newFakePaymentRepo()
	svc := newTestStripeService(&fakeUserRepo{}, repo)

	sess := paidSession("user-1", "", 840000)
	delete(sess.Metadata, "plan_id")

	if err := svc.creditSession(context.Background(), "user-1", sess); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.credits["user-1"] != 750 {
		t.Fatalf("expected 750 credits granted for ENTERPRISE amount, got %d", repo.credits["user-1"])
	}
}

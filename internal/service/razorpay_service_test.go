package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type fakePaymentRepo struct {
	processed  map[string]bool
	credits    map[string]int
	grantCalls int
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{processed: map[string]bool{}, credits: map[string]int{}}
}

func (f *fakePaymentRepo) GrantCredits(ctx context.Context, userID, paymentRef, provider string, credits int) (bool, error) {
	f.grantCalls++
	if f.processed[paymentRef] {
		return false, nil
	}
	f.processed[paymentRef] = true
	f.credits[userID] += credits
	return true, nil
}

func (f *fakePaymentRepo) IsProcessed(ctx context.Context, paymentRef string) (bool, error) {
	return f.processed[paymentRef], nil
}

type fakeOrderAPI struct {
	createResp map[string]interface{}
	createErr  error
	fetchResp  map[string]interface{}
	fetchErr   error
	fetchCalls int
}

func (f *fakeOrderAPI) Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error) {
	return f.createResp, f.createErr
}

func (f *fakeOrderAPI) Fetch(orderID string, data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error) {
	f.fetchCalls++
	return f.fetchResp, f.fetchErr
}

func newTestRazorpayService(orders razorpayOrderAPI, repo *fakePaymentRepo) *RazorpayService {
	return &RazorpayService{
		orders:      orders,
		keySecret:   "test-secret",
		paymentRepo: repo,
		logger:      zerolog.Nop(),
	}
}

func TestCreateOrderUnknownPlan(t *testing.T) {
	svc := newTestRazorpayService(&fakeOrderAPI{}, newFakePaymentRepo())
	if _, err := svc.CreateOrder(context.Background(), "GOLD"); !errors.Is(err, ErrUnknownPlan) {
		t.Fatalf("expected ErrUnknownPlan, got %v", err)
	}
}

func TestCreateOrderVendorFailureIsAdvisory(t *testing.T) {
	svc := newTestRazorpayService(&fakeOrderAPI{createErr: errors.New("gateway down")}, newFakePaymentRepo())
	orderID, err := svc.CreateOrder(context.Background(), "BASIC")
	if err != nil {
		t.Fatalf("vendor failure should be logged, not returned: %v", err)
	}
	if orderID != "" {
		t.Fatalf("expected empty order id, got %q", orderID)
	}
}

func TestCreateOrderSuccess(t *testing.T) {
	svc := newTestRazorpayService(&fakeOrderAPI{createResp: map[string]interface{}{"id": "order_123"}}, newFakePaymentRepo())
	orderID, err := svc.CreateOrder(context.Background(), "PRO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if orderID != "order_123" {
		t.Fatalf("expected order_123, got %q", orderID)
	}
}

func TestVerifyPaymentTamperedSignature(t *testing.T) {
	repo := newFakePaymentRepo()
	orders := &fakeOrderAPI{}
	svc := newTestRazorpayService(orders, repo)

	err := svc.VerifyPayment(context.Background(), "user-1", "order_123", "pay_456", "tampered")
	if !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch, got %v", err)
	}
	if orders.fetchCalls != 0 {
		t.Fatal("expected no order fetch after signature mismatch")
	}
	if len(repo.credits) != 0 {
		t.Fatal("expected no credit change after signature mismatch")
	}
}

func TestVerifyPaymentNotPaid(t *testing.T) {
	repo := newFakePaymentRepo()
	orders := &fakeOrderAPI{fetchResp: map[string]interface{}{"status": "created", "amount_paid": float64(0)}}
	svc := newTestRazorpayService(orders, repo)

	sig := signPayload("order_123|pay_456", "test-secret")
	err := svc.VerifyPayment(context.Background(), "user-1", "order_123", "pay_456", sig)
	if !errors.Is(err, ErrPaymentNotComplete) {
		t.Fatalf("expected ErrPaymentNotComplete, got %v", err)
	}
	if len(repo.credits) != 0 {
		t.Fatal("expected no credit change for an unpaid order")
	}
}

func TestVerifyPaymentAmountMismatch(t *testing.T) {
	repo := newFakePaymentRepo()
	orders := &fakeOrderAPI{fetchResp: map[string]interface{}{"status": "paid", "amount_paid": float64(100)}}
	svc := newTestRazorpayService(orders, repo)

	sig := signPayload("order_123|pay_456", "test-secret")
	err := svc.VerifyPayment(context.Background(), "user-1", "order_123", "pay_456", sig)
	if !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("expected ErrAmountMismatch, got %v", err)
	}
	if len(repo.credits) != 0 {
		t.Fatal("expected no credit change for a mismatched amount")
	}
}

func TestVerifyPaymentGrantsOncePerOrder(t *testing.T) {
	repo := newFakePaymentRepo()
	orders := &fakeOrderAPI{fetchResp: map[string]interface{}{"status": "paid", "amount_paid": float64(84900)}}
	svc := newTestRazorpayService(orders, repo)

	sig := signPayload("order_123|pay_456", "test-secret")
	if err := svc.VerifyPayment(context.Background(), "user-1", "order_123", "pay_456", sig); err != nil {
		t.Fatalf("unexpected error on first verify: %v", err)
	}
	if repo.credits["user-1"] != 50 {
		t.Fatalf("expected 50 credits granted for BASIC, got %d", repo.credits["user-1"])
	}

	// Replaying the same verified order must not grant again.
	if err := svc.VerifyPayment(context.Background(), "user-1", "order_123", "pay_456", sig); err != nil {
		t.Fatalf("unexpected error on replayed verify: %v", err)
	}
	if repo.credits["user-1"] != 50 {
		t.Fatalf("expected credits unchanged at 50 after replay, got %d", repo.credits["user-1"])
	}
}

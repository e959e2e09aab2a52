package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// PaymentHandler handles both payment back-ends: Razorpay order
// creation and signature verification, and Stripe checkout sessions.
type PaymentHandler struct {
	razorpaySvc *service.RazorpayService
	stripeSvc   *service.StripeService
	validate    *validator.Validate
	logger      zerolog.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(razorpaySvc *service.RazorpayService, stripeSvc *service.StripeService, v *validator.Validate, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{razorpaySvc: razorpaySvc, stripeSvc: stripeSvc, validate: v, logger: logger}
}

// RegisterRoutes mounts v1 payment routes.
func (h *PaymentHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/payments/razorpay/orders", authMw(http.HandlerFunc(h.createOrder)))
	mux.Handle("/payments/razorpay/verify", authMw(http.HandlerFunc(h.verifyPayment)))
	mux.Handle("/payments/stripe/checkout", authMw(http.HandlerFunc(h.createCheckout)))
	mux.Handle("/payments/stripe/checkout/", authMw(http.HandlerFunc(h.retrieveCheckout)))
}

func (h *PaymentHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req dto.OrderCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	orderID, err := h.razorpaySvc.CreateOrder(r.Context(), req.PlanID)
	if err != nil {
		if errors.Is(err, service.ErrUnknownPlan) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create order")
		return
	}

	// A null order id tells the client to retry; vendor failures on
	// this path are advisory.
	resp := dto.OrderCreateResponseDTO{}
	if orderID != "" {
		resp.OrderID = &orderID
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *PaymentHandler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req dto.PaymentVerifyDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	if err := h.razorpaySvc.VerifyPayment(r.Context(), userID, req.OrderID, req.PaymentID, req.Signature); err != nil {
		h.writePaymentError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dto.PaymentResultDTO{Success: true})
}

func (h *PaymentHandler) createCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req dto.CheckoutCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	sessionID, url, err := h.stripeSvc.CreateCheckoutSession(r.Context(), userID, req.PlanID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownPlan):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			h.logger.Error().Err(err).Msg("failed to create checkout session")
			writeError(w, http.StatusInternalServerError, "failed to create checkout session")
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dto.CheckoutCreateResponseDTO{SessionID: sessionID, URL: url})
}

func (h *PaymentHandler) retrieveCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	if !ok || userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sessionID := strings.TrimPrefix(r.URL.Path, "/payments/stripe/checkout/")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}

	if err := h.stripeSvc.RetrieveCheckoutSession(r.Context(), userID, sessionID); err != nil {
		h.writePaymentError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dto.PaymentResultDTO{Success: true})
}

func (h *PaymentHandler) writePaymentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSignatureMismatch), errors.Is(err, service.ErrAmountMismatch), errors.Is(err, service.ErrUnknownPlan):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPaymentOwnerMismatch):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrPaymentNotComplete):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "payment provider timed out, please try again")
	default:
		h.logger.Error().Err(err).Msg("payment reconciliation failed")
		writeError(w, http.StatusInternalServerError, "payment verification failed")
	}
}

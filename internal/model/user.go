package model

import "time"

// User represents a user in the system. Credits gate blog generation;
// the payment identifiers are recorded when a checkout completes.
type User struct {
	UserID                string    `db:"user_id" json:"user_id"`
	Name                  string    `db:"name" json:"name"`
	Email                 string    `db:"email" json:"email"`
	Credits               int       `db:"credits" json:"credits"`
	StripeCustomerID      *string   `db:"stripe_customer_id" json:"stripe_customer_id,omitempty"`
	StripePaymentIntentID *string   `db:"stripe_payment_intent_id" json:"stripe_payment_intent_id,omitempty"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

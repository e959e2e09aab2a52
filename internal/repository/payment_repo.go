package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PaymentRepository is the replay ledger shared by every payment
// back-end. A payment reference (Razorpay order id, Stripe session id)
// can grant credits at most once.
type PaymentRepository interface {
	// GrantCredits records paymentRef in the ledger and adds credits to
	// the user's balance in one transaction. Returns false without
	// touching the balance when paymentRef was already processed.
	GrantCredits(ctx context.Context, userID, paymentRef, provider string, credits int) (bool, error)
	IsProcessed(ctx context.Context, paymentRef string) (bool, error)
}

type paymentRepo struct {
	pool *pgxpool.Pool
}

// NewPaymentRepo creates a new PaymentRepository.
func NewPaymentRepo(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepo{pool: pool}
}

func (r *paymentRepo) GrantCredits(ctx context.Context, userID, paymentRef, provider string, credits int) (bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return false, fmt.Errorf("starting transaction for credit grant: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const insertQ = `INSERT INTO processed_payments (payment_ref, user_id, provider, credits_granted)
                     VALUES ($1, $2, $3, $4)
                     ON CONFLICT (payment_ref) DO NOTHING`
	tag, err := tx.Exec(ctx, insertQ, paymentRef, userID, provider, credits)
	if err != nil {
		return false, fmt.Errorf("recording payment %s: %w", paymentRef, err)
	}
	if tag.RowsAffected() == 0 {
		// Already credited for this reference.
		return false, nil
	}

	const updateQ = `UPDATE users SET credits = credits + $2, updated_at = now() WHERE user_id = $1`
	utag, err := tx.Exec(ctx, updateQ, userID, credits)
	if err != nil {
		return false, fmt.Errorf("granting %d credits to user %s: %w", credits, userID, err)
	}
	if utag.RowsAffected() == 0 {
		return false, fmt.Errorf("granting credits: user %s not found", userID)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing credit grant for payment %s: %w", paymentRef, err)
	}
	return true, nil
}

func (r *paymentRepo) IsProcessed(ctx context.Context, paymentRef string) (bool, error) {
	var exists bool
	const q = `SELECT EXISTS (SELECT 1 FROM processed_payments WHERE payment_ref = $1)`
	if err := r.pool.QueryRow(ctx, q, paymentRef).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking payment %s: %w", paymentRef, err)
	}
	return exists, nil
}

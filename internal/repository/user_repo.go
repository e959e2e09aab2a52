package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrInsufficientCredits is returned when a credit spend finds no balance left.
var ErrInsufficientCredits = errors.New("insufficient_credits")

// ErrUserExists is returned when a profile row already exists for the user id.
var ErrUserExists = errors.New("user_already_exists")

// UserRepository manages user profiles and their credit balance. All
// credit mutations are single-statement or transactional so concurrent
// requests cannot lose updates.
type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// SpendCredit decrements the balance by one only if it is positive.
	// Returns ErrInsufficientCredits when the balance is zero.
	SpendCredit(ctx context.Context, userID string) error
	// AddCredits increases the balance. Used for refunds on failed
	// generation runs; payment grants go through PaymentRepository.
	AddCredits(ctx context.Context, userID string, n int) error
	UpdateStripeIdentifiers(ctx context.Context, userID, customerID, paymentIntentID string) error
}

type userRepo struct {
	pool *pgxpool.Pool
}

// NewUserRepo creates a new UserRepository.
func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

func (r *userRepo) CreateUser(ctx context.Context, u *model.User) error {
	query := `INSERT INTO users (user_id, name, email)
              VALUES ($1, $2, $3)
              ON CONFLICT (user_id) DO NOTHING
              RETURNING user_id, name, email, credits, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query, u.UserID, u.Name, u.Email).
		Scan(&u.UserID, &u.Name, &u.Email, &u.Credits, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		// DO NOTHING returns no row when the profile already exists.
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserExists
		}
		return err
	}
	return nil
}

func (r *userRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	query := `SELECT user_id, name, email, credits, stripe_customer_id, stripe_payment_intent_id, created_at, updated_at
              FROM users WHERE user_id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	if err := row.Scan(&u.UserID, &u.Name, &u.Email, &u.Credits, &u.StripeCustomerID, &u.StripePaymentIntentID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// SpendCredit is a single conditional UPDATE, so the check and the
// decrement cannot race across concurrent requests.
func (r *userRepo) SpendCredit(ctx context.Context, userID string) error {
	const q = `UPDATE users SET credits = credits - 1, updated_at = now()
               WHERE user_id = $1 AND credits > 0`
	tag, err := r.pool.Exec(ctx, q, userID)
	if err != nil {
		return fmt.Errorf("spending credit for user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientCredits
	}
	return nil
}

func (r *userRepo) AddCredits(ctx context.Context, userID string, n int) error {
	const q = `UPDATE users SET credits = credits + $2, updated_at = now() WHERE user_id = $1`
	tag, err := r.pool.Exec(ctx, q, userID, n)
	if err != nil {
		return fmt.Errorf("adding %d credits for user %s: %w", n, userID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("adding credits: user %s not found", userID)
	}
	return nil
}

func (r *userRepo) UpdateStripeIdentifiers(ctx context.Context, userID, customerID, paymentIntentID string) error {
	const q = `UPDATE users
               SET stripe_customer_id = $2, stripe_payment_intent_id = $3, updated_at = now()
               WHERE user_id = $1`
	if _, err := r.pool.Exec(ctx, q, userID, customerID, paymentIntentID); err != nil {
		return fmt.Errorf("storing stripe identifiers for user %s: %w", userID, err)
	}
	return nil
}

package service

import "errors"

// Workflow errors. Handlers map these to HTTP statuses; nothing below
// this layer ever reaches a client verbatim.
var (
	ErrEmptyPrompt         = errors.New("prompt is required")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrGeneration          = errors.New("unable to generate the blog content")
	ErrStorage             = errors.New("unable to upload the blog image to storage")
	ErrPersist             = errors.New("unable to insert the blog into the database")
	ErrUserNotFound        = errors.New("user not found")
	ErrBlogNotFound        = errors.New("blog not found")

	ErrSignatureMismatch    = errors.New("payment signature verification failed")
	ErrPaymentNotComplete   = errors.New("payment is not complete")
	ErrAmountMismatch       = errors.New("paid amount does not match any plan")
	ErrUnknownPlan          = errors.New("unknown plan")
	ErrPaymentOwnerMismatch = errors.New("checkout session does not belong to this user")
)

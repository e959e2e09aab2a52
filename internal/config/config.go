package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port               string `envconfig:"PORT" default:"8080"`
	Environment        string `envconfig:"ENV" default:"development"`
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`
	JWTSecret          string `envconfig:"SUPABASE_JWT_SECRET" required:"true"`

	// Supabase storage (S3-compatible)
	S3URL             string `envconfig:"SUPABASE_S3_URL" required:"true"`
	S3Bucket          string `envconfig:"SUPABASE_S3_BUCKET" default:"ai-blog-images"`
	S3Region          string `envconfig:"SUPABASE_S3_REGION" required:"true"`
	S3AccessKey       string `envconfig:"SUPABASE_S3_ACCESS_KEY" required:"true"`
	S3SecretKey       string `envconfig:"SUPABASE_S3_SECRET_KEY" required:"true"`
	SupabasePublicURL string `envconfig:"SUPABASE_URL" required:"true"`

	// OpenAI settings
	OpenAIAPIKey  string `envconfig:"OPEN_API_KEY" required:"true"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	TextModel     string `envconfig:"OPENAI_TEXT_MODEL" default:"gpt-4"`
	ImageModel    string `envconfig:"OPENAI_IMAGE_MODEL" default:"dall-e-3"`

	// Razorpay settings
	RazorpayKeyID     string `envconfig:"RAZORPAY_KEY_ID" required:"true"`
	RazorpayKeySecret string `envconfig:"RAZORPAY_KEY_SECRET" required:"true"`

	// Stripe settings
	StripeSecretKey  string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	StripeSuccessURL string `envconfig:"STRIPE_SUCCESS_URL" default:"http://localhost:3000/checkout?status=success"`
	StripeCancelURL  string `envconfig:"STRIPE_CANCEL_URL" default:"http://localhost:3000/checkout?status=cancel"`

	// Per-call deadlines for external collaborators
	GenerationTimeoutSec int `envconfig:"GENERATION_TIMEOUT_SEC" default:"120"`
	StorageTimeoutSec    int `envconfig:"STORAGE_TIMEOUT_SEC" default:"30"`
	PaymentTimeoutSec    int `envconfig:"PAYMENT_TIMEOUT_SEC" default:"30"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

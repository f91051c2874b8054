package config

import "time"

type PaymentConfig struct {
	Stripe   *StripeConfig `yaml:"stripe"`
	Currency string        `yaml:"currency"`
}

type StripeConfig struct {
	PublishableKey string        `yaml:"publishable_key"`
	SecretKey      string        `yaml:"secret_key"`
	WebhookSecret  string        `yaml:"webhook_secret"`
	SuccessURL     string        `yaml:"success_url"`
	CancelURL      string        `yaml:"cancel_url"`
	CheckoutTTL    time.Duration `yaml:"checkout_ttl"`
}

func loadPaymentConfig() *PaymentConfig {
	return &PaymentConfig{
		Stripe: &StripeConfig{
			PublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			SecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),
			SuccessURL:     getEnv("STRIPE_SUCCESS_URL", "http://localhost:8080/payment/success"),
			CancelURL:      getEnv("STRIPE_CANCEL_URL", "http://localhost:8080/payment/cancel"),
			CheckoutTTL:    getEnvAsDuration("STRIPE_CHECKOUT_TTL", 24*time.Hour),
		},
		Currency: getEnv("PAYMENT_CURRENCY", "usd"),
	}
}

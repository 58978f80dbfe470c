package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                  string
	Port                 string
	SessionSecret        string
	DatabaseURL          string
	RedisURL             string
	StorageURL           string // external object-storage API base URL (signed upload URLs)
	StorageSecretKey     string
	BillingWebhookSecret string
	BillingSecretKey     string
	FrontendURLEndsWith  string
	AllowCrossSiteDev    bool
	MailAPIKey           string // transactional email provider API key
	MailFrom             string
	InviteBaseURL        string // base URL for invitation accept links
	LoginRateMax         int    // login attempts per window per IP
	InviteRateMax        int    // invitation sends per window per IP
	HealthAdminKey       string // query key guarding /health/reset
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL")
	switch env {
	case "production":
		if v := viper.GetString("DATABASE_URL_PROD"); v != "" {
			dbURL = v
		}
	case "test":
		if v := viper.GetString("DATABASE_URL_TEST"); v != "" {
			dbURL = v
		}
	}

	loginMax := viper.GetInt("LOGIN_RATE_MAX")
	if loginMax == 0 {
		loginMax = 10
	}
	inviteMax := viper.GetInt("INVITE_RATE_MAX")
	if inviteMax == 0 {
		inviteMax = 30
	}

	return &Config{
		Env:                  env,
		Port:                 port,
		SessionSecret:        viper.GetString("SESSION_SECRET"),
		DatabaseURL:          dbURL,
		RedisURL:             viper.GetString("REDIS_URL"),
		StorageURL:           viper.GetString("STORAGE_URL"),
		StorageSecretKey:     viper.GetString("STORAGE_SECRET_KEY"),
		BillingWebhookSecret: viper.GetString("BILLING_WEBHOOK_SECRET"),
		BillingSecretKey:     viper.GetString("BILLING_SECRET_KEY"),
		FrontendURLEndsWith:  viper.GetString("FRONTEND_URL_ENDS_WITH"),
		AllowCrossSiteDev:    strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		MailAPIKey:           viper.GetString("MAIL_API_KEY"),
		MailFrom:             viper.GetString("MAIL_FROM"),
		InviteBaseURL:        inviteBaseURL(viper.GetString("INVITE_BASE_URL")),
		LoginRateMax:         loginMax,
		InviteRateMax:        inviteMax,
		HealthAdminKey:       viper.GetString("HEALTH_ADMIN_KEY"),
	}, nil
}

func inviteBaseURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "https://app.taskflow.pro"
	}
	return s
}

package site

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// RecaptchaConfig is the per-environment reCAPTCHA key pair and score floor.
type RecaptchaConfig struct {
	SiteKey     string
	SecretKey   string
	MinScore    float64
	Environment string
}

type SMTPConfig struct {
	Host string `env:"SMTP_HOST,required"`
	Port int    `env:"SMTP_PORT" envDefault:"465"`
	User string `env:"SMTP_USER,required"`
	Pass string `env:"SMTP_PASS,required"`
	SSL  bool   `env:"SMTP_SSL" envDefault:"true"`
}

type Config struct {
	ListenAddr  string `env:"LISTEN_ADDR" envDefault:":8000"`
	StaticDir   string `env:"STATIC_DIR" envDefault:"static"`
	MaxUploadMB int    `env:"MAX_UPLOAD_MB" envDefault:"10"`

	SMTP            SMTPConfig
	FromAddr        string   `env:"FROM_ADDR"`
	StaffRecipients []string `env:"STAFF_RECIPIENTS" envSeparator:"," envDefault:"sires_mary@yahoo.com,jonnysires@yahoo.com"`

	// Hosts served with the production reCAPTCHA keys; everything else gets
	// the development keys.
	ProductionHosts []string `env:"PRODUCTION_HOSTS" envSeparator:"," envDefault:"learnandplaycv.com,www.learnandplaycv.com,jcsires.com,www.jcsires.com"`

	ProductionSiteKey   string  `env:"RECAPTCHA_PROD_SITE_KEY" envDefault:"6Ldwt_QrAAAAAJe16NGYB5W5RLqeMibHLQu2or1r"`
	ProductionSecretKey string  `env:"RECAPTCHA_PROD_SECRET_KEY"`
	ProductionMinScore  float64 `env:"RECAPTCHA_PROD_MIN_SCORE" envDefault:"0.5"`

	// Google's published always-pass test key pair.
	TestSiteKey   string  `env:"RECAPTCHA_TEST_SITE_KEY" envDefault:"6LeIxAcTAAAAAJcZVRqyHh71UMIEGNQ_MXjiZKhI"`
	TestSecretKey string  `env:"RECAPTCHA_TEST_SECRET_KEY" envDefault:"6LeIxAcTAAAAAGG-vFI1TnRWxMZNFuojJ4WifJWe"`
	TestMinScore  float64 `env:"RECAPTCHA_TEST_MIN_SCORE" envDefault:"0"`

	// Minimum seconds between page render and submission, per form.
	ContactMinSeconds int `env:"CONTACT_MIN_SECONDS" envDefault:"60"`
	CareersMinSeconds int `env:"CAREERS_MIN_SECONDS" envDefault:"60"`

	prodHosts map[string]struct{}
}

// Load reads configuration from the environment, after loading an optional
// .env file. The returned Config is treated as immutable for the life of the
// process.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.FromAddr == "" {
		cfg.FromAddr = cfg.SMTP.User
	}
	cfg.indexHosts()
	return cfg, nil
}

func (c *Config) indexHosts() {
	c.prodHosts = make(map[string]struct{}, len(c.ProductionHosts))
	for _, h := range c.ProductionHosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			c.prodHosts[h] = struct{}{}
		}
	}
}

// RecaptchaFor classifies the request host and returns the reCAPTCHA
// configuration to use for it. The host is matched after stripping any port
// suffix and lower-casing; empty, malformed, or unrecognized hosts always
// fall back to the development configuration.
func (c *Config) RecaptchaFor(host string) RecaptchaConfig {
	normalized, _, _ := strings.Cut(strings.ToLower(host), ":")
	if c.prodHosts == nil {
		c.indexHosts()
	}
	if _, ok := c.prodHosts[normalized]; ok {
		return RecaptchaConfig{
			SiteKey:     c.ProductionSiteKey,
			SecretKey:   c.ProductionSecretKey,
			MinScore:    c.ProductionMinScore,
			Environment: EnvProduction,
		}
	}
	return RecaptchaConfig{
		SiteKey:     c.TestSiteKey,
		SecretKey:   c.TestSecretKey,
		MinScore:    c.TestMinScore,
		Environment: EnvDevelopment,
	}
}

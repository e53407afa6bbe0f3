package config

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/affiliate")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.JWTSecret != "test-secret" {
		t.Fatalf("expected the env jwt secret, got %q", cfg.JWTSecret)
	}
	if cfg.DefaultRedirectURL != "https://example.com" {
		t.Fatalf("expected the default redirect url, got %q", cfg.DefaultRedirectURL)
	}
	if cfg.ConversionEventQueue != "affiliate_service.conversion_events" {
		t.Fatalf("expected the default queue name, got %q", cfg.ConversionEventQueue)
	}
	if cfg.ReferralConversionAmountCents != 10000 {
		t.Fatalf("expected the 10000 cent default, got %d", cfg.ReferralConversionAmountCents)
	}
	if cfg.AttributionTTLDays != 30 {
		t.Fatalf("expected a 30 day attribution ttl, got %d", cfg.AttributionTTLDays)
	}
	if cfg.ClickRetentionDays != 90 {
		t.Fatalf("expected a 90 day click retention, got %d", cfg.ClickRetentionDays)
	}
	if cfg.ClickRetentionSchedule != "0 3 * * *" {
		t.Fatalf("expected the default retention schedule, got %q", cfg.ClickRetentionSchedule)
	}
}

func TestLoadConfigSanitizesValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("REFERRAL_CONVERSION_AMOUNT_CENTS", "-500")
	t.Setenv("ATTRIBUTION_TTL_DAYS", "0")
	t.Setenv("CLICK_RETENTION_DAYS", "-1")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.ReferralConversionAmountCents != 0 {
		t.Fatalf("expected negative amount coerced to zero, got %d", cfg.ReferralConversionAmountCents)
	}
	if cfg.AttributionTTLDays != 30 {
		t.Fatalf("expected invalid ttl to fall back to 30, got %d", cfg.AttributionTTLDays)
	}
	if cfg.ClickRetentionDays != 90 {
		t.Fatalf("expected invalid retention to fall back to 90, got %d", cfg.ClickRetentionDays)
	}
}

func TestAllowedOrigins(t *testing.T) {
	cfg := Config{CORSAllowedOrigins: "https://app.example.com, https://admin.example.com ,"}
	origins := cfg.AllowedOrigins()
	if len(origins) != 2 || origins[0] != "https://app.example.com" || origins[1] != "https://admin.example.com" {
		t.Fatalf("unexpected origins: %v", origins)
	}

	cfg = Config{}
	origins = cfg.AllowedOrigins()
	if len(origins) != 1 || origins[0] != "*" {
		t.Fatalf("expected the wildcard fallback, got %v", origins)
	}
}

func TestIsProduction(t *testing.T) {
	if (Config{Environment: "development"}).IsProduction() {
		t.Fatal("development must not be production")
	}
	if !(Config{Environment: "Production"}).IsProduction() {
		t.Fatal("expected a case-insensitive production match")
	}
}

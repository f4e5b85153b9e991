package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "NODE_ENV", "JWT_SECRET", "MAX_HEARTS", "ATTEMPT_TTL", "DEV_MODE", "REDIS_ADDR"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 5175 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Auth.JWTSecret != DevSecret {
		t.Errorf("dev secret not applied: %q", cfg.Auth.JWTSecret)
	}
	if cfg.Lessons.MaxHearts != 3 || cfg.Lessons.AttemptTTL != 24*time.Hour || cfg.Lessons.DevMode {
		t.Errorf("lessons = %+v", cfg.Lessons)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("redis enabled by default: %q", cfg.Redis.Addr)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("MAX_HEARTS", "5")
	t.Setenv("ATTEMPT_TTL", "90m")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Lessons.MaxHearts != 5 || cfg.Lessons.AttemptTTL != 90*time.Minute {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.Lessons.DevMode || cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 2 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	t.Setenv("ATTEMPT_TTL", "soon")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 5175 || cfg.Lessons.AttemptTTL != 24*time.Hour {
		t.Errorf("defaults not used: port=%d ttl=%v", cfg.Server.Port, cfg.Lessons.AttemptTTL)
	}
}

func TestProductionRequiresSecret(t *testing.T) {
	t.Setenv("NODE_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("err = %v", err)
	}

	t.Setenv("JWT_SECRET", DevSecret)
	if _, err := Load(); err == nil {
		t.Fatal("dev secret accepted in production")
	}

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Production() {
		t.Fatal("Production() = false")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:  ServerConfig{Port: 80, RequestTimeout: time.Second},
			Auth:    AuthConfig{JWTSecret: "x", JWTExpiresDays: 1, CookieName: "a", AnonCookieName: "b"},
			DB:      DBConfig{Path: "app.db"},
			Lessons: LessonsConfig{MaxHearts: 3, AttemptTTL: time.Hour},
		}
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"no timeout", func(c *Config) { c.Server.RequestTimeout = 0 }},
		{"no secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"expiry", func(c *Config) { c.Auth.JWTExpiresDays = 0 }},
		{"same cookie names", func(c *Config) { c.Auth.AnonCookieName = "a" }},
		{"no db path", func(c *Config) { c.DB.Path = "" }},
		{"no hearts", func(c *Config) { c.Lessons.MaxHearts = 0 }},
		{"no ttl", func(c *Config) { c.Lessons.AttemptTTL = 0 }},
		{"negative redis db", func(c *Config) { c.Redis.DB = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

package common

import (
	"testing"
	"time"
)

func TestConfig_DefaultPort(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port default = %d, want %d", cfg.Server.Port, 8080)
	}
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("TRIVIA_PORT", "9090")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d after env override, want %d", cfg.Server.Port, 9090)
	}
}

func TestConfig_GeminiKeyEnvOverride(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gem-from-env")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Generator.APIKey != "gem-from-env" {
		t.Errorf("Generator.APIKey = %q, want %q", cfg.Generator.APIKey, "gem-from-env")
	}
}

func TestConfig_AuthJWTSecretEnvOverride(t *testing.T) {
	t.Setenv("TRIVIA_AUTH_JWT_SECRET", "secret-from-env")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Auth.JWTSecret != "secret-from-env" {
		t.Errorf("Auth.JWTSecret = %q, want %q", cfg.Auth.JWTSecret, "secret-from-env")
	}
}

func TestConfig_MaxConcurrentEnvOverride(t *testing.T) {
	t.Setenv("TRIVIA_MAX_CONCURRENT", "7")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.JobManager.MaxConcurrent != 7 {
		t.Errorf("JobManager.MaxConcurrent = %d after env override, want 7", cfg.JobManager.MaxConcurrent)
	}
}

func TestGeneratorConfig_GetTimeout_Default(t *testing.T) {
	cfg := &GeneratorConfig{}
	if d := cfg.GetTimeout(); d != 30*time.Second {
		t.Errorf("GetTimeout() = %v, want 30s", d)
	}
}

func TestGeneratorConfig_GetTimeout_Configured(t *testing.T) {
	cfg := &GeneratorConfig{Timeout: "5s"}
	if d := cfg.GetTimeout(); d != 5*time.Second {
		t.Errorf("GetTimeout() = %v, want 5s", d)
	}
}

func TestJobManagerConfig_GetCleanupInterval_Default(t *testing.T) {
	cfg := &JobManagerConfig{}
	if d := cfg.GetCleanupInterval(); d != 5*time.Minute {
		t.Errorf("GetCleanupInterval() = %v, want 5m", d)
	}
}

func TestJobManagerConfig_GetMaxJobAge_Configured(t *testing.T) {
	cfg := &JobManagerConfig{MaxJobAge: "2h"}
	if d := cfg.GetMaxJobAge(); d != 2*time.Hour {
		t.Errorf("GetMaxJobAge() = %v, want 2h", d)
	}
}

func TestConfig_IsProduction(t *testing.T) {
	cfg := &Config{Environment: "production"}
	if !cfg.IsProduction() {
		t.Error("expected IsProduction() to be true for \"production\"")
	}
	cfg.Environment = "development"
	if cfg.IsProduction() {
		t.Error("expected IsProduction() to be false for \"development\"")
	}
}

package config

import (
	"testing"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("VENDORA_TEST_KEY", "value")

	if got := GetEnv("VENDORA_TEST_KEY", "fallback"); got != "value" {
		t.Errorf("GetEnv() = %q, want value", got)
	}
	if got := GetEnv("VENDORA_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("GetEnv() = %q, want fallback", got)
	}
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("VENDORA_SERVER_ENVIRONMENT", "PRODUCTION")

	if got := GetEnvironment(); got != EnvProduction {
		t.Errorf("GetEnvironment() = %q, want %q", got, EnvProduction)
	}
	if !IsProduction() {
		t.Error("IsProduction() = false, want true")
	}
	if !IsProductionLike() {
		t.Error("IsProductionLike() = false, want true")
	}
}

func TestGetEnvironmentDefault(t *testing.T) {
	t.Setenv("VENDORA_SERVER_ENVIRONMENT", "")

	if got := GetEnvironment(); got != EnvDevelopment {
		t.Errorf("GetEnvironment() = %q, want %q", got, EnvDevelopment)
	}
	if !IsDevelopment() {
		t.Error("IsDevelopment() = false, want true")
	}
}

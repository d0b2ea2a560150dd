package config

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestGetEnvDefault(t *testing.T) {
	if got := GetEnv("THREADFORGE_TEST_UNSET", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("THREADFORGE_TEST_SET", "value")
	if got := GetEnv("THREADFORGE_TEST_SET", "fallback"); got != "value" {
		t.Fatalf("expected value, got %q", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("THREADFORGE_TEST_INT", "42")
	if got := GetEnvInt("THREADFORGE_TEST_INT", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	t.Setenv("THREADFORGE_TEST_INT", "not-a-number")
	if got := GetEnvInt("THREADFORGE_TEST_INT", 7); got != 7 {
		t.Fatalf("expected default 7, got %d", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("THREADFORGE_TEST_BOOL", "true")
	if !GetEnvBool("THREADFORGE_TEST_BOOL", false) {
		t.Fatal("expected true")
	}
	t.Setenv("THREADFORGE_TEST_BOOL", "junk")
	if GetEnvBool("THREADFORGE_TEST_BOOL", false) {
		t.Fatal("expected default false")
	}
}

func TestGetLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	if got := GetLogLevel(); got != logrus.DebugLevel {
		t.Fatalf("expected debug, got %v", got)
	}
	t.Setenv("LOG_LEVEL", "")
	if got := GetLogLevel(); got != logrus.InfoLevel {
		t.Fatalf("expected info, got %v", got)
	}
}

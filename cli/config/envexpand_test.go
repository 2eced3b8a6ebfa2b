package config

import (
	"testing"
)

func TestExpandEnv_SetVar(t *testing.T) {
	t.Setenv("SHIMMER_LOG", "/var/lib/shimmer/team.log")

	got := ExpandEnv("log: ${SHIMMER_LOG}")
	want := "log: /var/lib/shimmer/team.log"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExpandEnv_UnsetVar(t *testing.T) {
	got := ExpandEnv("log: ${UNSET_VAR_12345}")
	want := "log: "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExpandEnv_DefaultUsedWhenUnset(t *testing.T) {
	got := ExpandEnv("channel: ${UNSET_VAR_12345:-shimmer:coordlog}")
	want := "channel: shimmer:coordlog"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExpandEnv_DefaultIgnoredWhenSet(t *testing.T) {
	t.Setenv("SHIMMER_REDIS_URL", "redis://cache.internal:6379/0")

	got := ExpandEnv("url: ${SHIMMER_REDIS_URL:-redis://localhost:6379/0}")
	want := "url: redis://cache.internal:6379/0"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExpandEnv_DefaultUsedWhenEmpty(t *testing.T) {
	t.Setenv("SHIMMER_REDIS_URL", "")

	got := ExpandEnv("url: ${SHIMMER_REDIS_URL:-redis://localhost:6379/0}")
	want := "url: redis://localhost:6379/0"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExpandEnv_MultipleVars(t *testing.T) {
	t.Setenv("ARCHIVE_BUCKET", "team-segments")
	t.Setenv("ARCHIVE_PREFIX", "shimmer")

	got := ExpandEnv("${ARCHIVE_BUCKET}/${ARCHIVE_PREFIX}")
	want := "team-segments/shimmer"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExpandEnv_NoVars(t *testing.T) {
	input := "log: team.shimmer.log"
	got := ExpandEnv(input)
	if got != input {
		t.Errorf("got %q, want %q", got, input)
	}
}

func TestExpandEnv_NestedInYAML(t *testing.T) {
	t.Setenv("WEBHOOK_URL", "https://hooks.internal/shimmer")
	t.Setenv("WEBHOOK_TOKEN", "secret")

	input := `adapter:
  type: webhook
  url: ${WEBHOOK_URL}
  headers:
    Authorization: Bearer ${WEBHOOK_TOKEN}`

	got := ExpandEnv(input)
	want := `adapter:
  type: webhook
  url: https://hooks.internal/shimmer
  headers:
    Authorization: Bearer secret`

	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

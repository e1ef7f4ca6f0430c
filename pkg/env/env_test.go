package env

import "testing"

func TestGetFallsBackOnBlank(t *testing.T) {
	t.Setenv("NEXUS_TEST_VALUE", "   ")
	if got := Get("NEXUS_TEST_VALUE", "json"); got != "json" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("NEXUS_TEST_VALUE", " console ")
	if got := Get("NEXUS_TEST_VALUE", "json"); got != "console" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("NEXUS_TEST_FLAG", "true")
	if !Bool("NEXUS_TEST_FLAG", false) {
		t.Fatalf("expected true")
	}
	t.Setenv("NEXUS_TEST_FLAG", "nope")
	if !Bool("NEXUS_TEST_FLAG", true) {
		t.Fatalf("expected fallback on unparsable value")
	}
}

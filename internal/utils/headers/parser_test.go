package headers

import "testing"

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders([]string{
		"Authorization: Bearer token",
		"X-Custom:  spaced value ",
		"malformed-no-colon",
		"Empty-Value:",
	})

	if got["Authorization"] != "Bearer token" {
		t.Errorf("Authorization = %q", got["Authorization"])
	}
	if got["X-Custom"] != "spaced value" {
		t.Errorf("X-Custom = %q", got["X-Custom"])
	}
	if _, ok := got["malformed-no-colon"]; ok {
		t.Error("malformed entry should be skipped")
	}
	if got["Empty-Value"] != "" {
		t.Errorf("Empty-Value = %q", got["Empty-Value"])
	}
	if len(got) != 3 {
		t.Errorf("expected 3 entries, got %d", len(got))
	}
}

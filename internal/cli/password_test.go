package cli

import "testing"

func TestPasswordScore(t *testing.T) {
	if got := passwordScore(""); got != 0 {
		t.Fatalf("passwordScore(\"\") = %d, want 0", got)
	}
	if got := passwordScore("password"); got >= 3 {
		t.Fatalf("passwordScore(\"password\") = %d, want below 3", got)
	}
	if got := passwordScore("qK9#vT2@mZ8!pL4$wX6"); got < 3 {
		t.Fatalf("passwordScore of a long random password = %d, want 3 or better", got)
	}
	for _, pw := range []string{"", "a", "password", "tr0ub4dour&3"} {
		if got := passwordScore(pw); got < 0 || got > 4 {
			t.Fatalf("passwordScore(%q) = %d, out of range", pw, got)
		}
	}
}

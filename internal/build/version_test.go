package build

import "testing"

func TestFullVersion(t *testing.T) {
	origVersion, origCommit := Version, Commit
	defer func() {
		Version, Commit = origVersion, origCommit
	}()

	Version = "1.2.3"
	Commit = "abc123"

	if got := FullVersion(); got != "1.2.3+abc123" {
		t.Errorf("FullVersion() = %q, want %q", got, "1.2.3+abc123")
	}
}

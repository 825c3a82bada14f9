package lang

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAndLookup(t *testing.T) {
	yml := `
error:
  Incorrect_Perms: "You do not have permission!"
review:
  rate:
    title: "Rate {user}'s support"
`
	path := filepath.Join(t.TempDir(), "messages.yml")
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}
	Load(path)

	// Keys are flattened and lowercased.
	if got := T("error.incorrect_perms"); got != "You do not have permission!" {
		t.Errorf("T(error.incorrect_perms) = %q", got)
	}

	if got := T("review.rate.title", "user", "Alex"); got != "Rate Alex's support" {
		t.Errorf("placeholder substitution = %q", got)
	}

	// Missing keys come back wrapped so they are visible in Discord.
	if got := T("no.such.key"); got != "{no.such.key}" {
		t.Errorf("missing key = %q", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	Load(filepath.Join(t.TempDir(), "nope.yml"))

	if got := T("anything"); got != "{anything}" {
		t.Errorf("missing file should yield empty templates, got %q", got)
	}
}

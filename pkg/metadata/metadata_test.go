package metadata

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSignAndVerify(t *testing.T) {
	now := time.Date(2023, 9, 2, 18, 53, 26, 0, time.UTC)

	signed := SignAt("# Report\n\n| a |\n", "https://example.com", true, now)

	ok, err := Verify(signed)
	if err != nil || !ok {
		t.Fatalf("Verify = %v, %v; want true, nil", ok, err)
	}

	meta, clean := Extract(signed)
	if meta == nil {
		t.Fatal("Extract returned nil metadata")
	}

	if !meta.Validation || meta.Source != "https://example.com" || !meta.LastModify.Equal(now) {
		t.Errorf("Metadata = %+v", meta)
	}

	if clean != "# Report\n\n| a |" {
		t.Errorf("clean = %q", clean)
	}
}

func TestSign_ReplacesExistingBlock(t *testing.T) {
	once := Sign("body", "src", false)
	twice := Sign(once, "src", false)

	if strings.Count(twice, TagStart) != 1 {
		t.Errorf("expected one metadata block, got:\n%s", twice)
	}
}

func TestVerify_Errors(t *testing.T) {
	if _, err := Verify("no block"); !errors.Is(err, ErrNoMetadataBlock) {
		t.Errorf("Verify error = %v, want ErrNoMetadataBlock", err)
	}

	signed := Sign("original", "src", true)
	tampered := strings.Replace(signed, "original", "changed", 1)

	if _, err := Verify(tampered); !errors.Is(err, ErrHashMismatch) {
		t.Errorf("Verify error = %v, want ErrHashMismatch", err)
	}

	noHash := "body\n\n" + TagStart + "\nVALIDATION: TRUE\n" + TagEnd

	if _, err := Verify(noHash); !errors.Is(err, ErrNoHashFound) {
		t.Errorf("Verify error = %v, want ErrNoHashFound", err)
	}
}

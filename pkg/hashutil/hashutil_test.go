package hashutil

import "testing"

func TestHashBytesSha256(t *testing.T) {
	// sha256("hello")
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	got, err := HashBytes([]byte("hello"), HashAlgoSHA256)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestHashBytesBlake3(t *testing.T) {
	got, err := HashBytes([]byte("hello"), HashAlgoBLAKE3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 64 {
		t.Errorf("blake3 hex digest length = %d, want 64", len(got))
	}

	again, err := HashBytes([]byte("hello"), HashAlgoBLAKE3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != again {
		t.Error("blake3 digest not deterministic")
	}

	other, _ := HashBytes([]byte("world"), HashAlgoBLAKE3)
	if got == other {
		t.Error("distinct inputs produced identical digests")
	}
}

func TestHashBytesUnsupportedAlgo(t *testing.T) {
	_, err := HashBytes([]byte("hello"), "md5")
	if err == nil {
		t.Fatal("expected error for unsupported algorithm")
	}
}

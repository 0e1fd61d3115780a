package oracle

import "testing"

func TestValidateKeccak256(t *testing.T) {
	value := []byte("hello preimage")
	digest := Keccak256(value)
	key := NewKey(digest, KeyTypeKeccak256)

	if err := Validate(key, value); err != nil {
		t.Fatalf("expected valid preimage, got %v", err)
	}

	if err := Validate(key, []byte("tampered")); err == nil {
		t.Fatal("expected validation failure for tampered value")
	}
}

func TestValidateSha256(t *testing.T) {
	value := []byte("another preimage")
	digest := Sha256(value)
	key := NewKey(digest, KeyTypeSha256)

	if err := Validate(key, value); err != nil {
		t.Fatalf("expected valid preimage, got %v", err)
	}
}

func TestValidateBlobAndOpaqueAlwaysAccept(t *testing.T) {
	var digest [32]byte
	blobKey := NewKey(digest, KeyTypeBlob)
	if err := Validate(blobKey, []byte("anything")); err != nil {
		t.Fatalf("blob keys should not be content-validated here: %v", err)
	}

	localKey := NewKey(digest, KeyTypeLocal)
	if err := Validate(localKey, []byte("anything")); err != nil {
		t.Fatalf("local keys should not be content-validated: %v", err)
	}
}

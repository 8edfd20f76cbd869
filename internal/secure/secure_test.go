package secure

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
)

func testKey() []byte {
	return bytes.Repeat([]byte("k"), 32)
}

func TestBox_EncryptDecrypt_RoundTrip(t *testing.T) {
	box, err := NewBox(testKey())
	if err != nil {
		t.Fatalf("NewBox() error = %v", err)
	}

	plaintext := "sk-super-secret-api-key"
	encrypted, err := box.EncryptString(plaintext)
	if err != nil {
		t.Fatalf("EncryptString() error = %v", err)
	}
	if strings.Contains(encrypted, plaintext) {
		t.Fatal("ciphertext must not contain the plaintext")
	}

	decrypted, err := box.DecryptString(encrypted)
	if err != nil {
		t.Fatalf("DecryptString() error = %v", err)
	}
	if decrypted != plaintext {
		t.Errorf("expected %q, got %q", plaintext, decrypted)
	}
}

func TestBox_InvalidKeySize(t *testing.T) {
	if _, err := NewBox([]byte("too-short")); err != ErrInvalidKeySize {
		t.Fatalf("expected ErrInvalidKeySize, got %v", err)
	}
}

func TestBox_DecryptWrongKey(t *testing.T) {
	boxA, _ := NewBox(testKey())
	boxB, _ := NewBox(bytes.Repeat([]byte("z"), 32))

	encrypted, err := boxA.EncryptString("value")
	if err != nil {
		t.Fatalf("EncryptString() error = %v", err)
	}
	if _, err := boxB.DecryptString(encrypted); err == nil {
		t.Fatal("expected decryption to fail under the wrong key")
	}
}

func TestBox_DecryptTooShort(t *testing.T) {
	box, _ := NewBox(testKey())
	short := base64.StdEncoding.EncodeToString([]byte("x"))
	if _, err := box.Decrypt(short); err != ErrCiphertextTooShort {
		t.Fatalf("expected ErrCiphertextTooShort, got %v", err)
	}
}

func TestNewBoxFromBase64(t *testing.T) {
	encodedKey := base64.StdEncoding.EncodeToString(testKey())
	box, err := NewBoxFromBase64(encodedKey)
	if err != nil {
		t.Fatalf("NewBoxFromBase64() error = %v", err)
	}
	if _, err := box.EncryptString("ok"); err != nil {
		t.Fatalf("EncryptString() error = %v", err)
	}
}

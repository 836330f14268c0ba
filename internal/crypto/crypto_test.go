package crypto

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestNewEncryptorRejectsBadKeys(t *testing.T) {
	for _, keyLen := range []int{0, 16, 31, 33, 64} {
		key := make([]byte, keyLen)
		if _, err := NewEncryptor(key); err != ErrInvalidKey {
			t.Errorf("NewEncryptor(%d bytes) error = %v, want ErrInvalidKey", keyLen, err)
		}
	}
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	if _, err := NewEncryptor(key); err != nil {
		t.Errorf("NewEncryptor(32 bytes) unexpected error = %v", err)
	}
}

func TestEncryptDecryptRoundtrip(t *testing.T) {
	key, _ := GenerateKey()
	enc, err := NewEncryptor(key)
	if err != nil {
		t.Fatalf("NewEncryptor() error = %v", err)
	}

	tests := []struct {
		name      string
		plaintext string
	}{
		{"journal entry", "Today I talked with Aria about the move. Feeling hopeful."},
		{"empty string", ""},
		{"unicode text", "こんにちは世界 🔐"},
		{"long entry", strings.Repeat("a", 10000)},
		{"newlines", "line1\nline2\r\nline3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ciphertext, err := enc.Encrypt(tt.plaintext)
			if err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}

			// Empty string passes through unencrypted as empty
			if tt.plaintext == "" {
				if ciphertext != "" {
					t.Errorf("Encrypt() of empty string = %q, want empty", ciphertext)
				}
				return
			}

			if _, err := base64.StdEncoding.DecodeString(ciphertext); err != nil {
				t.Errorf("Encrypt() output is not valid base64: %v", err)
			}
			if ciphertext == tt.plaintext {
				t.Error("Encrypt() ciphertext equals plaintext")
			}

			decrypted, err := enc.Decrypt(ciphertext)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if decrypted != tt.plaintext {
				t.Errorf("Decrypt() = %q, want %q", decrypted, tt.plaintext)
			}
		})
	}
}

func TestEncryptProducesUniqueCiphertexts(t *testing.T) {
	key, _ := GenerateKey()
	enc, _ := NewEncryptor(key)

	plaintext := "same message"
	ciphertexts := make(map[string]bool)

	for i := 0; i < 100; i++ {
		ct, err := enc.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt() error = %v", err)
		}
		if ciphertexts[ct] {
			t.Fatal("Encrypt() produced duplicate ciphertext - nonce reuse detected")
		}
		ciphertexts[ct] = true
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	key1, _ := GenerateKey()
	key2, _ := GenerateKey()

	enc1, _ := NewEncryptor(key1)
	enc2, _ := NewEncryptor(key2)

	ciphertext, _ := enc1.Encrypt("secret message")

	if _, err := enc2.Decrypt(ciphertext); err == nil {
		t.Error("Decrypt() with wrong key should fail")
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	key, _ := GenerateKey()
	enc, _ := NewEncryptor(key)

	ciphertext, _ := enc.Encrypt("secret message")
	data, _ := base64.StdEncoding.DecodeString(ciphertext)

	tests := []struct {
		name   string
		tamper func([]byte) []byte
	}{
		{"flip bit in nonce", func(d []byte) []byte { d[0] ^= 0x01; return d }},
		{"flip bit in ciphertext", func(d []byte) []byte { d[len(d)/2] ^= 0x01; return d }},
		{"flip bit in auth tag", func(d []byte) []byte { d[len(d)-1] ^= 0x01; return d }},
		{"truncate", func(d []byte) []byte { return d[:len(d)-5] }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tampered := make([]byte, len(data))
			copy(tampered, data)
			tampered = tt.tamper(tampered)

			if _, err := enc.Decrypt(base64.StdEncoding.EncodeToString(tampered)); err == nil {
				t.Error("Decrypt() of tampered ciphertext should fail")
			}
		})
	}
}

func TestDecryptInvalidInput(t *testing.T) {
	key, _ := GenerateKey()
	enc, _ := NewEncryptor(key)

	tests := []struct {
		name       string
		ciphertext string
		wantErr    bool
	}{
		{"empty string", "", false}, // Empty returns empty
		{"invalid base64", "not-valid-base64!!!", true},
		{"too short", base64.StdEncoding.EncodeToString([]byte("x")), true},
		{"just nonce", base64.StdEncoding.EncodeToString(make([]byte, 12)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := enc.Decrypt(tt.ciphertext)
			if tt.wantErr && err == nil {
				t.Errorf("Decrypt(%q) should have failed", tt.ciphertext)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Decrypt(%q) unexpected error = %v", tt.ciphertext, err)
			}
		})
	}
}

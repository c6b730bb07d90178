package credentials

import (
	"encoding/hex"
	"testing"
)

func TestEnvKeyProvider_GetKey(t *testing.T) {
	envVar := "TEST_MINT_ENCRYPTION_KEY"

	t.Run("valid key", func(t *testing.T) {
		validKey := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
		t.Setenv(envVar, validKey)

		provider := NewEnvKeyProvider(envVar)
		key, err := provider.GetKey()
		if err != nil {
			t.Fatalf("GetKey() error = %v", err)
		}

		if len(key) != keyLength {
			t.Errorf("GetKey() returned %d bytes, want %d", len(key), keyLength)
		}

		expectedKey, _ := hex.DecodeString(validKey)
		if string(key) != string(expectedKey) {
			t.Errorf("GetKey() returned wrong key")
		}
	})

	t.Run("missing env var", func(t *testing.T) {
		t.Setenv(envVar, "")

		provider := NewEnvKeyProvider(envVar)
		_, err := provider.GetKey()
		if err == nil {
			t.Error("GetKey() expected error for missing env var")
		}
	})

	t.Run("invalid hex", func(t *testing.T) {
		t.Setenv(envVar, "not-valid-hex")

		provider := NewEnvKeyProvider(envVar)
		_, err := provider.GetKey()
		if err == nil {
			t.Error("GetKey() expected error for invalid hex")
		}
	})

	t.Run("wrong length", func(t *testing.T) {
		t.Setenv(envVar, "0123456789abcdef") // Only 8 bytes

		provider := NewEnvKeyProvider(envVar)
		_, err := provider.GetKey()
		if err == nil {
			t.Error("GetKey() expected error for wrong key length")
		}
	})
}

func TestEnvKeyProvider_ResetKey(t *testing.T) {
	provider := NewEnvKeyProvider("TEST_MINT_ENCRYPTION_KEY")
	if _, err := provider.ResetKey(); err == nil {
		t.Error("ResetKey() expected error for env-based key")
	}
}

func TestPassphraseKeyProvider_GetKey(t *testing.T) {
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt() error = %v", err)
	}
	if len(salt) != 16 {
		t.Fatalf("GenerateSalt() returned %d bytes, want 16", len(salt))
	}

	provider := NewPassphraseKeyProvider("correct horse battery staple", salt)

	key, err := provider.GetKey()
	if err != nil {
		t.Fatalf("GetKey() error = %v", err)
	}
	if len(key) != keyLength {
		t.Errorf("GetKey() returned %d bytes, want %d", len(key), keyLength)
	}

	// Same passphrase and salt must derive the same key.
	again, err := provider.GetKey()
	if err != nil {
		t.Fatalf("second GetKey() error = %v", err)
	}
	if string(key) != string(again) {
		t.Error("GetKey() is not deterministic for the same passphrase and salt")
	}

	// A different salt must derive a different key.
	otherSalt, _ := GenerateSalt()
	other := NewPassphraseKeyProvider("correct horse battery staple", otherSalt)
	otherKey, err := other.GetKey()
	if err != nil {
		t.Fatalf("GetKey() with other salt error = %v", err)
	}
	if string(key) == string(otherKey) {
		t.Error("GetKey() produced the same key for different salts")
	}
}

func TestPassphraseKeyProvider_Validation(t *testing.T) {
	salt, _ := GenerateSalt()

	if _, err := NewPassphraseKeyProvider("", salt).GetKey(); err == nil {
		t.Error("GetKey() expected error for empty passphrase")
	}
	if _, err := NewPassphraseKeyProvider("pass", nil).GetKey(); err == nil {
		t.Error("GetKey() expected error for missing salt")
	}
}

func TestGetDefaultKeyProvider_EnvPriority(t *testing.T) {
	t.Setenv("MINT_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")

	provider, err := GetDefaultKeyProvider()
	if err != nil {
		t.Fatalf("GetDefaultKeyProvider() error = %v", err)
	}

	if _, ok := provider.(*EnvKeyProvider); !ok {
		t.Errorf("GetDefaultKeyProvider() = %T, want *EnvKeyProvider", provider)
	}
}

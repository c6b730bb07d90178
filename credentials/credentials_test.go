package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testEncryptionKey is a fixed 32-byte key for testing (hex-encoded to 64 chars)
const testEncryptionKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// setupTestEnv points the store at a temp directory with a fixed encryption key.
func setupTestEnv(t *testing.T) string {
	t.Helper()

	tempDir := t.TempDir()
	t.Setenv("MINT_CONFIG_DIR", tempDir)
	t.Setenv("MINT_ENCRYPTION_KEY", testEncryptionKey)
	t.Setenv("MINT_DB_PASSWORD", "")
	t.Setenv("MINT_REDIS_PASSWORD", "")

	return tempDir
}

func TestCredentialsDir(t *testing.T) {
	t.Setenv("MINT_CONFIG_DIR", "")

	dir, err := CredentialsDir()
	if err != nil {
		t.Fatalf("CredentialsDir() error = %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, DefaultCredentialsDir)
	if dir != expected {
		t.Errorf("CredentialsDir() = %v, want %v", dir, expected)
	}

	customDir := "/tmp/test-mint-creds"
	t.Setenv("MINT_CONFIG_DIR", customDir)

	dir, err = CredentialsDir()
	if err != nil {
		t.Fatalf("CredentialsDir() with env error = %v", err)
	}
	if dir != customDir {
		t.Errorf("CredentialsDir() with env = %v, want %v", dir, customDir)
	}
}

func TestCredentialsPath(t *testing.T) {
	customDir := "/tmp/test-mint-path"
	t.Setenv("MINT_CONFIG_DIR", customDir)

	path, err := CredentialsPath()
	if err != nil {
		t.Fatalf("CredentialsPath() error = %v", err)
	}

	expected := filepath.Join(customDir, DefaultCredentialsFile)
	if path != expected {
		t.Errorf("CredentialsPath() = %v, want %v", path, expected)
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	tempDir := setupTestEnv(t)

	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	creds := &Credentials{
		DatabaseUser:     "mint",
		DatabasePassword: "super-secret-db-pass",
		RedisPassword:    "redis-pass",
	}

	if err := store.Save(creds); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// The file on disk must not contain the plaintext secrets.
	data, err := os.ReadFile(filepath.Join(tempDir, DefaultCredentialsFile))
	if err != nil {
		t.Fatalf("reading credentials file: %v", err)
	}
	if strings.Contains(string(data), "super-secret-db-pass") {
		t.Error("database password stored in plaintext")
	}
	if strings.Contains(string(data), "redis-pass") {
		t.Error("redis password stored in plaintext")
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.DatabasePassword != "super-secret-db-pass" {
		t.Errorf("DatabasePassword = %v, want super-secret-db-pass", loaded.DatabasePassword)
	}
	if loaded.RedisPassword != "redis-pass" {
		t.Errorf("RedisPassword = %v, want redis-pass", loaded.RedisPassword)
	}
	if loaded.DatabaseUser != "mint" {
		t.Errorf("DatabaseUser = %v, want mint", loaded.DatabaseUser)
	}
	if loaded.LastUpdated.IsZero() {
		t.Error("LastUpdated not set")
	}
}

func TestStore_LoadMissing(t *testing.T) {
	setupTestEnv(t)

	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	_, err = store.Load()
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("Load() error = %v, want ErrNoCredentials", err)
	}
}

func TestStore_Delete(t *testing.T) {
	setupTestEnv(t)

	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if err := store.Save(&Credentials{DatabasePassword: "x"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !store.Exists() {
		t.Fatal("Exists() = false after Save")
	}

	if err := store.Delete(); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if store.Exists() {
		t.Error("Exists() = true after Delete")
	}

	// Deleting again is not an error.
	if err := store.Delete(); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestStore_WrongKeyFailsDecryption(t *testing.T) {
	setupTestEnv(t)

	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if err := store.Save(&Credentials{DatabasePassword: "secret"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Reopen with a different key.
	t.Setenv("MINT_ENCRYPTION_KEY", "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")

	other, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore() with other key error = %v", err)
	}

	_, err = other.Load()
	if !errors.Is(err, ErrEncryptionFailed) {
		t.Errorf("Load() with wrong key error = %v, want ErrEncryptionFailed", err)
	}
}

func TestStore_DatabasePasswordEnvOverride(t *testing.T) {
	setupTestEnv(t)

	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if err := store.Save(&Credentials{DatabasePassword: "stored-pass"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	pw, err := store.DatabasePassword()
	if err != nil {
		t.Fatalf("DatabasePassword() error = %v", err)
	}
	if pw != "stored-pass" {
		t.Errorf("DatabasePassword() = %v, want stored-pass", pw)
	}

	t.Setenv("MINT_DB_PASSWORD", "env-pass")

	pw, err = store.DatabasePassword()
	if err != nil {
		t.Fatalf("DatabasePassword() with env error = %v", err)
	}
	if pw != "env-pass" {
		t.Errorf("DatabasePassword() with env = %v, want env-pass", pw)
	}
}

func TestStore_RedisPasswordMissingIsEmpty(t *testing.T) {
	setupTestEnv(t)

	store, err := NewStore()
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	pw, err := store.RedisPassword()
	if err != nil {
		t.Fatalf("RedisPassword() error = %v", err)
	}
	if pw != "" {
		t.Errorf("RedisPassword() = %v, want empty", pw)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   string
	}{
		{"empty", "", ""},
		{"short", "abc", "***"},
		{"exactly eight", "12345678", "********"},
		{"long", "abcdefghijkl", "abcd****ijkl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskSecret(tt.secret); got != tt.want {
				t.Errorf("MaskSecret(%q) = %v, want %v", tt.secret, got, tt.want)
			}
		})
	}
}

package security_test

import (
	"strings"
	"testing"

	"github.com/angelmondragon/paintdesk-backend/pkg/config"
	"github.com/angelmondragon/paintdesk-backend/pkg/security"
)

func testHasher() *security.Hasher {
	return security.NewHasher(config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := testHasher().Hash("very-secure-password")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=32768,t=1,p=1$") {
		t.Fatalf("unexpected hash layout %q", hash)
	}

	ok, err := security.Verify("very-secure-password", hash)
	if err != nil {
		t.Fatalf("Verify returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("Verify failed for the correct password")
	}

	ok, err = security.Verify("bogus-password", hash)
	if err != nil {
		t.Fatalf("Verify returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("Verify returned true for incorrect password")
	}
}

func TestHashRejectsEmptyPassword(t *testing.T) {
	if _, err := testHasher().Hash(""); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestVerifyBadHash(t *testing.T) {
	for _, encoded := range []string{
		"not-a-hash",
		"$argon2id$v=18$m=8,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8,t=1,p=1$$a2V5",
	} {
		if _, err := security.Verify("irrelevant", encoded); err == nil {
			t.Fatalf("expected error for malformed hash %q", encoded)
		}
	}
}

func TestNewHasherClampsParams(t *testing.T) {
	params := security.NewHasher(config.PasswordConfig{}).Params()
	if params.Memory != 8 || params.Time != 1 || params.Parallelism != 1 || params.SaltLen != 8 || params.KeyLen != 16 {
		t.Fatalf("unexpected clamped params %+v", params)
	}
}

func TestRandomPassword(t *testing.T) {
	pw, err := security.RandomPassword(20)
	if err != nil {
		t.Fatalf("RandomPassword returned error: %v", err)
	}
	if len(pw) != 20 {
		t.Fatalf("expected 20 chars, got %d", len(pw))
	}
	if _, err := security.RandomPassword(0); err == nil {
		t.Fatal("expected error for zero length")
	}
}

package auth

import (
	"testing"
	"time"

	"github.com/knightquest/kq-api/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:       42,
		Username: "#123456789",
		Role:     models.RoleStudent,
	}
}

func TestSignAndVerify(t *testing.T) {
	token, err := Sign("secret", testUser(), DefaultTokenTTL)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	claims, err := Verify("secret", token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "#123456789" || claims.Role != models.RoleStudent {
		t.Errorf("Unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := Sign("secret", testUser(), DefaultTokenTTL)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if _, err := Verify("other-secret", token); err == nil {
		t.Error("Expected verification to fail with wrong secret")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	token, err := Sign("secret", testUser(), -time.Minute)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if _, err := Verify("secret", token); err == nil {
		t.Error("Expected verification to fail for expired token")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	if _, err := Verify("secret", "not.a.token"); err == nil {
		t.Error("Expected verification to fail for malformed token")
	}
}

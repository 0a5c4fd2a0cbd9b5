package auth

import (
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	token, err := svc.IssueToken("u1", "user")
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	id, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if id.ID != "u1" {
		t.Errorf("Expected identity 'u1', got '%s'", id.ID)
	}
	if id.Role != "user" {
		t.Errorf("Expected role 'user', got '%s'", id.Role)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	if _, err := svc.Verify("not-a-token"); err == nil {
		t.Fatal("Expected an error for malformed token, got nil")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewService("secret-a", time.Hour)
	verifier := NewService("secret-b", time.Hour)

	token, err := issuer.IssueToken("u1", "user")
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if _, err := verifier.Verify(token); err == nil {
		t.Fatal("Expected an error for mismatched secret, got nil")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	svc := NewService("test-secret", -time.Minute)

	token, err := svc.IssueToken("u1", "user")
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if _, err := svc.Verify(token); err == nil {
		t.Fatal("Expected an error for expired token, got nil")
	}
}

package util

import (
	"testing"
	"time"

	"student_engagement_backend/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTRoundTrip(t *testing.T) {
	user := &model.User{
		BaseModel: model.BaseModel{ID: 42},
		Email:     "student@example.com",
		Role:      model.Student,
	}

	token, err := GenerateJWT(user, "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ParseJWT(token, "test-secret")
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != 42 || claims.Role != model.Student || claims.Email != "student@example.com" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestParseJWTWrongSecret(t *testing.T) {
	user := &model.User{BaseModel: model.BaseModel{ID: 1}, Role: model.Teacher}
	token, err := GenerateJWT(user, "secret-a", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if _, err := ParseJWT(token, "secret-b"); err == nil {
		t.Fatal("token signed with another secret must not validate")
	}
}

func TestParseJWTRejectsForeignAlgorithm(t *testing.T) {
	claims := &Claims{UserID: 1, Role: model.Student}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := ParseJWT(unsigned, "secret"); err == nil {
		t.Fatal("token with alg none must not validate")
	}
}

func TestParseJWTExpired(t *testing.T) {
	user := &model.User{BaseModel: model.BaseModel{ID: 1}, Role: model.Student}
	token, err := GenerateJWT(user, "secret", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if _, err := ParseJWT(token, "secret"); err == nil {
		t.Fatal("expired token must not validate")
	}
}

func TestMustParseUint(t *testing.T) {
	tests := []struct {
		in   string
		want uint
	}{
		{"7", 7}, {"0", 0}, {"", 0}, {"abc", 0}, {"-3", 0},
	}
	for _, tt := range tests {
		if got := MustParseUint(tt.in); got != tt.want {
			t.Fatalf("MustParseUint(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

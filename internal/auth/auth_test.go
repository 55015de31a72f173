package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"careersite/internal/database/dbtest"
)

func newTestService(t *testing.T) *AuthService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	svc, err := NewAuthService(privPEM, pubPEM, 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	return svc
}

func TestTokenPairValidates(t *testing.T) {
	svc := newTestService(t)
	pair, err := svc.GenerateTokenPair(42, "hr@acme.test")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.ValidateToken(pair.AccessToken, TokenTypeAccess)
	if err != nil {
		t.Fatalf("validate access: %v", err)
	}
	if claims.RecruiterID != 42 || claims.Email != "hr@acme.test" || claims.Subject != "42" {
		t.Fatalf("claims = %+v", claims)
	}

	refresh, err := svc.ValidateToken(pair.RefreshToken, TokenTypeRefresh)
	if err != nil {
		t.Fatalf("validate refresh: %v", err)
	}
	if refresh.ID != pair.RefreshID || refresh.ID == "" {
		t.Fatalf("refresh jti = %q, want %q", refresh.ID, pair.RefreshID)
	}
}

func TestValidateTokenRejectsWrongType(t *testing.T) {
	svc := newTestService(t)
	pair, _ := svc.GenerateTokenPair(1, "a@b.test")

	if _, err := svc.ValidateToken(pair.RefreshToken, TokenTypeAccess); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("err = %v, want ErrWrongTokenType", err)
	}
}

func TestValidateTokenRejectsExpiredAndForeign(t *testing.T) {
	svc := newTestService(t)
	pair, _ := svc.GenerateTokenPair(1, "a@b.test")

	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	if _, err := svc.ValidateToken(pair.AccessToken, TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired: err = %v, want ErrInvalidToken", err)
	}

	other := newTestService(t)
	foreign, _ := other.GenerateTokenPair(1, "a@b.test")
	if _, err := newTestService(t).ValidateToken(foreign.AccessToken, TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign key: err = %v, want ErrInvalidToken", err)
	}
	if _, err := svc.ValidateToken("", TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("empty: err = %v", err)
	}
}

func TestValidateTokenRejectsForeignAudience(t *testing.T) {
	svc := newTestService(t)
	c := svc.claims(7, "a@b.test", TokenTypeAccess, "", time.Minute)
	c.Audience = jwt.ClaimStrings{"another-product"}
	token, err := svc.signClaims(c)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.ValidateToken(token, TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}

	hs := jwt.NewWithClaims(jwt.SigningMethodHS256, svc.claims(7, "", TokenTypeAccess, "", time.Minute))
	signed, err := hs.SignedString([]byte("shared-secret"))
	if err != nil {
		t.Fatalf("sign hs256: %v", err)
	}
	if _, err := svc.ValidateToken(signed, TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("hs256: err = %v, want ErrInvalidToken", err)
	}
}

func TestNormalizeEmail(t *testing.T) {
	got, err := NormalizeEmail("  HR@Acme.Test ")
	if err != nil || got != "hr@acme.test" {
		t.Fatalf("NormalizeEmail = %q, %v", got, err)
	}
	for _, bad := range []string{"", "nope", "Name <a@b.test>"} {
		if _, err := NormalizeEmail(bad); !errors.Is(err, ErrInvalidEmail) {
			t.Errorf("NormalizeEmail(%q) err = %v", bad, err)
		}
	}
}

func TestAccountsRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	accounts := NewAccounts(dbtest.Open(t))

	rec, err := accounts.Register(ctx, "HR@acme.test", "s3cret-pass")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if rec.ID == 0 || rec.Email != "hr@acme.test" || strings.Contains(rec.PasswordHash, "s3cret") {
		t.Fatalf("recruiter = %+v", rec)
	}

	if _, err := accounts.Register(ctx, "hr@acme.test", "another-pass"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate: err = %v, want ErrEmailTaken", err)
	}
	if _, err := accounts.Register(ctx, "new@acme.test", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("weak: err = %v, want ErrWeakPassword", err)
	}

	got, err := accounts.Authenticate(ctx, "hr@ACME.test", "s3cret-pass")
	if err != nil || got.ID != rec.ID {
		t.Fatalf("authenticate = %+v, %v", got, err)
	}
	if _, err := accounts.Authenticate(ctx, "hr@acme.test", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: err = %v", err)
	}
	if _, err := accounts.Authenticate(ctx, "ghost@acme.test", "s3cret-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: err = %v", err)
	}
}

func TestAccountsChangePassword(t *testing.T) {
	ctx := context.Background()
	accounts := NewAccounts(dbtest.Open(t))
	rec, err := accounts.Register(ctx, "hr@acme.test", "first-pass")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := accounts.ChangePassword(ctx, rec.ID, "bad-guess", "second-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if err := accounts.ChangePassword(ctx, rec.ID, "first-pass", "second-pass"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if _, err := accounts.Authenticate(ctx, "hr@acme.test", "second-pass"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := accounts.Get(ctx, 999); !errors.Is(err, ErrRecruiterNotFound) {
		t.Fatalf("get missing: err = %v", err)
	}
}

package auth

import (
	"testing"
	"time"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := NewSessionToken("secret", "issuer", time.Now().Add(time.Minute), Claims{
		SessionID: "sess-1",
		UserID:    "user-1",
		Role:      "admin",
	})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	claims, err := ParseToken("secret", "issuer", token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if claims.SessionID != "sess-1" || claims.UserID != "user-1" || claims.Role != "admin" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestParseTokenRejects(t *testing.T) {
	expired, err := NewSessionToken("secret", "issuer", time.Now().Add(-time.Minute), Claims{SessionID: "s", UserID: "u"})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("secret", "issuer", expired); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}

	valid, err := NewSessionToken("secret", "issuer", time.Now().Add(time.Minute), Claims{SessionID: "s", UserID: "u"})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("other", "issuer", valid); err == nil {
		t.Fatalf("expected wrong secret to be rejected")
	}
	if _, err := ParseToken("secret", "someone-else", valid); err == nil {
		t.Fatalf("expected wrong issuer to be rejected")
	}

	noSession, err := NewSessionToken("secret", "issuer", time.Now().Add(time.Minute), Claims{UserID: "u"})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("secret", "issuer", noSession); err == nil {
		t.Fatalf("expected token without session id to be rejected")
	}
}

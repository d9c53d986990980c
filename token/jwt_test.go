package token

import "testing"

func TestJWTGeneratorRoundTrip(t *testing.T) {
	g, err := NewJWTGenerator([]byte("test-secret"), "venauth-test")
	if err != nil {
		t.Fatalf("NewJWTGenerator failed: %v", err)
	}

	tok, err := g.CreateToken()
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}

	jti, err := g.Verify(tok)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if jti == "" {
		t.Fatal("verified token has empty jti")
	}

	other, err := g.CreateToken()
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}
	if other == tok {
		t.Fatal("two tokens from the same generator are identical")
	}
}

func TestJWTGeneratorWrongSecret(t *testing.T) {
	g, err := NewJWTGenerator([]byte("secret-a"), "")
	if err != nil {
		t.Fatalf("NewJWTGenerator failed: %v", err)
	}
	tok, err := g.CreateToken()
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}

	other, err := NewJWTGenerator([]byte("secret-b"), "")
	if err != nil {
		t.Fatalf("NewJWTGenerator failed: %v", err)
	}
	if _, err := other.Verify(tok); err == nil {
		t.Fatal("Verify accepted a token signed with a different secret")
	}
}

func TestJWTGeneratorRequiresSecret(t *testing.T) {
	if _, err := NewJWTGenerator(nil, ""); err == nil {
		t.Fatal("NewJWTGenerator accepted an empty secret")
	}
}

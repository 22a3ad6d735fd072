package tokens

import (
	"strings"
	"testing"
)

func TestGenerateToken_Format(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken err: %v", err)
	}
	if len(tok) != 64 {
		t.Fatalf("len = %d, want 64", len(tok))
	}
	if !IsToken(tok) {
		t.Fatalf("IsToken(%q) = false", tok)
	}
	if tok != strings.ToLower(tok) {
		t.Fatalf("token no es lowercase: %q", tok)
	}
}

func TestGenerateToken_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		tok, err := GenerateToken()
		if err != nil {
			t.Fatalf("GenerateToken err: %v", err)
		}
		if seen[tok] {
			t.Fatalf("token repetido en iteración %d", i)
		}
		seen[tok] = true
	}
}

func TestIsToken_Rejects(t *testing.T) {
	t.Parallel()

	bad := []string{
		"",
		"abc",
		strings.Repeat("g", 64),            // no-hex
		strings.Repeat("a", 63),            // corto
		strings.Repeat("a", 65),            // largo
		strings.Repeat("a", 32) + "_pollid", // separador adentro
	}
	for _, s := range bad {
		if IsToken(s) {
			t.Errorf("IsToken(%q) = true, want false", s)
		}
	}
}

func TestSHA256Hex_Stable(t *testing.T) {
	t.Parallel()

	a := SHA256Hex("hola")
	b := SHA256Hex("hola")
	if a != b {
		t.Fatalf("hash no determinístico: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("len = %d, want 64", len(a))
	}
	if a == SHA256Hex("chau") {
		t.Fatal("inputs distintos con el mismo hash")
	}
}

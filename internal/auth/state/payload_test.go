package state

import (
	"strings"
	"testing"

	tokens "github.com/dropDatabas3/plazita/internal/security/token"
)

func mustToken(t *testing.T) string {
	t.Helper()
	tok, err := tokens.GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken err: %v", err)
	}
	return tok
}

func TestPayload_RoundTripSinPollID(t *testing.T) {
	t.Parallel()

	nonce := mustToken(t)
	wire := Payload{Nonce: nonce}.Encode()
	if wire != nonce {
		t.Fatalf("wire = %q, want nonce solo", wire)
	}

	got, err := Decode(wire)
	if err != nil {
		t.Fatalf("Decode err: %v", err)
	}
	if got.Nonce != nonce || got.PollID != "" {
		t.Fatalf("got %+v", got)
	}
}

func TestPayload_RoundTripConPollID(t *testing.T) {
	t.Parallel()

	nonce, pollID := mustToken(t), mustToken(t)
	wire := Payload{Nonce: nonce, PollID: pollID}.Encode()
	if !strings.Contains(wire, "_pollid_") {
		t.Fatalf("wire sin separador: %q", wire)
	}

	got, err := Decode(wire)
	if err != nil {
		t.Fatalf("Decode err: %v", err)
	}
	if got.Nonce != nonce || got.PollID != pollID {
		t.Fatalf("got %+v", got)
	}
}

func TestDecode_RechazaMalformados(t *testing.T) {
	t.Parallel()

	nonce := mustToken(t)
	bad := []string{
		"",
		"no-es-hex",
		nonce + "_pollid_",
		nonce + "_pollid_corto",
		"corto_pollid_" + nonce,
		nonce + "_pollid_" + nonce + "_pollid_" + nonce,
	}
	for _, s := range bad {
		if _, err := Decode(s); err == nil {
			t.Errorf("Decode(%q) sin error, want ErrMalformed", s)
		}
	}
}

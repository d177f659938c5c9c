package exchange

import (
	"bytes"
	"strings"
	"testing"
)

// ============ Signer Tests ============

func TestNewSigner(t *testing.T) {
	t.Run("derives address from key", func(t *testing.T) {
		s, err := newSigner(testPrivateKey)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// Known address for the throwaway test key
		if s.address() != "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266" {
			t.Errorf("unexpected address %q", s.address())
		}
	})

	t.Run("accepts 0x prefix", func(t *testing.T) {
		s1, err := newSigner(testPrivateKey)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		s2, err := newSigner("0x" + testPrivateKey)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s1.address() != s2.address() {
			t.Errorf("prefix changed derived address: %q vs %q", s1.address(), s2.address())
		}
	})

	t.Run("rejects garbage key", func(t *testing.T) {
		if _, err := newSigner("not-a-key"); err == nil {
			t.Error("expected error for invalid key")
		}
	})
}

func TestActionHash(t *testing.T) {
	action := leverageAction{Type: "updateLeverage", Asset: 0, IsCross: true, Leverage: 5}

	h1, err := actionHash(action, 1700000000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(h1) != 32 {
		t.Fatalf("expected 32-byte hash, got %d bytes", len(h1))
	}

	t.Run("is deterministic", func(t *testing.T) {
		h2, err := actionHash(action, 1700000000000)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.Equal(h1, h2) {
			t.Error("same action and nonce must hash identically")
		}
	})

	t.Run("nonce changes the hash", func(t *testing.T) {
		h2, err := actionHash(action, 1700000000001)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if bytes.Equal(h1, h2) {
			t.Error("different nonce must change the hash")
		}
	})

	t.Run("action changes the hash", func(t *testing.T) {
		other := leverageAction{Type: "updateLeverage", Asset: 0, IsCross: true, Leverage: 10}
		h2, err := actionHash(other, 1700000000000)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if bytes.Equal(h1, h2) {
			t.Error("different action must change the hash")
		}
	})
}

func TestSignAction(t *testing.T) {
	s, err := newSigner(testPrivateKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	action := leverageAction{Type: "updateLeverage", Asset: 0, IsCross: true, Leverage: 5}

	sig, err := s.signAction(action, 1700000000000, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// r и s - 32 байта в hex с префиксом 0x
	if !strings.HasPrefix(sig.R, "0x") || len(sig.R) != 66 {
		t.Errorf("bad r component: %q", sig.R)
	}
	if !strings.HasPrefix(sig.S, "0x") || len(sig.S) != 66 {
		t.Errorf("bad s component: %q", sig.S)
	}
	if sig.V != 27 && sig.V != 28 {
		t.Errorf("expected recovery id 27 or 28, got %d", sig.V)
	}

	t.Run("network changes the signature", func(t *testing.T) {
		testnetSig, err := s.signAction(action, 1700000000000, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if testnetSig.R == sig.R && testnetSig.S == sig.S {
			t.Error("mainnet and testnet signatures must differ")
		}
	})
}

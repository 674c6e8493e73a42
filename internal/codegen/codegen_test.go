package codegen

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func fixedClock(g *Generator) {
	g.now = func() time.Time {
		return time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
	}
}

func TestTransactionCodeFormat(t *testing.T) {
	g := New(neverExists, neverExists)
	fixedClock(g)

	code, err := g.TransactionCode()
	if err != nil {
		t.Fatalf("TransactionCode: %v", err)
	}
	if !strings.HasPrefix(code, "TRX-20250314150926-") {
		t.Fatalf("unexpected code format: %s", code)
	}
	if len(code) != len("TRX-20250314150926-")+4 {
		t.Fatalf("unexpected code length: %s", code)
	}
}

func TestTransactionCodeRetriesUntilUnique(t *testing.T) {
	calls := 0
	exists := func(code string) (bool, error) {
		calls++
		return calls < 3, nil // first two candidates collide
	}
	g := New(exists, neverExists)
	fixedClock(g)

	code, err := g.TransactionCode()
	if err != nil {
		t.Fatalf("TransactionCode: %v", err)
	}
	if code == "" {
		t.Fatal("expected a code")
	}
	if calls != 3 {
		t.Fatalf("expected 3 probe calls, got %d", calls)
	}
}

func TestTransactionCodeExhaustsAttempts(t *testing.T) {
	calls := 0
	alwaysExists := func(code string) (bool, error) {
		calls++
		return true, nil
	}
	g := New(alwaysExists, neverExists)
	fixedClock(g)

	_, err := g.TransactionCode()
	if !errors.Is(err, ErrCodeGeneration) {
		t.Fatalf("expected ErrCodeGeneration, got %v", err)
	}
	if calls != 5 {
		t.Fatalf("expected the attempt bound of 5, got %d probes", calls)
	}
}

func TestTransactionCodePropagatesProbeError(t *testing.T) {
	probeErr := errors.New("db down")
	g := New(func(string) (bool, error) { return false, probeErr }, neverExists)

	_, err := g.TransactionCode()
	if !errors.Is(err, probeErr) {
		t.Fatalf("expected probe error, got %v", err)
	}
}

func TestBarcodeFormat(t *testing.T) {
	g := New(neverExists, neverExists)

	barcode, err := g.Barcode()
	if err != nil {
		t.Fatalf("Barcode: %v", err)
	}
	if len(barcode) != 13 {
		t.Fatalf("expected 13 digits, got %q", barcode)
	}
	if !strings.HasPrefix(barcode, "899") {
		t.Fatalf("expected 899 prefix, got %q", barcode)
	}
	for _, c := range barcode {
		if c < '0' || c > '9' {
			t.Fatalf("non-digit %q in barcode %q", c, barcode)
		}
	}
}

func TestBarcodeExhaustsAttempts(t *testing.T) {
	g := New(neverExists, func(string) (bool, error) { return true, nil })

	_, err := g.Barcode()
	if !errors.Is(err, ErrCodeGeneration) {
		t.Fatalf("expected ErrCodeGeneration, got %v", err)
	}
}

func neverExists(string) (bool, error) { return false, nil }

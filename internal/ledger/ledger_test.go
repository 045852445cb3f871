package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileLedgerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent_signals.txt")

	first, err := NewFileLedger(path)
	if err != nil {
		t.Fatalf("NewFileLedger: %v", err)
	}
	ids := []string{"BTCUSDT_LONG_68", "ETHUSDT_SHORT_52"}
	for _, id := range ids {
		if first.Contains(id) {
			t.Errorf("fresh ledger contains %s", id)
		}
		if err := first.Append(id); err != nil {
			t.Fatalf("Append(%s): %v", id, err)
		}
	}
	first.Close()

	// Identities survive a restart losslessly.
	second, err := NewFileLedger(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	for _, id := range ids {
		if !second.Contains(id) {
			t.Errorf("identity %s lost across restart", id)
		}
	}
	if second.Len() != 2 {
		t.Errorf("expected 2 identities after reload, got %d", second.Len())
	}
}

func TestFileLedgerDuplicateAppendIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent_signals.txt")
	l, err := NewFileLedger(path)
	if err != nil {
		t.Fatalf("NewFileLedger: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := l.Append("BTCUSDT_LONG_68"); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Fields(string(data))
	if len(lines) != 1 {
		t.Errorf("expected a single line after duplicate appends, got %d", len(lines))
	}
}

func TestFileLedgerIgnoresBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent_signals.txt")
	if err := os.WriteFile(path, []byte("BTCUSDT_LONG_68\n\n  \nETHUSDT_SHORT_52\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	l, err := NewFileLedger(path)
	if err != nil {
		t.Fatalf("NewFileLedger: %v", err)
	}
	defer l.Close()
	if l.Len() != 2 {
		t.Errorf("expected 2 identities, got %d", l.Len())
	}
	if !l.Contains("ETHUSDT_SHORT_52") {
		t.Error("identity from pre-existing file missing")
	}
}

func TestMemoryLedger(t *testing.T) {
	m := NewMemory()
	if m.Contains("X_LONG_50") {
		t.Error("empty ledger reports membership")
	}
	if err := m.Append("X_LONG_50"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !m.Contains("X_LONG_50") {
		t.Error("appended identity missing")
	}
}

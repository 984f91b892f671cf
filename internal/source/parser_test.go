package source

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cbudget/internal/model"
)

// writeLedger creates a temp snapshot file and returns a DiscoveredFile for it.
func writeLedger(t *testing.T, name, content string) DiscoveredFile {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return discovered(path)
}

func TestParseFile_StoreExport(t *testing.T) {
	df := writeLedger(t, "export.json", `{
		"budget-transactions": [
			{"id": 1, "date": "2025-03-01", "type": "Revenus", "categorie": "Salaire", "montant": 2000},
			{"id": "2", "date": "2025-03-05", "type": "Factures", "categorie": "Loyer", "montant": "600"},
			{"id": 3, "date": "2025-03-10", "type": "Dépenses", "categorie": "", "montant": "12,50"}
		],
		"budget-objectifs-limites": [
			{"id": 9, "categorie": "Courses", "type": "Dépenses", "limite": "250"}
		]
	}`)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.ParseErrors != 0 {
		t.Errorf("ParseErrors = %d, want 0", result.ParseErrors)
	}

	txs := result.Ledger.Transactions
	if len(txs) != 3 {
		t.Fatalf("got %d transactions, want 3", len(txs))
	}
	if txs[0].ID != "1" {
		t.Errorf("ID = %q, want 1", txs[0].ID)
	}
	if txs[0].Type != model.Income {
		t.Errorf("Type = %s, want Income", txs[0].Type)
	}
	if txs[1].Type != model.FixedExpense {
		t.Errorf("Type = %s, want FixedExpense", txs[1].Type)
	}
	if txs[2].Category != model.DefaultCategory {
		t.Errorf("Category = %q, want %q", txs[2].Category, model.DefaultCategory)
	}
	if !txs[2].Amount.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("Amount = %s, want 12.5", txs[2].Amount)
	}
	if got := txs[1].Date.String(); got != "2025-03-05" {
		t.Errorf("Date = %q, want 2025-03-05", got)
	}

	objs := result.Ledger.Objectives
	if len(objs) != 1 {
		t.Fatalf("got %d objectives, want 1", len(objs))
	}
	if objs[0].Category != "Courses" || objs[0].Type != model.VariableExpense {
		t.Errorf("objective = %+v", objs[0])
	}
	if !objs[0].Limit.Equal(decimal.NewFromInt(250)) {
		t.Errorf("Limit = %s, want 250", objs[0].Limit)
	}
}

func TestParseFile_StringifiedValues(t *testing.T) {
	df := writeLedger(t, "local-storage.json", `{
		"budget-transactions": "[{\"id\":1,\"date\":\"2025-01-02\",\"type\":\"Épargnes\",\"categorie\":\"Livret\",\"montant\":\"150\"}]",
		"budget-objectifs-limites": "[]",
		"unrelated-key": "x"
	}`)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Ledger.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(result.Ledger.Transactions))
	}
	if result.Ledger.Transactions[0].Type != model.Savings {
		t.Errorf("Type = %s, want Savings", result.Ledger.Transactions[0].Type)
	}
}

func TestParseFile_BareArray(t *testing.T) {
	df := writeLedger(t, "txs.json", `[
		{"id": "a", "date": "2025-02-01", "type": "Remboursement", "categorie": "Santé", "montant": 30},
		{"id": "b", "date": "2025-02-02", "type": "Transfert de fond", "categorie": "Compte", "montant": 80}
	]`)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	txs := result.Ledger.Transactions
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txs))
	}
	if txs[0].Type != model.Reimbursement || txs[1].Type != model.Transfer {
		t.Errorf("types = %s, %s", txs[0].Type, txs[1].Type)
	}
}

func TestParseFile_Normalization(t *testing.T) {
	df := writeLedger(t, "dirty.json", `[
		{"id": 1, "date": "2025-03-01", "type": "Dépenses", "categorie": "Courses", "montant": -42},
		{"id": 2, "date": "not-a-date", "type": "Dépenses", "categorie": "Courses", "montant": "abc"},
		{"id": 3, "date": "2025-03-01", "type": "Cadeaux", "categorie": "X", "montant": 1},
		{"id": 4, "type": "Revenus", "montant": null}
	]`)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.ParseErrors != 1 {
		t.Errorf("ParseErrors = %d, want 1 (unknown type)", result.ParseErrors)
	}
	txs := result.Ledger.Transactions
	if len(txs) != 3 {
		t.Fatalf("got %d transactions, want 3", len(txs))
	}
	if !txs[0].Amount.Equal(decimal.NewFromInt(42)) {
		t.Errorf("negative amount = %s, want 42", txs[0].Amount)
	}
	if !txs[1].Amount.IsZero() {
		t.Errorf("unparsable amount = %s, want 0", txs[1].Amount)
	}
	if txs[1].Date.Valid() {
		t.Error("invalid date should not be valid")
	}
	if txs[2].Date.Valid() {
		t.Error("missing date should not be valid")
	}
	if txs[2].Category != model.DefaultCategory {
		t.Errorf("Category = %q, want %q", txs[2].Category, model.DefaultCategory)
	}
}

func TestParseFile_Dedup(t *testing.T) {
	df := writeLedger(t, "dup.json", `[
		{"id": 7, "date": "2025-03-01", "type": "Dépenses", "categorie": "Courses", "montant": 10},
		{"id": "7", "date": "2025-03-01", "type": "Dépenses", "categorie": "Courses", "montant": 25}
	]`)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	txs := result.Ledger.Transactions
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want 1 (dedup)", len(txs))
	}
	if !txs[0].Amount.Equal(decimal.NewFromInt(25)) {
		t.Errorf("Amount = %s, want 25 (last wins)", txs[0].Amount)
	}
}

func TestParseFile_InvalidObjectives(t *testing.T) {
	df := writeLedger(t, "objs.json", `{
		"budget-objectifs-limites": [
			{"id": 1, "categorie": "Salaire", "type": "Revenus", "limite": 100},
			{"id": 2, "categorie": "Courses", "type": "Dépenses", "limite": 0},
			{"id": 3, "categorie": "Livret", "type": "Épargnes", "limite": "200,5"}
		]
	}`)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.ParseErrors != 2 {
		t.Errorf("ParseErrors = %d, want 2", result.ParseErrors)
	}
	if len(result.Ledger.Objectives) != 1 {
		t.Fatalf("got %d objectives, want 1", len(result.Ledger.Objectives))
	}
	if !result.Ledger.Objectives[0].IsFloor() {
		t.Error("savings objective should be a floor")
	}
}

func TestParseFile_Malformed(t *testing.T) {
	df := writeLedger(t, "broken.json", `{"budget-transactions": [`)
	result := ParseFile(df)
	if result.Err == nil {
		t.Fatal("expected error for truncated JSON")
	}

	result = ParseFile(DiscoveredFile{Path: filepath.Join(t.TempDir(), "missing.json")})
	if !errors.Is(result.Err, os.ErrNotExist) {
		t.Errorf("Err = %v, want ErrNotExist", result.Err)
	}
}

func TestDecode_Empty(t *testing.T) {
	result := Decode([]byte("  \n"))
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Ledger.Transactions) != 0 || len(result.Ledger.Objectives) != 0 {
		t.Error("expected an empty ledger")
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"12", "12", true},
		{"12.34", "12.34", true},
		{"12,34", "12.34", true},
		{"-5", "5", true},
		{" 1 200,50 € ", "1200.5", true},
		{"", "0", false},
		{"abc", "0", false},
		{"1.2.3", "0", false},
		{",5", "0.5", true},
		{"1e3", "0", false},
		{"1E3", "0", false},
		{"1e400", "0", false},
		{"1e-300000000", "0", false},
		{"Inf", "0", false},
		{"NaN", "0", false},
		{"0x10", "0", false},
		{"1234567890123456789", "0", false},
		{"0.0000000000001", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAmount(tt.in)
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func FuzzParseAmount(f *testing.F) {
	for _, seed := range []string{"0", "12,5", "-3.75", "1e3", "1e400", "1e-300000000", "€", " ", "9999999999999999999"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, s string) {
		d, ok := ParseAmount(s)
		if d.IsNegative() {
			t.Errorf("ParseAmount(%q) = %s, want non-negative", s, d)
		}
		if !ok && !d.IsZero() {
			t.Errorf("ParseAmount(%q) failed but returned %s", s, d)
		}
		if f := d.InexactFloat64(); math.IsInf(f, 0) || math.IsNaN(f) {
			t.Errorf("ParseAmount(%q) = %v, want a finite amount", s, f)
		}
		if d.Exponent() < -12 {
			t.Errorf("ParseAmount(%q) has exponent %d, want at most 12 decimals", s, d.Exponent())
		}
	})
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.json", "a.JSON", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("[]"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	hidden := filepath.Join(dir, ".trash")
	if err := os.MkdirAll(hidden, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(hidden, "old.json"), []byte("[]"), 0o600); err != nil {
		t.Fatal(err)
	}

	files, err := ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	if files[0].Name != "a" || files[1].Name != "b" {
		t.Errorf("names = %q, %q; want a, b", files[0].Name, files[1].Name)
	}

	files, err = ScanDir(filepath.Join(dir, "nope"))
	if err != nil || files != nil {
		t.Errorf("missing dir: files=%v err=%v", files, err)
	}
}

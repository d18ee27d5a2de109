package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/use-agent/pricepivot/models"
)

func newLog(t *testing.T) *JSONLLog {
	t.Helper()
	l, err := NewJSONLLog(filepath.Join(t.TempDir(), "run.jsonl"))
	if err != nil {
		t.Fatalf("NewJSONLLog: %v", err)
	}
	return l
}

func rec(name string, price int) *models.ProductRecord {
	return &models.ProductRecord{
		Name:        name,
		Price:       price,
		Source:      models.SourceWildberries,
		Category:    "Сухой корм для такс",
		CollectedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestJSONLLog_AppendAndReadAll(t *testing.T) {
	l := newLog(t)

	if err := l.Append([]*models.ProductRecord{rec("Корм А", 450)}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := l.Append([]*models.ProductRecord{rec("Корм Б", 500), rec("Корм В", 700)}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := l.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Name != "Корм А" || got[2].Price != 700 {
		t.Errorf("append order not preserved: %q, %d", got[0].Name, got[2].Price)
	}
	if got[0].Source != models.SourceWildberries {
		t.Errorf("Source = %q", got[0].Source)
	}
}

func TestJSONLLog_ReadAll_MissingFile(t *testing.T) {
	l := newLog(t)

	got, err := l.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll on absent file: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("len = %d, want 0", len(got))
	}
}

func TestJSONLLog_ReadAll_SkipsTornLine(t *testing.T) {
	l := newLog(t)
	if err := l.Append([]*models.ProductRecord{rec("Корм А", 450)}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// Simulate a crash mid-write: a truncated JSON line at the tail.
	f, err := os.OpenFile(l.Path(), os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(`{"name":"Корм Б","pri`); err != nil {
		t.Fatal(err)
	}
	f.Close()

	got, err := l.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Корм А" {
		t.Fatalf("got %d records, want the 1 intact record", len(got))
	}
}

func TestJSONLLog_AppendEmptyIsNoop(t *testing.T) {
	l := newLog(t)

	if err := l.Append(nil); err != nil {
		t.Fatalf("Append(nil): %v", err)
	}
	if _, err := os.Stat(l.Path()); !os.IsNotExist(err) {
		t.Error("empty append must not create the file")
	}
}

func TestJSONLLog_Clear(t *testing.T) {
	l := newLog(t)
	if err := l.Append([]*models.ProductRecord{rec("Корм А", 450)}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := l.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, err := l.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("len = %d after Clear, want 0", len(got))
	}

	// Clearing an already-absent file is fine.
	if err := l.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}

func TestFilename_Sanitizes(t *testing.T) {
	got := Filename("Сухой корм для такс", models.SourceYandexMarket)
	want := "сухой_корм_для_такс_yandex_market.jsonl"
	if got != want {
		t.Errorf("Filename = %q, want %q", got, want)
	}
}

package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Simplici0/tplt/internal/master"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "master.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write master file: %v", err)
	}
	return path
}

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "品名,材料費,外注費用,売上単価\nWidget,300,200,1000\nGadget,10,0,50\n")
	m := master.New()

	for i := 0; i < 5; i++ {
		stats, err := Run(m, path)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != 2 {
				t.Fatalf("expected 2 inserts in first run, got %d", stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 || stats.Updates != 0 {
			t.Fatalf("expected no changes in iteration %d, got %+v", i, stats)
		}
	}

	if m.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", m.Len())
	}
}

func TestRunCountsChangedEntries(t *testing.T) {
	t.Parallel()

	m := master.New()
	if err := m.Register("Widget", 900, 300, 200); err != nil {
		t.Fatalf("register: %v", err)
	}

	stats, err := Run(m, writeFile(t, "productName,materialCost,outsourcingCost,unitPrice\nWidget,300,200,1000\n"))
	if err != nil {
		t.Fatalf("run seed: %v", err)
	}
	if stats.Inserts != 0 || stats.Updates != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRunMissingFileIsNoop(t *testing.T) {
	t.Parallel()

	m := master.New()
	for _, path := range []string{"", filepath.Join(t.TempDir(), "absent.csv")} {
		stats, err := Run(m, path)
		if err != nil {
			t.Fatalf("run seed with %q: %v", path, err)
		}
		if stats != (Stats{}) {
			t.Fatalf("expected zero stats, got %+v", stats)
		}
	}
}

func TestRunSchemaErrorLeavesMasterUnchanged(t *testing.T) {
	t.Parallel()

	m := master.New()
	_, err := Run(m, writeFile(t, "productName,unitPrice\nWidget,1000\n"))
	if err == nil {
		t.Fatalf("expected schema error")
	}
	if m.Len() != 0 {
		t.Fatalf("master changed: %v", m.Names())
	}
}

func TestLoaderReportsErrors(t *testing.T) {
	t.Parallel()

	var got error
	load := Loader(writeFile(t, "productName\nWidget\n"), func(err error) { got = err })
	load(master.New())
	if got == nil {
		t.Fatalf("expected error to be reported")
	}
}

package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestFS_ParesUpDown(t *testing.T) {
	t.Parallel()

	entries, err := fs.ReadDir(FS, ".")
	if err != nil {
		t.Fatalf("ReadDir err: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("el FS embebido está vacío")
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, "_up.sql"):
			ups[strings.TrimSuffix(name, "_up.sql")] = true
		case strings.HasSuffix(name, "_down.sql"):
			downs[strings.TrimSuffix(name, "_down.sql")] = true
		default:
			t.Errorf("archivo embebido inesperado: %q", name)
		}
	}
	// Cada up tiene su down, y viceversa.
	for base := range ups {
		if !downs[base] {
			t.Errorf("migración %q sin _down.sql", base)
		}
	}
	for base := range downs {
		if !ups[base] {
			t.Errorf("migración %q sin _up.sql", base)
		}
	}

	// El contenido tiene que venir embebido de verdad, no vacío.
	b, err := fs.ReadFile(FS, "0001_init_up.sql")
	if err != nil {
		t.Fatalf("ReadFile err: %v", err)
	}
	if !strings.Contains(string(b), "CREATE TABLE") {
		t.Fatal("0001_init_up.sql no contiene el schema")
	}
}

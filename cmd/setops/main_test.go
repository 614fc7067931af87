package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const scheduleCSV = `Title,Start Date,Location,Employee Names
JCCA - A1-A4 / B2,2025-10-01,Crux Design District,Alex / Sam
Main Boulder,10/2/2025,GVN - Grapevine,Jo & Kim
Zorp Flange,2025-10-03,Crux Design District,Alex
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

// TestImportPrintsSummaryAndRenders verifies the import command reports
// schedules and unknown labels and writes one PNG per page.
func TestImportPrintsSummaryAndRenders(t *testing.T) {
	dir := t.TempDir()
	csv := writeFile(t, dir, "schedule.csv", scheduleCSV)
	out := filepath.Join(dir, "maps")

	stdout, err := run(t, "import", csv, "--out", out)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	for _, want := range []string{
		"schedule DSN",
		"schedule GVN",
		"unrecognized DSN: zorp flange",
		"wrote 3 map(s)",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}

	pngs, _ := filepath.Glob(filepath.Join(out, "*_map_*.png"))
	if len(pngs) != 3 {
		t.Errorf("rendered %d files, want 3 (DSN separate + GVN merged)", len(pngs))
	}
}

// TestImportSave verifies --save persists to the configured SQLite store.
func TestImportSave(t *testing.T) {
	dir := t.TempDir()
	csv := writeFile(t, dir, "schedule.csv", scheduleCSV)
	db := filepath.Join(dir, "state.db")
	cfg := writeFile(t, dir, "config.yaml", "auth:\n  api_key: k\ndatabase:\n  driver: sqlite\n  path: "+db+"\n")

	stdout, err := run(t, "--config", cfg, "import", csv, "--save")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(stdout, "state saved (sqlite)") {
		t.Errorf("output = %s", stdout)
	}
	if _, err := os.Stat(db); err != nil {
		t.Errorf("database not created: %v", err)
	}
}

// TestImportDirectory verifies directories are expanded to their
// supported files.
func TestImportDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "schedule.csv", scheduleCSV)
	writeFile(t, dir, "notes.txt", "ignore me")

	stdout, err := run(t, "import", dir)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(stdout, "1 file(s), 0 failed") {
		t.Errorf("output = %s", stdout)
	}
}

// TestImportFailedFileExitsNonZero verifies a broken file still prints a
// summary but fails the command.
func TestImportFailedFileExitsNonZero(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "schedule.csv", scheduleCSV)
	bad := writeFile(t, dir, "broken.xlsx", "not a workbook")

	stdout, err := run(t, "import", good, bad)
	if err == nil {
		t.Fatal("expected error for failed file")
	}
	if !strings.Contains(stdout, "schedule DSN") {
		t.Errorf("good file not summarized:\n%s", stdout)
	}
}

// TestInvalidLogLevel verifies flag validation happens before any work.
func TestInvalidLogLevel(t *testing.T) {
	dir := t.TempDir()
	csv := writeFile(t, dir, "schedule.csv", scheduleCSV)
	if _, err := run(t, "--log-level", "loud", "import", csv); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

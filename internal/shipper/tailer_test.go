package shipper

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestTailFileReadsCompleteLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	writeFile(t, path, "{\"a\":1}\n{\"a\":2}\n{\"a\":3}\n")

	res, err := TailFile(path, 0, 0, 0)
	if err != nil {
		t.Fatalf("TailFile: %v", err)
	}
	if len(res.Entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(res.Entries))
	}
	if string(res.Entries[0].Line) != `{"a":1}` {
		t.Errorf("first line = %q", res.Entries[0].Line)
	}
	if res.NextOffset != 24 {
		t.Errorf("NextOffset = %d, want 24", res.NextOffset)
	}
	if res.NextLine != 3 {
		t.Errorf("NextLine = %d, want 3", res.NextLine)
	}
	if res.Entries[2].EndOffset != 24 {
		t.Errorf("last EndOffset = %d, want 24", res.Entries[2].EndOffset)
	}
}

func TestTailFileResumesFromOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	writeFile(t, path, "{\"a\":1}\n{\"a\":2}\n")

	first, err := TailFile(path, 0, 0, 0)
	if err != nil {
		t.Fatalf("TailFile: %v", err)
	}

	// Append and resume from the previous offset.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.WriteString("{\"a\":3}\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Close()

	second, err := TailFile(path, first.NextOffset, first.NextLine, 0)
	if err != nil {
		t.Fatalf("TailFile resume: %v", err)
	}
	if len(second.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(second.Entries))
	}
	if string(second.Entries[0].Line) != `{"a":3}` {
		t.Errorf("resumed line = %q", second.Entries[0].Line)
	}
	if second.Entries[0].LineNo != 3 {
		t.Errorf("LineNo = %d, want 3", second.Entries[0].LineNo)
	}
}

func TestTailFileLeavesPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	writeFile(t, path, "{\"a\":1}\n{\"a\":2")

	res, err := TailFile(path, 0, 0, 0)
	if err != nil {
		t.Fatalf("TailFile: %v", err)
	}
	if len(res.Entries) != 1 {
		t.Fatalf("got %d entries, want 1 (partial line excluded)", len(res.Entries))
	}
	if res.NextOffset != 8 {
		t.Errorf("NextOffset = %d, want 8 (partial line unconsumed)", res.NextOffset)
	}

	// Complete the line and tail again from the checkpoint.
	f, _ := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	f.WriteString("}\n")
	f.Close()

	res2, err := TailFile(path, res.NextOffset, res.NextLine, 0)
	if err != nil {
		t.Fatalf("TailFile: %v", err)
	}
	if len(res2.Entries) != 1 || string(res2.Entries[0].Line) != `{"a":2}` {
		t.Errorf("completed line not read: %v", res2.Entries)
	}
}

func TestTailFileDetectsTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	writeFile(t, path, "{\"a\":1}\n{\"a\":2}\n{\"a\":3}\n")

	res, err := TailFile(path, 1000, 42, 0)
	if err != nil {
		t.Fatalf("TailFile: %v", err)
	}
	if !res.Truncated {
		t.Fatal("expected Truncated")
	}
	if len(res.Entries) != 3 {
		t.Errorf("got %d entries after reset, want 3", len(res.Entries))
	}
	if res.Entries[0].LineNo != 1 {
		t.Errorf("LineNo after reset = %d, want 1", res.Entries[0].LineNo)
	}
}

func TestTailFileMissingFile(t *testing.T) {
	res, err := TailFile(filepath.Join(t.TempDir(), "ghost.jsonl"), 0, 0, 0)
	if err != nil {
		t.Fatalf("TailFile on missing file: %v", err)
	}
	if len(res.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(res.Entries))
	}
}

func TestTailFileMaxLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	writeFile(t, path, "{\"a\":1}\n{\"a\":2}\n{\"a\":3}\n")

	res, err := TailFile(path, 0, 0, 2)
	if err != nil {
		t.Fatalf("TailFile: %v", err)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(res.Entries))
	}
	if res.NextOffset != 16 {
		t.Errorf("NextOffset = %d, want 16", res.NextOffset)
	}
}

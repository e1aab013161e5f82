package dedup

import (
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestIsDuplicateSameNameSameContent(t *testing.T) {
	inbox, dest := t.TempDir(), t.TempDir()
	source := write(t, inbox, "invoice.pdf", "identical bytes")
	write(t, dest, "invoice.pdf", "identical bytes")

	dup, err := IsDuplicate(source, dest)
	if err != nil {
		t.Fatalf("IsDuplicate: %v", err)
	}
	if !dup {
		t.Error("identical name and content should be a duplicate")
	}
}

func TestIsDuplicateSameNameDifferentContent(t *testing.T) {
	inbox, dest := t.TempDir(), t.TempDir()
	source := write(t, inbox, "invoice.pdf", "new version")
	write(t, dest, "invoice.pdf", "old version!")

	dup, err := IsDuplicate(source, dest)
	if err != nil {
		t.Fatalf("IsDuplicate: %v", err)
	}
	if dup {
		t.Error("different content is a collision, not a duplicate")
	}
}

func TestIsDuplicateNoExistingFile(t *testing.T) {
	inbox, dest := t.TempDir(), t.TempDir()
	source := write(t, inbox, "fresh.txt", "x")

	dup, err := IsDuplicate(source, dest)
	if err != nil {
		t.Fatalf("IsDuplicate: %v", err)
	}
	if dup {
		t.Error("nothing at the destination, cannot be a duplicate")
	}
}

func TestIsDuplicateDirectoryAtDestination(t *testing.T) {
	inbox, dest := t.TempDir(), t.TempDir()
	source := write(t, inbox, "reports", "actually a file")
	if err := os.Mkdir(filepath.Join(dest, "reports"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	dup, err := IsDuplicate(source, dest)
	if err != nil {
		t.Fatalf("IsDuplicate: %v", err)
	}
	if dup {
		t.Error("a directory is never a duplicate of a file")
	}
}

package fsx_test

import (
	"io"
	"strings"
	"testing"

	"github.com/feedkeeper/feedkeeper/src/fsx"
)

func TestCreateAtomicAndOpen(t *testing.T) {
	f := fsx.NewMem("/repo")
	err := f.CreateAtomic("a/b/file.txt", func(w io.Writer) error {
		_, err := w.Write([]byte("hello"))
		return err
	})
	if err != nil {
		t.Fatalf("CreateAtomic: %v", err)
	}

	rc, err := f.Open("a/b/file.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q, want %q", data, "hello")
	}
}

func TestExistsAndRemove(t *testing.T) {
	f := fsx.NewMem("/repo")
	if exists, _ := f.Exists("missing.txt"); exists {
		t.Errorf("expected missing.txt to not exist")
	}
	f.CreateAtomic("present.txt", func(w io.Writer) error {
		_, err := w.Write([]byte("x"))
		return err
	})
	if exists, err := f.Exists("present.txt"); err != nil || !exists {
		t.Errorf("expected present.txt to exist, got exists=%v err=%v", exists, err)
	}
	if err := f.Remove("present.txt"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if exists, _ := f.Exists("present.txt"); exists {
		t.Errorf("expected present.txt to be removed")
	}
	// Removing a missing file is not an error.
	if err := f.Remove("present.txt"); err != nil {
		t.Errorf("Remove of missing file returned error: %v", err)
	}
}

func TestHiddenMarker(t *testing.T) {
	f := fsx.NewMem("/repo")
	f.CreateAtomic("pkg/1.0.0/pkg.1.0.0.nupkg", func(w io.Writer) error {
		_, err := w.Write([]byte("zip"))
		return err
	})

	if hidden, _ := f.IsHidden("pkg/1.0.0/pkg.1.0.0.nupkg"); hidden {
		t.Errorf("expected not hidden initially")
	}
	if err := f.SetHidden("pkg/1.0.0/pkg.1.0.0.nupkg", true); err != nil {
		t.Fatalf("SetHidden(true): %v", err)
	}
	if hidden, _ := f.IsHidden("pkg/1.0.0/pkg.1.0.0.nupkg"); !hidden {
		t.Errorf("expected hidden after SetHidden(true)")
	}
	// The archive itself is untouched.
	rc, err := f.Open("pkg/1.0.0/pkg.1.0.0.nupkg")
	if err != nil {
		t.Fatalf("Open after hide: %v", err)
	}
	rc.Close()

	if err := f.SetHidden("pkg/1.0.0/pkg.1.0.0.nupkg", false); err != nil {
		t.Fatalf("SetHidden(false): %v", err)
	}
	if hidden, _ := f.IsHidden("pkg/1.0.0/pkg.1.0.0.nupkg"); hidden {
		t.Errorf("expected not hidden after SetHidden(false)")
	}
}

func TestGlobNonRecursive(t *testing.T) {
	f := fsx.NewMem("/repo")
	f.CreateAtomic("drop1.nupkg", func(w io.Writer) error { _, err := w.Write([]byte("a")); return err })
	f.CreateAtomic("drop2.nupkg", func(w io.Writer) error { _, err := w.Write([]byte("b")); return err })
	f.CreateAtomic("sub/nested.nupkg", func(w io.Writer) error { _, err := w.Write([]byte("c")); return err })
	f.CreateAtomic("notes.txt", func(w io.Writer) error { _, err := w.Write([]byte("d")); return err })

	matches, err := f.Glob(".", "*.nupkg")
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Glob matched %d files, want 2: %v", len(matches), matches)
	}
	for _, m := range matches {
		if strings.Contains(m, "sub/") {
			t.Errorf("Glob should not recurse into subdirectories, got %q", m)
		}
	}
}

func TestWalkRecursive(t *testing.T) {
	f := fsx.NewMem("/repo")
	f.CreateAtomic("a/1.0.0/a.1.0.0.nupkg", func(w io.Writer) error { _, err := w.Write([]byte("x")); return err })
	f.CreateAtomic("b/2.0.0/b.2.0.0.nupkg", func(w io.Writer) error { _, err := w.Write([]byte("y")); return err })

	var seen []string
	err := f.Walk(".", func(rel string) error {
		seen = append(seen, rel)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("Walk visited %d files, want 2: %v", len(seen), seen)
	}
}

func TestResolveRejectsEscape(t *testing.T) {
	f := fsx.NewMem("/repo")
	_, err := f.Abs("../../etc/passwd")
	if err != fsx.ErrEscapesRoot {
		t.Errorf("Abs(escaping path) = %v, want ErrEscapesRoot", err)
	}
}

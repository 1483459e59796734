package archive_test

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/feedkeeper/feedkeeper/src/archive"
)

// buildZip is a test-fixture-only archive builder using the standard
// library's archive/zip; production code reads with STARRY-S/zip (a
// drop-in-compatible fork), which can open archives this writer produces.
func buildZip(t *testing.T, files map[string]string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

const nuspec = `<?xml version="1.0"?><package><metadata>
  <id>Some.Pkg</id>
  <version>1.0.0</version>
  <authors>A</authors>
  <tags>foo bar</tags>
  <dependencies>
    <group targetFramework="net6.0">
      <dependency id="Dep.One" version="1.0.0" />
    </group>
  </dependencies>
</metadata></package>`

func TestInspectParsesManifestAndHashesContent(t *testing.T) {
	r := buildZip(t, map[string]string{"Some.Pkg.nuspec": nuspec, "lib/net6.0/Some.Pkg.dll": "binary"})

	info, err := archive.Inspect(r, r.Size(), archive.SHA256)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.Manifest.ID != "Some.Pkg" {
		t.Errorf("ID = %q, want Some.Pkg", info.Manifest.ID)
	}
	if info.Manifest.Version.String() != "1.0.0" {
		t.Errorf("Version = %q, want 1.0.0", info.Manifest.Version.String())
	}
	if info.IsSymbols {
		t.Errorf("IsSymbols = true, want false")
	}
	if len(info.Manifest.SupportedTargetFrameworks) != 1 || info.Manifest.SupportedTargetFrameworks[0] != "net6.0" {
		t.Errorf("SupportedTargetFrameworks = %v, want [net6.0]", info.Manifest.SupportedTargetFrameworks)
	}
	if info.HashBase64() == "" {
		t.Errorf("HashBase64 is empty")
	}
}

func TestInspectDetectsSymbolsPackage(t *testing.T) {
	r := buildZip(t, map[string]string{"Sym.Pkg.nuspec": nuspec, "lib/net472/Sym.Pkg.pdb": "debug-data"})

	info, err := archive.Inspect(r, r.Size(), archive.SHA512)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if !info.IsSymbols {
		t.Errorf("IsSymbols = false, want true")
	}
}

func TestInspectRejectsMissingManifest(t *testing.T) {
	r := buildZip(t, map[string]string{"readme.txt": "hello"})

	if _, err := archive.Inspect(r, r.Size(), archive.SHA256); err == nil {
		t.Fatalf("expected error for missing manifest")
	}
}

func TestInspectRejectsInvalidVersion(t *testing.T) {
	bad := `<?xml version="1.0"?><package><metadata><id>Bad.Pkg</id><version>not-a-version!</version></metadata></package>`
	r := buildZip(t, map[string]string{"Bad.Pkg.nuspec": bad})

	if _, err := archive.Inspect(r, r.Size(), archive.SHA256); err == nil {
		t.Fatalf("expected error for invalid version")
	}
}

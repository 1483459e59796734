package pkgver_test

import (
	"testing"

	"github.com/feedkeeper/feedkeeper/src/pkgver"
)

func TestParse_RoundTripsOriginal(t *testing.T) {
	tests := []string{
		"1.11", "1.9", "2.0-alpha", "2.0.0", "2.0.0-0test",
		"2.0.0-test+tag", "2.0.1+taggedOnly", "3.5.0-beta2", "1.0.0.0",
	}
	for _, s := range tests {
		v, err := pkgver.Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if v.Original() != s {
			t.Errorf("Original() = %q, want %q", v.Original(), s)
		}
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []string{"", "1.2.3.4.5", "1..2", "1.a.0", "1.0-", "1.0+"}
	for _, s := range tests {
		if _, err := pkgver.Parse(s); err == nil {
			t.Errorf("Parse(%q): expected error, got nil", s)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "1.0.0+build1", 0},
		{"1.0.0+build1", "1.0.0+build2", 0},
		{"1.9", "1.11", -1},
		{"2.0.0", "2.0-alpha", 1},
		{"2.0.0-0test", "2.0.0-test", -1}, // both alphanumeric; '0' sorts before 't'
		{"2.0.0-alpha", "2.0.0-alpha.1", -1},
		{"2.0.0-alpha.1", "2.0.0-alpha.beta", -1},
		{"2.0.0-beta", "2.0.0-beta.2", -1},
		{"2.0.0-beta.2", "2.0.0-beta.11", -1},
		{"2.0.0-beta.11", "2.0.0-rc.1", -1},
		{"2.0.0-rc.1", "2.0.0", -1},
		{"1.0.0.0", "1.0.0", 0},
	}
	for _, tt := range tests {
		a, err := pkgver.Parse(tt.a)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.a, err)
		}
		b, err := pkgver.Parse(tt.b)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.b, err)
		}
		if got := a.Compare(b); got != tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := b.Compare(a); got != -tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.b, tt.a, got, -tt.want)
		}
	}
}

func TestEqual_IgnoresBuildMetadata(t *testing.T) {
	a := pkgver.MustParse("3.5.0-beta2")
	b := pkgver.MustParse("3.5.0-beta2+exp.sha.5114f85")
	if !a.Equal(b) {
		t.Errorf("expected %q to equal %q ignoring build metadata", a, b)
	}
}

func TestIsSemVer2(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"1.0.0", false},
		{"1.0-beta", false},
		{"1.0-beta.1", true},
		{"1.0-beta+foo", true},
		{"1.0.0+build", true},
	}
	for _, tt := range tests {
		v := pkgver.MustParse(tt.version)
		if got := v.IsSemVer2(); got != tt.want {
			t.Errorf("Parse(%q).IsSemVer2() = %v, want %v", tt.version, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{"1.0", "1.0.0"},
		{"1", "1.0.0"},
		{"1.0.0.0", "1.0.0"},
		{"1.0.0.5", "1.0.0.5"},
		{"2.0.0-test+tag", "2.0.0-test"},
		{"1.0.0-alpha.1", "1.0.0-alpha.1"},
	}
	for _, tt := range tests {
		v := pkgver.MustParse(tt.version)
		if got := v.Normalize(); got != tt.want {
			t.Errorf("Parse(%q).Normalize() = %q, want %q", tt.version, got, tt.want)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	original := "2.0.0-test+tag"
	v := pkgver.MustParse(original)
	data, err := v.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var got pkgver.Version
	if err := got.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if got.Original() != original {
		t.Errorf("round trip = %q, want %q", got.Original(), original)
	}
}

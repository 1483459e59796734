package frameworks_test

import (
	"testing"

	"github.com/feedkeeper/feedkeeper/src/frameworks"
)

func TestCompatibleSameFamilyLowerOrEqualVersion(t *testing.T) {
	cases := []struct {
		supported, requested string
		want                 bool
	}{
		{"net6.0", "net6.0", true},
		{"net48", "net472", true},
		{"net472", "net48", false},
		{"netstandard2.0", "net6.0", false},
		{"netstandard2.0", "netstandard2.1", true},
	}
	for _, c := range cases {
		if got := frameworks.Compatible(c.supported, c.requested); got != c.want {
			t.Errorf("Compatible(%q, %q) = %v, want %v", c.supported, c.requested, got, c.want)
		}
	}
}

func TestAnyCompatibleMatchesAcrossLists(t *testing.T) {
	supported := []string{"net6.0", "netstandard2.0"}
	if !frameworks.AnyCompatible(supported, []string{"net48", "net6.0"}) {
		t.Errorf("expected exact net6.0 match")
	}
	if frameworks.AnyCompatible(supported, []string{"net472"}) {
		t.Errorf("did not expect net6.0/netstandard2.0 to match net472")
	}
}

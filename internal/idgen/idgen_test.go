package idgen

import (
	"strings"
	"testing"
)

func TestGenerate_PrefixAndLength(t *testing.T) {
	for name, gen := range map[string]func() (string, error){
		"record": Record,
		"group":  Group,
		"schema": Schema,
	} {
		id, err := gen()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		dash := strings.Index(id, "-")
		if dash < 0 {
			t.Fatalf("%s: missing prefix separator in %q", name, id)
		}
		if got := len(id) - dash - 1; got != Length {
			t.Errorf("%s: random part length %d, want %d", name, got, Length)
		}
	}
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := Record()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

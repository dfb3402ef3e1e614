package assets

import (
	"io/fs"
	"testing"
)

func TestParsePair(t *testing.T) {
	tests := []struct {
		line string
		want Pair
		ok   bool
	}{
		{"apple,pear", Pair{Civilian: "apple", Undercover: "pear"}, true},
		{" coffee , tea ", Pair{Civilian: "coffee", Undercover: "tea"}, true},
		{"apple", Pair{}, false},
		{"apple,", Pair{}, false},
		{"Apple,apple", Pair{}, false},
	}
	for _, tt := range tests {
		got, ok := ParsePair(tt.line)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("ParsePair(%q) = %+v, %v; want %+v, %v", tt.line, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	sub, err := Migrations()
	if err != nil {
		t.Fatalf("migrations: %v", err)
	}
	names, err := fs.Glob(sub, "*.sql")
	if err != nil || len(names) == 0 {
		t.Fatalf("expected embedded migrations, got %v (%v)", names, err)
	}
}

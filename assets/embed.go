package assets

import (
	"bufio"
	"embed"
	"io/fs"
	"strings"
)

//go:embed pairs.txt sql/*.sql
var FS embed.FS

// Pair is one civilian/undercover word pair.
type Pair struct {
	Civilian   string `json:"civilian_word"`
	Undercover string `json:"undercover_word"`
}

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// ParsePair splits a "civilian,undercover" line. ok is false for malformed
// lines or pairs of identical words.
func ParsePair(line string) (Pair, bool) {
	civ, uc, found := strings.Cut(line, ",")
	civ, uc = strings.TrimSpace(civ), strings.TrimSpace(uc)
	if !found || civ == "" || uc == "" || strings.EqualFold(civ, uc) {
		return Pair{}, false
	}
	return Pair{Civilian: civ, Undercover: uc}, true
}

// PairsList returns the embedded default word pairs.
func PairsList() ([]Pair, error) {
	lines, err := readLines("pairs.txt")
	if err != nil {
		return nil, err
	}
	out := make([]Pair, 0, len(lines))
	for _, l := range lines {
		if p, ok := ParsePair(l); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Migrations returns the embedded SQL migration tree rooted at "sql".
func Migrations() (fs.FS, error) {
	return fs.Sub(FS, "sql")
}

// internal/words/words.go
//
// Word-pair catalogue the host draws from when starting a game.
//
// Responsibilities:
//   - Load civilian/undercover pairs from an environment-provided file or fall
//     back to the embedded defaults in assets/pairs.txt.
//   - Supply RandomPair and the date-deterministic DailyPair (daily.go).
//
// Pair file format: one "civilian,undercover" pair per line; blank lines and
// lines starting with '#' are ignored, malformed lines are skipped.
//
// Environment variables:
//   WORDS_PAIRS_FILE=/path/to/pairs.txt
//
// Initialization is run once (sync.Once).

package words

import (
	"bufio"
	"crypto/rand"
	"errors"
	"math/big"
	"os"
	"strings"
	"sync"

	"github.com/robalobadob/undercover/assets"
)

// Pair is a civilian/undercover word pair.
type Pair = assets.Pair

var (
	initOnce   sync.Once
	pairs      []Pair
	initialErr error
)

// Init loads the pair list exactly once.
// Returns an error if the list ends up empty.
func Init() error {
	initOnce.Do(func() {
		if path := os.Getenv("WORDS_PAIRS_FILE"); path != "" {
			pairs, initialErr = readPairFile(path)
		} else {
			pairs, initialErr = assets.PairsList()
		}
		if initialErr == nil && len(pairs) == 0 {
			initialErr = errors.New("words: pair list is empty")
		}
	})
	return initialErr
}

// readPairFile loads pairs from a file on disk.
func readPairFile(path string) ([]Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []Pair
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if p, ok := assets.ParsePair(line); ok {
			out = append(out, p)
		}
	}
	return out, sc.Err()
}

// Pairs returns the loaded pair list.
func Pairs() []Pair {
	_ = Init()
	return pairs
}

// RandomPair returns a cryptographically random pair.
// Falls back to apple/pear when nothing is loaded.
func RandomPair() Pair {
	list := Pairs()
	if len(list) == 0 {
		return Pair{Civilian: "apple", Undercover: "pear"}
	}
	nBig, _ := rand.Int(rand.Reader, big.NewInt(int64(len(list))))
	return list[nBig.Int64()]
}

// Stats returns the number of loaded pairs.
func Stats() int {
	return len(Pairs())
}

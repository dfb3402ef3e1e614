package words

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// DailyIndex returns a deterministic index for a date using
// HMAC(salt, YYYY-MM-DD) % n.
func DailyIndex(date time.Time, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes as uint64 for the modulus
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}

// DailyPair returns the pair of the day: the same for every call with the
// same date and salt.
func DailyPair(date time.Time, salt string) Pair {
	list := Pairs()
	if len(list) == 0 {
		return RandomPair()
	}
	return list[DailyIndex(date, salt, len(list))]
}

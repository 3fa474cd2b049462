package submission

import (
	"context"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

const maxGlobalIDAttempts = 5

// globalIDFromUnix derives the token from a unix timestamp: the digit string
// is reversed, one extra random digit is appended, and each digit is
// independently re-cast to a letter ('a'+digit) or kept by a coin flip. The
// token is human-friendly, not unique; callers must check it against the
// record store before accepting it.
func globalIDFromUnix(unix int64, intn func(int) int) string {
	digits := strconv.FormatInt(unix, 10)
	var b strings.Builder
	b.Grow(len(digits) + 1)
	for i := len(digits) - 1; i >= 0; i-- {
		b.WriteByte(digits[i])
	}
	b.WriteByte(byte('0' + intn(10)))

	token := []byte(b.String())
	for i, d := range token {
		if intn(2) == 1 {
			token[i] = 'a' + (d - '0')
		}
	}
	return string(token)
}

// newGlobalID generates a token and verifies it is unused, retrying on
// collision a bounded number of times.
func (s *service) newGlobalID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxGlobalIDAttempts; attempt++ {
		id := globalIDFromUnix(time.Now().Unix(), rand.IntN)
		inUse, err := s.repository.GlobalIDInUse(ctx, id)
		if err != nil {
			return "", err
		}
		if !inUse {
			return id, nil
		}
	}
	return "", ErrGlobalIDExhausted
}

package submit

import (
	"math/rand/v2"
	"strconv"
	"time"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewRequestID returns "REQ-<unix millis>-<6 char suffix>". rng may be nil.
func NewRequestID(now time.Time, rng *rand.Rand) string {
	suffix := make([]byte, 6)
	for i := range suffix {
		var n int
		if rng != nil {
			n = rng.IntN(len(idAlphabet))
		} else {
			n = rand.IntN(len(idAlphabet))
		}
		suffix[i] = idAlphabet[n]
	}
	return "REQ-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + string(suffix)
}

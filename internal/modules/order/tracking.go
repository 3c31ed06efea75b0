package order

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// CodeGenerator produces a candidate tracking code.
type CodeGenerator func() (string, error)

// Ambiguous glyphs (0/O, 1/I) are left out so codes can be read over the phone.
const trackingAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const trackingCodeLength = 8

// NewCodeGenerator returns a generator of PREFIX-XXXXXXXX codes.
func NewCodeGenerator(prefix string) CodeGenerator {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	max := big.NewInt(int64(len(trackingAlphabet)))
	return func() (string, error) {
		var b strings.Builder
		b.WriteString(prefix)
		b.WriteByte('-')
		for i := 0; i < trackingCodeLength; i++ {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", fmt.Errorf("generate tracking code: %w", err)
			}
			b.WriteByte(trackingAlphabet[n.Int64()])
		}
		return b.String(), nil
	}
}

// baseMinutes is the preparation time before the per-line addend.
func baseMinutes(t Type) int {
	switch t {
	case TypeDelivery:
		return 20 + 30
	case TypeTakeout:
		return 20 + 10
	default:
		return 20
	}
}

// estimateCompletion adds two minutes per distinct line, capped at twenty.
func estimateCompletion(now time.Time, t Type, lineCount int) time.Time {
	extra := 2 * lineCount
	if extra > 20 {
		extra = 20
	}
	return now.Add(time.Duration(baseMinutes(t)+extra) * time.Minute)
}

// minutesRemaining rounds up so an order due in 30s still shows one minute.
func minutesRemaining(o *Order, now time.Time) int {
	if o.Status.Terminal() || !o.EstimatedCompletion.After(now) {
		return 0
	}
	d := o.EstimatedCompletion.Sub(now)
	return int((d + time.Minute - 1) / time.Minute)
}

// utilitário pequeno para formatação rápida/consistente de valores em headers.

package ratelimit

import (
	"math"
	"strconv"
	"time"
)

func formatInt(v int) string { return strconv.Itoa(v) }

// retryAfterSeconds arredonda para cima: Retry-After em segundos inteiros, no mínimo 1.
func retryAfterSeconds(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return formatInt(secs)
}

// Package jitter добавляет случайность в интервалы повторных попыток,
// чтобы переподключения к Kafka и чистки MinIO не били в зависимости синхронно.
package jitter

import (
	"math/rand"
	"sync"
	"time"
)

// DefaultJitter — стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

var (
	globalRand = rand.New(rand.NewSource(time.Now().UnixNano()))
	randMu     sync.Mutex
)

// Duration возвращает d, растянутую случайным джиттером.
// Результат лежит в диапазоне [d, d*(1+jitterFactor)].
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	randMu.Lock()
	extra := globalRand.Float64() * jitterFactor * float64(d)
	randMu.Unlock()
	return d + time.Duration(extra)
}

// ExponentialBackoff удваивает base на каждую попытку (нумерация с нуля),
// ограничивает результат max и накладывает джиттер.
func ExponentialBackoff(base, max time.Duration, attempt int, jitterFactor float64) time.Duration {
	backoff := base
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff > max {
			backoff = max
			break
		}
	}
	return Duration(backoff, jitterFactor)
}

package bridge

import (
	"fmt"
	"time"

	"github.com/danmuck/leobridge/internal/outline"
)

// RoundTripper is the codec surface the verifier exercises.
type RoundTripper interface {
	Encode(outline.Position) (ArchivedPosition, error)
	Decode(ArchivedPosition) (outline.Position, error)
}

// VerifyReport summarizes one verifier sweep.
type VerifyReport struct {
	Positions    int
	CacheEntries int
	Duration     time.Duration
}

// Verify encodes and decodes every position of doc, clone occurrences
// included, and stops at the first mismatch. The sweep must leave the cache
// size unchanged.
func Verify(doc *outline.Document, cache *IdentityCache, codec RoundTripper) (VerifyReport, error) {
	start := time.Now()
	before := cache.Len()
	report := VerifyReport{CacheEntries: before}

	for p := range doc.AllPositions() {
		report.Positions++
		ap, err := codec.Encode(p)
		if err != nil {
			return report, &ConsistencyError{Position: p, Reason: fmt.Sprintf("encode: %v", err)}
		}
		got, err := codec.Decode(ap)
		if err != nil {
			return report, &ConsistencyError{Position: p, Reason: fmt.Sprintf("decode: %v", err)}
		}
		if !got.Equal(p) {
			return report, &ConsistencyError{Position: p, Reason: fmt.Sprintf("decoded as %s", got)}
		}
	}

	if after := cache.Len(); after != before {
		return report, &ConsistencyError{Reason: fmt.Sprintf("cache size changed from %d to %d", before, after)}
	}
	report.Duration = time.Since(start)
	return report, nil
}

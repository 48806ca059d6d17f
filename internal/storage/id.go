package storage

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/confident-ai/deepeval-go/pkg/types"
)

const unknownLabel = "unknown"

var (
	clockMu sync.Mutex
	lastMS  int64
)

// nowMillis returns milliseconds since epoch, forced strictly monotonic
// within the process so rapid successive saves never reuse a file stem.
func nowMillis() int64 {
	clockMu.Lock()
	defer clockMu.Unlock()
	ms := time.Now().UnixMilli()
	if ms <= lastMS {
		ms = lastMS + 1
	}
	lastMS = ms
	return ms
}

// OpaqueID returns the default identifier form: {timestamp_ms}-{uuid}.
// Uniqueness holds across processes without relying on caller context.
func OpaqueID(ms int64) string {
	return fmt.Sprintf("%d-%s", ms, uuid.NewString())
}

// IDContext carries the best-effort labels a descriptive identifier was
// derived from, so the backend can persist them alongside the record.
type IDContext struct {
	OriginLabel string // source file stem of the calling test, or "unknown"
	OriginKind  string // "integration", "unit", or "unknown"
	Subject     string // first test case name, or "unknown"
}

// DescriptiveID returns the legacy identifier form
// {origin_label}-{origin_kind}-{subject}-{timestamp_ms}. Labels are
// derived from the call stack and the first test case and fall back to
// "unknown" when undeterminable.
func DescriptiveID(ms int64, testCases []types.TestCase) (string, IDContext) {
	ctx := IDContext{OriginLabel: unknownLabel, OriginKind: unknownLabel, Subject: unknownLabel}

	if len(testCases) > 0 && testCases[0].Name != "" {
		ctx.Subject = testCases[0].Name
	}

	for skip := 1; skip < 32; skip++ {
		_, file, _, ok := runtime.Caller(skip)
		if !ok {
			break
		}
		base := filepath.Base(file)
		if !strings.HasSuffix(base, "_test.go") {
			continue
		}
		ctx.OriginLabel = strings.TrimSuffix(base, ".go")
		if strings.Contains(ctx.OriginLabel, "integration") {
			ctx.OriginKind = "integration"
		} else {
			ctx.OriginKind = "unit"
		}
		break
	}

	id := fmt.Sprintf("%s-%s-%s-%d", sanitizeStem(ctx.OriginLabel), sanitizeStem(ctx.OriginKind), sanitizeStem(ctx.Subject), ms)
	return id, ctx
}

// sanitizeStem reduces a label to characters safe for use verbatim as a
// file stem.
func sanitizeStem(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return unknownLabel
	}
	return out
}

// Package tracer is a small tracing abstraction so services can emit spans
// without importing OpenTelemetry directly.
//
// Implementations:
//   - NoopTracer for tests
//   - OTelTracer backed by the global OpenTelemetry provider
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span is an active trace span. End must be called exactly once.
type Span interface {
	// End completes the span; a non-nil err marks it failed.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
//
//	ctx, span := t.Start(ctx, tracer.SpanPinningUpload, tracer.Int64(tracer.AttrUploadBytes, n))
//	defer func() { span.End(err) }()
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashIdentifier shortens a public lookup identifier to a stable 16 hex char digest,
// so traces can correlate lookups without carrying content ids or transaction hashes.
func HashIdentifier(identifier string) string {
	if identifier == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(identifier))
	return hex.EncodeToString(sum[:8])
}

const (
	SpanPinningUpload = "pinning.upload"
	SpanVerifyLookup  = "verification.lookup"
)

const (
	AttrUploadBytes   = "upload.bytes"
	AttrUploadStatus  = "upload.http_status"
	AttrIdentifier    = "lookup.identifier_hash"
	AttrCacheHit      = "cache.hit"
	AttrLookupMatched = "lookup.matched"
)

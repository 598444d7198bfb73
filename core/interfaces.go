package core

import (
	"context"
	"image"
	"io"
	"time"
)

// Decoder converts raw bytes into an in-memory image.
// Implementations live in adapters/decoder/.
type Decoder interface {
	// Decode reads from r and returns the decoded pixels.
	Decode(ctx context.Context, r io.Reader) (image.Image, error)
	// CanDecode reports whether this decoder handles the given format hint.
	CanDecode(format Format) bool
}

// Encoder serialises an image to bytes in a target format.
// Implementations live in adapters/encoder/.
type Encoder interface {
	Encode(ctx context.Context, img image.Image, opts EncodeOptions) ([]byte, error)
	CanEncode(format Format) bool
}

// BlobStore is the opaque blob storage collaborator.  Failures propagate as
// tool-action errors; the editor never retries on its own.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, filename string) (BlobRef, error)
	Fetch(ctx context.Context, url string) ([]byte, error)
	DeleteByID(ctx context.Context, id string) error
}

// RemoteEditor is the opaque remote image-edit/generation endpoint.
// Implementations must issue at most one request per Invoke call; retries,
// if any, are a caller concern.
type RemoteEditor interface {
	Invoke(ctx context.Context, op Operation, sourceURLs []string, params Params) (resultURL string, err error)
}

// CreditLedger tracks the user's credit balance.  The local balance check is
// optimistic; the authoritative check happens on the remote side.
type CreditLedger interface {
	Balance(ctx context.Context) (int, error)
	Deduct(ctx context.Context, amount int) error
}

// Notifier surfaces user-visible outcome messages for tool actions.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Logger is a minimal structured logging interface.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Hook is an optional observer invoked around tool actions.
type Hook interface {
	BeforeAction(ctx context.Context, action string)
	AfterAction(ctx context.Context, action string, d time.Duration, err error)
}

// MetricsCollector receives measurements from tool actions.
type MetricsCollector interface {
	RecordActionTime(action string, d time.Duration)
	RecordError(action string)
	RecordThroughput(bytes int64)
}

// Registry maps Format values to Decoder/Encoder implementations.
type Registry interface {
	DecoderFor(format Format) (Decoder, bool)
	EncoderFor(format Format) (Encoder, bool)
	RegisterDecoder(format Format, d Decoder)
	RegisterEncoder(format Format, e Encoder)
}

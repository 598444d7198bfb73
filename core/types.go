package core

import "time"

// Format identifies an image codec.
type Format string

const (
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatWebP    Format = "webp"
	FormatUnknown Format = "unknown"
)

// EncodeOptions carries format-specific encoding parameters.
type EncodeOptions struct {
	Format   Format // target codec; encoders serving multiple formats switch on it
	Quality  int    // 1-100; 0 = use encoder default
	Lossless bool   // PNG best-compression / WebP lossless mode
}

// Operation identifies a remote image-edit operation kind.
// The credit cost of each operation lives in config.Config.CreditCosts.
type Operation string

const (
	OpRemoveBackground Operation = "remove_background"
	OpChangeBackground Operation = "change_background"
	OpEditImage        Operation = "edit_image"
	OpUpscale          Operation = "upscale"
	OpRestore          Operation = "restore"
)

// Params carries operation-specific parameters for a remote edit call
// (prompt text, output dimensions, and so on).
type Params map[string]any

// Project is the persisted metadata for a scene.  Created on upload, read by
// the editor, mutated only through an explicit resize.
type Project struct {
	ID        string
	Title     string
	SourceURL string // blob-store URL of the base image
	FileID    string // blob-store ID, used for deletion
	Width     int
	Height    int
	// CanvasState is an optional serialized scene snapshot saved from a
	// previous editing session.  Opaque; restored as a whole or not at all.
	CanvasState []byte
	CreatedAt   time.Time
}

// BlobRef identifies an uploaded blob.
type BlobRef struct {
	URL    string
	ID     string
	Width  int // pixel dimensions when the blob is a decodable image; 0 otherwise
	Height int
}

package ports

import "context"

// Encoder converts an arbitrary audio file into the format the
// recognition platform accepts (mp3, 16 kHz, mono).
type Encoder interface {
	// Encode returns the path of the produced file and its size in bytes.
	// The caller owns the file and removes it when done.
	Encode(ctx context.Context, inputPath string) (string, int64, error)
}

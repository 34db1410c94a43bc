package capture

import (
	"context"
	"fmt"
	"os"

	"github.com/learitecnico/learion-glass-sub000/internal/domain"
)

// placeholderJPEG is a minimal 1x1 white JPEG used when no frame source is
// configured, so the photo path stays exercisable without camera hardware.
var placeholderJPEG = []byte{
	0xff, 0xd8, 0xff, 0xdb, 0x00, 0x43, 0x00,
	0x08, 0x06, 0x06, 0x07, 0x06, 0x05, 0x08, 0x07, 0x07, 0x07,
	0x09, 0x09, 0x08, 0x0a, 0x0c, 0x14, 0x0d, 0x0c, 0x0b, 0x0b,
	0x0c, 0x19, 0x12, 0x13, 0x0f, 0x14, 0x1d, 0x1a, 0x1f, 0x1e,
	0x1d, 0x1a, 0x1c, 0x1c, 0x20, 0x24, 0x2e, 0x27, 0x20, 0x22,
	0x2c, 0x23, 0x1c, 0x1c, 0x28, 0x37, 0x29, 0x2c, 0x30, 0x31,
	0x34, 0x34, 0x34, 0x1f, 0x27, 0x39, 0x3d, 0x38, 0x32, 0x3c,
	0x2e, 0x33, 0x34, 0x32,
	0xff, 0xc0, 0x00, 0x0b, 0x08, 0x00, 0x01, 0x00, 0x01, 0x01,
	0x01, 0x11, 0x00,
	0xff, 0xc4, 0x00, 0x1f, 0x00, 0x00, 0x01, 0x05, 0x01, 0x01,
	0x01, 0x01, 0x01, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
	0x09, 0x0a, 0x0b,
	0xff, 0xc4, 0x00, 0x14, 0x10, 0x01, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00,
	0xff, 0xda, 0x00, 0x08, 0x01, 0x01, 0x00, 0x00, 0x3f, 0x00,
	0x7f, 0xff, 0xd9,
}

// FileCamera implements the camera contract by reading frames from a file
// path, falling back to an embedded placeholder when no path is configured.
type FileCamera struct {
	path string
}

var _ domain.Camera = (*FileCamera)(nil)

// NewFileCamera creates a camera backed by the given image file. An empty
// path yields placeholder frames.
func NewFileCamera(path string) *FileCamera {
	return &FileCamera{path: path}
}

// TakePicture returns the current frame as JPEG bytes
func (c *FileCamera) TakePicture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.path == "" {
		frame := make([]byte, len(placeholderJPEG))
		copy(frame, placeholderJPEG)
		return frame, nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading frame from %s: %v", domain.ErrCaptureDevice, c.path, err)
	}
	return data, nil
}

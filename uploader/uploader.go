package uploader

import (
	"context"
	"io"
)

// Hosted identifies a successfully stored object.
type Hosted struct {
	URL       string
	StorageID string
}

// Uploader pushes one compressed blob to remote storage. Implementations
// report fractional transmit progress through the callback; values are
// percentages and may be delivered out of order under retries, the batch
// keeps them monotonic.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte, contentType string, progress func(pct int)) (Hosted, error)
}

// progressReader counts bytes handed to the HTTP transport against a known
// total and reports the percentage.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	progress func(pct int)
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 && p.total > 0 && p.progress != nil {
		p.read += int64(n)
		pct := int(p.read * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		p.progress(pct)
	}
	return n, err
}

package artifact

import (
	"bytes"
	"context"
	"fmt"

	"github.com/roach88/vkir/internal/ir"
)

// DocumentPath is the object name of the IR document under a run prefix.
const DocumentPath = "ir.json"

// Putter stores one object under a run prefix. *S3Store implements it.
type Putter interface {
	Put(ctx context.Context, runID, path string, content []byte) error
}

// Publish uploads the encoded document as <runID>/ir.json and returns the
// object key. The bytes are identical to what compile writes locally.
func Publish(ctx context.Context, p Putter, runID string, doc *ir.Document) (string, error) {
	var buf bytes.Buffer
	if err := ir.Encode(&buf, doc); err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	if err := p.Put(ctx, runID, DocumentPath, buf.Bytes()); err != nil {
		return "", err
	}
	return objectKey(runID, DocumentPath), nil
}

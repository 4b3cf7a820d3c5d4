package uploader

import (
	"bytes"
	"fmt"
	"mime/multipart"

	"github.com/tonielift/tonielift/internal/infrastructure/tonie"
)

// buildTransferBody repackages the payload as a fresh multipart/form-data
// body for the presigned POST: the target's fields first, in their given
// order, then a single file part named "file". The storage backend validates
// the policy fields positionally, so the ordering is part of the contract.
func buildTransferBody(fields tonie.Fields, filename string, data []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, field := range fields {
		if err := writer.WriteField(field.Name, field.Value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %q: %w", field.Name, err)
		}
	}

	// CreateFormFile emits the part as application/octet-stream.
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("failed to write file part: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize body: %w", err)
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

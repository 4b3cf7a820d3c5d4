package uploader

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonielift/tonielift/internal/infrastructure/tonie"
)

func TestBuildTransferBodyOrdering(t *testing.T) {
	fields := tonie.Fields{
		{Name: "key1", Value: "v1"},
		{Name: "key2", Value: "v2"},
	}
	fileBytes := []byte{0x01, 0x02, 0x03, 0xFF}

	body, contentType, err := buildTransferBody(fields, "clip.mp3", fileBytes)
	require.NoError(t, err)

	_, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	reader := multipart.NewReader(bytes.NewReader(body), params["boundary"])

	type part struct {
		name, filename, contentType string
		data                        []byte
	}
	var parts []part
	for {
		p, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(p)
		require.NoError(t, err)
		parts = append(parts, part{p.FormName(), p.FileName(), p.Header.Get("Content-Type"), data})
	}

	require.Len(t, parts, 3)
	assert.Equal(t, part{"key1", "", "", []byte("v1")}, parts[0])
	assert.Equal(t, part{"key2", "", "", []byte("v2")}, parts[1])
	assert.Equal(t, "file", parts[2].name)
	assert.Equal(t, "clip.mp3", parts[2].filename)
	assert.Equal(t, "application/octet-stream", parts[2].contentType)
	assert.Equal(t, fileBytes, parts[2].data)
}

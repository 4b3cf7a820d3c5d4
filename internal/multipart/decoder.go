// Package multipart decodes raw multipart/form-data bodies without going
// through net/http's form machinery. The device-upload handler hands it the
// exact bytes it received so the scanner sees the body as the client sent it.
package multipart

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

var ErrNoBoundary = errors.New("content type is missing the boundary parameter")

// File is the single binary payload extracted from a form.
type File struct {
	Filename string
	Bytes    []byte
}

// Form is the decoded result: text fields keyed by their part name plus at
// most one file part.
type Form struct {
	Fields map[string]string
	File   *File
}

// Decoder scans boundary-delimited segments. With Strict unset, segments with
// malformed or missing payload delimiters are skipped rather than failing the
// whole decode; Strict turns those into errors for callers that want to
// reject suspect bodies outright.
type Decoder struct {
	Strict bool
}

// Decode splits raw on the boundary from contentType and extracts fields and
// the file part. Decoding is pure: the same bytes always produce the same
// Form.
func (d Decoder) Decode(raw []byte, contentType string) (*Form, error) {
	boundary := extractBoundary(contentType)
	if boundary == "" {
		return nil, ErrNoBoundary
	}

	form := &Form{Fields: make(map[string]string)}
	delim := []byte("--" + boundary)

	segments := bytes.Split(raw, delim)
	// segments[0] is the preamble before the first boundary; the final
	// segment is the "--" terminator. Both lack headers and fall out of the
	// disposition check below.
	for i, segment := range segments {
		disposition, payload, ok := splitSegment(segment)
		if disposition == "" {
			continue
		}
		if !ok {
			if d.Strict {
				return nil, fmt.Errorf("segment %d has no payload delimiter", i)
			}
			continue
		}

		name := dispositionParam(disposition, "name")
		filename := dispositionParam(disposition, "filename")

		if filename != "" {
			form.File = &File{Filename: filename, Bytes: payload}
		} else if name != "" {
			form.Fields[name] = string(payload)
		}
	}

	return form, nil
}

// extractBoundary pulls the boundary token out of a Content-Type header
// value, stripping surrounding quotes.
func extractBoundary(contentType string) string {
	for _, param := range strings.Split(contentType, ";") {
		param = strings.TrimSpace(param)
		if !strings.HasPrefix(strings.ToLower(param), "boundary=") {
			continue
		}
		boundary := param[len("boundary="):]
		return strings.Trim(boundary, `"`)
	}
	return ""
}

// splitSegment separates a segment into its Content-Disposition header line
// and payload bytes. The payload is everything after the first blank line,
// with the trailing line terminator removed. ok is false when the blank-line
// separator is missing.
func splitSegment(segment []byte) (disposition string, payload []byte, ok bool) {
	header, body := cutBlankLine(segment)
	disposition = findDisposition(header)
	if disposition == "" {
		return "", nil, false
	}
	if body == nil {
		return disposition, nil, false
	}

	payload = bytes.TrimSuffix(body, []byte("\n"))
	payload = bytes.TrimSuffix(payload, []byte("\r"))
	return disposition, payload, true
}

// cutBlankLine splits a segment at the first blank line. body is nil when no
// separator exists.
func cutBlankLine(segment []byte) (header, body []byte) {
	if i := bytes.Index(segment, []byte("\r\n\r\n")); i >= 0 {
		return segment[:i], segment[i+4:]
	}
	if i := bytes.Index(segment, []byte("\n\n")); i >= 0 {
		return segment[:i], segment[i+2:]
	}
	return segment, nil
}

func findDisposition(header []byte) string {
	for _, line := range strings.Split(string(header), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(strings.ToLower(line), "content-disposition:") {
			return line[len("content-disposition:"):]
		}
	}
	return ""
}

// dispositionParam extracts a quoted or bare parameter value from a
// Content-Disposition header value.
func dispositionParam(disposition, key string) string {
	for _, part := range strings.Split(disposition, ";") {
		part = strings.TrimSpace(part)
		k, v, found := strings.Cut(part, "=")
		if !found || !strings.EqualFold(k, key) {
			continue
		}
		return strings.Trim(v, `"`)
	}
	return ""
}

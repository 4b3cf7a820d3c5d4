// Package youtube resolves video metadata and streams the best audio-only
// track to a bounded temporary file.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	yt "github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog/log"
)

const (
	// MaxDownloadBytes is the remote-audio ceiling, a quota on the
	// temporary-file backend.
	MaxDownloadBytes = 512 << 20

	// DownloadTimeout is the wall-clock deadline for the byte transfer.
	DownloadTimeout = 60 * time.Second

	maxFilenameLength = 128
	fileExtension     = ".m4a"
)

var (
	ErrInvalidURL       = errors.New("not a valid video URL")
	ErrLiveContent      = errors.New("video is a live stream")
	ErrPrivateVideo     = errors.New("video is private")
	ErrAgeRestricted    = errors.New("video is age-restricted")
	ErrUnavailable      = errors.New("video is unavailable")
	ErrDownloadTimeout  = errors.New("download exceeded the time limit")
	ErrDownloadTooLarge = errors.New("download exceeded the size limit")
	ErrForbidden        = errors.New("stream source refused the download")
	ErrNotFound         = errors.New("stream source has no such video")
)

// FetchResult describes a completed download.
type FetchResult struct {
	SizeBytes       int64
	Title           string
	Author          string
	VideoID         string
	DurationSeconds int
	Filename        string
}

// Fetcher downloads audio-only tracks. The zero client uses the public
// innertube endpoints.
type Fetcher struct {
	client yt.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{}
}

// Fetch resolves rawURL, picks the best audio-only format and streams it to
// destPath. The transfer runs under DownloadTimeout and aborts the moment the
// cumulative byte count passes MaxDownloadBytes. The partial file is removed
// on any failure here; the caller still owns destPath cleanup on every exit
// path after a successful fetch.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, destPath string) (*FetchResult, error) {
	videoID, err := yt.ExtractVideoID(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	video, err := f.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, classifyMetadataError(err)
	}
	if video.Duration == 0 {
		return nil, fmt.Errorf("%w: %q", ErrLiveContent, video.Title)
	}

	format := bestAudioFormat(video)
	if format == nil {
		return nil, fmt.Errorf("%w: no audio-only stream", ErrUnavailable)
	}

	filename := BuildFilename(video.Title, video.ID)

	size, err := f.download(ctx, video, format, destPath)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("video_id", video.ID).
		Str("filename", filename).
		Int64("size_bytes", size).
		Msg("Remote audio download complete")

	return &FetchResult{
		SizeBytes:       size,
		Title:           video.Title,
		Author:          video.Author,
		VideoID:         video.ID,
		DurationSeconds: int(video.Duration.Seconds()),
		Filename:        filename,
	}, nil
}

func (f *Fetcher) download(ctx context.Context, video *yt.Video, format *yt.Format, destPath string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, DownloadTimeout)
	defer cancel()

	stream, _, err := f.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return 0, classifyStreamError(ctx, err)
	}
	defer stream.Close()

	return copyToFile(ctx, stream, destPath, MaxDownloadBytes)
}

// copyToFile streams to destPath, checking the byte ceiling before each chunk
// hits disk. Any failure removes the partial file.
func copyToFile(ctx context.Context, stream io.Reader, destPath string, maxBytes int64) (int64, error) {
	dest, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}

	var written int64
	buf := make([]byte, 64<<10)
	for {
		n, readErr := stream.Read(buf)
		if n > 0 {
			written += int64(n)
			if written > maxBytes {
				abortDownload(dest, destPath)
				return 0, ErrDownloadTooLarge
			}
			if _, writeErr := dest.Write(buf[:n]); writeErr != nil {
				abortDownload(dest, destPath)
				return 0, fmt.Errorf("failed to write temp file: %w", writeErr)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			abortDownload(dest, destPath)
			return 0, classifyStreamError(ctx, readErr)
		}
	}

	if err := dest.Close(); err != nil {
		os.Remove(destPath)
		return 0, fmt.Errorf("failed to close temp file: %w", err)
	}
	return written, nil
}

// abortDownload releases the file handle before removing the partial file,
// so the cleanup also works on platforms that refuse to unlink open files.
func abortDownload(dest *os.File, destPath string) {
	dest.Close()
	os.Remove(destPath)
}

func bestAudioFormat(video *yt.Video) *yt.Format {
	formats := video.Formats.Type("audio")
	var best *yt.Format
	for i := range formats {
		if best == nil || formats[i].Bitrate > best.Bitrate {
			best = &formats[i]
		}
	}
	return best
}

func classifyMetadataError(err error) error {
	if errors.Is(err, yt.ErrLoginRequired) {
		return fmt.Errorf("%w: %v", ErrAgeRestricted, err)
	}
	if errors.Is(err, yt.ErrVideoPrivate) {
		return fmt.Errorf("%w: %v", ErrPrivateVideo, err)
	}

	var playability *yt.ErrPlayabiltyStatus
	if errors.As(err, &playability) {
		reason := strings.ToLower(playability.Reason + " " + playability.Status)
		switch {
		case strings.Contains(reason, "private"):
			return fmt.Errorf("%w: %s", ErrPrivateVideo, playability.Reason)
		case strings.Contains(reason, "live"):
			return fmt.Errorf("%w: %s", ErrLiveContent, playability.Reason)
		default:
			return fmt.Errorf("%w: %s", ErrUnavailable, playability.Reason)
		}
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func classifyStreamError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrDownloadTimeout
	}

	var status yt.ErrUnexpectedStatusCode
	if errors.As(err, &status) {
		switch int(status) {
		case 403:
			return fmt.Errorf("%w: %v", ErrForbidden, err)
		case 404:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

var filenameCleaner = regexp.MustCompile(`[^a-zA-Z0-9 \-_()]`)

// BuildFilename derives the upload filename from the video title. The title
// is reduced to a safe character set and truncated so the full name, video id
// suffix included, stays within the 128-character filename ceiling.
func BuildFilename(title, videoID string) string {
	clean := strings.TrimSpace(filenameCleaner.ReplaceAllString(title, ""))
	if clean == "" {
		clean = "audio"
	}

	suffix := " (" + videoID + ")" + fileExtension
	if max := maxFilenameLength - len(suffix); len(clean) > max {
		clean = strings.TrimSpace(clean[:max])
	}
	return clean + suffix
}

package uploader

import (
	"errors"

	"github.com/tonielift/tonielift/internal/infrastructure/youtube"
)

// MapFetchError translates remote-audio fetch failures into the pipeline's
// taxonomy. Everything the fetcher classifies maps to a 400-class outcome;
// only unclassified faults fall through to an internal error.
func MapFetchError(err error) *Error {
	switch {
	case errors.Is(err, youtube.ErrInvalidURL):
		return newError(KindInvalidSourceURL, "Invalid video URL", err.Error())
	case errors.Is(err, youtube.ErrLiveContent),
		errors.Is(err, youtube.ErrPrivateVideo),
		errors.Is(err, youtube.ErrAgeRestricted),
		errors.Is(err, youtube.ErrUnavailable),
		errors.Is(err, youtube.ErrForbidden),
		errors.Is(err, youtube.ErrNotFound):
		return newError(KindSourceUnavailable, "Video unavailable", err.Error())
	case errors.Is(err, youtube.ErrDownloadTimeout):
		return newError(KindSourceUnavailable, "Download timed out", err.Error())
	case errors.Is(err, youtube.ErrDownloadTooLarge):
		return newError(KindSourceUnavailable, "Download exceeded the size limit", err.Error())
	default:
		return newError(KindInternal, "Internal error", err.Error())
	}
}

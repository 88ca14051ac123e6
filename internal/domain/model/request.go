package model

import (
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/target/mediafetch/internal/errors"
)

// Format is the container or audio codec requested by the client.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type Format string

const (
	FormatMP4  Format = "mp4"
	FormatWebM Format = "webm"
	FormatMP3  Format = "mp3"
	FormatM4A  Format = "m4a"
	FormatWAV  Format = "wav"

	// DefaultFormat is used when a submission omits the format.
	DefaultFormat = FormatMP4
)

// Valid returns true if the format is supported.
func (f Format) Valid() bool {
	switch f {
	case FormatMP4, FormatWebM, FormatMP3, FormatM4A, FormatWAV:
		return true
	default:
		return false
	}
}

// IsAudio reports whether the format requests audio extraction.
func (f Format) IsAudio() bool {
	return f == FormatMP3 || f == FormatM4A || f == FormatWAV
}

// UnmarshalText implements encoding.TextUnmarshaler so formats can be read from JSON and env.
func (f *Format) UnmarshalText(text []byte) error {
	v := Format(strings.ToLower(strings.TrimSpace(string(text))))
	if v == "" {
		*f = ""
		return nil
	}
	if !v.Valid() {
		return fmt.Errorf("invalid format: %q", v)
	}
	*f = v
	return nil
}

// Quality is the maximum video height requested by the client, or "best".
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type Quality string

const (
	QualityBest  Quality = "best"
	Quality1080p Quality = "1080"
	Quality720p  Quality = "720"
	Quality480p  Quality = "480"
	Quality360p  Quality = "360"

	// DefaultQuality is used when a submission omits the quality.
	DefaultQuality = QualityBest
)

// Valid returns true if the quality is supported.
func (q Quality) Valid() bool {
	switch q {
	case QualityBest, Quality1080p, Quality720p, Quality480p, Quality360p:
		return true
	default:
		return false
	}
}

// UnmarshalText implements encoding.TextUnmarshaler; a trailing "p" is accepted ("720p").
func (q *Quality) UnmarshalText(text []byte) error {
	v := Quality(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(string(text))), "p"))
	if v == "" {
		*q = ""
		return nil
	}
	if !v.Valid() {
		return fmt.Errorf("invalid quality: %q", v)
	}
	*q = v
	return nil
}

// SubmitRequest is a client request to fetch and transcode one remote media URL.
type SubmitRequest struct {
	URL     string  `json:"url"`
	Format  Format  `json:"format,omitempty"`
	Quality Quality `json:"quality,omitempty"`
}

// Normalize trims the URL and fills in default format and quality.
func (r *SubmitRequest) Normalize() {
	r.URL = strings.TrimSpace(r.URL)
	if r.Format == "" {
		r.Format = DefaultFormat
	}
	if r.Quality == "" {
		r.Quality = DefaultQuality
	}
}

// Validate checks the request. Errors are validation AppErrors carrying the offending field.
func (r *SubmitRequest) Validate() error {
	if r.URL == "" {
		return apperrors.ValidationField("url", "URL is required")
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return apperrors.ValidationField("url", "URL must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return apperrors.ValidationField("url", "URL must use http or https scheme")
	}
	if u.Host == "" {
		return apperrors.ValidationField("url", "URL must have a valid host")
	}
	if !r.Format.Valid() {
		return apperrors.ValidationField("format", fmt.Sprintf("format %q is not supported", r.Format))
	}
	if !r.Quality.Valid() {
		return apperrors.ValidationField("quality", fmt.Sprintf("quality %q is not supported", r.Quality))
	}
	return nil
}

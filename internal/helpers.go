package internal

import (
	"net/url"
	"strings"
)

// DefaultContentType is used when the extension is unknown or missing.
const DefaultContentType = "application/octet-stream"

var contentTypes = map[string]string{
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"pdf":  "application/pdf",
	"mp4":  "video/mp4",
	"webm": "video/webm",
}

// ContentType maps the extension of filename (the text after the last dot,
// case-insensitive) to a MIME type.
func ContentType(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx == -1 {
		return DefaultContentType
	}

	ext := strings.ToLower(filename[idx+1:])
	if t, ok := contentTypes[ext]; ok {
		return t
	}
	return DefaultContentType
}

// LastPathSegment returns the percent-decoded text after the last "/" of uri.
// A segment that cannot be decoded is returned as-is.
func LastPathSegment(uri string) string {
	s := uri[strings.LastIndex(uri, "/")+1:]

	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

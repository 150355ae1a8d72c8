package filesystem

import (
	"context"
	"io"
	"time"
)

// Entry is one file or directory a backend lists.
type Entry struct {
	Path    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Backend abstracts where the music files actually live: a local
// directory, an SMB share, a WebDAV endpoint or an FTP server all present
// the same listing/open surface, so the provider's scan and tag logic is
// written once. Only the read surface a music library needs is modelled;
// uploads and deletes stay out.
type Backend interface {
	// Kind names the backend flavour (local, smb, webdav, ftp), reported
	// as part of the provider domain.
	Kind() string

	// List returns the directory's immediate entries.
	List(ctx context.Context, dir string) ([]Entry, error)

	// Open streams a file's contents.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Close releases the backend's connection state.
	Close() error
}

// audioExtensions are the container types the scanner picks up; tag
// parsing handles each of them via dhowden/tag.
var audioExtensions = map[string]string{
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".m4b":  "audio/mp4",
	".ogg":  "audio/ogg",
	".opus": "audio/opus",
	".wav":  "audio/wav",
	".aiff": "audio/aiff",
}

// losslessExtensions marks which containers score as lossless.
var losslessExtensions = map[string]bool{
	".flac": true,
	".wav":  true,
	".aiff": true,
}

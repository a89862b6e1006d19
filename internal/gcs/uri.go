package gcs

import (
	"fmt"
	"path"
	"strings"
)

const scheme = "gs://"

// URI names an object as gs://bucket/path/to/object.
type URI struct {
	Bucket string
	Object string
}

// IsURI reports whether s uses the gs:// scheme.
func IsURI(s string) bool {
	return strings.HasPrefix(s, scheme)
}

// ParseURI splits a gs:// URI into bucket and object.
func ParseURI(s string) (URI, error) {
	if !IsURI(s) {
		return URI{}, fmt.Errorf("invalid GCS URI: %s", s)
	}
	parts := strings.SplitN(strings.TrimPrefix(s, scheme), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return URI{}, fmt.Errorf("invalid GCS URI (no object path): %s", s)
	}
	return URI{Bucket: parts[0], Object: parts[1]}, nil
}

// FileName returns the last path element of the object.
// e.g., "gs://bucket/folder/file.pdf" -> "file.pdf"
func (u URI) FileName() string {
	return path.Base(u.Object)
}

// Join returns a URI for name under u treated as a prefix.
func (u URI) Join(name string) URI {
	return URI{Bucket: u.Bucket, Object: path.Join(u.Object, name)}
}

func (u URI) String() string {
	return scheme + u.Bucket + "/" + u.Object
}

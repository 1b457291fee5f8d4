// Package media stores product images on a remote media host.
package media

import (
	"context"
	"path"
	"regexp"
	"strings"
)

// ResizeTransformation is injected into every stored product image URL.
const ResizeTransformation = "c_fit,h_500,w_500"

// Uploader takes a local file path and returns the hosted URL.
type Uploader interface {
	Upload(ctx context.Context, filePath, folder string) (string, error)
	Destroy(ctx context.Context, url string) error
}

// ApplyTransformation rewrites every "upload/" segment of a delivery URL so the
// host serves the transformed rendition.
func ApplyTransformation(url, transformation string) string {
	return strings.ReplaceAll(url, "upload/", "upload/"+transformation+"/")
}

var versionSegment = regexp.MustCompile(`^v\d+$`)

// PublicIDFromURL extracts the asset id (folder/name without extension) from a
// delivery URL such as
// https://res.cloudinary.com/demo/image/upload/c_fit,h_500,w_500/v17/Images/abc.jpg
func PublicIDFromURL(url string) string {
	idx := strings.Index(url, "/upload/")
	if idx < 0 {
		return ""
	}
	segments := strings.Split(url[idx+len("/upload/"):], "/")

	start := 0
	for i, s := range segments {
		if versionSegment.MatchString(s) {
			start = i + 1
			break
		}
	}
	if start == 0 {
		for start < len(segments)-1 && isTransformation(segments[start]) {
			start++
		}
	}

	id := strings.Join(segments[start:], "/")
	return strings.TrimSuffix(id, path.Ext(id))
}

func isTransformation(segment string) bool {
	if strings.Contains(segment, ",") {
		return true
	}
	return (len(segment) > 2 && segment[1] == '_') || (len(segment) > 3 && segment[2] == '_')
}

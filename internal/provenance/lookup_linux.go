package provenance

import (
	"context"
	"strings"

	"golang.org/x/sys/unix"
)

// Extended attributes written by browsers and file managers following
// the freedesktop.org conventions.
const (
	xattrOriginURL   = "user.xdg.origin.url"
	xattrReferrerURL = "user.xdg.referrer.url"
	xattrTags        = "user.xdg.tags"
)

func lookup(_ context.Context, path string) (Metadata, error) {
	var meta Metadata
	if origin := readXattr(path, xattrOriginURL); origin != "" {
		meta.SourceURLs = append(meta.SourceURLs, origin)
	}
	if referrer := readXattr(path, xattrReferrerURL); referrer != "" {
		meta.SourceURLs = append(meta.SourceURLs, referrer)
	}
	if tags := readXattr(path, xattrTags); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				meta.Tags = append(meta.Tags, tag)
			}
		}
	}
	return meta, nil
}

func readXattr(path, name string) string {
	buf := make([]byte, 1024)
	n, err := unix.Getxattr(path, name, buf)
	if err != nil || n <= 0 {
		return ""
	}
	return strings.TrimSpace(string(buf[:n]))
}

package rules

import (
	"path"
	"sort"
	"strings"
)

var extensionMimeTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"heic": "image/heic",
	"heif": "image/heif",
	"webp": "image/webp",
	"gif":  "image/gif",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"bmp":  "image/bmp",
	"dng":  "image/x-adobe-dng",
}

// MimeTypeForExtension maps a file extension (without dot) to its MIME type, falling back to image/<ext>.
func MimeTypeForExtension(ext string) string {
	ext = normalizeExtension(ext)
	if m, ok := extensionMimeTypes[ext]; ok {
		return m
	}
	return "image/" + ext
}

// Extension returns the lowercase extension of name without the dot, or "" when there is none.
func Extension(name string) string {
	ext := path.Ext(name)
	if ext == "" || ext == "." {
		return ""
	}
	return strings.ToLower(ext[1:])
}

func normalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

func allowedSets(allowed []string) ([]string, []string) {
	exts := make([]string, 0, len(allowed))
	seenExt := map[string]bool{}
	seenMime := map[string]bool{}
	mimes := []string{}

	for _, a := range allowed {
		ext := normalizeExtension(a)
		if ext == "" || seenExt[ext] {
			continue
		}
		seenExt[ext] = true
		exts = append(exts, ext)

		m := MimeTypeForExtension(ext)
		if !seenMime[m] {
			seenMime[m] = true
			mimes = append(mimes, m)
		}
	}

	sort.Strings(mimes)
	return exts, mimes
}

func normalizeMimeType(m string) string {
	m = strings.ToLower(strings.TrimSpace(m))
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	return m
}

package workflow

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmallet/capgen/internal/api"
)

// MaxUploadSize matches the service-side limit.
const MaxUploadSize = 10 << 20 // 10MB

// allowedMIMEs maps accepted content types to their canonical form.
// image/jpg is a common mislabel the service also accepts.
var allowedMIMEs = map[string]string{
	"image/jpeg": "image/jpeg",
	"image/jpg":  "image/jpeg",
	"image/png":  "image/png",
	"image/gif":  "image/gif",
}

// ImageDraft is a validated candidate for submission. Drafts are replaced
// wholesale on each new upload, never partially mutated.
type ImageDraft struct {
	Path string
	Name string
	MIME string
	Size int64
	Data []byte
}

// Upload converts the draft to the API payload.
func (d *ImageDraft) Upload() api.Upload {
	return api.Upload{Name: d.Name, MIME: d.MIME, Data: d.Data}
}

// RejectedError is a local validation failure. No network was involved
// and any previously accepted draft is untouched.
type RejectedError struct {
	Path   string
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Validate checks a candidate file and produces a draft from it.
// Only JPEG, PNG and GIF images up to MaxUploadSize are accepted; the
// type is resolved from the file extension first and sniffed from the
// content when the extension is unknown.
func Validate(path string) (*ImageDraft, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &RejectedError{Path: path, Reason: "file not found"}
	}
	if info.IsDir() {
		return nil, &RejectedError{Path: path, Reason: "is a directory"}
	}
	if info.Size() > MaxUploadSize {
		return nil, &RejectedError{Path: path, Reason: "file too large, max size is 10MB"}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &RejectedError{Path: path, Reason: fmt.Sprintf("unreadable: %v", err)}
	}

	mimeType := declaredMIME(path)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	canonical, ok := allowedMIMEs[mimeType]
	if !ok {
		return nil, &RejectedError{Path: path, Reason: "please upload only .jpg, .png or .gif files"}
	}

	return &ImageDraft{
		Path: path,
		Name: filepath.Base(path),
		MIME: canonical,
		Size: info.Size(),
		Data: data,
	}, nil
}

// declaredMIME resolves the type from the file extension, stripping any
// parameters. Empty when the extension is unknown.
func declaredMIME(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return ""
	}
	mt := mime.TypeByExtension(ext)
	if mt == "" {
		return ""
	}
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = mt[:i]
	}
	return strings.TrimSpace(mt)
}

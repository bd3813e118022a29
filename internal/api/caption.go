package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// Upload is the payload for one caption generation request.
type Upload struct {
	Name string
	MIME string
	Data []byte
}

// UploadResult mirrors the service's upload response. Warning is set when
// the model could not confidently caption the image; Caption may then be
// empty. An empty caption without a warning is still a success.
type UploadResult struct {
	Message    string  `json:"message"`
	ImageURL   string  `json:"image_url"`
	Caption    string  `json:"caption"`
	Confidence float64 `json:"confidence"`
	Warning    string  `json:"warning"`
	CaptionID  *int64  `json:"caption_id"`
}

// GenerateCaption uploads an image as the multipart field "file" and
// returns the service's caption result. The token is optional; guests
// send none and the service enforces its own quota.
func (c *Client) GenerateCaption(ctx context.Context, token string, up Upload) (*UploadResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	// CreateFormFile would tag the part application/octet-stream; the
	// service validates the declared image content type, so build the
	// part headers by hand.
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(up.Name)))
	hdr.Set("Content-Type", up.MIME)

	part, err := w.CreatePart(hdr)
	if err != nil {
		return nil, fmt.Errorf("create multipart field: %w", err)
	}
	if _, err := part.Write(up.Data); err != nil {
		return nil, fmt.Errorf("write image bytes: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/caption/upload", token, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var result UploadResult
	if err := c.doJSON(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

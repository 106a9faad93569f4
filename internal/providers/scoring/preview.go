package scoring

import (
	"context"
	"encoding/base64"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/GriffinCanCode/ecoswipe/internal/types"
	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// PreviewSource says where a card image came from
type PreviewSource string

const (
	SourceProxy       PreviewSource = "proxy"
	SourceExtract     PreviewSource = "extract"
	SourceDirect      PreviewSource = "direct"
	SourcePlaceholder PreviewSource = "placeholder"
)

// maxPreviewBytes caps proxied images
const maxPreviewBytes = 2 << 20

// Preview is a displayable card image or a text placeholder
type Preview struct {
	URL         string        `json:"url,omitempty"`
	Source      PreviewSource `json:"source"`
	Placeholder string        `json:"placeholder,omitempty"`
}

// HasImage reports whether the preview carries an image
func (p Preview) HasImage() bool {
	return p.URL != ""
}

// Preview finds an image for alt on a best-effort basis. Image candidates
// are the alternative's own image, else whatever /extract-image finds on its
// page; a candidate is inlined through /image-proxy when possible. Every
// failure falls through to a one-letter placeholder.
func (c *Client) Preview(ctx context.Context, alt types.Alternative) Preview {
	candidate := strings.TrimSpace(alt.Image)

	if candidate == "" && alt.URL != "" {
		dataURL, image := c.extractImage(ctx, alt.URL)
		if dataURL != "" {
			return Preview{URL: dataURL, Source: SourceExtract}
		}
		candidate = image
	}

	if candidate != "" {
		if strings.HasPrefix(candidate, "data:") {
			return Preview{URL: candidate, Source: SourceDirect}
		}
		if dataURL := c.proxyImage(ctx, candidate); dataURL != "" {
			return Preview{URL: dataURL, Source: SourceProxy}
		}
		return Preview{URL: candidate, Source: SourceDirect}
	}

	return Preview{Source: SourcePlaceholder, Placeholder: placeholder(alt.Name)}
}

func (c *Client) extractImage(ctx context.Context, pageURL string) (dataURL, image string) {
	body, ok := c.get(ctx, "extract-image", "/extract-image", pageURL)
	if !ok {
		return "", ""
	}

	var payload struct {
		ImageDataURL string `json:"image_data_url"`
		Image        string `json:"image"`
	}
	if err := sonic.ConfigStd.Unmarshal(body, &payload); err != nil {
		return "", ""
	}
	return payload.ImageDataURL, payload.Image
}

func (c *Client) proxyImage(ctx context.Context, imageURL string) string {
	body, ok := c.get(ctx, "image-proxy", "/image-proxy", imageURL)
	if !ok || len(body) == 0 || len(body) > maxPreviewBytes {
		return ""
	}

	mtype := mimetype.Detect(body)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return ""
	}
	return "data:" + mtype.String() + ";base64," + base64.StdEncoding.EncodeToString(body)
}

// get performs a best-effort helper GET; failures are only logged
func (c *Client) get(ctx context.Context, op, path, target string) ([]byte, bool) {
	base, err := c.resolver.Resolve(ctx)
	if err != nil {
		return nil, false
	}

	req, err := c.http.Request(ctx)
	if err != nil {
		return nil, false
	}

	resp, err := req.SetQueryParam("url", target).Get(base + path)
	if err != nil || !resp.IsSuccess() {
		c.log.Debug("preview helper failed", zap.String("op", op), zap.String("target", target), zap.Error(err))
		return nil, false
	}
	return resp.Body(), true
}

func placeholder(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "?"
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r))
}

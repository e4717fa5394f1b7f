// Package service wraps the external collaborators the pipeline talks
// to: the hosted image service and the audit event broker.
package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/disintegration/imaging"
)

// uploadFolder is the fixed namespace all profile images live under on
// the host.
const uploadFolder = "user-profiles"

// ImageHost is the contract the pipeline needs from the hosting
// service. Upload may legitimately return an empty URL, which callers
// treat as a soft success.
type ImageHost interface {
	Upload(ctx context.Context, img []byte) (string, error)
	Destroy(ctx context.Context, publicID string) error
}

// CloudinaryHost implements ImageHost against Cloudinary.
type CloudinaryHost struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryHost(cloudName, apiKey, apiSecret string) (*CloudinaryHost, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &CloudinaryHost{cld: cld}, nil
}

// Upload normalizes the raw bytes, fits the image inside 512x512
// preserving aspect ratio, re-encodes it as JPEG at quality 75 and
// streams it to the host. The secure URL of the hosted asset is
// returned; an empty URL from the host is passed through unchanged.
func (h *CloudinaryHost) Upload(ctx context.Context, img []byte) (string, error) {
	optimized, err := Compress(img)
	if err != nil {
		return "", err
	}
	res, err := h.cld.Upload.Upload(ctx, bytes.NewReader(optimized), uploader.UploadParams{
		Folder: uploadFolder,
	})
	if err != nil {
		return "", fmt.Errorf("image upload: %w", err)
	}
	return res.SecureURL, nil
}

// Destroy removes a previously hosted asset by public id.
func (h *CloudinaryHost) Destroy(ctx context.Context, publicID string) error {
	_, err := h.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	return err
}

// Compress decodes arbitrary image bytes, fits them within 512x512 and
// re-encodes as JPEG quality 75.
func Compress(img []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("image decode: %w", err)
	}
	resized := imaging.Fit(src, 512, 512, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(75)); err != nil {
		return nil, fmt.Errorf("image encode: %w", err)
	}
	return buf.Bytes(), nil
}

// PublicIDFromURL derives the host-side public id of an asset from the
// last path segment of its URL, the way the upload namespace assigns
// them. Returns "" when the URL has no usable segment.
func PublicIDFromURL(url string) string {
	parts := strings.Split(url, "/")
	fileName := parts[len(parts)-1]
	if fileName == "" {
		return ""
	}
	publicID := strings.SplitN(fileName, ".", 2)[0]
	if publicID == "" {
		return ""
	}
	return uploadFolder + "/" + publicID
}

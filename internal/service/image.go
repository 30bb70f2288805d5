package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// MaxImageBytes caps decoded recipe images.
const MaxImageBytes = 5 << 20

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// DecodedImage is an inline image payload taken apart.
type DecodedImage struct {
	Data        []byte
	ContentType string
	Ext         string
}

// DecodeImage parses a "data:image/<type>;base64,<payload>" URI.
func DecodeImage(payload string) (*DecodedImage, error) {
	header, body, ok := strings.Cut(payload, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, &ValidationError{Kind: InvalidImage, Field: "image"}
	}
	contentType := strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64"))
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, &ValidationError{Kind: InvalidImage, Field: "image"}
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(body))
	if err != nil || len(data) == 0 || len(data) > MaxImageBytes {
		return nil, &ValidationError{Kind: InvalidImage, Field: "image"}
	}
	return &DecodedImage{Data: data, ContentType: contentType, Ext: ext}, nil
}

// resolveImage turns the image field of a write payload into the URL stored
// on the recipe. Inline payloads are uploaded to store; absolute http(s) URLs
// are kept as given.
func resolveImage(ctx context.Context, store ImageStore, payload string) (string, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", &ValidationError{Kind: MissingField, Field: "image"}
	}
	if strings.HasPrefix(payload, "data:") {
		img, err := DecodeImage(payload)
		if err != nil {
			return "", err
		}
		if store == nil {
			return "", fmt.Errorf("no image store configured")
		}
		location, err := store.Save(ctx, img.Data, img.ContentType, img.Ext)
		if err != nil {
			return "", fmt.Errorf("failed to store image: %w", err)
		}
		return location, nil
	}
	u, err := url.Parse(payload)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", &ValidationError{Kind: InvalidImage, Field: "image"}
	}
	return payload, nil
}

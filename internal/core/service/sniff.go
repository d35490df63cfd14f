package service

import (
	"bytes"
	"strings"
)

type imageType struct {
	ext  string
	mime string
}

var (
	imageJPEG = imageType{ext: "jpg", mime: "image/jpeg"}
	imagePNG  = imageType{ext: "png", mime: "image/png"}
	imageGIF  = imageType{ext: "gif", mime: "image/gif"}
	imageWEBP = imageType{ext: "webp", mime: "image/webp"}
)

// detectImage identifies the allowed image formats from their magic bytes.
func detectImage(head []byte) (imageType, bool) {
	switch {
	case len(head) > 3 && head[0] == 0xff && head[1] == 0xd8 && head[2] == 0xff:
		return imageJPEG, true
	case bytes.HasPrefix(head, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}):
		return imagePNG, true
	case bytes.HasPrefix(head, []byte("GIF87a")) || bytes.HasPrefix(head, []byte("GIF89a")):
		return imageGIF, true
	case len(head) >= 12 && bytes.Equal(head[:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WEBP")):
		return imageWEBP, true
	}
	return imageType{}, false
}

// declaredMIME strips parameters from a Content-Type value and folds the
// common image/jpg alias.
func declaredMIME(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType == "image/jpg" || contentType == "image/pjpeg" {
		return imageJPEG.mime
	}
	return contentType
}

package media

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
)

var ErrNotImage = errors.New("file is not a supported image")

// Uploader stores business images and returns their public URL.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, filename string) (string, error)
	Delete(ctx context.Context, url string) error
}

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// sniff reads the first bytes of file to check it is an image and returns the
// canonical extension together with a reader that still yields the whole file.
func sniff(file io.Reader) (string, io.Reader, error) {
	br := bufio.NewReaderSize(file, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", nil, err
	}

	contentType := http.DetectContentType(head)
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	ext, ok := allowedTypes[contentType]
	if !ok {
		return "", nil, ErrNotImage
	}
	return ext, br, nil
}

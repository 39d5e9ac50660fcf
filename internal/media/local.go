package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalUploader writes images under Root and serves them from BaseURL,
// e.g. Root "./media", BaseURL "/media".
type LocalUploader struct {
	Root    string
	BaseURL string
}

func NewLocalUploader(root, baseURL string) (*LocalUploader, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &LocalUploader{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (l *LocalUploader) Upload(ctx context.Context, file io.Reader, filename string) (string, error) {
	ext, body, err := sniff(file)
	if err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(l.Root, name))
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}

	if _, err := io.Copy(dst, body); err != nil {
		dst.Close()
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("write media file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close media file: %w", err)
	}

	return l.BaseURL + "/" + name, nil
}

// Delete removes a file previously returned by Upload. URLs outside BaseURL
// are ignored.
func (l *LocalUploader) Delete(ctx context.Context, url string) error {
	name, ok := strings.CutPrefix(url, l.BaseURL+"/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) {
		return nil
	}
	if err := os.Remove(filepath.Join(l.Root, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove media file: %w", err)
	}
	return nil
}

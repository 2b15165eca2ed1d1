package animation

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"github.com/mcdev12/recognizer/go/clients"
)

// Loader resolves the src of a start message into an image
type Loader interface {
	Load(ctx context.Context, src string) (image.Image, error)
}

// NewLoader picks an HTTP loader for URL roots and a file loader otherwise.
// timeout bounds each HTTP fetch, zero keeps the client default.
func NewLoader(root string, timeout time.Duration) Loader {
	if strings.HasPrefix(root, "http://") || strings.HasPrefix(root, "https://") {
		client := clients.NewBaseClient(root)
		client.SetHeader("Accept", "image/*")
		if timeout > 0 {
			client.SetTimeout(timeout)
		}
		return NewHTTPLoader(client)
	}
	return NewFileLoader(os.DirFS(root))
}

// FileLoader reads images from a file system rooted at the asset directory
type FileLoader struct {
	fsys fs.FS
}

func NewFileLoader(fsys fs.FS) *FileLoader {
	return &FileLoader{fsys: fsys}
}

func (l *FileLoader) Load(_ context.Context, src string) (image.Image, error) {
	name := cleanAssetPath(src)
	f, err := l.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open asset %s: %w", name, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode asset %s: %w", name, err)
	}
	return img, nil
}

// HTTPLoader fetches images relative to the page host
type HTTPLoader struct {
	client *clients.BaseClient
}

func NewHTTPLoader(client *clients.BaseClient) *HTTPLoader {
	return &HTTPLoader{client: client}
}

func (l *HTTPLoader) Load(ctx context.Context, src string) (image.Image, error) {
	body, err := l.client.Get(ctx, cleanAssetPath(src))
	if err != nil {
		return nil, fmt.Errorf("fetch asset %s: %w", src, err)
	}

	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode asset %s: %w", src, err)
	}
	return img, nil
}

// cleanAssetPath keeps src inside the asset root
func cleanAssetPath(src string) string {
	return strings.TrimPrefix(path.Clean("/"+src), "/")
}

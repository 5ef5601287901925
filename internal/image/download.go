package imagepkg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/youruser/dexlabel/internal/util"
)

// maxImageBytes caps a single downloaded image.
const maxImageBytes = 10 << 20

// Source produces one decoded image.
type Source func(ctx context.Context) (image.Image, error)

// Loader fetches and decodes images from URLs or local paths.
type Loader struct {
	client  *retryablehttp.Client
	timeout time.Duration
	log     *slog.Logger
}

// NewLoader creates a Loader. timeout bounds every individual source run
// through Start; zero means no per-asset deadline.
func NewLoader(client *retryablehttp.Client, timeout time.Duration, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{client: client, timeout: timeout, log: log}
}

// Fetch returns a Source for ref. http and https refs are downloaded; anything
// else is read from the local filesystem. Failures are *LoadError values
// carrying ref.
func (l *Loader) Fetch(ref string) Source {
	return func(ctx context.Context) (image.Image, error) {
		var (
			img image.Image
			err error
		)
		if isRemote(ref) {
			img, err = l.download(ctx, ref)
		} else {
			img, err = DecodeFile(ref)
		}
		if err != nil {
			return nil, &LoadError{Ref: ref, Err: err}
		}
		return img, nil
	}
}

func (l *Loader) download(ctx context.Context, url string) (image.Image, error) {
	body, err := util.GetBytes(ctx, l.client, url, maxImageBytes)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return img, nil
}

// DecodeFile reads and decodes an image file.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := imaging.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

package imagepkg

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/youruser/dexlabel/internal/util"
)

func testPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestLoader(timeout time.Duration) *Loader {
	client := util.NewHTTPClient(util.ClientOptions{Timeout: 2 * time.Second})
	return NewLoader(client, timeout, nil)
}

func staticSource(img image.Image) Source {
	return func(ctx context.Context) (image.Image, error) { return img, nil }
}

func TestStartJoinsAllSources(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "fire.png")
	require.NoError(t, os.WriteFile(path, testPNG(t, 10, 4, color.White), 0o644))

	l := newTestLoader(time.Second)
	p := l.Start(context.Background(), Group{
		"badge:fire": l.Fetch(path),
		"qr":         QR("https://example.com/cry.mp3", 80),
		"sprite":     staticSource(image.NewNRGBA(image.Rect(0, 0, 96, 96))),
	})
	assets, err := p.Wait(context.Background())
	require.NoError(t, err)
	require.Len(t, assets, 3)
	assert.Equal(t, 10, assets["badge:fire"].Bounds().Dx())
	assert.GreaterOrEqual(t, assets["qr"].Bounds().Dx(), 80)
}

func TestStartSurfacesLoadError(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := newTestLoader(time.Second)
	missing := filepath.Join(t.TempDir(), "missing.png")
	p := l.Start(context.Background(), Group{
		"badge:ghost": l.Fetch(missing),
		"sprite":      staticSource(image.NewNRGBA(image.Rect(0, 0, 1, 1))),
	})
	assets, err := p.Wait(context.Background())
	require.Error(t, err)
	assert.Nil(t, assets)
	assert.True(t, errors.Is(err, ErrImageLoad))

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "badge:ghost", le.Key)
	assert.Equal(t, missing, le.Ref)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "load badge:ghost from "+missing)
}

func TestStartAppliesAssetTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	hang := func(ctx context.Context) (image.Image, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	l := newTestLoader(20 * time.Millisecond)
	_, err := l.Start(context.Background(), Group{"sprite": hang}).Wait(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrImageLoad))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestNilImageIsAFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := newTestLoader(time.Second)
	_, err := l.Start(context.Background(), Group{"qr": staticSource(nil)}).Wait(context.Background())
	assert.True(t, errors.Is(err, ErrImageLoad))
}

func TestFetchRemote(t *testing.T) {
	body := testPNG(t, 96, 96, color.NRGBA{R: 255, A: 255})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sprite.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer srv.Close()

	l := newTestLoader(time.Second)
	img, err := l.Fetch(srv.URL + "/sprite.png")(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 96, img.Bounds().Dy())

	_, err = l.Fetch(srv.URL + "/nope.png")(context.Background())
	var se *util.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, srv.URL+"/nope.png", le.Ref)
}

func TestGenerateQRPNG(t *testing.T) {
	b, err := GenerateQRPNG("https://example.com", 200)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())

	_, err = GenerateQRPNG("", 200)
	assert.ErrorContains(t, err, `qr for ""`)
}

func TestScaleToWidthKeepsAspect(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 96, 48))
	out := ScaleToWidth(src, 220)
	assert.Equal(t, 220, out.Bounds().Dx())
	assert.Equal(t, 110, out.Bounds().Dy())

	sq := ScaleSquare(image.NewNRGBA(image.Rect(0, 0, 41, 41)), 80)
	assert.Equal(t, image.Rect(0, 0, 80, 80), sq.Bounds())
}

func TestDropShadowFollowsAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	src.Set(10, 10, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	shadow, pad := DropShadow(src, Shadow{Color: color.NRGBA{A: 128}})
	assert.Equal(t, 0, pad)
	assert.Equal(t, uint8(128), shadow.NRGBAAt(10, 10).A)
	assert.Equal(t, uint8(0), shadow.NRGBAAt(0, 0).A)
	assert.Equal(t, uint8(0), shadow.NRGBAAt(10, 10).R)

	blurred, pad := DropShadow(src, Shadow{Color: color.NRGBA{A: 255}, Sigma: 2})
	assert.Equal(t, 6, pad)
	assert.Equal(t, 20+2*pad, blurred.Bounds().Dx())
	assert.Greater(t, blurred.NRGBAAt(10+pad+1, 10+pad).A, uint8(0))
}

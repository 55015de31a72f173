package uploads

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"careersite/internal/database/dbtest"
	"careersite/internal/storage"
)

type memObjects struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = b
	m.types[key] = contentType
	return nil
}

func (m *memObjects) Open(_ context.Context, key string) (io.ReadCloser, storage.ObjectMeta, error) {
	b, ok := m.objects[key]
	if !ok {
		return nil, storage.ObjectMeta{}, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), storage.ObjectMeta{Key: key, Size: int64(len(b)), ContentType: m.types[key]}, nil
}

func (m *memObjects) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://objects.example.invalid/" + key, nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

type fakeCounter struct {
	hits map[string]int64
	err  error
}

func (f *fakeCounter) Hit(_ context.Context, key string, _ time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.hits == nil {
		f.hits = map[string]int64{}
	}
	f.hits[key]++
	return f.hits[key], nil
}

type infectedScanner struct{}

func (infectedScanner) Scan(context.Context, []byte) error { return ErrInfected }

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 16, G: 185, B: 129, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(w, h)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, solid(w, h), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func gifBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := gif.Encode(&buf, solid(w, h), nil); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	return buf.Bytes()
}

func TestPrepareAcceptsImages(t *testing.T) {
	p := Processor{MaxBytes: 1 << 20, MaxWidth: 100}

	cases := []struct {
		name string
		data []byte
		ct   string
		ext  string
	}{
		{"png", pngBytes(t, 20, 10), "image/png", ".png"},
		{"jpeg", jpegBytes(t, 20, 10), "image/jpeg", ".jpg"},
		{"gif", gifBytes(t, 20, 10), "image/gif", ".gif"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := p.Prepare(tc.data)
			if err != nil {
				t.Fatalf("prepare: %v", err)
			}
			if got.ContentType != tc.ct || got.Ext != tc.ext || got.Resized {
				t.Fatalf("prepared = %+v", got)
			}
			if got.Width != 20 || got.Height != 10 {
				t.Fatalf("size = %dx%d", got.Width, got.Height)
			}
		})
	}
}

func TestPrepareDownscalesWideImages(t *testing.T) {
	p := Processor{MaxBytes: 4 << 20, MaxWidth: 100}

	got, err := p.Prepare(jpegBytes(t, 400, 200))
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if !got.Resized || got.Width != 100 || got.Height != 50 {
		t.Fatalf("prepared = %dx%d resized=%v", got.Width, got.Height, got.Resized)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(got.Data))
	if err != nil || cfg.Width != 100 {
		t.Fatalf("re-encoded image = %+v, %v", cfg, err)
	}

	wideGIF, err := p.Prepare(gifBytes(t, 400, 10))
	if err != nil {
		t.Fatalf("prepare gif: %v", err)
	}
	if wideGIF.Resized || wideGIF.Width != 400 {
		t.Fatalf("gif must be stored as sent: %+v", wideGIF)
	}
}

func TestPrepareRejects(t *testing.T) {
	p := Processor{MaxBytes: 64}

	if _, err := p.Prepare(nil); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("empty: err = %v", err)
	}
	if _, err := p.Prepare([]byte(strings.Repeat("a", 65))); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("large: err = %v", err)
	}
	if _, err := p.Prepare([]byte("%PDF-1.4 not an image")); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("pdf: err = %v", err)
	}
	truncated := pngBytes(t, 4, 4)[:16]
	if _, err := (Processor{}).Prepare(truncated); !errors.Is(err, ErrCorruptImage) {
		t.Fatalf("truncated: err = %v", err)
	}
}

func newTestService(t *testing.T) (*Service, *memObjects) {
	t.Helper()
	objects := newMemObjects()
	return &Service{
		Objects:   objects,
		Assets:    NewGormAssetStore(dbtest.Open(t)),
		Processor: Processor{MaxBytes: 1 << 20, MaxWidth: 1200},
		Scanner:   NopScanner{},
	}, objects
}

func TestUploadStoresObjectAndRecord(t *testing.T) {
	ctx := context.Background()
	svc, objects := newTestService(t)

	file, err := svc.Upload(ctx, 7, `C:\photos\team.png`, bytes.NewReader(pngBytes(t, 8, 8)))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(file.URL, "/uploads/7/") || !strings.HasSuffix(file.Filename, ".png") {
		t.Fatalf("file = %+v", file)
	}
	key := storage.KeyFromPublicPath(file.URL)
	if objects.types[key] != "image/png" {
		t.Fatalf("stored type = %q", objects.types[key])
	}
	asset, err := svc.Assets.FindByKey(ctx, key)
	if err != nil || asset.Filename != "team.png" || asset.RecruiterID != 7 {
		t.Fatalf("asset = %+v, %v", asset, err)
	}

	rc, meta, err := svc.Open(ctx, key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rc.Close()
	if meta.ContentType != "image/png" {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestUploadLimitsByCount(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	svc.MaxAssetsPerRecruiter = 2

	for i := 0; i < 2; i++ {
		if _, err := svc.Upload(ctx, 1, "a.png", bytes.NewReader(pngBytes(t, 2, 2))); err != nil {
			t.Fatalf("upload %d: %v", i, err)
		}
	}
	if _, err := svc.Upload(ctx, 1, "a.png", bytes.NewReader(pngBytes(t, 2, 2))); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}
	if _, err := svc.Upload(ctx, 2, "a.png", bytes.NewReader(pngBytes(t, 2, 2))); err != nil {
		t.Fatalf("other recruiter blocked: %v", err)
	}
}

func TestUploadDailyRateLimit(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	svc.MaxUploadsPerDay = 1
	svc.Counter = &fakeCounter{}

	if _, err := svc.Upload(ctx, 1, "a.png", bytes.NewReader(pngBytes(t, 2, 2))); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if _, err := svc.Upload(ctx, 1, "a.png", bytes.NewReader(pngBytes(t, 2, 2))); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}

	svc.Counter = &fakeCounter{err: errors.New("redis down")}
	if _, err := svc.Upload(ctx, 1, "a.png", bytes.NewReader(pngBytes(t, 2, 2))); err != nil {
		t.Fatalf("counter failure must not block uploads: %v", err)
	}
}

func TestUploadRejectsInfectedAndOversized(t *testing.T) {
	ctx := context.Background()
	svc, objects := newTestService(t)
	svc.Scanner = infectedScanner{}

	if _, err := svc.Upload(ctx, 1, "a.png", bytes.NewReader(pngBytes(t, 2, 2))); !errors.Is(err, ErrInfected) {
		t.Fatalf("err = %v, want ErrInfected", err)
	}
	if len(objects.objects) != 0 {
		t.Fatalf("infected file stored")
	}

	svc.Scanner = nil
	svc.Processor.MaxBytes = 10
	if _, err := svc.Upload(ctx, 1, "a.png", bytes.NewReader(pngBytes(t, 8, 8))); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
}

func TestDeleteChecksOwnership(t *testing.T) {
	ctx := context.Background()
	svc, objects := newTestService(t)
	file, err := svc.Upload(ctx, 7, "a.png", bytes.NewReader(pngBytes(t, 2, 2)))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	key := storage.KeyFromPublicPath(file.URL)

	if err := svc.Delete(ctx, 8, key); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other owner: err = %v, want ErrForbidden", err)
	}
	if err := svc.Delete(ctx, 7, "uploads/7/missing.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: err = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, 7, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := objects.objects[key]; ok {
		t.Fatalf("object not removed")
	}
	if _, _, err := svc.Open(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("open deleted: err = %v", err)
	}
}

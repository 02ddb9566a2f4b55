package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"mime"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"darkwave/pkg/storage"
	"darkwave/pkg/store"
)

// Built-in placeholders, used when the config lists none.
var (
	DefaultImagePlaceholders = []string{"/placeholder.svg"}
	DefaultFilePlaceholder   = "/placeholder-file.svg"
)

// PlaceholderNotice is shown to users when a placeholder replaced an upload.
const PlaceholderNotice = "using placeholder image"

// File is one upload.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Result is the outcome of one upload. URL is never empty.
type Result struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Placeholder bool   `json:"placeholder"`
}

// Options configures an Uploader.
type Options struct {
	ImagePlaceholders []string
	FilePlaceholder   string
	// Concurrency bounds UploadMany. Defaults to 4.
	Concurrency int
	// Timeout bounds each upload. Defaults to 30s.
	Timeout time.Duration
	Logger  *slog.Logger
	Now     func() time.Time
	// Pick returns a number in [0, n). Defaults to math/rand/v2.
	Pick func(n int) int
}

// Uploader sends files to one bucket and falls back to placeholders.
type Uploader struct {
	objects     storage.ObjectStore
	images      []string
	file        string
	concurrency int
	timeout     time.Duration
	logger      *slog.Logger
	now         func() time.Time
	pick        func(n int) int

	bucketMu    sync.Mutex
	bucketReady bool
	lastStamp   atomic.Int64
}

// New builds an uploader. A nil store makes every upload a placeholder.
func New(objects storage.ObjectStore, opts Options) *Uploader {
	images := make([]string, 0, len(opts.ImagePlaceholders))
	for _, u := range opts.ImagePlaceholders {
		if u = strings.TrimSpace(u); u != "" {
			images = append(images, u)
		}
	}
	if len(images) == 0 {
		images = append(images, DefaultImagePlaceholders...)
	}
	file := strings.TrimSpace(opts.FilePlaceholder)
	if file == "" {
		file = DefaultFilePlaceholder
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Pick == nil {
		opts.Pick = rand.IntN
	}
	return &Uploader{
		objects:     objects,
		images:      images,
		file:        file,
		concurrency: opts.Concurrency,
		timeout:     opts.Timeout,
		logger:      opts.Logger,
		now:         opts.Now,
		pick:        opts.Pick,
	}
}

// UploadOne uploads f and returns its URL, or a placeholder URL on failure.
func (u *Uploader) UploadOne(ctx context.Context, f File) string {
	return u.Upload(ctx, f).URL
}

// Upload uploads f. On any failure the result carries a placeholder.
func (u *Uploader) Upload(ctx context.Context, f File) Result {
	res := Result{Name: f.Name}
	url, err := u.upload(ctx, f)
	if err != nil {
		class := storage.Classify(err)
		if class == store.ClassMissing {
			u.forgetBucket()
		}
		res.URL = u.placeholder(f)
		res.Placeholder = true
		u.logger.Warn("upload failed, using placeholder",
			"file", f.Name,
			"class", string(class),
			"err", err,
			"placeholder", res.URL,
		)
		return res
	}
	res.URL = url
	return res
}

// UploadMany uploads every file concurrently. A failed upload does not stop
// the others. Results are in input order.
func (u *Uploader) UploadMany(ctx context.Context, files []File) []Result {
	results := make([]Result, len(files))
	g := new(errgroup.Group)
	g.SetLimit(u.concurrency)
	for i, f := range files {
		g.Go(func() error {
			results[i] = u.Upload(ctx, f)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// URLs returns the URL of every result.
func URLs(results []Result) []string {
	urls := make([]string, len(results))
	for i, r := range results {
		urls[i] = r.URL
	}
	return urls
}

func (u *Uploader) upload(ctx context.Context, f File) (string, error) {
	if u.objects == nil {
		return "", storage.ErrUnavailable
	}
	if f.Body == nil {
		return "", fmt.Errorf("file %q has no body", f.Name)
	}
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()
	if err := u.ensureBucket(ctx); err != nil {
		return "", err
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return u.objects.Upload(ctx, u.objectKey(f.Name), f.Body, f.Size, contentType)
}

// ensureBucket creates the bucket public when it is missing. Once it has
// succeeded it is not checked again until an upload reports the bucket gone.
func (u *Uploader) ensureBucket(ctx context.Context) error {
	u.bucketMu.Lock()
	defer u.bucketMu.Unlock()
	if u.bucketReady {
		return nil
	}
	ok, err := u.objects.BucketExists(ctx)
	if err != nil {
		return err
	}
	if !ok {
		if err := u.objects.CreateBucket(ctx, true); err != nil {
			return err
		}
		u.logger.Info("created media bucket")
	}
	u.bucketReady = true
	return nil
}

// forgetBucket makes the next upload check the bucket again.
func (u *Uploader) forgetBucket() {
	u.bucketMu.Lock()
	u.bucketReady = false
	u.bucketMu.Unlock()
}

// objectKey is "<unix-millis>-<sanitized name>". The stamp is strictly
// increasing within one uploader, so files with the same name in one batch
// get different keys.
func (u *Uploader) objectKey(name string) string {
	stamp := u.now().UnixMilli()
	for {
		last := u.lastStamp.Load()
		if stamp <= last {
			stamp = last + 1
		}
		if u.lastStamp.CompareAndSwap(last, stamp) {
			break
		}
	}
	clean := sanitizeFilename(filepath.Base(name))
	if clean == "" {
		clean = "upload"
	}
	return fmt.Sprintf("%d-%s", stamp, clean)
}

func (u *Uploader) placeholder(f File) string {
	if !isImage(f) {
		return u.file
	}
	return u.images[u.pick(len(u.images))]
}

func isImage(f File) bool {
	if strings.HasPrefix(strings.ToLower(f.ContentType), "image/") {
		return true
	}
	ext := strings.ToLower(filepath.Ext(f.Name))
	if ext == "" {
		return false
	}
	return strings.HasPrefix(mime.TypeByExtension(ext), "image/")
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(name))
	lastUnderscore := false
	for _, r := range name {
		if r <= 0x7f {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
				b.WriteRune(r)
				lastUnderscore = false
				continue
			}
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

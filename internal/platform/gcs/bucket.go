package gcs

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/yungbote/rolodex-backend/internal/platform/logger"
)

// BucketService is the avatar object store. Objects are public-read;
// the returned URL is persisted on the user row.
type BucketService interface {
	UploadFile(ctx context.Context, key string, file io.Reader) error
	DeleteFile(ctx context.Context, key string) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	GetPublicURL(key string) string
}

type bucketConfig struct {
	name      string
	cdnDomain string
}

type bucketService struct {
	log          *logger.Logger
	client       *storage.Client
	bucket       bucketConfig
	emulatorHost string
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")

	bucketName := strings.TrimSpace(os.Getenv("AVATAR_GCS_BUCKET_NAME"))
	if bucketName == "" {
		return nil, fmt.Errorf("missing env var AVATAR_GCS_BUCKET_NAME")
	}
	cdnDomain := strings.TrimSpace(os.Getenv("AVATAR_CDN_DOMAIN"))
	emulatorHost := strings.TrimRight(strings.TrimSpace(os.Getenv("STORAGE_EMULATOR_HOST")), "/")

	var opts []option.ClientOption
	if emulatorHost != "" {
		opts = append(opts, option.WithoutAuthentication())
	} else {
		if credFile := strings.TrimSpace(os.Getenv("GCS_CREDENTIALS_FILE")); credFile != "" {
			opts = append(opts, option.WithCredentialsFile(credFile))
		}
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	}

	client, err := storage.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info(
		"Object storage initialized",
		"bucket", bucketName,
		"cdn_domain", cdnDomain,
		"emulator_host", emulatorHost,
	)

	return &bucketService{
		log:          serviceLog,
		client:       client,
		bucket:       bucketConfig{name: bucketName, cdnDomain: cdnDomain},
		emulatorHost: emulatorHost,
	}, nil
}

func (bs *bucketService) UploadFile(ctx context.Context, key string, file io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.client.Bucket(bs.bucket.name).Object(key).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close writer for %q: %w", key, err)
	}
	return nil
}

func (bs *bucketService) DeleteFile(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	o := bs.client.Bucket(bs.bucket.name).Object(key)
	if err := o.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete object %q in bucket %q: %w", key, bs.bucket.name, err)
	}
	return nil
}

func (bs *bucketService) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	it := bs.client.Bucket(bs.bucket.name).Objects(ctx, &storage.Query{Prefix: prefix})
	out := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, attrs.Name)
	}
	return out, nil
}

func (bs *bucketService) GetPublicURL(key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if bs.bucket.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", bs.bucket.cdnDomain, key)
	}
	if bs.emulatorHost != "" {
		return fmt.Sprintf(
			"%s/storage/v1/b/%s/o/%s?alt=media",
			bs.emulatorHost,
			url.PathEscape(bs.bucket.name),
			url.PathEscape(key),
		)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.bucket.name, key)
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".webp"):
		return "image/webp"
	case strings.HasSuffix(s, ".gif"):
		return "image/gif"
	default:
		return ""
	}
}

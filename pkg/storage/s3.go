package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

const (
	// MaxCreativeFileSize is the maximum allowed creative upload (200MB; panel videos are large).
	MaxCreativeFileSize = 200 * 1024 * 1024
	// FolderCreatives is the S3 prefix for creative library objects.
	FolderCreatives = "creatives"
	// FolderDeliveries is the S3 prefix for files delivered against a campaign.
	FolderDeliveries = "deliveries"
)

// Allowed creative MIME types and extensions.
var (
	AllowedCreativeTypes = map[string]string{
		"image/jpeg":      ".jpg",
		"image/jpg":       ".jpg",
		"image/png":       ".png",
		"image/webp":      ".webp",
		"image/gif":       ".gif",
		"video/mp4":       ".mp4",
		"video/quicktime": ".mov",
		"video/webm":      ".webm",
	}
	AllowedCreativeExtensions = map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".webp": "image/webp",
		".gif":  "image/gif",
		".mp4":  "video/mp4",
		".mov":  "video/quicktime",
		".webm": "video/webm",
	}
)

// S3Config holds S3 client configuration.
type S3Config struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	Endpoint             string // optional, for S3-compatible stores (R2, MinIO)
	MediaBucket          string
	PublicBaseURL        string // optional CDN base for public object URLs
	PresignExpireMinutes int
}

// S3 provides creative storage: uploads, presigned URLs and downloads for validation.
type S3 struct {
	client   *s3.Client
	uploader *manager.Uploader
	cfg      S3Config
	logger   *zap.Logger
}

// NewS3 creates an S3 client using credentials from config or the environment
// (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY), falling back to the default chain.
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	accessKey := cfg.AccessKeyID
	secretKey := cfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "",
		)))
		logger.Info("S3 client using static credentials", zap.String("region", cfg.Region), zap.String("media_bucket", cfg.MediaBucket))
	} else {
		logger.Warn("S3 client using default credential chain (AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY not set)")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 8 * 1024 * 1024
	})
	return &S3{
		client:   client,
		uploader: uploader,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// ValidateCreativeFileType returns true if the content type or extension is an allowed creative.
func ValidateCreativeFileType(contentType, filename string) bool {
	if contentType != "" {
		if _, ok := AllowedCreativeTypes[strings.ToLower(contentType)]; ok {
			return true
		}
	}
	ext := strings.ToLower(path.Ext(filename))
	if ext != "" {
		if _, ok := AllowedCreativeExtensions[ext]; ok {
			return true
		}
	}
	return false
}

// ContentTypeFor picks the declared content type when it is allowed, otherwise the one
// implied by the filename extension.
func ContentTypeFor(declared, filename string) string {
	if declared != "" {
		if _, ok := AllowedCreativeTypes[strings.ToLower(declared)]; ok {
			return strings.ToLower(declared)
		}
	}
	ext := strings.ToLower(path.Ext(filename))
	if ct, ok := AllowedCreativeExtensions[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// IsVideoContentType reports whether ct is a video MIME type.
func IsVideoContentType(ct string) bool {
	return strings.HasPrefix(strings.ToLower(ct), "video/")
}

// CreativeKey returns the object key for a library creative: creatives/{media_id}{ext}.
func CreativeKey(mediaID, filename string) string {
	return path.Join(FolderCreatives, mediaID+strings.ToLower(path.Ext(filename)))
}

// DeliveryKey returns the object key for a campaign delivery: deliveries/{quote_id}/{filename}.
func DeliveryKey(quoteID, filename string) string {
	return path.Join(FolderDeliveries, quoteID, path.Base(filename))
}

// MediaBucket returns the creative bucket name.
func (s *S3) MediaBucket() string { return s.cfg.MediaBucket }

// PresignExpire returns the configured presign duration.
func (s *S3) PresignExpire() time.Duration {
	if s.cfg.PresignExpireMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.cfg.PresignExpireMinutes) * time.Minute
}

// GeneratePresignedUploadURL returns a pre-signed PUT URL for direct upload into the media bucket.
func (s *S3) GeneratePresignedUploadURL(ctx context.Context, key, contentType string) (string, error) {
	presignClient := s3.NewPresignClient(s.client)
	req, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.MediaBucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.PresignExpire()
	})
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}
	return req.URL, nil
}

// GeneratePresignedDownloadURL returns a pre-signed GET URL for a media object.
func (s *S3) GeneratePresignedDownloadURL(ctx context.Context, key string) (string, error) {
	presignClient := s3.NewPresignClient(s.client)
	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.MediaBucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.PresignExpire()
	})
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

// ObjectURL returns the public URL for a media object.
func (s *S3) ObjectURL(key string) string {
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.MediaBucket, s.cfg.Region, key)
}

// Upload streams body into the media bucket and returns the object URL.
func (s *S3) Upload(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error) {
	var contentLengthPtr *int64
	if contentLength > 0 {
		contentLengthPtr = &contentLength
	}
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.MediaBucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: contentLengthPtr,
	})
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	s.logger.Debug("creative uploaded", zap.String("key", key), zap.String("content_type", contentType))
	return s.ObjectURL(key), nil
}

// HeadObject returns the object's content type and size.
func (s *S3) HeadObject(ctx context.Context, key string) (contentType string, size int64, err error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.MediaBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", 0, fmt.Errorf("head object: %w", err)
	}
	return aws.ToString(out.ContentType), aws.ToInt64(out.ContentLength), nil
}

// GetObjectStream returns the object body and content type. Caller must close the body.
func (s *S3) GetObjectStream(ctx context.Context, key string) (body io.ReadCloser, contentType string, err error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.MediaBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("get object: %w", err)
	}
	return out.Body, aws.ToString(out.ContentType), nil
}

// DownloadToTemp copies an object into a temporary file and returns its path and content type.
// The caller removes the file.
func (s *S3) DownloadToTemp(ctx context.Context, key string) (string, string, error) {
	body, contentType, err := s.GetObjectStream(ctx, key)
	if err != nil {
		return "", "", err
	}
	defer body.Close()

	f, err := os.CreateTemp("", "creative-*"+strings.ToLower(path.Ext(key)))
	if err != nil {
		return "", "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", "", fmt.Errorf("download object: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", "", fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), contentType, nil
}

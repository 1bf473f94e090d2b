package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"pilot-progress-system/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// MaxImageSize caps artifact image uploads.
const MaxImageSize = 5 << 20

var ErrUnsupportedImage = errors.New("unsupported image")

var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
}

// ObjectPutter is the part of the S3 client the store needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// R2Store puts artifact images into a Cloudflare R2 bucket through the S3 API.
type R2Store struct {
	Client     ObjectPutter
	Bucket     string
	CDNBaseURL string
}

func NewR2Store(ctx context.Context, cfg config.R2Config) (*R2Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	cdn := cfg.CDNBaseURL
	if cdn == "" {
		cdn = endpoint + "/" + cfg.Bucket
	}
	return &R2Store{Client: client, Bucket: cfg.Bucket, CDNBaseURL: cdn}, nil
}

// ArtifactImageKey builds the object key for an artifact image, e.g.
// "artifacts/golden-compass-<uuid>.png".
func ArtifactImageKey(title, ext string) string {
	name := slug.Make(title)
	if name == "" {
		name = "artifact"
	}
	return fmt.Sprintf("artifacts/%s-%s%s", name, uuid.NewString(), ext)
}

// UploadArtifactImage uploads a multipart image and returns its public URL.
func (s *R2Store) UploadArtifactImage(ctx context.Context, fileHeader *multipart.FileHeader, title string) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	contentType, ok := imageTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: extension %q", ErrUnsupportedImage, ext)
	}
	if fileHeader.Size > MaxImageSize {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrUnsupportedImage, fileHeader.Size, MaxImageSize)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, io.LimitReader(file, MaxImageSize+1)); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if buf.Len() > MaxImageSize {
		return "", fmt.Errorf("%w: file exceeds %d bytes", ErrUnsupportedImage, MaxImageSize)
	}

	key := ArtifactImageKey(title, ext)
	_, err = s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}
	return fmt.Sprintf("%s/%s", s.CDNBaseURL, key), nil
}

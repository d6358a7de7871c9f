// Package blobsrc opens the files users attach to file fields. A source is
// a local path, a file:// URI or an s3://bucket/key object.
package blobsrc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	ErrUnsupportedScheme = errors.New("unsupported source scheme")
	ErrContentType       = errors.New("file type not allowed")
	ErrTooLarge          = errors.New("file too large")
	ErrS3NotConfigured   = errors.New("s3 source not configured")
)

// Blob is an opened attachment. The caller closes Body.
type Blob struct {
	Name        string
	ContentType string
	// Size is -1 when unknown.
	Size int64
	Body io.ReadCloser
}

// Opener opens a blob by URI.
type Opener interface {
	Open(ctx context.Context, uri string) (*Blob, error)
}

// S3API is the subset of the S3 client used here.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config configures the s3:// source. Empty credentials fall back to the
// default AWS credential chain.
type S3Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) S3API {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// NewS3Client builds an S3 client from cfg.
func NewS3Client(ctx context.Context, cfg S3Config) (S3API, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Source opens local files and, when an S3 client is set, s3 objects.
type Source struct {
	s3 S3API
}

// New returns a Source. s3c may be nil to disable s3:// URIs.
func New(s3c S3API) *Source {
	return &Source{s3: s3c}
}

func (s *Source) Open(ctx context.Context, uri string) (*Blob, error) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Bare paths, including Windows drive letters.
		return openFile(uri)
	}

	switch u.Scheme {
	case "file":
		return openFile(u.Path)
	case "s3":
		return s.openS3(ctx, u.Host, strings.TrimPrefix(u.Path, "/"))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
}

func openFile(p string) (*Blob, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%s is a directory", p)
	}

	ct, err := sniff(f, filepath.Ext(p))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Blob{Name: filepath.Base(p), ContentType: ct, Size: st.Size(), Body: f}, nil
}

// sniff detects the content type from the first bytes, falling back to the
// extension, and rewinds f.
func sniff(f *os.File, ext string) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	ct := http.DetectContentType(head[:n])
	if strings.HasPrefix(ct, "application/octet-stream") || strings.HasPrefix(ct, "text/plain") {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			ct = byExt
		}
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	return ct, nil
}

func (s *Source) openS3(ctx context.Context, bucket, key string) (*Blob, error) {
	if s.s3 == nil {
		return nil, ErrS3NotConfigured
	}
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("s3 uri needs bucket and key: s3://%s/%s", bucket, key)
	}

	out, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}

	ct := aws.ToString(out.ContentType)
	if ct == "" {
		ct = mime.TypeByExtension(path.Ext(key))
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	size := int64(-1)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return &Blob{Name: path.Base(key), ContentType: ct, Size: size, Body: out.Body}, nil
}

// Check enforces a field's allowed content types and size limit. An empty
// accept list and a zero limit disable the respective check.
func Check(b *Blob, accept []string, maxBytes int64) error {
	if len(accept) > 0 && !slices.Contains(accept, b.ContentType) {
		return fmt.Errorf("%w: %s is %s", ErrContentType, b.Name, b.ContentType)
	}
	if maxBytes > 0 && b.Size > maxBytes {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, b.Name, b.Size, maxBytes)
	}
	return nil
}

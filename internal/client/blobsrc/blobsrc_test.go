package blobsrc

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func TestOpen_LocalFile(t *testing.T) {
	src := New(nil)

	p := writeFile(t, "logo.png", pngHeader)
	b, err := src.Open(context.Background(), p)
	require.NoError(t, err)
	defer b.Body.Close()
	assert.Equal(t, "logo.png", b.Name)
	assert.Equal(t, "image/png", b.ContentType)
	assert.Equal(t, int64(len(pngHeader)), b.Size)

	data, err := io.ReadAll(b.Body)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data, "body rewound after sniffing")

	pdf := writeFile(t, "flyer.pdf", []byte("%PDF-1.4\n%âãÏÓ\n"))
	b2, err := src.Open(context.Background(), "file://"+pdf)
	require.NoError(t, err)
	defer b2.Body.Close()
	assert.Equal(t, "application/pdf", b2.ContentType)
}

func TestOpen_Errors(t *testing.T) {
	src := New(nil)

	_, err := src.Open(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = src.Open(context.Background(), "ftp://host/file.png")
	require.ErrorIs(t, err, ErrUnsupportedScheme)

	_, err = src.Open(context.Background(), "s3://bucket/key.png")
	require.ErrorIs(t, err, ErrS3NotConfigured)

	_, err = src.Open(context.Background(), t.TempDir())
	require.Error(t, err)
}

type fakeS3 struct {
	S3API

	bucket, key string
	out         *s3.GetObjectOutput
	err         error
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket, f.key = aws.ToString(in.Bucket), aws.ToString(in.Key)
	return f.out, f.err
}

func TestOpen_S3(t *testing.T) {
	fake := &fakeS3{out: &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader("img")),
		ContentType:   aws.String("image/jpeg; charset=binary"),
		ContentLength: aws.Int64(3),
	}}
	src := New(fake)

	b, err := src.Open(context.Background(), "s3://media/sliders/hero.jpg")
	require.NoError(t, err)
	assert.Equal(t, "media", fake.bucket)
	assert.Equal(t, "sliders/hero.jpg", fake.key)
	assert.Equal(t, "hero.jpg", b.Name)
	assert.Equal(t, "image/jpeg", b.ContentType)
	assert.Equal(t, int64(3), b.Size)

	fake.err = errors.New("NoSuchKey")
	_, err = src.Open(context.Background(), "s3://media/none.jpg")
	require.ErrorContains(t, err, "NoSuchKey")

	_, err = src.Open(context.Background(), "s3://media")
	require.Error(t, err)
}

func TestNewS3Client(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	var region string
	var static bool
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		region = lo.Region
		static = lo.Credentials != nil
		return aws.Config{}, nil
	}
	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) S3API {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &fakeS3{}
	}

	c, err := NewS3Client(context.Background(), S3Config{
		Region: "eu-west-1", Endpoint: "http://127.0.0.1:9000", AccessKey: "minio", SecretKey: "secret",
	})
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "eu-west-1", region)
	assert.True(t, static)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)

	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}
	_, err = NewS3Client(context.Background(), S3Config{Region: "us-east-1"})
	require.ErrorContains(t, err, "no config")
}

func TestCheck(t *testing.T) {
	img := []string{"image/jpeg", "image/png"}
	b := &Blob{Name: "a.png", ContentType: "image/png", Size: 10}

	require.NoError(t, Check(b, img, 100))
	require.NoError(t, Check(b, nil, 0))
	require.ErrorIs(t, Check(b, img, 5), ErrTooLarge)
	require.ErrorIs(t, Check(&Blob{Name: "a.pdf", ContentType: "application/pdf"}, img, 0), ErrContentType)
}

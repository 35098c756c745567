package resume

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	apperrors "github.com/spigell/jobmatch/internal/errors"
)

// S3Options configure access to résumés stored in S3-compatible storage.
// Empty keys fall back to the default AWS credential chain.
type S3Options struct {
	Endpoint     string `mapstructure:"endpoint"`
	Region       string `mapstructure:"region"`
	AccessKey    string `mapstructure:"access-key" json:"-"`
	SecretKey    string `mapstructure:"secret-key" json:"-"`
	UsePathStyle bool   `mapstructure:"use-path-style"`
}

type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Loader reads résumé documents from local paths or s3://bucket/key URIs.
type Loader struct {
	opts   S3Options
	client objectGetter
}

func NewLoader(opts S3Options) *Loader {
	return &Loader{opts: opts}
}

func (l *Loader) Load(ctx context.Context, location string) (Document, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return Document{}, apperrors.InvalidInput("resume location is empty", nil)
	}

	if strings.HasPrefix(location, "s3://") {
		return l.loadS3(ctx, location)
	}

	data, err := os.ReadFile(location)
	if err != nil {
		return Document{}, apperrors.Extraction(fmt.Sprintf("reading %s", location), err)
	}

	return Document{Name: filepath.Base(location), Data: data}, nil
}

func (l *Loader) loadS3(ctx context.Context, location string) (Document, error) {
	bucket, key, err := parseS3URI(location)
	if err != nil {
		return Document{}, apperrors.InvalidInput(fmt.Sprintf("parsing %s", location), err)
	}

	client, err := l.s3Client(ctx)
	if err != nil {
		return Document{}, apperrors.Internal("configuring s3 client", err)
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Document{}, apperrors.Extraction(fmt.Sprintf("downloading %s", location), err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, out.Body); err != nil {
		return Document{}, apperrors.Extraction(fmt.Sprintf("reading %s", location), err)
	}

	return Document{
		Name: path.Base(key),
		MIME: aws.ToString(out.ContentType),
		Data: buf.Bytes(),
	}, nil
}

func (l *Loader) s3Client(ctx context.Context) (objectGetter, error) {
	if l.client != nil {
		return l.client, nil
	}

	var loadOpts []func(*config.LoadOptions) error
	if region := strings.TrimSpace(l.opts.Region); region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	if l.opts.AccessKey != "" && l.opts.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(l.opts.AccessKey, l.opts.SecretKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("error creating aws config: %w", err)
	}

	l.client = s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if endpoint := strings.TrimSpace(l.opts.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = l.opts.UsePathStyle
	})

	return l.client, nil
}

func parseS3URI(location string) (string, string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", err
	}

	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("expected s3://bucket/key")
	}

	return u.Host, key, nil
}

// Package publish copies finished renders to object storage.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	googleopt "google.golang.org/api/option"
)

var ErrBadDestination = errors.New("bad destination")

// Destination is a parsed "gs://bucket/prefix" or "s3://bucket/prefix".
type Destination struct {
	Scheme string
	Bucket string
	Prefix string
}

func (d Destination) String() string {
	if d.Prefix == "" {
		return fmt.Sprintf("%s://%s", d.Scheme, d.Bucket)
	}
	return fmt.Sprintf("%s://%s/%s", d.Scheme, d.Bucket, d.Prefix)
}

// Key is the object name a file called name is stored under.
func (d Destination) Key(name string) string {
	return path.Join(d.Prefix, name)
}

func ParseDestination(s string) (Destination, error) {
	scheme, rest, ok := strings.Cut(s, "://")
	if !ok {
		return Destination{}, fmt.Errorf("%w %q: missing scheme", ErrBadDestination, s)
	}
	if scheme != "gs" && scheme != "s3" {
		return Destination{}, fmt.Errorf("%w %q: scheme must be gs or s3", ErrBadDestination, s)
	}

	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Destination{}, fmt.Errorf("%w %q: missing bucket", ErrBadDestination, s)
	}

	return Destination{
		Scheme: scheme,
		Bucket: bucket,
		Prefix: strings.Trim(prefix, "/"),
	}, nil
}

// Publisher stores named blobs.
type Publisher interface {
	Upload(ctx context.Context, name string, r io.Reader) error
}

// GCSPublisher uploads to a Google Cloud Storage bucket.
type GCSPublisher struct {
	gcs  *storage.Client
	dest Destination
}

func NewGCSPublisher(gcs *storage.Client, dest Destination) *GCSPublisher {
	return &GCSPublisher{gcs: gcs, dest: dest}
}

func (p *GCSPublisher) Upload(ctx context.Context, name string, r io.Reader) error {
	w := p.gcs.Bucket(p.dest.Bucket).Object(p.dest.Key(name)).NewWriter(ctx)
	w.ContentType = mime.TypeByExtension(filepath.Ext(name))

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("while writing object: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("while closing object writer: %w", err)
	}

	return nil
}

// S3Publisher uploads to an Amazon S3 bucket.
type S3Publisher struct {
	uploader *s3manager.Uploader
	dest     Destination
}

func NewS3Publisher(sess *session.Session, dest Destination) *S3Publisher {
	return &S3Publisher{uploader: s3manager.NewUploader(sess), dest: dest}
}

func (p *S3Publisher) Upload(ctx context.Context, name string, r io.Reader) error {
	input := &s3manager.UploadInput{
		Bucket: aws.String(p.dest.Bucket),
		Key:    aws.String(p.dest.Key(name)),
		Body:   r,
	}
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := p.uploader.UploadWithContext(ctx, input); err != nil {
		return fmt.Errorf("while uploading object: %w", err)
	}

	return nil
}

// New connects to the storage service that dest names.  gcsOpts only apply
// to gs:// destinations; S3 takes its settings from the usual AWS
// environment and shared config.
func New(ctx context.Context, dest Destination, gcsOpts ...googleopt.ClientOption) (Publisher, error) {
	switch dest.Scheme {
	case "gs":
		gcs, err := storage.NewClient(ctx, gcsOpts...)
		if err != nil {
			return nil, fmt.Errorf("while creating GCS client: %w", err)
		}
		return NewGCSPublisher(gcs, dest), nil
	case "s3":
		sess, err := session.NewSessionWithOptions(session.Options{
			SharedConfigState: session.SharedConfigEnable,
		})
		if err != nil {
			return nil, fmt.Errorf("while creating AWS session: %w", err)
		}
		return NewS3Publisher(sess, dest), nil
	}
	return nil, fmt.Errorf("%w: unsupported scheme %q", ErrBadDestination, dest.Scheme)
}

// PublishFiles uploads every file in files, at most concurrency at a time.
// Files are stored under their base names.
func PublishFiles(ctx context.Context, p Publisher, files []string, concurrency int64) error {
	tracer := otel.Tracer("row-major/lenscast/publish")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "PublishFiles")
	defer span.End()

	if concurrency < 1 {
		concurrency = 1
	}

	// Use errgroup and semaphore to limit concurrency.
	eg, ctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(concurrency)

	for _, file := range files {
		file := file

		if err := sem.Acquire(ctx, 1); err != nil {
			// The group's context was cancelled by a failed upload; Wait
			// reports that failure.
			break
		}

		eg.Go(func() error {
			defer sem.Release(1)
			return publishFile(ctx, p, file)
		})
	}

	if err := eg.Wait(); err != nil {
		err = fmt.Errorf("while waiting for completion of errgroup: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func publishFile(ctx context.Context, p Publisher, file string) error {
	tracer := otel.Tracer("row-major/lenscast/publish")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "publishFile")
	defer span.End()

	span.SetAttributes(attribute.String("file", file))

	f, err := os.Open(file)
	if err != nil {
		err = fmt.Errorf("while opening %q: %w", file, err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer f.Close()

	if err := p.Upload(ctx, filepath.Base(file), f); err != nil {
		err = fmt.Errorf("while publishing %q: %w", file, err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	glog.Infof("Published %s", file)
	return nil
}

package library

import (
	"context"
	"image"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// PutObjectAPI is the part of the S3 client used for uploads.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client builds an S3 client from the default AWS credential chain.
func NewS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}
	return s3.NewFromConfig(cfg), nil
}

// S3 uploads each saved image as a new object.
type S3 struct {
	client PutObjectAPI
	bucket string
	prefix string
	enc    Encoding
	log    logrus.FieldLogger
	last   string
}

// NewS3 returns a saver uploading to bucket under prefix.
func NewS3(client PutObjectAPI, bucket, prefix string, enc Encoding, log logrus.FieldLogger) *S3 {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &S3{client: client, bucket: bucket, prefix: prefix, enc: enc, log: log}
}

// LastPath returns the s3:// URL of the most recent successful upload.
func (s *S3) LastPath() string { return s.last }

// Save encodes img and uploads it.
func (s *S3) Save(ctx context.Context, img image.Image) error {
	buf, err := encodeToBuffer(s.enc, img)
	if err != nil {
		return err
	}
	key := path.Join(s.prefix, newName(s.enc.Ext))
	size := buf.Len()
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          buf,
		ContentLength: aws.Int64(int64(size)),
		ContentType:   aws.String(s.enc.contentType()),
	})
	if err != nil {
		return mapS3Error(err, s.bucket, key)
	}
	s.last = "s3://" + s.bucket + "/" + key
	s.log.WithFields(logrus.Fields{"path": s.last, "bytes": size}).Info("uploaded to library")
	return nil
}

var deniedCodes = map[string]bool{
	"AccessDenied":          true,
	"AllAccessDisabled":     true,
	"InvalidAccessKeyId":    true,
	"SignatureDoesNotMatch": true,
}

func mapS3Error(err error, bucket, key string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && deniedCodes[apiErr.ErrorCode()] {
		return errors.Wrapf(ErrPermission, "s3://%s/%s: %s", bucket, key, apiErr.ErrorCode())
	}
	return errors.Wrapf(err, "upload s3://%s/%s", bucket, key)
}

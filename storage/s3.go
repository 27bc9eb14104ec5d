package storage

import (
	"bytes"
	"context"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// NewS3 returns a storage that writes logs locally and mirrors them to
// bucketName under prefix.
func NewS3(local Base, bucketName, prefix string) (Base, error) {
	var configs []func(*config.LoadOptions) error

	// Used by the test suite
	if val, ok := os.LookupEnv("PUSHCI_S3_ENDPOINT"); ok {
		configs = append(configs, config.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               val,
				HostnameImmutable: true,
				PartitionID:       "aws",
			}, nil
		})))
	}
	cfg, err := config.LoadDefaultConfig(context.Background(), configs...)
	if err != nil {
		return nil, err
	}
	s3Client := s3.NewFromConfig(cfg)

	_, err = s3Client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: &bucketName,
	})
	if err != nil {
		return nil, err
	}

	l := S3Storage{
		Base:       local,
		log:        zap.L().With(zap.String("facility", "s3-storage")),
		bucketName: aws.String(bucketName),
		prefix:     prefix,
		uploader:   manager.NewUploader(s3Client),
	}
	l.log.Info("Initialized S3 Storage adapter", zap.String("bucket_name", bucketName))
	return l, nil
}

type S3Storage struct {
	Base
	log        *zap.Logger
	bucketName *string
	prefix     string
	uploader   uploader
}

func (s S3Storage) key(name string) string {
	return path.Join(s.prefix, name)
}

func (s S3Storage) Store(name string, data []byte) error {
	if err := s.Base.Store(name, data); err != nil {
		return err
	}

	key := s.key(name)
	s.log.Info("Uploading log to S3",
		zap.String("key", key),
		zap.Stringp("bucket", s.bucketName))

	_, err := s.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket:      s.bucketName,
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	return err
}

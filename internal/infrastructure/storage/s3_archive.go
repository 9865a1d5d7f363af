package storage

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	appconfig "damage-vision/config"
	"damage-vision/internal/domain/port"
)

// S3Archive архив загруженных файлов и отчётов в S3-совместимом хранилище.
type S3Archive struct {
	client *s3.Client
	bucket string
	log    *zap.Logger
}

// NewS3Archive создаёт архив по конфигурации. Поддерживаются S3-совместимые
// хранилища через кастомный endpoint.
func NewS3Archive(cfg appconfig.ArchiveConfig, log *zap.Logger) (*S3Archive, error) {
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			return aws.Endpoint{
				URL:               cfg.Endpoint,
				HostnameImmutable: true,
				Source:            aws.EndpointSourceCustom,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithEndpointResolverWithOptions(customResolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &S3Archive{
		client: client,
		bucket: cfg.BucketName,
		log:    log,
	}, nil
}

// Put сохраняет объект в архив
func (a *S3Archive) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})

	if err != nil {
		a.log.Error("Failed to upload file to S3",
			zap.String("key", key),
			zap.Error(err))
		return err
	}

	a.log.Info("File uploaded to S3",
		zap.String("key", key),
		zap.Int("size", len(data)))

	return nil
}

// Проверка реализации интерфейса
var _ port.ArchiveStore = (*S3Archive)(nil)

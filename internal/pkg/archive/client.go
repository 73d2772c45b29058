package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/OnlyOne/app/models"
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Client uploads finished webhook events to S3 before they are pruned
type Client struct {
	s3     objectPutter
	config *Config
	now    func() time.Time
}

// NewClient creates the archive client
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, errors.New("event archive is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	log.Infof("[Archive] S3 archive enabled for bucket: %s", cfg.BucketName)
	return &Client{s3: s3Client, config: cfg, now: time.Now}, nil
}

// ArchiveEvents writes events as one JSON-lines object and returns its key.
func (c *Client) ArchiveEvents(ctx context.Context, events []models.WebhookEvent) (string, error) {
	if len(events) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range events {
		if err := enc.Encode(&events[i]); err != nil {
			return "", fmt.Errorf("encode event %s: %w", events[i].EventID, err)
		}
	}

	key := c.config.ObjectKey(c.now(), events[0].ID, events[len(events)-1].ID)
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.config.BucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(int64(buf.Len())),
		ContentType:   aws.String("application/x-ndjson"),
	})
	if err != nil {
		return "", fmt.Errorf("upload s3://%s/%s: %w", c.config.BucketName, key, err)
	}

	log.Infof("[Archive] archived %d webhook events to s3://%s/%s", len(events), c.config.BucketName, key)
	return key, nil
}

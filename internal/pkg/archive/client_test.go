package archive

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/OnlyOne/app/models"
)

type fakePutter struct {
	key    string
	bucket string
	lines  []string
	err    error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.key = aws.ToString(in.Key)
	f.bucket = aws.ToString(in.Bucket)
	sc := bufio.NewScanner(in.Body.(io.Reader))
	for sc.Scan() {
		f.lines = append(f.lines, sc.Text())
	}
	return &s3.PutObjectOutput{}, nil
}

func TestArchiveEvents(t *testing.T) {
	now := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	put := &fakePutter{}
	c := &Client{
		s3:     put,
		config: &Config{BucketName: "events", Prefix: "webhook-events", Enabled: true},
		now:    func() time.Time { return now },
	}

	events := []models.WebhookEvent{
		{ID: 3, EventID: "evt1", Status: models.WebhookStatusProcessed, Payload: `{"id":"evt1"}`},
		{ID: 7, EventID: "evt2", Status: models.WebhookStatusError, Payload: `{"id":"evt2"}`},
	}
	key, err := c.ArchiveEvents(context.Background(), events)
	require.NoError(t, err)

	assert.Equal(t, "events", put.bucket)
	assert.Equal(t, key, put.key)
	assert.Regexp(t, `^webhook-events/2024/03/09/3-7-\d+\.jsonl$`, key)
	require.Len(t, put.lines, 2)

	var ev models.WebhookEvent
	require.NoError(t, json.Unmarshal([]byte(put.lines[1]), &ev))
	assert.Equal(t, "evt2", ev.EventID)
	assert.Equal(t, models.WebhookStatusError, ev.Status)
}

func TestArchiveEmptyBatch(t *testing.T) {
	c := &Client{s3: &fakePutter{err: errors.New("must not be called")}, config: &Config{}, now: time.Now}
	key, err := c.ArchiveEvents(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestArchiveUploadError(t *testing.T) {
	c := &Client{s3: &fakePutter{err: errors.New("denied")}, config: &Config{BucketName: "b"}, now: time.Now}
	_, err := c.ArchiveEvents(context.Background(), []models.WebhookEvent{{ID: 1}})
	assert.ErrorContains(t, err, "denied")
}

func TestLoadConfigRequiresCredentialsWhenEnabled(t *testing.T) {
	t.Setenv("ARCHIVE_ENABLED", "true")
	t.Setenv("S3_ACCESS_KEY_ID", "")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("S3_ACCESS_KEY_ID", "id")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")
	t.Setenv("S3_BUCKET_NAME", "bucket")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsEnabled())
}

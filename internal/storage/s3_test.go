package storage

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPresigner(t *testing.T) *S3Presigner {
	t.Helper()
	p, err := NewS3Presigner(context.Background(), S3Config{
		Region:    "us-east-1",
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
		Endpoint:  "http://localhost:9000",

		UsePathStyle: true,
	})
	require.NoError(t, err)
	return p
}

func TestNewS3Presigner_RequiresRegion(t *testing.T) {
	_, err := NewS3Presigner(context.Background(), S3Config{})
	assert.Error(t, err)
}

func TestPresignPut_SignsContentType(t *testing.T) {
	p := newTestPresigner(t)

	raw, err := p.PresignPut(context.Background(), "lectures", "videos/u_1/2025/01/vid_x.mp4", "video/mp4", 15*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/lectures/videos/u_1/2025/01/vid_x.mp4", u.Path, "path-style addressing")

	q := u.Query()
	assert.Equal(t, "900", q.Get("X-Amz-Expires"))
	assert.NotEmpty(t, q.Get("X-Amz-Signature"))
	assert.Contains(t, q.Get("X-Amz-SignedHeaders"), "content-type")
}

func TestPresignGet(t *testing.T) {
	p := newTestPresigner(t)

	raw, err := p.PresignGet(context.Background(), "lectures", "videos/a.webm", 10*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/lectures/videos/a.webm", u.Path)
	assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
}

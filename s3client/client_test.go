package s3client

import (
	"bytes"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestReadEnvironment(t *testing.T) {
	t.Setenv("HAI_S3_BUCKET", "reports")
	t.Setenv("HAI_S3_ENDPOINT", "http://localhost:9000")

	env, err := ReadEnvironment()
	require.NoError(t, err)
	assert.Equal(t, "reports", env.BucketName)
	assert.Equal(t, "us-east-1", env.Region)
	assert.Equal(t, "http://localhost:9000", env.Endpoint)
	assert.Equal(t, 4, env.MaxRetries)
}

func TestStaticConfig(t *testing.T) {
	client := Client{env: EnvironmentConfig{
		BucketName:  "reports",
		Region:      "us-west-2",
		Endpoint:    "http://localhost:9000",
		AccessKeyID: "id",
		SecretKey:   "secret",
		MaxRetries:  2,
	}}
	cfg, err := client.staticConfig()
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", *cfg.Region)
	assert.Equal(t, "http://localhost:9000", *cfg.Endpoint)
	assert.True(t, *cfg.S3ForcePathStyle)
	assert.Equal(t, 2, *cfg.MaxRetries)

	client.env.Endpoint = ""
	cfg, err = client.staticConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg.Endpoint)
}

func TestStaticConfigWithoutCredentials(t *testing.T) {
	client := Client{env: EnvironmentConfig{Region: "us-east-1"}}
	_, err := client.staticConfig()
	assert.Error(t, err)
}

func TestWithSessionWithoutSession(t *testing.T) {
	client := Client{}
	err := client.withSession(nil)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSDKLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newSDKLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
	l.Log("DEBUG: request sent")
	assert.Contains(t, buf.String(), "DEBUG: request sent")
}

package s3client

import (
	"haidetect.com/hai/logger"
	"bytes"
	"errors"
	"fmt"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"sync"
)

var ErrNoSession = errors.New("no S3 session available")

type EnvironmentConfig struct {
	BucketName  string `envconfig:"HAI_S3_BUCKET" required:"true"`
	Region      string `envconfig:"HAI_S3_REGION" default:"us-east-1"`
	Endpoint    string `envconfig:"HAI_S3_ENDPOINT" default:""`
	AccessKeyID string `envconfig:"HAI_S3_ACCESS_KEY_ID" default:""`
	SecretKey   string `envconfig:"HAI_S3_SECRET_ACCESS_KEY" default:""`
	MaxRetries  int    `envconfig:"HAI_S3_MAX_RETRIES" default:"4"`
}

// Client uploads and downloads report files. A failed call refreshes the
// session once and is retried.
type Client struct {
	env  EnvironmentConfig
	mu   sync.RWMutex
	sess *session.Session
}

var clientLogger = logger.NewLogger("S3Client")
var sdkLogger = logger.NewLogger("S3-SDK")

func ReadEnvironment() (EnvironmentConfig, error) {
	var env EnvironmentConfig
	if err := envconfig.Process("", &env); err != nil {
		return EnvironmentConfig{}, err
	}
	return env, nil
}

func New() (*Client, error) {
	errLogger := clientLogger.With().Caller().Logger()
	env, err := ReadEnvironment()
	if err != nil {
		errLogger.Err(err).Msg("Failed to get proper variables from environment")
		return nil, err
	}
	client := Client{env: env}
	if err = client.refreshSession(); err != nil {
		return nil, err
	}
	return &client, nil
}

func (client *Client) Bucket() string {
	return client.env.BucketName
}

func (client *Client) Upload(data []byte, key string, contentType string) error {
	params := &s3manager.UploadInput{
		Bucket:      aws.String(client.env.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}
	return client.withSession(func(sess *session.Session) error {
		keyLogger := sdkLogger.With().Str("key", key).Str("bucket", client.env.BucketName).Logger()
		uploader := s3manager.NewUploader(sess.Copy(&aws.Config{Logger: newSDKLogger(keyLogger)}))
		clientLogger.Debug().Str("key", key).Int("bytes", len(data)).Msg("Uploading file")
		_, err := uploader.Upload(params)
		return err
	})
}

func (client *Client) Download(key string) ([]byte, error) {
	params := &s3.GetObjectInput{
		Bucket: aws.String(client.env.BucketName),
		Key:    aws.String(key),
	}
	var res []byte
	err := client.withSession(func(sess *session.Session) error {
		keyLogger := sdkLogger.With().Str("key", key).Str("bucket", client.env.BucketName).Logger()
		downloader := s3manager.NewDownloader(sess.Copy(&aws.Config{Logger: newSDKLogger(keyLogger)}))
		buf := aws.NewWriteAtBuffer([]byte{})
		size, err := downloader.Download(buf, params)
		if err != nil {
			return err
		}
		clientLogger.Debug().Str("key", key).Msgf("Downloaded %v bytes", size)
		res = buf.Bytes()
		return nil
	})
	return res, err
}

func (client *Client) Close() {
	client.mu.Lock()
	client.sess = nil
	client.mu.Unlock()
}

func (client *Client) withSession(call func(sess *session.Session) error) error {
	client.mu.RLock()
	sess := client.sess
	client.mu.RUnlock()
	if sess == nil {
		return ErrNoSession
	}
	err := call(sess)
	if err == nil {
		return nil
	}
	clientLogger.Error().Err(err).Msg("Caught error while using S3 session, trying to refresh it")
	if refreshErr := client.refreshSession(); refreshErr != nil {
		return fmt.Errorf("%v (session refresh failed: %w)", err, refreshErr)
	}
	client.mu.RLock()
	sess = client.sess
	client.mu.RUnlock()
	return call(sess)
}

// refreshSession prefers the instance role and falls back to static
// credentials from the environment.
func (client *Client) refreshSession() error {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.sess = nil

	sess, err := session.NewSession(client.instanceConfig())
	if err == nil {
		if _, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{}); err == nil {
			client.sess = sess
			clientLogger.Info().Msg("S3 session initialized using instance role")
			return nil
		}
	}
	clientLogger.Info().Err(err).Msg("Could not initialize S3 session using instance role, trying env credentials")

	cfg, err := client.staticConfig()
	if err != nil {
		return err
	}
	sess, err = session.NewSession(cfg)
	if err != nil {
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return err
	}
	if client.env.Endpoint == "" {
		if _, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{}); err != nil {
			clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
			return fmt.Errorf("could not initialize S3 session: %w", err)
		}
	}
	client.sess = sess
	clientLogger.Info().Msg("S3 session initialized using env credentials")
	return nil
}

func (client *Client) instanceConfig() *aws.Config {
	return aws.NewConfig().
		WithRegion(client.env.Region).
		WithMaxRetries(client.env.MaxRetries).
		WithLogLevel(aws.LogDebug)
}

// staticConfig points at a custom endpoint (minio, localstack) when one is
// configured.
func (client *Client) staticConfig() (*aws.Config, error) {
	creds := credentials.NewStaticCredentials(client.env.AccessKeyID, client.env.SecretKey, "")
	if _, err := creds.Get(); err != nil {
		clientLogger.Error().Err(err).Msg("Error with credentials from environment")
		return nil, err
	}
	cfg := client.instanceConfig().WithCredentials(creds)
	if client.env.Endpoint != "" {
		cfg = cfg.WithEndpoint(client.env.Endpoint).WithS3ForcePathStyle(true)
	}
	return cfg, nil
}

type s3Logger struct {
	zl zerolog.Logger
}

func newSDKLogger(zl zerolog.Logger) *s3Logger {
	return &s3Logger{zl}
}

func (l *s3Logger) Log(v ...interface{}) {
	l.zl.Debug().Msg(fmt.Sprint(v...))
}

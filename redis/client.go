package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/bsm/redislock"
	jsonpatch "github.com/evanphx/json-patch"
	"github.com/go-redis/redis/v8"
	"github.com/kelseyhightower/envconfig"
	"time"
)

type DB int
type ReleaseLock func() error

var ErrNotFound = errors.New("redis key not found")

type Client struct {
	client         redis.UniversalClient
	lockExpiration time.Duration
	lockAttempts   int
}

type Config struct {
	LockExpirationSeconds   int     `envconfig:"HAI_REDIS_LOCK_EXPIRATION" default:"3"`
	LockAttempts            int     `envconfig:"HAI_REDIS_LOCK_ATTEMPTS" default:"20"`
	Host                    string  `envconfig:"HAI_REDIS_HOST" required:"true"`
	Port                    string  `envconfig:"HAI_REDIS_PORT" default:"6379"`
	HASentinelPort          string  `envconfig:"HAI_REDIS_HA_SENTINEL_PORT" default:"26379"`
	HASentinelMasterName    string  `envconfig:"HAI_REDIS_HA_MASTER_NAME" default:"mymaster"`
	Password                string  `envconfig:"HAI_REDIS_AUTH_PASSWORD"`
	AuthRequired            bool    `envconfig:"HAI_REDIS_AUTH_REQUIRED" default:"false"`
	HAMode                  bool    `envconfig:"HAI_REDIS_HA_MODE" default:"false"`
	HASentinelSocketTimeout float32 `envconfig:"HAI_REDIS_SOCKET_TIMEOUT" default:"0.5"`
}

func ReadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func NewClient(db DB) (Client, error) {
	cfg, err := ReadConfig()
	if err != nil {
		return Client{}, err
	}
	return NewClientFromConfig(cfg, db), nil
}

func NewClientFromConfig(cfg Config, db DB) Client {
	var client redis.UniversalClient
	if cfg.HAMode {
		client = newFailoverClient(cfg, db)
	} else {
		client = newSingleClient(cfg, db)
	}
	return Client{
		client:         client,
		lockExpiration: time.Duration(cfg.LockExpirationSeconds) * time.Second,
		lockAttempts:   cfg.LockAttempts,
	}
}

func newFailoverClient(cfg Config, db DB) *redis.ClusterClient {
	timeout := time.Duration(float64(cfg.HASentinelSocketTimeout) * float64(time.Second))
	options := redis.FailoverOptions{
		SentinelAddrs: []string{fmt.Sprintf("%s:%s", cfg.Host, cfg.HASentinelPort)},
		ReadTimeout:   timeout,
		WriteTimeout:  timeout,
		MaxRetries:    6,
		DB:            int(db),
		MasterName:    cfg.HASentinelMasterName,
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewFailoverClusterClient(&options)
}

func newSingleClient(cfg Config, db DB) *redis.Client {
	options := redis.Options{
		Addr:       fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		MaxRetries: 6,
		DB:         int(db),
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewClient(&options)
}

// GetPartialDocument decodes the stored JSON into doc. Fields doc does not
// declare are ignored here and kept intact by UpdatePartialDocument.
func (client *Client) GetPartialDocument(ctx context.Context, redisKey string, doc interface{}) error {
	raw, err := client.getRaw(ctx, redisKey)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(raw, doc); err != nil {
		return fmt.Errorf("failed to decode %s: %w", redisKey, err)
	}
	return nil
}

// UpdatePartialDocument loads redisKey into doc under a lock, runs update and
// stores the result merged over the original JSON.
func (client *Client) UpdatePartialDocument(
	ctx context.Context,
	redisKey string,
	doc interface{},
	update func(),
) (err error) {
	releaseLock, err := client.Lock(ctx, redisKey)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := releaseLock(); err == nil {
			err = releaseErr
		}
	}()

	return client.UpdatePartialDocumentUnlocked(ctx, redisKey, doc, update)
}

// UpdatePartialDocumentUnlocked is UpdatePartialDocument for callers already
// holding the key's lock.
func (client *Client) UpdatePartialDocumentUnlocked(
	ctx context.Context,
	redisKey string,
	doc interface{},
	update func(),
) error {
	raw, err := client.getRaw(ctx, redisKey)
	if err != nil {
		return err
	}
	merged, err := ApplyPartialUpdate(raw, doc, update)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", redisKey, err)
	}
	return client.SaveRaw(ctx, redisKey, merged)
}

// ApplyPartialUpdate decodes raw into doc, runs update and returns raw with
// only the changed fields of doc patched in.
func ApplyPartialUpdate(raw []byte, doc interface{}, update func()) ([]byte, error) {
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, err
	}
	before, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	update()
	after, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	patch, err := jsonpatch.CreateMergePatch(before, after)
	if err != nil {
		return nil, err
	}
	return jsonpatch.MergePatch(raw, patch)
}

func (client *Client) Lock(ctx context.Context, redisKey string) (ReleaseLock, error) {
	locker := redislock.New(client.client)
	strategy := redislock.LimitRetry(redislock.LinearBackoff(time.Second), client.lockAttempts)
	lock, err := locker.Obtain(
		ctx,
		fmt.Sprintf("lock:%s", redisKey),
		client.lockExpiration,
		&redislock.Options{RetryStrategy: strategy},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", redisKey, err)
	}
	return func() error {
		return lock.Release(ctx)
	}, nil
}

func (client *Client) SaveDoc(ctx context.Context, redisKey string, doc interface{}) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return client.SaveRaw(ctx, redisKey, b)
}

func (client *Client) SaveRaw(ctx context.Context, redisKey string, raw []byte) error {
	return client.client.Set(ctx, redisKey, raw, 0).Err()
}

func (client *Client) Close() error {
	return client.client.Close()
}

func (client *Client) getRaw(ctx context.Context, redisKey string) ([]byte, error) {
	b, err := client.client.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, redisKey)
	}
	return b, err
}

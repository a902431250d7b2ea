package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/onurcolak/lead-notification-service/environments"
	"github.com/onurcolak/lead-notification-service/internal/domain"
	"github.com/onurcolak/lead-notification-service/pkg/logger"
)

// Client is safe to use as a nil pointer: writes become no-ops and reads
// report that caching is disabled.
type Client struct {
	client valkey.Client
}

var ErrCacheDisabled = errors.New("redis client not configured")

const (
	statusKeyPrefix = "message_status:"
	statusTTL       = 24 * time.Hour
)

func NewRedisClient(cfg environments.RedisConfig) (*Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Valkey client: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Infof("Connected to Redis (via Valkey client)")

	return &Client{client: client}, nil
}

func statusKey(transportMessageID string) string {
	return statusKeyPrefix + transportMessageID
}

// CacheMessageStatus stores the latest known status of a sent message, keyed
// by its transport message id.
func (c *Client) CacheMessageStatus(
	ctx context.Context,
	transportMessageID string,
	recordID int64,
	status domain.MessageStatus,
	at time.Time,
) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(domain.StatusCache{
		RecordID:  recordID,
		Status:    status,
		UpdatedAt: at,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	key := statusKey(transportMessageID)

	err = c.client.Do(ctx, c.client.B().Set().Key(key).Value(string(data)).Ex(statusTTL).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to cache message status: %w", err)
	}

	logger.Debugf("Cached status %s for message %s (record %d)", status, transportMessageID, recordID)

	return nil
}

func (c *Client) GetCachedStatus(ctx context.Context, transportMessageID string) (*domain.StatusCache, error) {
	if c == nil {
		return nil, ErrCacheDisabled
	}

	result := c.client.Do(ctx, c.client.B().Get().Key(statusKey(transportMessageID)).Build())
	if result.Error() != nil {
		if valkey.IsValkeyNil(result.Error()) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached status: %w", result.Error())
	}

	data, err := result.ToString()
	if err != nil {
		return nil, fmt.Errorf("failed to read cached status: %w", err)
	}

	var cache domain.StatusCache
	if err := json.Unmarshal([]byte(data), &cache); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	return &cache, nil
}

func (c *Client) GetAllCachedStatuses(ctx context.Context) (map[string]*domain.StatusCache, error) {
	if c == nil {
		return nil, ErrCacheDisabled
	}

	pattern := statusKeyPrefix + "*"

	var keys []string
	var cursor uint64
	for {
		result := c.client.Do(ctx, c.client.B().Scan().Cursor(cursor).Match(pattern).Count(100).Build())
		if result.Error() != nil {
			return nil, fmt.Errorf("failed to scan cache keys: %w", result.Error())
		}

		scanResult, err := result.AsScanEntry()
		if err != nil {
			return nil, fmt.Errorf("failed to parse scan result: %w", err)
		}

		keys = append(keys, scanResult.Elements...)
		cursor = scanResult.Cursor

		if cursor == 0 {
			break
		}
	}

	result := make(map[string]*domain.StatusCache, len(keys))

	for _, key := range keys {
		getResult := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
		if getResult.Error() != nil {
			continue
		}

		data, err := getResult.ToString()
		if err != nil {
			continue
		}

		var cache domain.StatusCache
		if err := json.Unmarshal([]byte(data), &cache); err != nil {
			logger.Warnf("failed to decode cached status at %q: %v", key, err)
			continue
		}

		result[strings.TrimPrefix(key, statusKeyPrefix)] = &cache
	}

	return result, nil
}

func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.client.Close()
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return ErrCacheDisabled
	}
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

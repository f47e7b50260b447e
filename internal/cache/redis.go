// Package cache stores analysis results in Redis keyed by the resume and job description.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"resumeforge/internal/config"
	resumeforgeErrors "resumeforge/internal/errors"
	"resumeforge/internal/types"

	"github.com/redis/go-redis/v9"
)

// AnalysisCache is a read-through cache for analyze results
type AnalysisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *resumeforgeErrors.Logger
}

// NewAnalysisCache builds a client from cfg. A URL takes precedence over Addr.
func NewAnalysisCache(cfg config.CacheConfig, logger *resumeforgeErrors.Logger) (*AnalysisCache, error) {
	if logger == nil {
		logger = resumeforgeErrors.NewNopLogger()
	}

	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &AnalysisCache{
		client: redis.NewClient(opts),
		prefix: cfg.KeyPrefix,
		ttl:    ttl,
		logger: logger,
	}, nil
}

func clientOptions(cfg config.CacheConfig) (*redis.Options, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, resumeforgeErrors.NewConfigError(resumeforgeErrors.ErrCodeInvalidConfig,
				"invalid cache URL", err)
		}
		opts = parsed
	} else {
		if cfg.Addr == "" {
			return nil, resumeforgeErrors.NewConfigError(resumeforgeErrors.ErrCodeInvalidConfig,
				"cache address or URL is required", nil)
		}
		opts = &redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// Key returns the cache key for a resume/job pair
func (c *AnalysisCache) Key(resume, jobDescription string) string {
	sum := sha256.New()
	sum.Write([]byte(resume))
	sum.Write([]byte{0})
	sum.Write([]byte(jobDescription))
	return c.prefix + hex.EncodeToString(sum.Sum(nil))
}

// Get returns the cached analysis. A miss is (zero, false, nil).
func (c *AnalysisCache) Get(ctx context.Context, resume, jobDescription string) (types.AnalysisResult, bool, error) {
	var result types.AnalysisResult

	raw, err := c.client.Get(ctx, c.Key(resume, jobDescription)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return result, false, nil
		}
		return result, false, fmt.Errorf("failed to read cached analysis: %w", err)
	}

	if err := json.Unmarshal(raw, &result); err != nil {
		c.logger.Warn("Discarding unreadable cached analysis", "error", err.Error())
		return result, false, nil
	}
	return result, true, nil
}

// Set stores result with the configured TTL
func (c *AnalysisCache) Set(ctx context.Context, resume, jobDescription string, result types.AnalysisResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}
	if err := c.client.Set(ctx, c.Key(resume, jobDescription), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache analysis: %w", err)
	}
	return nil
}

// Ping tests the Redis connection
func (c *AnalysisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *AnalysisCache) Close() error {
	return c.client.Close()
}

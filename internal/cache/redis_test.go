package cache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"resumeforge/internal/config"
	resumeforgeErrors "resumeforge/internal/errors"
	"resumeforge/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientOptions(t *testing.T) {
	t.Run("url wins over addr", func(t *testing.T) {
		opts, err := clientOptions(config.CacheConfig{URL: "redis://:secret@cache.internal:6380/2", Addr: "localhost:6379"})
		require.NoError(t, err)
		assert.Equal(t, "cache.internal:6380", opts.Addr)
		assert.Equal(t, "secret", opts.Password)
		assert.Equal(t, 2, opts.DB)
	})

	t.Run("addr with timeouts", func(t *testing.T) {
		opts, err := clientOptions(config.CacheConfig{Addr: "localhost:6379", DB: 1, ReadTimeout: time.Second})
		require.NoError(t, err)
		assert.Equal(t, "localhost:6379", opts.Addr)
		assert.Equal(t, 1, opts.DB)
		assert.Equal(t, time.Second, opts.ReadTimeout)
	})

	t.Run("bad url", func(t *testing.T) {
		_, err := clientOptions(config.CacheConfig{URL: "http://nope"})
		require.Error(t, err)
		assert.True(t, resumeforgeErrors.HasCode(err, resumeforgeErrors.ErrCodeInvalidConfig))
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := clientOptions(config.CacheConfig{})
		assert.Error(t, err)
	})
}

func TestKey(t *testing.T) {
	c, err := NewAnalysisCache(config.CacheConfig{Addr: "localhost:6379", KeyPrefix: "rf:"}, nil)
	require.NoError(t, err)
	defer c.Close()

	key := c.Key("resume", "jd")
	assert.True(t, strings.HasPrefix(key, "rf:"))
	assert.Len(t, key, len("rf:")+64)
	assert.Equal(t, key, c.Key("resume", "jd"))
	assert.NotEqual(t, key, c.Key("resumej", "d"), "the separator keeps field boundaries distinct")
}

func TestUnreachableRedisReturnsError(t *testing.T) {
	c, err := NewAnalysisCache(config.CacheConfig{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond}, nil)
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, ok, err := c.Get(ctx, "resume", "jd")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, c.Set(ctx, "resume", "jd", types.AnalysisResult{ATSScore: 1}))
}

func TestRedisIntegration(t *testing.T) {
	url := os.Getenv("RESUMEFORGE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("RESUMEFORGE_TEST_REDIS_URL not set")
	}

	c, err := NewAnalysisCache(config.CacheConfig{URL: url, KeyPrefix: "resumeforge-test:", TTL: time.Minute}, nil)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	if err := c.Ping(ctx); err != nil {
		t.Skipf("Skipping integration test: redis unreachable: %v", err)
	}

	resume := "resume-" + time.Now().String()
	_, ok, err := c.Get(ctx, resume, "jd")
	require.NoError(t, err)
	assert.False(t, ok)

	want := types.AnalysisResult{ATSScore: 64, Feedback: types.Feedback{KeywordGaps: []string{"gRPC"}}}
	require.NoError(t, c.Set(ctx, resume, "jd", want))

	got, ok, err := c.Get(ctx, resume, "jd")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want.ATSScore, got.ATSScore)
	assert.Equal(t, want.Feedback.KeywordGaps, got.Feedback.KeywordGaps)
}

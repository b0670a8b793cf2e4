package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/poigraph/internal/poi"
	"github.com/onnwee/poigraph/internal/ranking"
)

// DefaultTTL bounds how long a ranking stays in Redis.
const DefaultTTL = 24 * time.Hour

// wireResult is the CBOR encoding of one ranking result.
type wireResult struct {
	ID      string  `cbor:"1,keyasint"`
	Name    string  `cbor:"2,keyasint"`
	Class   string  `cbor:"3,keyasint"`
	Lat     float64 `cbor:"4,keyasint"`
	Lon     float64 `cbor:"5,keyasint"`
	Degree  int     `cbor:"6,keyasint"`
	Score   float64 `cbor:"7,keyasint"`
	Transit int     `cbor:"8,keyasint"`
	Culture int     `cbor:"9,keyasint"`
}

// Redis is a ranking cache shared between API replicas.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis creates a Redis-backed cache. Keys are prefixed with prefix.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl, prefix: prefix}
}

func (c *Redis) key(snapshotID string, mode ranking.Mode) string {
	return c.prefix + Key(snapshotID, mode)
}

// Get loads and decodes cached results.
func (c *Redis) Get(ctx context.Context, snapshotID string, mode ranking.Mode) ([]ranking.Result, bool, error) {
	data, err := c.client.Get(ctx, c.key(snapshotID, mode)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read ranking cache: %w", err)
	}

	results, err := DecodeResults(data)
	if err != nil {
		return nil, false, err
	}
	return results, true, nil
}

// Set encodes and stores results with the configured TTL.
func (c *Redis) Set(ctx context.Context, snapshotID string, mode ranking.Mode, results []ranking.Result) error {
	data, err := EncodeResults(results)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key(snapshotID, mode), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write ranking cache: %w", err)
	}
	return nil
}

// EncodeResults serializes results as CBOR.
func EncodeResults(results []ranking.Result) ([]byte, error) {
	wire := make([]wireResult, len(results))
	for i, r := range results {
		wire[i] = wireResult{
			ID:      r.Entity.ID,
			Name:    r.Entity.Name,
			Class:   string(r.Entity.Class),
			Lat:     r.Entity.Lat,
			Lon:     r.Entity.Lon,
			Degree:  r.Entity.Degree,
			Score:   r.Score,
			Transit: r.Counts.Transit,
			Culture: r.Counts.Culture,
		}
	}
	data, err := cbor.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ranking results: %w", err)
	}
	return data, nil
}

// DecodeResults reverses EncodeResults.
func DecodeResults(data []byte) ([]ranking.Result, error) {
	var wire []wireResult
	if err := cbor.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode ranking results: %w", err)
	}
	results := make([]ranking.Result, len(wire))
	for i, w := range wire {
		results[i] = ranking.Result{
			Entity: poi.Entity{
				ID:     w.ID,
				Name:   w.Name,
				Class:  poi.Class(w.Class),
				Lat:    w.Lat,
				Lon:    w.Lon,
				Degree: w.Degree,
			},
			Score:  w.Score,
			Counts: ranking.Counts{Transit: w.Transit, Culture: w.Culture},
		}
	}
	return results, nil
}

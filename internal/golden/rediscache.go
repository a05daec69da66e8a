package golden

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisFeatureTTL = 30 * time.Minute

// redisTier is FeatureCache's optional second tier (§11 domain stack):
// feature vectors that outlive this process's in-memory LRU, shared across
// server restarts and, if ever scaled out, across replicas. A nil tier is
// valid and every method on it is a no-op, matching the teacher's universal
// "degrade, don't fail" posture for optional backends.
type redisTier struct {
	client *redis.Client
}

// connectRedisTier dials addr and verifies reachability with a short-timeout
// PING. On any failure it logs and returns nil — the cache then operates
// purely on its in-process LRU, exactly like eventbus.Connect degrades to a
// no-op publisher when NATS is unreachable.
func connectRedisTier(addr string) *redisTier {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DialTimeout: 2 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[golden] redis feature cache unreachable at %s: %v (using in-process LRU only)", addr, err)
		_ = client.Close()
		return nil
	}
	log.Printf("[golden] redis feature cache connected at %s", addr)
	return &redisTier{client: client}
}

func (t *redisTier) get(ctx context.Context, key string) ([]float64, bool) {
	if t == nil {
		return nil, false
	}
	data, err := t.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var vec []float64
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, false
	}
	return vec, true
}

func (t *redisTier) put(ctx context.Context, key string, vec []float64) {
	if t == nil {
		return
	}
	data, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := t.client.Set(ctx, key, data, redisFeatureTTL).Err(); err != nil {
		log.Printf("[golden] redis feature cache set failed for %s: %v", key, err)
	}
}

func (t *redisTier) close() {
	if t != nil {
		_ = t.client.Close()
	}
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sivira/snsdm/internal/service"
)

// Redis key 前缀：同一握手分别挂在 state 与 request token 两个键下。
const (
	handshakeStateKeyPrefix = "oauth:state:"
	handshakeTokenKeyPrefix = "oauth:token:"
)

// consumeHandshakeScript 一次往返内完成查找并删除两个关联键。
// KEYS[1] 为入口键，ARGV[1] 标记入口类型（state / token），
// 负载里带有另一个键所需的字段。
var consumeHandshakeScript = redis.NewScript(`
local payload = redis.call('GET', KEYS[1])
if not payload then
  return false
end
redis.call('DEL', KEYS[1])
local data = cjson.decode(payload)
local other
if ARGV[1] == 'state' then
  other = 'oauth:token:' .. data['request_token']
else
  other = 'oauth:state:' .. data['state_id']
end
redis.call('DEL', other)
return payload
`)

// handshakeStore 实现 service.HandshakeStore 接口，状态放在 Redis，
// TTL 即握手有效期。
type handshakeStore struct {
	rdb *redis.Client
}

// NewHandshakeStore 创建握手状态存储实例
func NewHandshakeStore(rdb *redis.Client) service.HandshakeStore {
	return &handshakeStore{rdb: rdb}
}

// Save 同时写入 state 键与 token 键，共享同一 TTL
func (s *handshakeStore) Save(ctx context.Context, hs *service.PendingHandshake, ttl time.Duration) error {
	payload, err := json.Marshal(hs)
	if err != nil {
		return fmt.Errorf("marshal handshake: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, handshakeStateKeyPrefix+hs.StateID, payload, ttl)
	pipe.Set(ctx, handshakeTokenKeyPrefix+hs.RequestToken, payload, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save handshake: %w", err)
	}
	return nil
}

// ConsumeByStateID 以 state 为入口原子消费握手
func (s *handshakeStore) ConsumeByStateID(ctx context.Context, stateID string) (*service.PendingHandshake, error) {
	return s.consume(ctx, handshakeStateKeyPrefix+stateID, "state")
}

// ConsumeByRequestToken 以 request token 为入口原子消费握手
func (s *handshakeStore) ConsumeByRequestToken(ctx context.Context, requestToken string) (*service.PendingHandshake, error) {
	return s.consume(ctx, handshakeTokenKeyPrefix+requestToken, "token")
}

func (s *handshakeStore) consume(ctx context.Context, key, mode string) (*service.PendingHandshake, error) {
	raw, err := consumeHandshakeScript.Run(ctx, s.rdb, []string{key}, mode).Text()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 不存在或已过期
		}
		return nil, fmt.Errorf("consume handshake: %w", err)
	}

	var hs service.PendingHandshake
	if err := json.Unmarshal([]byte(raw), &hs); err != nil {
		return nil, fmt.Errorf("unmarshal handshake: %w", err)
	}
	return &hs, nil
}

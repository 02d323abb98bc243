package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alvesvaren/bombfest/internal/protocol"
)

const (
	// Redis key 前缀
	roomKeyPrefix  = "room:"
	winsKey        = "leaderboard:wins"
	playerNamesKey = "leaderboard:names"

	// 房间数据过期时间（活跃房间会被周期性刷新）
	roomExpiration = 2 * time.Hour
)

// roomData 房间数据（用于 Redis 序列化）
type roomData struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Language    string `json:"language"`
	PlayerCount int    `json:"player_count"`
	IsPrivate   bool   `json:"is_private"`
	SavedAt     int64  `json:"saved_at"`
}

// RedisStore Redis 存储：房间目录 + 胜场排行榜
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Ping 检查 Redis 连通性
func (rs *RedisStore) Ping(ctx context.Context) error {
	return rs.client.Ping(ctx).Err()
}

// --- 房间目录 ---

// SaveRoom 保存房间到 Redis
func (rs *RedisStore) SaveRoom(ctx context.Context, info protocol.RoomInfo, isPrivate bool) error {
	data := roomData{
		ID:          info.ID,
		Name:        info.Name,
		Language:    info.Language,
		PlayerCount: info.PlayerCount,
		IsPrivate:   isPrivate,
		SavedAt:     time.Now().Unix(),
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("序列化房间数据失败: %w", err)
	}

	key := roomKeyPrefix + info.ID
	return rs.client.Set(ctx, key, jsonData, roomExpiration).Err()
}

// LoadRoom 从 Redis 加载房间，不存在时返回 (nil, nil)
func (rs *RedisStore) LoadRoom(ctx context.Context, id string) (*protocol.RoomInfo, error) {
	key := roomKeyPrefix + id
	raw, err := rs.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 房间不存在
		}
		return nil, err
	}

	var data roomData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("反序列化房间数据失败: %w", err)
	}

	return &protocol.RoomInfo{
		ID:          data.ID,
		Name:        data.Name,
		PlayerCount: data.PlayerCount,
		Language:    data.Language,
	}, nil
}

// DeleteRoom 从 Redis 删除房间
func (rs *RedisStore) DeleteRoom(ctx context.Context, id string) error {
	return rs.client.Del(ctx, roomKeyPrefix+id).Err()
}

// --- 胜场排行榜 ---

// RecordWin 记录一次胜场并更新玩家名映射
func (rs *RedisStore) RecordWin(ctx context.Context, playerID, playerName string) error {
	if err := rs.client.ZIncrBy(ctx, winsKey, 1, playerID).Err(); err != nil {
		return err
	}
	return rs.client.HSet(ctx, playerNamesKey, playerID, playerName).Err()
}

// GetLeaderboard 获取胜场排行榜（从高到低）
func (rs *RedisStore) GetLeaderboard(ctx context.Context, limit int) ([]protocol.LeaderboardEntry, error) {
	results, err := rs.client.ZRevRangeWithScores(ctx, winsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]protocol.LeaderboardEntry, 0, len(results))
	for i, result := range results {
		playerID, ok := result.Member.(string)
		if !ok {
			continue
		}

		name, err := rs.client.HGet(ctx, playerNamesKey, playerID).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}

		entries = append(entries, protocol.LeaderboardEntry{
			Rank:       i + 1,
			PlayerID:   playerID,
			PlayerName: name,
			Wins:       int(result.Score),
		})
	}

	return entries, nil
}

// GetPlayerWins 获取单个玩家的胜场数，未上榜返回 0
func (rs *RedisStore) GetPlayerWins(ctx context.Context, playerID string) (int, error) {
	score, err := rs.client.ZScore(ctx, winsKey, playerID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return int(score), nil
}

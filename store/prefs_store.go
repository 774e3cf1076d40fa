package store

import (
	"fmt"
	"time"
)

type RedisPrefsStore struct {
	client *RedisClient
	ttl    time.Duration
}

func NewRedisPrefsStore(redisClient *RedisClient, ttlHours int) *RedisPrefsStore {
	ttl := time.Duration(ttlHours) * time.Hour
	if ttlHours <= 0 {
		ttl = 0 // настройки без TTL не протухают
	}

	return &RedisPrefsStore{
		client: redisClient,
		ttl:    ttl,
	}
}

func (s *RedisPrefsStore) GetUserOptions(userID int64) (map[string]interface{}, error) {
	key := s.client.generateKey("user_options", fmt.Sprintf("%d", userID))
	var options map[string]interface{}
	if err := s.client.Get(key, &options); err != nil {
		return make(map[string]interface{}), nil
	}
	if options == nil {
		return make(map[string]interface{}), nil
	}
	return options, nil
}

func (s *RedisPrefsStore) SetUserOptions(userID int64, options map[string]interface{}) error {
	key := s.client.generateKey("user_options", fmt.Sprintf("%d", userID))
	return s.client.Set(key, options, s.ttl)
}

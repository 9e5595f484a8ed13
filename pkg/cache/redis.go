package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"docforge/internal/models"
)

const (
	quizTTL    = 24 * time.Hour
	rankingTTL = 30 * time.Second
)

type RedisCache struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisCache(addr string) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisCache{
		client: client,
		ctx:    context.Background(),
	}
}

func (c *RedisCache) SetQuiz(quiz *models.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return err
	}
	return c.client.Set(c.ctx, quizKey(quiz.ShareCode), data, quizTTL).Err()
}

func (c *RedisCache) GetQuiz(code string) (*models.Quiz, error) {
	data, err := c.client.Get(c.ctx, quizKey(code)).Bytes()
	if err != nil {
		return nil, err
	}

	var quiz models.Quiz
	err = json.Unmarshal(data, &quiz)
	return &quiz, err
}

func (c *RedisCache) InvalidateQuiz(code string) error {
	return c.client.Del(c.ctx, quizKey(code)).Err()
}

// Rankings are cached as a JSON blob with a short TTL; the tie-break order
// is already baked in, so a sorted set would lose information.
func (c *RedisCache) SetRanking(quizID uint, entries []models.RankingEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.client.Set(c.ctx, rankingKey(quizID), data, rankingTTL).Err()
}

func (c *RedisCache) GetRanking(quizID uint) ([]models.RankingEntry, bool) {
	data, err := c.client.Get(c.ctx, rankingKey(quizID)).Bytes()
	if err != nil {
		return nil, false
	}

	var entries []models.RankingEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (c *RedisCache) InvalidateRanking(quizID uint) error {
	return c.client.Del(c.ctx, rankingKey(quizID)).Err()
}

func quizKey(code string) string {
	return "quiz:" + code
}

func rankingKey(quizID uint) string {
	return fmt.Sprintf("ranking:%d", quizID)
}

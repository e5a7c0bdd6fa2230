package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// 动态
type Post struct {
	OwnerID   string    `json:"owner_id"`
	Excerpt   string    `json:"excerpt"`
	CreatedAt time.Time `json:"created_at"`
}

// SocialFeed 关注主播动态
type SocialFeed interface {
	AppendPost(ctx context.Context, ownerID, excerpt string) error
}

// MemorySocialFeed 进程内动态存储
type MemorySocialFeed struct {
	mutex    sync.RWMutex
	posts    map[string][]Post
	maxPosts int
}

func NewMemorySocialFeed(maxPosts int) *MemorySocialFeed {
	if maxPosts <= 0 {
		maxPosts = 50
	}
	return &MemorySocialFeed{posts: make(map[string][]Post), maxPosts: maxPosts}
}

func (s *MemorySocialFeed) AppendPost(ctx context.Context, ownerID, excerpt string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	posts := append([]Post{{OwnerID: ownerID, Excerpt: excerpt, CreatedAt: time.Now()}}, s.posts[ownerID]...)
	if len(posts) > s.maxPosts {
		posts = posts[:s.maxPosts]
	}
	s.posts[ownerID] = posts
	return nil
}

// Posts 最新在前
func (s *MemorySocialFeed) Posts(ownerID string) []Post {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]Post, len(s.posts[ownerID]))
	copy(out, s.posts[ownerID])
	return out
}

// RedisSocialFeed 每个主播一个列表，最新在前
type RedisSocialFeed struct {
	client   *redis.Client
	prefix   string
	maxPosts int64
}

func NewRedisSocialFeed(client *redis.Client, prefix string, maxPosts int64) *RedisSocialFeed {
	if maxPosts <= 0 {
		maxPosts = 50
	}
	return &RedisSocialFeed{client: client, prefix: prefix, maxPosts: maxPosts}
}

func (s *RedisSocialFeed) key(ownerID string) string {
	return fmt.Sprintf("%s:social:%s", s.prefix, ownerID)
}

func (s *RedisSocialFeed) AppendPost(ctx context.Context, ownerID, excerpt string) error {
	data, err := json.Marshal(Post{OwnerID: ownerID, Excerpt: excerpt, CreatedAt: time.Now()})
	if err != nil {
		return errors.Wrap(err, "marshal post")
	}

	key := s.key(ownerID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, s.maxPosts-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "append post for %s", ownerID)
	}
	return nil
}

func (s *RedisSocialFeed) Posts(ctx context.Context, ownerID string) ([]Post, error) {
	raw, err := s.client.LRange(ctx, s.key(ownerID), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "list posts for %s", ownerID)
	}

	posts := make([]Post, 0, len(raw))
	for _, item := range raw {
		var p Post
		if err := json.Unmarshal([]byte(item), &p); err != nil {
			continue
		}
		posts = append(posts, p)
	}
	return posts, nil
}

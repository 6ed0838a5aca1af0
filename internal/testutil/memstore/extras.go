package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/xiebiao/storefront/internal/domain/event"
	"github.com/xiebiao/storefront/internal/domain/rating"
)

// Publisher 记录已发布事件
type Publisher struct {
	mu     sync.Mutex
	events []event.Event
	err    error
}

// NewPublisher 创建事件记录器
func NewPublisher() *Publisher { return &Publisher{} }

// FailWith 之后的发布都返回err
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

func (p *Publisher) Publish(_ context.Context, e event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *Publisher) Close() error { return nil }

// Events 已发布事件
func (p *Publisher) Events() []event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.Event(nil), p.events...)
}

// Types 已发布事件的类型
func (p *Publisher) Types() []event.Type {
	var out []event.Type
	for _, e := range p.Events() {
		out = append(out, e.Type)
	}
	return out
}

// SummaryCache 实现rating.SummaryCache
type SummaryCache struct {
	mu          sync.Mutex
	items       map[uint]rating.Summary
	invalidated []uint
}

// NewSummaryCache 创建内存缓存
func NewSummaryCache() *SummaryCache {
	return &SummaryCache{items: make(map[uint]rating.Summary)}
}

func (c *SummaryCache) Get(_ context.Context, productID uint) (*rating.Summary, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.items[productID]
	if !ok {
		return nil, false, nil
	}
	return &s, true, nil
}

func (c *SummaryCache) Set(_ context.Context, s *rating.Summary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[s.ProductID] = *s
	return nil
}

func (c *SummaryCache) Invalidate(_ context.Context, productID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, productID)
	c.invalidated = append(c.invalidated, productID)
	return nil
}

// Invalidated 被删除过缓存的商品ID
func (c *SummaryCache) Invalidated() []uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint(nil), c.invalidated...)
}

// Sessions 会话与Token黑名单
type Sessions struct {
	mu        sync.Mutex
	sessions  map[uint]map[string]interface{}
	blacklist map[string]time.Duration
}

// NewSessions 创建内存会话存储
func NewSessions() *Sessions {
	return &Sessions{
		sessions:  make(map[uint]map[string]interface{}),
		blacklist: make(map[string]time.Duration),
	}
}

func (s *Sessions) SaveSession(_ context.Context, userID uint, data map[string]interface{}, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = data
	return nil
}

func (s *Sessions) DeleteSession(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

func (s *Sessions) AddToBlacklist(_ context.Context, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blacklist[token] = ttl
	return nil
}

func (s *Sessions) IsInBlacklist(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blacklist[token]
	return ok, nil
}

// HasSession 用户是否有会话
func (s *Sessions) HasSession(userID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[userID]
	return ok
}

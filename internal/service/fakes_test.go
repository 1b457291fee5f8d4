package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go-catalog-ws/internal/event"
)

type fakeUploader struct {
	mu         sync.Mutex
	uploaded   []string
	destroyed  []string
	failOn     string
	destroyErr error
}

func (u *fakeUploader) Upload(_ context.Context, filePath, folder string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.failOn != "" && filepath.Base(filePath) == u.failOn {
		return "", errors.New("upload refused")
	}
	url := fmt.Sprintf("https://res.example.com/demo/image/upload/v1/%s/%s", folder, filepath.Base(filePath))
	u.uploaded = append(u.uploaded, url)
	return url, nil
}

func (u *fakeUploader) Destroy(_ context.Context, url string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.destroyed = append(u.destroyed, url)
	return u.destroyErr
}

func (u *fakeUploader) destroyedURLs() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.destroyed...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.ProductEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev event.ProductEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Action
	}
	return out
}

type memoryCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deletes int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memoryCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	c.deletes++
	return nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

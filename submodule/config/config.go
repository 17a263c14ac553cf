package config

import (
	"context"
	"sync"

	"github.com/memoio/go-betawallet/lib/repo"
)

// ConfigModule sets and reads values of the repo config.
type ConfigModule struct { //nolint
	repo repo.Repo
	lock sync.Mutex
}

func NewConfigModule(repo repo.Repo) *ConfigModule {
	return &ConfigModule{repo: repo}
}

// Set sets a value in config and persists it
func (s *ConfigModule) Set(dottedKey string, jsonString string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	cfg := s.repo.Config()
	if err := cfg.Set(dottedKey, jsonString); err != nil {
		return err
	}

	return s.repo.ReplaceConfig(cfg)
}

// Get gets a value from config
func (s *ConfigModule) Get(dottedKey string) (interface{}, error) {
	return s.repo.Config().Get(dottedKey)
}

func (s *ConfigModule) API() *ConfigAPI {
	return &ConfigAPI{config: s}
}

type ConfigAPI struct {
	config *ConfigModule
}

func (ca *ConfigAPI) ConfigSet(_ context.Context, dottedPath string, paramJSON string) error {
	return ca.config.Set(dottedPath, paramJSON)
}

func (ca *ConfigAPI) ConfigGet(_ context.Context, dottedPath string) (interface{}, error) {
	return ca.config.Get(dottedPath)
}

package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"
)

type localConfig struct {
	Path string `json:"path"`
}

type localStore struct {
	path string
}

func init() {
	Register("local", createLocalStore)
}

func createLocalStore(args interface{}) (Store, error) {
	config := &localConfig{}
	if err := decodeConfig(args, config); err != nil {
		return nil, err
	}
	if config.Path == "" {
		return nil, fmt.Errorf("local snapshot path is required")
	}
	return &localStore{path: config.Path}, nil
}

func (s *localStore) Open(ctx context.Context) (io.ReadCloser, error) {
	_ = ctx
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}
	return f, nil
}

// Package local stores rendered artifacts on the local filesystem. It is the
// default backend and mirrors the temp-file download behavior of the
// original single-process deployment.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"docstruct/internal/domain"
	"docstruct/internal/port"
)

type localStore struct {
	root string
}

// NewStore creates a directory-backed ObjectStorage rooted at dir. An empty
// dir falls back to a fresh directory under the OS temp root.
func NewStore(dir string) (port.ObjectStorage, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", "docstruct-artifacts-")
		if err != nil {
			return nil, fmt.Errorf("creating artifact dir: %w", err)
		}
		dir = tmp
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating artifact dir: %w", err)
	}
	return &localStore{root: dir}, nil
}

func (s *localStore) Upload(ctx context.Context, input port.UploadInput) error {
	path, err := s.resolve(input.Key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating artifact subdir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("creating artifact: %w", err)
	}
	if _, err := io.Copy(f, input.Body); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing artifact: %w", err)
	}

	// Content type lives in a sidecar so Download can serve the right header.
	meta, err := json.Marshal(map[string]string{"content_type": input.ContentType})
	if err != nil {
		return err
	}
	if err := os.WriteFile(path+".meta", meta, 0o640); err != nil {
		return fmt.Errorf("writing artifact metadata: %w", err)
	}
	return nil
}

func (s *localStore) Download(ctx context.Context, key string) ([]byte, string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", domain.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("reading artifact: %w", err)
	}

	contentType := "application/octet-stream"
	if metaBytes, err := os.ReadFile(path + ".meta"); err == nil {
		var meta map[string]string
		if json.Unmarshal(metaBytes, &meta) == nil && meta["content_type"] != "" {
			contentType = meta["content_type"]
		}
	}
	return data, contentType, nil
}

func (s *localStore) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting artifact: %w", err)
	}
	_ = os.Remove(path + ".meta")
	return nil
}

// resolve maps a key to a path under the root, rejecting traversal.
func (s *localStore) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

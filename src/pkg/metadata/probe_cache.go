package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bililive-go/flvdemux/src/pkg/streamprobe"
)

// FileKey 由绝对路径、文件大小与修改时间组成，文件变化后自然失效
func FileKey(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s|%d|%d", abs, fi.Size(), fi.ModTime().UnixNano()), nil
}

// LoadProbe 读取缓存的探测结果，未命中时返回 nil
func (s *Store) LoadProbe(ctx context.Context, key string) (*streamprobe.StreamHeaderInfo, error) {
	value, err := s.Get(ctx, NamespaceProbe, key)
	if err != nil || value == "" {
		return nil, err
	}
	info := new(streamprobe.StreamHeaderInfo)
	if err := json.Unmarshal([]byte(value), info); err != nil {
		// 损坏的记录直接丢弃
		_ = s.Delete(ctx, NamespaceProbe, key)
		return nil, nil
	}
	return info, nil
}

// SaveProbe 保存探测结果
func (s *Store) SaveProbe(ctx context.Context, key string, info *streamprobe.StreamHeaderInfo) error {
	b, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("序列化探测结果失败: %w", err)
	}
	return s.Set(ctx, NamespaceProbe, key, string(b))
}

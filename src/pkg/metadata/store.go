// Package metadata 提供探测结果的持久化缓存
// 以 SQLite 保存 key-value，重复探测未变化的文件时直接返回缓存
package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// NamespaceProbe 探测结果缓存
const NamespaceProbe = "probe"

const schema = `
CREATE TABLE IF NOT EXISTS metadata (
	namespace TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	created_at INTEGER DEFAULT (strftime('%s', 'now')),
	updated_at INTEGER DEFAULT (strftime('%s', 'now')),
	PRIMARY KEY (namespace, key)
)`

// Entry 一条缓存记录
type Entry struct {
	Key       string    `json:"key"`
	Value     string    `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store SQLite 元数据存储，可以被多个 goroutine 共享
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// Open 打开（必要时创建）dbPath 处的数据库
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("创建目录失败: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	// 设置 SQLite 优化参数
	_, _ = db.Exec("PRAGMA journal_mode=WAL")
	_, _ = db.Exec("PRAGMA synchronous=NORMAL")

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("创建表失败: %w", err)
	}
	return &Store{db: db, dbPath: dbPath}, nil
}

// Path 数据库文件路径
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get 读取一条记录，不存在时返回空字符串
func (s *Store) Get(ctx context.Context, namespace, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	row := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE namespace = ? AND key = ?", namespace, key)
	switch err := row.Scan(&value); {
	case errors.Is(err, sql.ErrNoRows):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("查询 %s/%s 失败: %w", namespace, key, err)
	}
	return value, nil
}

// Set 写入或覆盖一条记录
func (s *Store) Set(ctx context.Context, namespace, key, value string) error {
	return s.exec(ctx, "保存", `INSERT INTO metadata (namespace, key, value, updated_at)
		VALUES (?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		namespace, key, value)
}

// Delete 删除一条记录
func (s *Store) Delete(ctx context.Context, namespace, key string) error {
	return s.exec(ctx, "删除", "DELETE FROM metadata WHERE namespace = ? AND key = ?", namespace, key)
}

// Clear 删除整个命名空间，返回删除的条数
func (s *Store) Clear(ctx context.Context, namespace string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM metadata WHERE namespace = ?", namespace)
	if err != nil {
		return 0, fmt.Errorf("清空命名空间 %s 失败: %w", namespace, err)
	}
	return res.RowsAffected()
}

// List 按更新时间倒序列出命名空间内的记录
func (s *Store) List(ctx context.Context, namespace string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT key, value, updated_at FROM metadata WHERE namespace = ? ORDER BY updated_at DESC, key",
		namespace)
	if err != nil {
		return nil, fmt.Errorf("查询命名空间 %s 失败: %w", namespace, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			updated int64
		)
		if err := rows.Scan(&e.Key, &e.Value, &updated); err != nil {
			return nil, fmt.Errorf("读取行失败: %w", err)
		}
		e.UpdatedAt = time.Unix(updated, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) exec(ctx context.Context, op, query string, args ...interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s失败: %w", op, err)
	}
	return nil
}

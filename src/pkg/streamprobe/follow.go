package streamprobe

import (
	"context"
	"errors"
	"io"
	"time"
)

// DefaultPollInterval 文件读到末尾后再次尝试的间隔
const DefaultPollInterval = 500 * time.Millisecond

// FollowReader 读取一个仍在写入的文件（例如录制中的 flv），读到 EOF 时等待新数据
// 连续 IdleTimeout 没有新数据时返回 io.EOF；IdleTimeout 为 0 时一直等待直到 ctx 取消
type FollowReader struct {
	ctx         context.Context
	r           io.Reader
	interval    time.Duration
	IdleTimeout time.Duration
}

// NewFollowReader interval<=0 时使用 DefaultPollInterval
func NewFollowReader(ctx context.Context, r io.Reader, interval time.Duration) *FollowReader {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &FollowReader{ctx: ctx, r: r, interval: interval}
}

// Read implements io.Reader.
func (f *FollowReader) Read(p []byte) (int, error) {
	var idle time.Duration
	for {
		n, err := f.r.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		if f.IdleTimeout > 0 && idle >= f.IdleTimeout {
			return 0, io.EOF
		}

		timer := time.NewTimer(f.interval)
		select {
		case <-f.ctx.Done():
			timer.Stop()
			return 0, f.ctx.Err()
		case <-timer.C:
			idle += f.interval
		}
	}
}

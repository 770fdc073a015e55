package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// 环境变量覆盖项
const (
	EnvDebug       = "FLVDEMUX_DEBUG"
	EnvMetricsBind = "FLVDEMUX_METRICS_BIND"
	EnvStorePath   = "FLVDEMUX_STORE_PATH"
)

// LoadEnv 从 .env 文件和进程环境变量覆盖配置，进程环境变量优先
// 不存在的 .env 文件会被忽略
func (c *Config) LoadEnv(files ...string) error {
	values := make(map[string]string)
	for _, file := range files {
		m, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("读取环境变量文件 %s 失败: %w", file, err)
		}
		for k, v := range m {
			values[k] = v
		}
	}
	for _, key := range []string{EnvDebug, EnvMetricsBind, EnvStorePath} {
		if v, ok := os.LookupEnv(key); ok {
			values[key] = v
		}
	}
	return c.applyEnv(values)
}

func (c *Config) applyEnv(values map[string]string) error {
	if v, ok := values[EnvDebug]; ok && v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s 不是有效的布尔值: %q", EnvDebug, v)
		}
		c.Debug = debug
	}
	if v := values[EnvMetricsBind]; v != "" {
		c.Metrics.Bind = v
	}
	if v := values[EnvStorePath]; v != "" {
		c.Store.Enable = true
		c.Store.Path = v
	}
	return nil
}

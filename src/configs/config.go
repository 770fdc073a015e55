package configs

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Log 日志配置
type Log struct {
	OutPutFolder string `yaml:"out_put_folder" json:"out_put_folder"`
	SaveEveryLog bool   `yaml:"save_every_log" json:"save_every_log"`
	RotateDays   int    `yaml:"rotate_days" json:"rotate_days"`
}

// Demux 解复用配置
type Demux struct {
	// Timescale 轨道时间单位
	Timescale int `yaml:"timescale" json:"timescale"`
	// ReadChunkSize 每次从输入读取的字节数
	ReadChunkSize int `yaml:"read_chunk_size" json:"read_chunk_size"`
	// SPSCacheSize 缓存的已解析 SPS 数量，0 表示不缓存
	SPSCacheSize int `yaml:"sps_cache_size" json:"sps_cache_size"`
}

var defaultDemux = Demux{
	Timescale:     1000,
	ReadChunkSize: 32 * 1024,
	SPSCacheSize:  64,
}

func (d *Demux) verify() error {
	if d.Timescale <= 0 {
		return fmt.Errorf("timescale 必须大于 0")
	}
	if d.ReadChunkSize <= 0 {
		return fmt.Errorf("read_chunk_size 必须大于 0")
	}
	if d.SPSCacheSize < 0 {
		return fmt.Errorf("sps_cache_size 不能为负数")
	}
	return nil
}

// Metrics watch 模式下的 HTTP 服务配置
type Metrics struct {
	Enable bool   `yaml:"enable" json:"enable"`
	Bind   string `yaml:"bind" json:"bind"`
}

var defaultMetrics = Metrics{
	Enable: true,
	Bind:   "127.0.0.1:8090",
}

func (m *Metrics) verify() error {
	if m == nil || !m.Enable {
		return nil
	}
	if _, err := net.ResolveTCPAddr("tcp", m.Bind); err != nil {
		return fmt.Errorf("无效的 metrics 绑定地址: %w", err)
	}
	return nil
}

// Store 探测结果缓存
type Store struct {
	Enable bool   `yaml:"enable" json:"enable"`
	Path   string `yaml:"path" json:"path"`
}

var defaultStore = Store{
	Enable: false,
	Path:   "flvdemux-cache.db",
}

func (s *Store) verify() error {
	if s.Enable && s.Path == "" {
		return fmt.Errorf("启用缓存时 store.path 不能为空")
	}
	return nil
}

// Config content all config info.
type Config struct {
	File    string  `yaml:"-" json:"-"`
	Debug   bool    `yaml:"debug" json:"debug"`
	Log     Log     `yaml:"log" json:"log"`
	Demux   Demux   `yaml:"demux" json:"demux"`
	Metrics Metrics `yaml:"metrics" json:"metrics"`
	Store   Store   `yaml:"store" json:"store"`
}

var config atomic.Value // stores *Config

// 单独的 Debug 原子标志，便于高频读取
var currentDebug atomic.Bool

func SetCurrentConfig(cfg *Config) {
	if cfg == nil {
		config.Store((*Config)(nil))
		currentDebug.Store(false)
		return
	}
	config.Store(cfg)
	currentDebug.Store(cfg.Debug)
}

func GetCurrentConfig() *Config {
	v := config.Load()
	if v == nil {
		return nil
	}
	return v.(*Config)
}

// IsDebug 提供并发安全、低开销的 Debug 值读取
func IsDebug() bool {
	return currentDebug.Load()
}

var defaultConfig = Config{
	Debug: false,
	Log: Log{
		OutPutFolder: "",
		SaveEveryLog: false,
		RotateDays:   7,
	},
	Demux:   defaultDemux,
	Metrics: defaultMetrics,
	Store:   defaultStore,
}

func NewConfig() *Config {
	config := defaultConfig
	return &config
}

// Verify will return an error when this config has problem.
func (c *Config) Verify() error {
	if c == nil {
		return fmt.Errorf("配置不存在")
	}
	if err := c.Demux.verify(); err != nil {
		return err
	}
	if err := c.Metrics.verify(); err != nil {
		return err
	}
	if err := c.Store.verify(); err != nil {
		return err
	}
	return nil
}

func NewConfigWithBytes(b []byte) (*Config, error) {
	config := defaultConfig
	if err := yaml.Unmarshal(b, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func NewConfigWithFile(file string) (*Config, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		// 进行权限诊断，提供更详细的错误信息
		diag := DiagnoseFilePermission(file)
		if diagInfo := diag.FormatError(); diagInfo != "" {
			return nil, fmt.Errorf("can`t open file: %s%s", file, diagInfo)
		}
		return nil, fmt.Errorf("can`t open file: %s: %w", file, err)
	}
	config, err := NewConfigWithBytes(b)
	if err != nil {
		return nil, err
	}
	config.File = file
	return config, nil
}

// Marshal 把配置连同注释写回 c.File
func (c *Config) Marshal() error {
	if c.File == "" {
		return errors.New("config path not set")
	}
	b, err := c.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(c.File, b, 0644)
}

// Encode 序列化为带注释的 yaml
func (c *Config) Encode() ([]byte, error) {
	// 先序列化为字节再反序列化为 Node，得到干净的 Node 树后注入注释
	var node yaml.Node
	tempBytes, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(tempBytes, &node); err != nil {
		return nil, err
	}

	DecorateConfigNode(&node)

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&node); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

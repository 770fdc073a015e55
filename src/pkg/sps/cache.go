package sps

import (
	"github.com/bluele/gcache"
)

// DefaultCacheSize 缓存的 SPS 数量
const DefaultCacheSize = 64

// CachedDecoder 对解析结果做 LRU 缓存
// 直播流在重连、切换码率时会反复下发相同的 sequence header，命中缓存可以跳过 SPS 解析
type CachedDecoder struct {
	inner Decoder
	cache gcache.Cache
}

// NewCachedDecoder 创建带缓存的解析器，size<=0 时使用 DefaultCacheSize
func NewCachedDecoder(inner Decoder, size int) *CachedDecoder {
	if size <= 0 {
		size = DefaultCacheSize
	}
	d := &CachedDecoder{inner: inner}
	d.cache = gcache.New(size).LRU().LoaderFunc(func(key interface{}) (interface{}, error) {
		return d.inner.Decode([]byte(key.(string)))
	}).Build()
	return d
}

// Decode implements Decoder.
// 返回值是缓存条目的副本，调用方可以随意修改
func (d *CachedDecoder) Decode(nal []byte) (*Info, error) {
	v, err := d.cache.Get(string(nal))
	if err != nil {
		return nil, err
	}
	info := *v.(*Info)
	return &info, nil
}

// Len 当前缓存条目数
func (d *CachedDecoder) Len() int {
	return d.cache.Len(false)
}

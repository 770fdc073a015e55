// Package amf 实现 FLV script data tag 使用的 AMF0 解码
package amf

// AMF0 类型标记
const (
	TypeNumber      = 0x00
	TypeBoolean     = 0x01
	TypeString      = 0x02
	TypeObject      = 0x03
	TypeMovieClip   = 0x04
	TypeNull        = 0x05
	TypeUndefined   = 0x06
	TypeReference   = 0x07
	TypeECMAArray   = 0x08
	TypeObjectEnd   = 0x09
	TypeStrictArray = 0x0A
	TypeDate        = 0x0B
	TypeLongString  = 0x0C
)

// Value 是解码后的 AMF0 值：float64、bool、string、Object、Array、time.Time 或 nil
type Value interface{}

// Object AMF0 object / ECMA array
type Object map[string]Value

// Array AMF0 strict array
type Array []Value

// Number 读取数值字段
func (o Object) Number(key string) (float64, bool) {
	v, ok := o[key].(float64)
	return v, ok
}

// String 读取字符串字段
func (o Object) String(key string) (string, bool) {
	v, ok := o[key].(string)
	return v, ok
}

// Bool 读取布尔字段
func (o Object) Bool(key string) (bool, bool) {
	v, ok := o[key].(bool)
	return v, ok
}

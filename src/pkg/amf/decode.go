package amf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"
)

// MetaDataName 是 FLV 元数据 script tag 的事件名
const MetaDataName = "onMetaData"

// maxDepth 嵌套 object/array 的最大深度，防止恶意数据导致栈溢出
const maxDepth = 32

var (
	ErrUnexpectedType = errors.New("unexpected AMF0 type")
	ErrInvalidData    = errors.New("invalid AMF0 data")
	ErrTooDeep        = errors.New("AMF0 value nested too deep")
)

// Decode 解码一个 script data tag 的完整负载
// 负载通常是 string("onMetaData") 后跟一个 ECMA array。返回该 ECMA array 对应的映射；
// 如果数据在中途截断，返回已解析出的部分以及错误
func Decode(data []byte) (Object, error) {
	r := bytes.NewReader(data)
	result := Object{}
	var name string
	for r.Len() > 0 {
		v, err := decodeValue(r, 0)
		if v != nil {
			switch val := v.(type) {
			case string:
				name = val
			case Object:
				if name == "" || name == MetaDataName {
					for k, item := range val {
						result[k] = item
					}
				}
			}
		}
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

// DecodeValue 从 r 中读取单个 AMF0 值
func DecodeValue(r io.Reader) (Value, error) {
	return decodeValue(r, 0)
}

func decodeValue(r io.Reader, depth int) (Value, error) {
	if depth > maxDepth {
		return nil, ErrTooDeep
	}
	var typeMarker byte
	if err := binary.Read(r, binary.BigEndian, &typeMarker); err != nil {
		return nil, err
	}

	switch typeMarker {
	case TypeNumber:
		return decodeNumber(r)
	case TypeBoolean:
		return decodeBoolean(r)
	case TypeString:
		return decodeString(r)
	case TypeLongString:
		return decodeLongString(r)
	case TypeNull, TypeUndefined:
		return nil, nil
	case TypeReference:
		// 引用只保留序号
		var ref uint16
		err := binary.Read(r, binary.BigEndian, &ref)
		return float64(ref), err
	case TypeObject:
		return decodeObject(r, depth)
	case TypeECMAArray:
		var count uint32
		if err := binary.Read(r, binary.BigEndian, &count); err != nil {
			return nil, err
		}
		// count 经常不准确，按 object 结束标记为准
		return decodeObject(r, depth)
	case TypeStrictArray:
		return decodeStrictArray(r, depth)
	case TypeDate:
		return decodeDate(r)
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnexpectedType, typeMarker)
	}
}

func decodeNumber(r io.Reader) (float64, error) {
	var bits uint64
	if err := binary.Read(r, binary.BigEndian, &bits); err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

func decodeBoolean(r io.Reader) (bool, error) {
	var b byte
	if err := binary.Read(r, binary.BigEndian, &b); err != nil {
		return false, err
	}
	return b != 0, nil
}

func decodeString(r io.Reader) (string, error) {
	var length uint16
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return "", err
	}
	return readString(r, int(length))
}

func decodeLongString(r io.Reader) (string, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return "", err
	}
	return readString(r, int(length))
}

func readString(r io.Reader, n int) (string, error) {
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// decodeObject 解码 object 的键值对直到 0x000009 结束标记
// 出错时返回已经解析的键值对
func decodeObject(r io.Reader, depth int) (Object, error) {
	obj := make(Object)
	for {
		key, err := decodeString(r)
		if err != nil {
			return obj, err
		}
		if key == "" {
			var endMarker byte
			if err := binary.Read(r, binary.BigEndian, &endMarker); err != nil {
				return obj, err
			}
			if endMarker != TypeObjectEnd {
				return obj, ErrInvalidData
			}
			return obj, nil
		}
		value, err := decodeValue(r, depth+1)
		if err != nil {
			return obj, err
		}
		obj[key] = value
	}
}

func decodeStrictArray(r io.Reader, depth int) (Array, error) {
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	arr := make(Array, 0, min(int(count), 64))
	for i := uint32(0); i < count; i++ {
		v, err := decodeValue(r, depth+1)
		if err != nil {
			return arr, err
		}
		arr = append(arr, v)
	}
	return arr, nil
}

// decodeDate 毫秒时间戳 + 2 字节时区（时区字段按规范忽略）
func decodeDate(r io.Reader) (time.Time, error) {
	ms, err := decodeNumber(r)
	if err != nil {
		return time.Time{}, err
	}
	var tz int16
	if err := binary.Read(r, binary.BigEndian, &tz); err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(int64(ms)).UTC(), nil
}

package amf

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"sort"
)

// Encode 写出一个 AMF0 值
func Encode(w io.Writer, val Value) error {
	switch v := val.(type) {
	case float64:
		return encodeNumber(w, v)
	case int:
		return encodeNumber(w, float64(v))
	case bool:
		return encodeBoolean(w, v)
	case string:
		return encodeString(w, v)
	case Object:
		return encodeObject(w, TypeObject, v)
	case Array:
		return encodeArray(w, v)
	default:
		_, err := w.Write([]byte{TypeNull})
		return err
	}
}

// EncodeMetaData 生成 onMetaData script tag 负载：string 名称 + ECMA array
func EncodeMetaData(meta Object) []byte {
	var buf bytes.Buffer
	_ = encodeString(&buf, MetaDataName)
	_ = encodeObject(&buf, TypeECMAArray, meta)
	return buf.Bytes()
}

func encodeNumber(w io.Writer, num float64) error {
	var b [9]byte
	b[0] = TypeNumber
	binary.BigEndian.PutUint64(b[1:], math.Float64bits(num))
	_, err := w.Write(b[:])
	return err
}

func encodeBoolean(w io.Writer, v bool) error {
	b := []byte{TypeBoolean, 0}
	if v {
		b[1] = 1
	}
	_, err := w.Write(b)
	return err
}

func encodeString(w io.Writer, s string) error {
	if _, err := w.Write([]byte{TypeString}); err != nil {
		return err
	}
	return writeKey(w, s)
}

func writeKey(w io.Writer, s string) error {
	if err := binary.Write(w, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// encodeObject 按键排序输出，保证编码结果稳定
func encodeObject(w io.Writer, marker byte, obj Object) error {
	if _, err := w.Write([]byte{marker}); err != nil {
		return err
	}
	if marker == TypeECMAArray {
		if err := binary.Write(w, binary.BigEndian, uint32(len(obj))); err != nil {
			return err
		}
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writeKey(w, k); err != nil {
			return err
		}
		if err := Encode(w, obj[k]); err != nil {
			return err
		}
	}
	_, err := w.Write([]byte{0, 0, TypeObjectEnd})
	return err
}

func encodeArray(w io.Writer, arr Array) error {
	if _, err := w.Write([]byte{TypeStrictArray}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(arr))); err != nil {
		return err
	}
	for _, v := range arr {
		if err := Encode(w, v); err != nil {
			return err
		}
	}
	return nil
}

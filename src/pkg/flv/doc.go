// Package flv 实现增量式 FLV 解复用
//
// 调用方把读到的字节追加到 buffer.Buffer 中，然后调用 Demuxer.Advance。
// Advance 在当前已缓冲的数据上尽可能多地解析完整的 tag，数据不足时立即返回，
// 等待下一次追加后再次调用。解析结果累积在 TrackSet 中，每一步产生的通知以
// Outcome 列表的形式返回，由调用方分发给订阅者。
package flv

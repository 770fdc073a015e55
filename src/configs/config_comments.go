package configs

import "gopkg.in/yaml.v3"

// DecorateConfigNode 将硬编码的注释注入到配置节点树中。
func DecorateConfigNode(node *yaml.Node) {
	if node.Kind != yaml.DocumentNode || len(node.Content) == 0 {
		return
	}
	root := node.Content[0]
	if root.Kind != yaml.MappingNode {
		return
	}

	root.HeadComment = `# 这个配置文件内的注释是自动生成的，请不要手动修改。
# 需要修改注释时，请在 src/configs/config_comments.go 文件内修改。`

	setFieldLineComment(root, "debug", "# 输出 debug 日志并记录调用位置")

	if logNode := findNode(root, "log"); logNode != nil {
		setFieldComment(logNode, "out_put_folder", "# 日志目录，留空时只输出到终端", "")
		setFieldComment(logNode, "save_every_log", "# 每次运行写入单独的日志文件，否则按天滚动写入 flvdemux-YYYY-MM-DD.log", "")
		setFieldLineComment(logNode, "rotate_days", "# 按天滚动时保留的天数，0 表示不清理")
	}

	setFieldHeadComment(root, "demux", "# 解复用参数")
	if demuxNode := findNode(root, "demux"); demuxNode != nil {
		setFieldLineComment(demuxNode, "timescale", "# 轨道时间单位，1000 表示毫秒")
		setFieldComment(demuxNode, "read_chunk_size",
			`# 每次从输入读取的字节数
# 解复用是增量的，任意大小都能得到相同的结果`, "")
		setFieldComment(demuxNode, "sps_cache_size", "# 缓存已解析的 SPS，直播流重复下发 sequence header 时跳过解析，0 表示不缓存", "")
	}

	setFieldHeadComment(root, "metrics", "# watch 模式下的 HTTP 服务（/api/info 与 /metrics）")
	setFieldHeadComment(root, "store", "# probe 结果缓存（SQLite），文件未变化时直接返回缓存")
}

func findNode(mapNode *yaml.Node, key string) *yaml.Node {
	for i := 0; i < len(mapNode.Content); i += 2 {
		if mapNode.Content[i].Value == key {
			return mapNode.Content[i+1]
		}
	}
	return nil
}

func setFieldComment(mapNode *yaml.Node, key, headComment, lineComment string) {
	for i := 0; i < len(mapNode.Content); i += 2 {
		k := mapNode.Content[i]
		if k.Value == key {
			if headComment != "" {
				k.HeadComment = headComment
			}
			if lineComment != "" {
				k.LineComment = lineComment
			}
			return
		}
	}
}

func setFieldLineComment(mapNode *yaml.Node, key, lineComment string) {
	setFieldComment(mapNode, key, "", lineComment)
}

func setFieldHeadComment(mapNode *yaml.Node, key, headComment string) {
	setFieldComment(mapNode, key, headComment, "")
}

//go:build !windows

package configs

import (
	"fmt"
	"os"
	"strings"
	"syscall"
)

// PermissionDiagnostics 文件权限诊断结果
type PermissionDiagnostics struct {
	FilePath    string
	FileExists  bool
	CanRead     bool
	CanWrite    bool
	FileMode    os.FileMode
	OwnerUID    uint32
	CurrentUID  int
	Suggestions []string
}

// DiagnoseFilePermission 诊断配置文件或缓存文件的权限问题
func DiagnoseFilePermission(filePath string) *PermissionDiagnostics {
	diag := &PermissionDiagnostics{
		FilePath:   filePath,
		CurrentUID: os.Getuid(),
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		diag.Suggestions = append(diag.Suggestions,
			fmt.Sprintf("文件 %s 不存在，可以执行 flvdemux config init 生成默认配置", filePath))
		return diag
	}
	if err != nil {
		diag.Suggestions = append(diag.Suggestions, fmt.Sprintf("无法获取文件信息: %v", err))
		return diag
	}

	diag.FileExists = true
	diag.FileMode = fileInfo.Mode()
	if stat, ok := fileInfo.Sys().(*syscall.Stat_t); ok {
		diag.OwnerUID = stat.Uid
	}

	if f, err := os.OpenFile(filePath, os.O_RDONLY, 0); err == nil {
		diag.CanRead = true
		f.Close()
	}
	if f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_APPEND, 0); err == nil {
		diag.CanWrite = true
		f.Close()
	}

	if !diag.CanRead {
		diag.Suggestions = append(diag.Suggestions,
			fmt.Sprintf("无法读取文件 %s，当前权限: %v，文件所有者 UID: %d，当前进程 UID: %d",
				filePath, diag.FileMode, diag.OwnerUID, diag.CurrentUID))
	}
	if !diag.CanWrite {
		diag.Suggestions = append(diag.Suggestions,
			fmt.Sprintf("无法写入文件 %s，config init 与探测缓存将无法保存", filePath))
	}
	return diag
}

// FormatError 格式化为用户友好的错误信息，没有问题时返回空字符串
func (d *PermissionDiagnostics) FormatError() string {
	if len(d.Suggestions) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n========== 权限诊断信息 ==========\n")
	for _, s := range d.Suggestions {
		sb.WriteString(s)
		sb.WriteString("\n")
	}
	sb.WriteString("===================================\n")
	return sb.String()
}

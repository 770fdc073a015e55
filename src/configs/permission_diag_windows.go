//go:build windows

package configs

// PermissionDiagnostics 文件权限诊断结果
// Windows 上不做 Unix 权限检查
type PermissionDiagnostics struct {
	Suggestions []string
}

// DiagnoseFilePermission 诊断配置文件或缓存文件的权限问题
func DiagnoseFilePermission(filePath string) *PermissionDiagnostics {
	return &PermissionDiagnostics{}
}

// FormatError 格式化为用户友好的错误信息，没有问题时返回空字符串
func (d *PermissionDiagnostics) FormatError() string {
	return ""
}

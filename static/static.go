package static

import (
	"embed"
)

// Scripts 内置示例组件脚本，首次运行时导出到数据目录。
//
//go:embed scripts
var Scripts embed.FS

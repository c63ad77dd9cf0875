package widget

import (
	"os"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// DeviceInfo 是暴露给脚本的设备只读快照。
// 开发机上没有真实设备，用数据目录下的 device.json 覆盖默认值即可
// 模拟不同机型。
type DeviceInfo struct {
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Language     string `json:"language"`
	Battery      int    `json:"battery"`
	ScreenWidth  int    `json:"screenWidth"`
	ScreenHeight int    `json:"screenHeight"`
}

func defaultDeviceInfo() *DeviceInfo {
	return &DeviceInfo{
		Brand:        "AIO",
		Model:        "DevHarness",
		Language:     "en",
		Battery:      100,
		ScreenWidth:  1080,
		ScreenHeight: 2400,
	}
}

// LoadDeviceInfo 读取快照文件，缺失或损坏时回退默认值。
func LoadDeviceInfo(path string, logger *zap.SugaredLogger) *DeviceInfo {
	info := defaultDeviceInfo()
	raw, err := os.ReadFile(path)
	if err != nil {
		return info
	}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(raw, info); err != nil {
		if logger != nil {
			logger.Warnf("设备快照文件损坏，使用默认值: %v", err)
		}
		return defaultDeviceInfo()
	}
	return info
}

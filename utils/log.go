package utils

import (
	"log"

	"github.com/anoixa/media-library/config"
)

// LogIfDevf 仅在开发环境输出的调试日志
func LogIfDevf(format string, args ...interface{}) {
	if config.IsDevelopment() {
		log.Printf(format, args...)
	}
}

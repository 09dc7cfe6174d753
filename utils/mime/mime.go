package mime

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

func SniffContentType(stream io.ReadSeeker) (string, error) {
	buffer := make([]byte, 512)

	n, err := stream.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read stream for mime sniffing: %w", err)
	}

	contentType := http.DetectContentType(buffer[:n])

	_, err = stream.Seek(0, io.SeekStart)
	if err != nil {
		return "", fmt.Errorf("failed to seek stream back to start after sniffing: %w", err)
	}

	return contentType, nil
}

// 扩展名到 MIME 类型与媒体类别的映射
// 存储文件名始终携带扩展名，类型判断都从这里走
var extensionMap = map[string]struct {
	Mime string
	Kind int8 // 对应 models.MediaType 的取值
}{
	"webp": {"image/webp", 0},
	"jpg":  {"image/jpeg", 0},
	"jpeg": {"image/jpeg", 0},
	"png":  {"image/png", 0},
	"gif":  {"image/gif", 0},
	"pdf":  {"application/pdf", 1},
	"mp3":  {"audio/mpeg", 2},
	"m4a":  {"audio/m4a", 2},
	"ogg":  {"audio/ogg", 2},
	"ogx":  {"audio/ogg", 2},
	"mpga": {"audio/mpeg", 2},
	"aif":  {"audio/aiff", 2},
	"wav":  {"audio/wav", 2},
}

// ByExtension 返回扩展名对应的 MIME 类型，未知扩展名返回 application/octet-stream
func ByExtension(ext string) string {
	if entry, ok := extensionMap[strings.ToLower(ext)]; ok {
		return entry.Mime
	}
	return "application/octet-stream"
}

// KindByExtension 返回扩展名对应的媒体类别（0=图片 1=文档 2=音频），未知返回 -1
func KindByExtension(ext string) int8 {
	if entry, ok := extensionMap[strings.ToLower(ext)]; ok {
		return entry.Kind
	}
	return -1
}

// IsSupportedExtension 检查扩展名是否受支持
func IsSupportedExtension(ext string) bool {
	_, ok := extensionMap[strings.ToLower(ext)]
	return ok
}

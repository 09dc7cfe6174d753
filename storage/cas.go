package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// ContentStore 内容寻址存储
// 文件名始终为内容 SHA-256 的小写十六进制 + 扩展名，相同字节只存一份
type ContentStore struct {
	provider Provider
	webDir   string
}

// NewContentStore 创建内容寻址存储
func NewContentStore(provider Provider, webDir string) *ContentStore {
	return &ContentStore{
		provider: provider,
		webDir:   strings.TrimRight(webDir, "/"),
	}
}

// Store 计算内容哈希并写入存储，返回内容寻址文件名
// 目标已存在时跳过写入（内容寻址意味着同名即同内容）
func (s *ContentStore) Store(ctx context.Context, r io.Reader, extension string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read content for hashing: %w", err)
	}
	return s.StoreBytes(ctx, data, extension)
}

// StoreBytes 同 Store，输入为内存中的字节
func (s *ContentStore) StoreBytes(ctx context.Context, data []byte, extension string) (string, error) {
	extension = strings.TrimPrefix(strings.ToLower(extension), ".")
	if extension == "" {
		return "", fmt.Errorf("file extension is required for content-addressed storage")
	}

	sum := sha256.Sum256(data)
	filename := hex.EncodeToString(sum[:]) + "." + extension

	exists, err := s.provider.Exists(ctx, filename)
	if err != nil {
		return "", fmt.Errorf("failed to check existence of '%s': %w", filename, err)
	}
	if exists {
		// 去重：同名即同内容，跳过写入
		return filename, nil
	}

	if err := s.provider.SaveWithContext(ctx, filename, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to store content as '%s': %w", filename, err)
	}

	return filename, nil
}

// Open 打开已存储的文件
func (s *ContentStore) Open(ctx context.Context, filename string) (io.ReadSeeker, error) {
	return s.provider.GetWithContext(ctx, filename)
}

// Exists 检查文件是否存在
func (s *ContentStore) Exists(ctx context.Context, filename string) (bool, error) {
	return s.provider.Exists(ctx, filename)
}

// Delete 删除底层文件，调用方必须保证不再有记录引用该文件名
func (s *ContentStore) Delete(ctx context.Context, filename string) error {
	return s.provider.DeleteWithContext(ctx, filename)
}

// List 列出存储中的所有文件名
func (s *ContentStore) List(ctx context.Context) ([]string, error) {
	return s.provider.List(ctx)
}

// Resolve 将存储文件名映射为可访问路径
func (s *ContentStore) Resolve(filename string) string {
	return s.webDir + "/" + filename
}

// Provider 返回底层存储提供者
func (s *ContentStore) Provider() Provider {
	return s.provider
}

// IsContentAddressed 判断文件名是否为内容寻址形式：64 位小写十六进制 + 扩展名
func IsContentAddressed(filename string) bool {
	dot := strings.IndexByte(filename, '.')
	if dot != sha256.Size*2 || dot == len(filename)-1 {
		return false
	}
	for _, r := range filename[:dot] {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

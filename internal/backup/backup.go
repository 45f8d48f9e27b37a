package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"contactform/backend/internal/domain"
)

// Writer 把投递完全失败的询盘追加到本地备份文件
//
// 文件只追加、不压缩，保证没有任何询盘在邮件系统整体不可用时
// 被静默丢弃。
type Writer struct {
	path string
	mu   sync.Mutex
}

// NewWriter 创建备份记录器
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Append 追加一条备份记录，内容必须完整保留提交原文
func (w *Writer) Append(sub *domain.Submission) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create backup dir: %w", err)
		}
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open backup file: %w", err)
	}
	defer f.Close()

	var entry strings.Builder
	entry.WriteString("\n\n=== SUBMISSION ===\n")
	fmt.Fprintf(&entry, "ID: %s\n", sub.ID)
	fmt.Fprintf(&entry, "Date: %s\n", sub.ReceivedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&entry, "Name: %s\n", sub.Name)
	fmt.Fprintf(&entry, "Company: %s\n", sub.Company)
	fmt.Fprintf(&entry, "Email: %s\n", sub.Email)
	fmt.Fprintf(&entry, "Product: %s\n", sub.Product)
	fmt.Fprintf(&entry, "Message: %s\n", sub.Message)

	if _, err := f.WriteString(entry.String()); err != nil {
		return fmt.Errorf("write backup entry: %w", err)
	}

	return nil
}

// Package cache 是详情页文档的磁盘缓存：<root>/documents/<sha1(link)>.html。
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/John-Robertt/hydra/internal/infra/fsx"
)

// Store 读写文档缓存。
//
// 约束：
// - ReadOnly=true 时只读，写入返回 ErrReadOnly
// - MaxAge>0 时，修改时间早于 now-MaxAge 的条目视为未命中（不删除）
type Store struct {
	Root     string
	ReadOnly bool
	MaxAge   time.Duration

	now func() time.Time
}

var ErrReadOnly = errors.New("cache: read-only")

func New(root string, readOnly bool, maxAge time.Duration) Store {
	return Store{
		Root:     filepath.Clean(strings.TrimSpace(root)),
		ReadOnly: readOnly,
		MaxAge:   maxAge,
	}
}

func (s Store) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// Key 返回链接对应的缓存文件名。
func Key(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", fmt.Errorf("link 不能为空")
	}
	sum := sha1.Sum([]byte(link))
	return hex.EncodeToString(sum[:]) + ".html", nil
}

func (s Store) dir() string { return filepath.Join(s.Root, "documents") }

// Path 返回链接对应的缓存绝对路径。
func (s Store) Path(link string) (string, error) {
	name, err := Key(link)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir(), name), nil
}

// Read 读取缓存；不存在或已过期时 ok=false。
func (s Store) Read(link string) ([]byte, bool, error) {
	path, err := s.Path(link)
	if err != nil {
		return nil, false, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if s.MaxAge > 0 && s.clock().Sub(fi.ModTime()) > s.MaxAge {
		return nil, false, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

// Write 写入（覆盖）缓存。
func (s Store) Write(link string, body []byte) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	name, err := Key(link)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomic(s.dir(), name, body)
}

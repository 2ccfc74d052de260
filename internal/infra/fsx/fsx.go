// Package fsx 提供缓存写入使用的原子文件操作。
package fsx

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// renameFunc 在测试中替换，用来模拟落盘最后一步失败。
var renameFunc = os.Rename

// WriteFileAtomic 把 data 写成 dir/name：先写同目录的隐藏临时文件，再 rename 覆盖目标。
// 读者要么看到旧内容，要么看到完整的新内容；失败时临时文件会被清理。
func WriteFileAtomic(dir, name string, data []byte) (err error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("非法文件名：%q", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建目录 %q 失败：%w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	target := filepath.Join(dir, name)
	if err = renameFunc(tmp.Name(), target); err != nil {
		return fmt.Errorf("替换 %q 失败：%w", target, err)
	}
	syncDir(dir)
	return nil
}

// syncDir 刷新目录项；失败不影响结果（windows 不支持对目录 fsync）。
func syncDir(dir string) {
	if runtime.GOOS == "windows" {
		return
	}
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
}

// Package webui 内嵌单页对话界面
package webui

import (
	_ "embed"
)

//go:embed index.html
var index []byte

// Index 返回单页界面的 HTML
func Index() []byte {
	return index
}

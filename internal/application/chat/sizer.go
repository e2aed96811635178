// Package chat 实现多模态对话的编排逻辑
package chat

import (
	"fmt"
	"os"
)

const bytesPerMB = 1048576

// PromptSizeMB 计算文本与附件的合计大小（MB）
// 文本可以为空（仅文件）；filePath 为空时只计文本
func PromptSizeMB(text string, filePath string) (float64, error) {
	total := int64(len(text))

	if filePath != "" {
		info, err := os.Stat(filePath)
		if err != nil {
			return 0, fmt.Errorf("failed to stat prompt file %s: %w", filePath, err)
		}
		total += info.Size()
	}

	return float64(total) / bytesPerMB, nil
}

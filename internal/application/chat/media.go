// Package chat 实现多模态对话的编排逻辑
package chat

import (
	"strings"

	"z-multimodal-chat/internal/domain/entity"
	"z-multimodal-chat/pkg/errors"
)

// 支持的扩展名集合，查找不区分大小写
var (
	// SupportedImageExtensions 支持的图像扩展名
	SupportedImageExtensions = []string{"png", "jpeg", "jpg"}
	// SupportedVideoExtensions 支持的视频扩展名
	SupportedVideoExtensions = []string{"mp4", "mov", "mpeg", "mpg", "avi", "wmv", "mpegps", "flv"}
)

var (
	imageExtSet = toSet(SupportedImageExtensions)
	videoExtSet = toSet(SupportedVideoExtensions)
)

func toSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		set[e] = struct{}{}
	}
	return set
}

// Extension 从文件路径提取小写扩展名
// 路径不含 "." 或后缀为空时返回错误
func Extension(path string) (string, error) {
	if !strings.Contains(path, ".") {
		return "", errors.New(errors.CodeInvalidFilePath, "invalid file path, no extension separator").WithDetail(path)
	}

	parts := strings.Split(path, ".")
	ext := strings.ToLower(parts[len(parts)-1])
	if ext == "" {
		return "", errors.New(errors.CodeInvalidFilePath, "file has no extension").WithDetail(path)
	}

	return ext, nil
}

// IsSupported 判断扩展名是否在支持集合内，不区分大小写
func IsSupported(ext string) bool {
	ext = strings.ToLower(ext)
	if _, ok := imageExtSet[ext]; ok {
		return true
	}
	_, ok := videoExtSet[ext]
	return ok
}

// MediaKind 判断扩展名对应的媒体类型
func MediaKind(ext string) (entity.MediaKind, bool) {
	ext = strings.ToLower(ext)
	if _, ok := imageExtSet[ext]; ok {
		return entity.MediaKindImage, true
	}
	if _, ok := videoExtSet[ext]; ok {
		return entity.MediaKindVideo, true
	}
	return "", false
}

// MIMEType 推导传给推理后端的 MIME 类型
// jpg/jpeg 统一为 image/jpeg，其余按媒体类型拼接
func MIMEType(ext string) (string, error) {
	ext = strings.ToLower(ext)

	if _, ok := imageExtSet[ext]; ok {
		if ext == "jpg" || ext == "jpeg" {
			return "image/jpeg", nil
		}
		return "image/" + ext, nil
	}

	if _, ok := videoExtSet[ext]; ok {
		return "video/" + ext, nil
	}

	return "", errors.New(errors.CodeUnsupportedMedia, "no supported mime type for extension").WithDetail(ext)
}

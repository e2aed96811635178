// Package chat 实现多模态对话的编排逻辑
package chat

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"z-multimodal-chat/pkg/errors"
)

// VideoDurationSeconds 读取本地 MP4/MOV 文件的时长（秒，向上取整）
// 通过解析 ISO BMFF 容器的 moov/mvhd box 获得，其他容器格式返回错误
func VideoDurationSeconds(path string) (int, error) {
	seconds, err := videoDurationSeconds(path)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeDurationProbeFailed, "failed to probe video duration")
	}
	return seconds, nil
}

func videoDurationSeconds(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open video file %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}

	moov, err := findBox(f, 0, info.Size(), "moov")
	if err != nil {
		return 0, err
	}

	mvhd, err := findBox(f, moov.payloadOffset, moov.payloadEnd(), "mvhd")
	if err != nil {
		return 0, err
	}

	return parseMvhd(f, mvhd)
}

// box ISO BMFF box 的位置信息
type box struct {
	payloadOffset int64
	payloadSize   int64
}

func (b box) payloadEnd() int64 {
	return b.payloadOffset + b.payloadSize
}

// findBox 在 [offset, end) 范围内顺序扫描目标 box
func findBox(r io.ReaderAt, offset, end int64, name string) (box, error) {
	var header [8]byte

	for offset+8 <= end {
		if _, err := r.ReadAt(header[:], offset); err != nil {
			return box{}, fmt.Errorf("failed to read box header: %w", err)
		}

		size := int64(binary.BigEndian.Uint32(header[0:4]))
		boxType := string(header[4:8])
		headerLen := int64(8)

		switch size {
		case 0:
			// box 延伸到文件末尾
			size = end - offset
		case 1:
			// 64 位 largesize
			var large [8]byte
			if _, err := r.ReadAt(large[:], offset+8); err != nil {
				return box{}, fmt.Errorf("failed to read box largesize: %w", err)
			}
			size = int64(binary.BigEndian.Uint64(large[:]))
			headerLen = 16
		}

		if size < headerLen {
			return box{}, fmt.Errorf("malformed box %q with size %d", boxType, size)
		}

		if boxType == name {
			return box{
				payloadOffset: offset + headerLen,
				payloadSize:   size - headerLen,
			}, nil
		}

		offset += size
	}

	return box{}, fmt.Errorf("box %q not found", name)
}

// parseMvhd 从 mvhd box 提取时长并向上取整为秒
func parseMvhd(r io.ReaderAt, b box) (int, error) {
	var version [1]byte
	if _, err := r.ReadAt(version[:], b.payloadOffset); err != nil {
		return 0, fmt.Errorf("failed to read mvhd version: %w", err)
	}

	var timescale uint64
	var duration uint64

	switch version[0] {
	case 0:
		// version(1) + flags(3) + creation(4) + modification(4)
		var buf [8]byte
		if _, err := r.ReadAt(buf[:], b.payloadOffset+12); err != nil {
			return 0, fmt.Errorf("failed to read mvhd fields: %w", err)
		}
		timescale = uint64(binary.BigEndian.Uint32(buf[0:4]))
		duration = uint64(binary.BigEndian.Uint32(buf[4:8]))
	case 1:
		// version(1) + flags(3) + creation(8) + modification(8)
		var buf [12]byte
		if _, err := r.ReadAt(buf[:], b.payloadOffset+20); err != nil {
			return 0, fmt.Errorf("failed to read mvhd fields: %w", err)
		}
		timescale = uint64(binary.BigEndian.Uint32(buf[0:4]))
		duration = binary.BigEndian.Uint64(buf[4:12])
	default:
		return 0, fmt.Errorf("unsupported mvhd version %d", version[0])
	}

	if timescale == 0 {
		return 0, fmt.Errorf("mvhd has zero timescale")
	}

	// 向上取整
	seconds := (duration + timescale - 1) / timescale
	return int(seconds), nil
}

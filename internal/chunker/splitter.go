// Package chunker 将长文本切分为带重叠的检索分块。
package chunker

import (
	"strings"
	"unicode/utf8"
)

// defaultSeparators 是从粗到细的分隔符阶梯：
// 段落分隔、换行、句号加空格、空格，最后退化为逐字符硬切。
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// RecursiveSplitter 按分隔符阶梯递归切分文本，相邻分块共享指定数量的重叠字符。
// 长度一律按 rune 计算，避免多字节文本被从字符中间切断。
type RecursiveSplitter struct {
	separators []string
}

// NewRecursiveSplitter 创建一个使用默认分隔符阶梯的切分器。
func NewRecursiveSplitter() *RecursiveSplitter {
	return &RecursiveSplitter{separators: defaultSeparators}
}

// Split 将文本切分为长度不超过 chunkSize 的分块序列。
// 空文本返回空序列；chunkOverlap 非法（为负或不小于 chunkSize）时按 0 处理。
// 分块顺序与原文一致，去除重叠后拼接可还原原文。
func (s *RecursiveSplitter) Split(text string, chunkSize, chunkOverlap int) []string {
	if text == "" {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}

	pieces := splitPieces(text, s.separators, chunkSize)
	return mergePieces(pieces, chunkSize, chunkOverlap)
}

// splitPieces 递归地把文本切成每段不超过 size 的片段。
// 优先使用当前最粗的分隔符；分隔符保留在片段尾部，保证可拼接还原。
func splitPieces(text string, separators []string, size int) []string {
	if utf8.RuneCountInString(text) <= size {
		return []string{text}
	}
	for i, sep := range separators {
		if sep == "" {
			return hardSplit(text, size)
		}
		if !strings.Contains(text, sep) {
			continue
		}
		parts := strings.SplitAfter(text, sep)
		var pieces []string
		for _, part := range parts {
			if part == "" {
				continue
			}
			pieces = append(pieces, splitPieces(part, separators[i+1:], size)...)
		}
		return pieces
	}
	return hardSplit(text, size)
}

// hardSplit 在没有任何可用分隔符时按 rune 硬切。
func hardSplit(text string, size int) []string {
	runes := []rune(text)
	var chunks []string
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

// mergePieces 将相邻小片段合并为接近 size 的分块，
// 并把上一分块的末尾 overlap 个字符带入下一分块作为上下文。
func mergePieces(pieces []string, size, overlap int) []string {
	var chunks []string
	var current []rune

	for _, piece := range pieces {
		pr := []rune(piece)
		if len(current) > 0 && len(current)+len(pr) > size {
			chunks = append(chunks, string(current))

			// 带入重叠上下文，放不下时收缩到能容纳当前片段为止
			start := len(current) - overlap
			if start < 0 {
				start = 0
			}
			tail := current[start:]
			for len(tail) > 0 && len(tail)+len(pr) > size {
				tail = tail[1:]
			}
			current = append([]rune{}, tail...)
		}
		current = append(current, pr...)
	}

	if len(current) > 0 {
		chunks = append(chunks, string(current))
	}
	return chunks
}

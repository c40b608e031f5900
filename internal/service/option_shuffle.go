package service

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// ShuffledQuestion 重排后的选项视图以及新的正确选项字母。
// 不落库，作答校验时按同一种子重新计算。
type ShuffledQuestion struct {
	Options       []string
	CorrectLetter string
}

// shuffleSeed 对 (学生, 资源, 题目) 生成稳定种子。
// 同一学生刷新页面或提交答案时看到的顺序必须一致。
func shuffleSeed(studentID, resourceID, questionID uint) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d:%d:%d", studentID, resourceID, questionID)
	return int64(h.Sum64())
}

// ShuffleOptions 重测时打乱选项顺序，保证正确选项不落在原位置。
// options 为原始顺序，correctLetter 为原始正确字母（A、B、C...）。
// 选项少于 2 个或字母越界时原样返回。
func ShuffleOptions(studentID, resourceID, questionID uint, options []string, correctLetter string) ShuffledQuestion {
	origIdx := letterIndex(correctLetter)
	if len(options) < 2 || origIdx < 0 || origIdx >= len(options) {
		return ShuffledQuestion{Options: options, CorrectLetter: correctLetter}
	}

	rng := rand.New(rand.NewSource(shuffleSeed(studentID, resourceID, questionID)))

	// 抽出正确选项，打乱其余选项
	correct := options[origIdx]
	rest := make([]string, 0, len(options)-1)
	for i, opt := range options {
		if i != origIdx {
			rest = append(rest, opt)
		}
	}
	rng.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})

	// 随机插回；若落在原位置则与相邻项交换，确保位置必变
	newIdx := rng.Intn(len(options))
	shuffled := make([]string, 0, len(options))
	shuffled = append(shuffled, rest[:newIdx]...)
	shuffled = append(shuffled, correct)
	shuffled = append(shuffled, rest[newIdx:]...)
	if newIdx == origIdx {
		swap := newIdx + 1
		if swap >= len(shuffled) {
			swap = newIdx - 1
		}
		shuffled[newIdx], shuffled[swap] = shuffled[swap], shuffled[newIdx]
		newIdx = swap
	}

	return ShuffledQuestion{Options: shuffled, CorrectLetter: indexLetter(newIdx)}
}

func letterIndex(letter string) int {
	if len(letter) != 1 {
		return -1
	}
	c := letter[0]
	switch {
	case c >= 'A' && c <= 'Z':
		return int(c - 'A')
	case c >= 'a' && c <= 'z':
		return int(c - 'a')
	}
	return -1
}

func indexLetter(idx int) string {
	return string(rune('A' + idx))
}

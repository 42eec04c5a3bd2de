package service

import "math/rand"

// 活动码字母表剔除了易混淆的 I O 0 1，方便学生手动输入。
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	codeLength         = 6
	fallbackCodeLength = 8
	codeAttempts       = 8
)

func randomCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}

// allocateCode 生成不与现存活动冲突的活动码。碰撞重试有上限：
// 6 位尝试若干次后升级到 8 位，仍失败才放弃，避免原始实现的无限循环。
func allocateCode(exists func(code string) (bool, error)) (string, error) {
	for _, n := range []int{codeLength, fallbackCodeLength} {
		for i := 0; i < codeAttempts; i++ {
			code := randomCode(n)
			taken, err := exists(code)
			if err != nil {
				return "", err
			}
			if !taken {
				return code, nil
			}
		}
	}
	return "", ErrCodeSpaceExhausted
}

package service

import (
	"crypto/hmac"
	"crypto/sha256"
)

// HashSecret 口令/PIN 的 SHA-256 摘要（与 staff 表的 bytea 列对应）
func HashSecret(s string) []byte {
	h := sha256.Sum256([]byte(s))
	return h[:]
}

// secretEqual 常量时间比较
func secretEqual(hash []byte, plain string) bool {
	if len(hash) == 0 {
		return false
	}
	return hmac.Equal(hash, HashSecret(plain))
}

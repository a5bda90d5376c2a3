// Package encrypt 提供了按用户加盐的可逆密码加密。
package encrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keyLength         = 32 // AES-256
	defaultIterations = 100000
)

// Encryptor 定义了密码加解密能力，salt 通常为用户 ID。
type Encryptor interface {
	Encrypt(plaintext, salt string) (string, error)
	Decrypt(ciphertext, salt string) (string, error)
}

// AESEncryptor 使用 PBKDF2-SHA256 从密钥和盐派生 AES-256-GCM 密钥。
type AESEncryptor struct {
	secret     []byte
	iterations int
}

// NewAESEncryptor 创建一个新的 AESEncryptor 实例。
func NewAESEncryptor(secret string, iterations int) (*AESEncryptor, error) {
	if secret == "" {
		return nil, errors.New("encryption secret is empty")
	}
	if iterations <= 0 {
		iterations = defaultIterations
	}
	return &AESEncryptor{secret: []byte(secret), iterations: iterations}, nil
}

func (e *AESEncryptor) gcm(salt string) (cipher.AEAD, error) {
	if salt == "" {
		return nil, errors.New("salt is empty")
	}
	key := pbkdf2.Key(e.secret, []byte(salt), e.iterations, keyLength, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// Encrypt 加密明文，返回 base64(nonce||ciphertext)。
func (e *AESEncryptor) Encrypt(plaintext, salt string) (string, error) {
	gcm, err := e.gcm(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt 解密 Encrypt 的输出，盐不一致时返回错误。
func (e *AESEncryptor) Decrypt(ciphertext, salt string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}

	gcm, err := e.gcm(salt)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(raw) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, sealed := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}

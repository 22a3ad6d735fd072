package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// TokenBytes es el tamaño de los tokens opacos del sistema (sesiones,
// state nonces, poll ids). 32 bytes -> 64 chars hex.
const TokenBytes = 32

// GenerateToken genera un token opaco aleatorio en hexadecimal (64 chars).
func GenerateToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// IsToken reporta si s tiene la forma de un token generado por GenerateToken.
func IsToken(s string) bool {
	if len(s) != TokenBytes*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// SHA256Hex devuelve sha256(input) en hexadecimal (para guardar en DB).
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", sum)
}

package domain

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	joinPasswordLength   = 8
	joinPasswordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
)

// GenerateJoinPassword returns an 8 character alphanumeric secret.
func GenerateJoinPassword() (string, error) {
	// 248 is the largest multiple of 62 below 256; bytes above it are
	// rejected so every character is equally likely.
	const limit = 256 - 256%len(joinPasswordAlphabet)
	out := make([]byte, 0, joinPasswordLength)
	buf := make([]byte, joinPasswordLength*2)
	for len(out) < joinPasswordLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate join password: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, joinPasswordAlphabet[int(b)%len(joinPasswordAlphabet)])
			if len(out) == joinPasswordLength {
				break
			}
		}
	}
	return string(out), nil
}

// Hasher hashes account passwords and board join secrets with bcrypt.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher using the bcrypt default cost when cost is zero.
func NewHasher(cost int) Hasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return Hasher{Cost: cost}
}

func (h Hasher) Hash(plain string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Matches compares plain against hash in constant time.
func (h Hasher) Matches(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

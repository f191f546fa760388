package metadata

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

const (
	SKUPrefix = "SKU-"

	skuAlphabet    = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	skuLength      = 6
	maxSKUAttempts = 100
)

var ErrSKUExhausted = errors.New("unable to generate a unique sku")

// SKUExists reports whether a code is already assigned to some asset.
type SKUExists func(sku string) (bool, error)

// GenerateSKU draws random SKU-XXXXXX codes until one is not taken.
func GenerateSKU(exists SKUExists) (string, error) {
	return generateSKU(exists, rand.IntN)
}

func generateSKU(exists SKUExists, intn func(int) int) (string, error) {
	for i := 0; i < maxSKUAttempts; i++ {
		code := newSKU(intn)

		taken, err := exists(code)
		if err != nil {
			return "", fmt.Errorf("check sku uniqueness: %w", err)
		}
		if !taken {
			return code, nil
		}
	}

	return "", ErrSKUExhausted
}

func newSKU(intn func(int) int) string {
	var b strings.Builder
	b.Grow(len(SKUPrefix) + skuLength)
	b.WriteString(SKUPrefix)
	for i := 0; i < skuLength; i++ {
		b.WriteByte(skuAlphabet[intn(len(skuAlphabet))])
	}
	return b.String()
}

package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	codeAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeRandomLength = 7
	// InventoryCodeMaxLength matches product_inventories.code.
	InventoryCodeMaxLength = 30
)

// RandomString returns n characters drawn from [A-Z0-9].
func RandomString(n int) (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[idx.Int64()])
	}
	return b.String(), nil
}

// GenerateInventoryCode builds a code of the form
// RANDOM7-<last 3 of product>-<first 3 of brand>-YYYYMMDDHHMMSS, upper cased
// and cut to InventoryCodeMaxLength.
func GenerateInventoryCode(productName, brandName string, now time.Time) (string, error) {
	random, err := RandomString(codeRandomLength)
	if err != nil {
		return "", fmt.Errorf("generate inventory code: %w", err)
	}

	name := []rune(productName)
	if len(name) > 3 {
		name = name[len(name)-3:]
	}
	brand := []rune(brandName)
	if len(brand) > 3 {
		brand = brand[:3]
	}

	code := strings.ToUpper(fmt.Sprintf("%s-%s-%s-%s", random, string(name), string(brand), now.Format("20060102150405")))
	if r := []rune(code); len(r) > InventoryCodeMaxLength {
		code = string(r[:InventoryCodeMaxLength])
	}
	return code, nil
}

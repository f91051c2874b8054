package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	numberBytes  = "0123456789"
	upperLetters = "ABCDEFGHJKLMNPQRSTUVWXYZ" // no I/O to avoid confusion on printed vouchers
)

func GenerateRandomNumericString(length int) string {
	return generateRandom(length, numberBytes)
}

func generateRandom(length int, charset string) string {
	result := make([]byte, length)
	charsetLength := big.NewInt(int64(len(charset)))

	for i := range result {
		num, _ := rand.Int(rand.Reader, charsetLength)
		result[i] = charset[num.Int64()]
	}

	return string(result)
}

// GenerateBookingNumber produces a human-readable booking reference,
// e.g. GL-20260901-7KQ4M2. Uniqueness is enforced by the booking
// collection index, not here.
func GenerateBookingNumber(now time.Time) string {
	return fmt.Sprintf("%s-%s-%s", BookingNumberPrefix, now.UTC().Format("20060102"), generateRandom(6, upperLetters+numberBytes))
}

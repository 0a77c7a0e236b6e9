package config

import (
	"math/rand"
	"time"
)

// RandomTrailer returns a short random lowercase-alphanumeric string, used
// to correlate log lines for a single HTTP request.
func RandomTrailer(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	res := make([]byte, length)
	for i := 0; i < length; i++ {
		res[i] = charset[r.Intn(length)]
	}
	return string(res)
}

package utils

import (
	"github.com/twmb/murmur3"
	"strings"
)

// HashColumns hashes normalized columns, so rows differing only in case or padding collide.
func HashColumns(columns []string) uint64 {
	hash := murmur3.New64()
	for _, c := range columns {
		_, err := hash.Write([]byte(strings.ToLower(strings.TrimSpace(c))))
		if err != nil {
			panic(err)
		}
		// column separator
		_, _ = hash.Write([]byte{0})
	}
	return hash.Sum64()
}

package utils

import (
	"bufio"
	"haidetect.com/hai/logger"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type GetHashFunc func(columns []string) uint64

// NewTSVReader streams the rows of a tab separated file. Comment lines (# or //), blank
// lines and the header row (when hasHeader is set) are skipped, duplicate rows by getHash are dropped.
func NewTSVReader(tsvPath string, hasHeader bool, getHash GetHashFunc) (<-chan []string, error) {
	readerLogger := logger.NewLogger("TSVReader (" + filepath.Base(tsvPath) + ")")

	f, err := os.Open(tsvPath)
	if err != nil {
		return nil, err
	}

	out := make(chan []string)

	go func() {
		defer f.Close()
		defer close(out)

		r := bufio.NewReader(f)
		headerPending := hasHeader

		// to remove duplicates
		hashes := make(map[uint64]bool)

		for {
			line, err := r.ReadString('\n')
			if len(line) == 0 {
				if err == io.EOF {
					break
				} else if err != nil {
					readerLogger.Error().Err(err).Msg("read failed")
					return
				}
			}

			line = strings.TrimRight(line, "\r\n")
			if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
				continue
			}
			if headerPending {
				headerPending = false
				continue
			}
			columns := strings.Split(line, "\t")

			hash := getHash(columns)
			if !hashes[hash] {
				hashes[hash] = true
				out <- columns
			}
		}
	}()

	return out, nil
}

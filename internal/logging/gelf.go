package logging

import (
	"fmt"
	"io"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGelfWriter opens a UDP GELF writer for the given Graylog address.
// The returned writer can be passed to SlogManager.Setup as an extra sink.
func NewGelfWriter(address string) (io.Writer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, fmt.Errorf("connecting to graylog at %s: %w", address, err)
	}
	return w, nil
}

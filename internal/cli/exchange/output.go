package exchange

import (
	"io"
	"os"
)

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns stdout for "" or "-", otherwise a new file at path
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

// status prints to stderr when the document itself goes to stdout
func status(path string) io.Writer {
	if path == "" || path == "-" {
		return os.Stderr
	}
	return os.Stdout
}

package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

func ReadIntFromFile(path string) (value int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return -1, err
	}
	text := strings.TrimSpace(string(data))
	if len(text) <= 0 {
		return -1, fmt.Errorf("file is empty: %s", path)
	}
	var parsed int
	_, err = fmt.Sscanf(text, "%d", &parsed)
	return parsed, err
}

// WriteIntToFile writes a single integer to a file path.
func WriteIntToFile(value int, path string) error {
	evaluatedPath, err := resolvePath(path)
	if len(evaluatedPath) > 0 && err == nil {
		path = evaluatedPath
	}
	valueAsString := fmt.Sprintf("%d", value)

	err = os.WriteFile(path, []byte(valueAsString), 0644)
	return err
}

// WriteFileAtomic writes the given content to a file path, replacing any
// previous content in a single atomic step.
func WriteFileAtomic(content string, path string) error {
	evaluatedPath, err := resolvePath(path)
	if len(evaluatedPath) > 0 && err == nil {
		path = evaluatedPath
	}
	return atomic.WriteFile(path, strings.NewReader(content))
}

func resolvePath(path string) (string, error) {
	return filepath.EvalSymlinks(path)
}

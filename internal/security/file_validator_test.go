package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileValidator_ValidGoFile(t *testing.T) {
	content := `package main

import "fmt"

func main() {
	fmt.Println("Hello, World!")
}
`
	tmpFile := writeTempFile(t, "test.go", []byte(content))

	validator := NewFileValidator()
	err := validator.ValidateStubFile(tmpFile)
	assert.NoError(t, err)
}

func TestFileValidator_TinyValidGoFile(t *testing.T) {
	content := `package main
func main() {}
`
	tmpFile := writeTempFile(t, "test.go", []byte(content))

	validator := NewFileValidator()
	err := validator.ValidateStubFile(tmpFile)
	assert.NoError(t, err, "small stub files must still be validated, not skipped")
}

func TestFileValidator_ImagePlantedAsGo(t *testing.T) {
	pngHeader := []byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
		0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
	}
	content := append(pngHeader, make([]byte, 4096)...)

	tmpFile := writeTempFile(t, "malicious.go", content)

	validator := NewFileValidator()
	err := validator.ValidateStubFile(tmpFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "binary")
}

func TestFileValidator_BinaryDataAsGo(t *testing.T) {
	content := make([]byte, 4096)
	for i := range content {
		content[i] = byte(128 + (i % 128))
	}

	tmpFile := writeTempFile(t, "malicious.go", content)

	validator := NewFileValidator()
	err := validator.ValidateStubFile(tmpFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "binary")
}

func TestFileValidator_TextWithNoGoPatterns(t *testing.T) {
	content := []byte("This is not code at all. Just random text about nothing in particular.")

	tmpFile := writeTempFile(t, "corrupted.go", content)

	validator := NewFileValidator()
	err := validator.ValidateStubFile(tmpFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "patterns")
}

func writeTempFile(t *testing.T, name string, content []byte) string {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, name)
	err := os.WriteFile(tmpFile, content, 0644)
	require.NoError(t, err)
	return tmpFile
}

package vulkan

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spirv(words ...uint32) []byte {
	b := make([]byte, 4*len(words))
	for k, w := range words {
		binary.LittleEndian.PutUint32(b[4*k:], w)
	}
	return b
}

func TestNewWordsUint32(t *testing.T) {
	words, err := NewWordsUint32(spirv(spirvMagic, 0x00010000, 42))
	require.NoError(t, err)
	assert.Equal(t, WordsUint32{spirvMagic, 0x00010000, 42}, words)
	assert.Equal(t, uint64(12), words.Sizeof())
}

func TestNewWordsUint32Errors(t *testing.T) {
	_, err := NewWordsUint32(nil)
	assert.ErrorContains(t, err, "multiple of 4")

	_, err = NewWordsUint32([]byte{0x03, 0x02, 0x23})
	assert.ErrorContains(t, err, "multiple of 4")

	_, err = NewWordsUint32(spirv(0x03022307))
	assert.ErrorContains(t, err, "magic")
}

func TestLoadWords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vert.spv")
	require.NoError(t, os.WriteFile(path, spirv(spirvMagic, 1), 0o644))

	words, err := LoadWords(path)
	require.NoError(t, err)
	assert.Len(t, words, 2)

	_, err = LoadWords(filepath.Join(dir, "frag.spv"))
	assert.ErrorContains(t, err, "read shader")

	bad := filepath.Join(dir, "bad.spv")
	require.NoError(t, os.WriteFile(bad, []byte("not spir-v"), 0o644))
	_, err = LoadWords(bad)
	assert.ErrorContains(t, err, bad)
}

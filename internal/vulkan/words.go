package vulkan

import (
	"bytes"
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
)

const spirvMagic = 0x07230203

// 32-bit Words
type WordsUint32 []uint32

func NewWordsUint32(b []byte) (WordsUint32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Errorf("spir-v size %d is not a positive multiple of 4", len(b))
	}
	words := make([]uint32, len(b)/4)
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, words); err != nil {
		return nil, errors.Wrap(err, "decode spir-v")
	}
	if words[0] != spirvMagic {
		return nil, errors.Errorf("bad spir-v magic %#08x", words[0])
	}
	return WordsUint32(words), nil
}

func (words WordsUint32) Sizeof() uint64 {
	return uint64(len(words) * 4)
}

// LoadWords reads a SPIR-V module from path.
func LoadWords(path string) (WordsUint32, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read shader")
	}
	words, err := NewWordsUint32(b)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return words, nil
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemovePrefix(t *testing.T) {
	s, ok := RemovePrefix(".zdebug_info", ".zdebug")
	assert.True(t, ok)
	assert.Equal(t, "_info", s)

	_, ok = RemovePrefix(".debug_info", ".zdebug")
	assert.False(t, ok)
}

func TestBitsAndSignExtend(t *testing.T) {
	assert.Equal(t, uint32(1), Bit(0b10, 1))
	assert.Equal(t, uint32(0b101), Bits(0b1010100, 6, 2))
	assert.Equal(t, uint64(0xffffffffffffffff), SignExtend(0xfff, 11))
	assert.Equal(t, uint64(0x7ff), SignExtend(0x7ff, 11))
}

func TestReadWriteRoundTrip(t *testing.T) {
	buf := make([]byte, 8)
	Write[uint64](buf, 0x0102030405060708)
	var got uint64
	Read(buf, &got)
	assert.Equal(t, uint64(0x0102030405060708), got)
	assert.Equal(t, uint32(0x05060708), Read32(buf))
}

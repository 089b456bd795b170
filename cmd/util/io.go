package util

import (
	"io"
	"os"
	"strconv"
)

func OpenFile(path string) *os.File {
	f, err := os.Open(path)
	Assert(err, "Could not open file '%s'", path)
	return f
}

func CreateFile(path string) *os.File {
	f, err := os.Create(path)
	Assert(err, "Could not create file '%s'", path)
	return f
}

func CopyFile(src, dest string) {
	_, err := io.Copy(CreateFile(dest), OpenFile(src))
	Assert(err, "Could not copy '%s' to '%s'", src, dest)
}

func ParseInt(str string) int {
	num, err := strconv.ParseInt(str, 10, 32)
	Assert(err, "Could not parse '%s' as an integer", str)
	return int(num)
}

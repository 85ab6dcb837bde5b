package storage

import (
	"testing"

	"github.com/Herwig9820/Justina-interpreter-sub002/errz"
	"github.com/stretchr/testify/require"
)

func TestWriteThenRead(t *testing.T) {
	f := NewMemFiles()
	require.Nil(t, f.Mkdir("data"))
	h, err := f.Open("data/log.txt", ModeWrite)
	require.Nil(t, err)
	require.Equal(t, 1, h)
	require.Nil(t, f.WriteLine(h, "one"))
	require.Nil(t, f.WriteLine(h, "two"))
	require.Nil(t, f.Close(h))

	h, err = f.Open("data/log.txt", ModeRead)
	require.Nil(t, err)
	eof, err := f.EOF(h)
	require.Nil(t, err)
	require.False(t, eof)
	line, err := f.ReadLine(h)
	require.Nil(t, err)
	require.Equal(t, "one", line)
	line, err = f.ReadLine(h)
	require.Nil(t, err)
	require.Equal(t, "two", line)
	eof, err = f.EOF(h)
	require.Nil(t, err)
	require.True(t, eof)

	require.Nil(t, f.Seek(h, 0))
	line, err = f.ReadLine(h)
	require.Nil(t, err)
	require.Equal(t, "one", line)
	require.Nil(t, f.Close(h))
}

func TestHandleTable(t *testing.T) {
	f := NewMemFiles(WithMaxOpenFiles(2))
	a, err := f.Open("a", ModeWrite)
	require.Nil(t, err)
	_, err = f.Open("b", ModeWrite)
	require.Nil(t, err)
	_, err = f.Open("c", ModeWrite)
	require.True(t, errz.Is(err, errz.ErrTooManyFiles))
	require.Equal(t, 2, f.OpenCount())

	require.Nil(t, f.Close(a))
	require.True(t, errz.Is(f.Close(a), errz.ErrFileNotOpen))
	require.Nil(t, f.CloseAll())
	require.Equal(t, 0, f.OpenCount())
}

func TestDirectories(t *testing.T) {
	f := NewMemFiles()
	require.Nil(t, f.Mkdir("d/sub"))
	h, err := f.Open("d/file", ModeAppend)
	require.Nil(t, err)
	require.Nil(t, f.Close(h))

	names, err := f.ListDir("d")
	require.Nil(t, err)
	require.Equal(t, []string{"file", "sub/"}, names)

	require.True(t, errz.Is(f.Rmdir("d"), errz.ErrFileIO))
	require.Nil(t, f.Rmdir("d/sub"))
	require.Nil(t, f.Remove("d/file"))
	require.False(t, f.Exists("d/file"))
	require.True(t, f.Exists("d"))
}

func TestInvalidMode(t *testing.T) {
	f := NewMemFiles()
	_, err := f.Open("x", 9)
	require.True(t, errz.Is(err, errz.ErrArgRange))
}

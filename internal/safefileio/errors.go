// Package safefileio provides file I/O that refuses to follow symbolic links
// and only ever operates on regular files.
package safefileio

import "errors"

var (
	// ErrInvalidFilePath indicates that the specified file path is invalid.
	ErrInvalidFilePath = errors.New("invalid file path")

	// ErrIsSymlink indicates that the specified path is a symbolic link, which is not allowed.
	ErrIsSymlink = errors.New("path is a symbolic link")

	// ErrNotRegularFile indicates that the path names a directory, device, socket or pipe.
	ErrNotRegularFile = errors.New("not a regular file")

	// ErrFileTooLarge indicates that the file exceeds the read limit.
	ErrFileTooLarge = errors.New("file too large")
)

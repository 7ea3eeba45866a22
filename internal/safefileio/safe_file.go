package safefileio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// MaxFileSize is the default read limit used by ReadFile callers (128 MB).
const MaxFileSize = 128 * 1024 * 1024

// logFilePerm is applied to files created by OpenAppend.
const logFilePerm os.FileMode = 0o600

// FileSystem abstracts opening files so tests can inject failures.
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
}

// File is the subset of *os.File used by this package.
type File interface {
	io.Reader
	io.Writer
	Close() error
	Stat() (os.FileInfo, error)
	Truncate(size int64) error
}

var defaultFS FileSystem = osFS{}

type osFS struct{}

func (osFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	// #nosec G304 - the opened descriptor is validated with fstat before use
	return os.OpenFile(name, flag, perm)
}

// ReadFile reads the whole content of a regular file. The final path
// component must not be a symlink. Files larger than maxSize bytes are
// rejected with ErrFileTooLarge; maxSize <= 0 selects MaxFileSize.
func ReadFile(filePath string, maxSize int64) ([]byte, error) {
	return readFileWithFS(filePath, maxSize, defaultFS)
}

func readFileWithFS(filePath string, maxSize int64, fs FileSystem) (content []byte, err error) {
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}

	file, err := openNoFollow(fs, filePath, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", closeErr)
		}
	}()

	info, err := validateFile(file, filePath)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrFileTooLarge, filePath, info.Size(), maxSize)
	}

	// The file may grow between fstat and read.
	content, err = io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(content)) > maxSize {
		return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, filePath)
	}

	return content, nil
}

// OverwriteFile replaces the content of an existing regular file in place.
// The file keeps its inode, owner and mode. No temporary copy is made, so a
// failure part-way through the write leaves the file truncated.
func OverwriteFile(filePath string, content []byte) error {
	return overwriteFileWithFS(filePath, content, defaultFS)
}

func overwriteFileWithFS(filePath string, content []byte, fs FileSystem) (err error) {
	// O_TRUNC is deliberately not passed: truncation happens only after the
	// descriptor is confirmed to be a regular file.
	file, err := openNoFollow(fs, filePath, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", closeErr)
		}
	}()

	if _, err := validateFile(file, filePath); err != nil {
		return err
	}

	if err := file.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", filePath, err)
	}
	if _, err := file.Write(content); err != nil {
		return fmt.Errorf("failed to write to %s: %w", filePath, err)
	}

	return nil
}

// OpenAppend opens (creating if needed) a regular file for appending with
// owner-only permissions. The parent directory is created when missing.
func OpenAppend(filePath string) (*os.File, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := openNoFollow(defaultFS, filePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, logFilePerm)
	if err != nil {
		return nil, err
	}
	if _, err := validateFile(file, filePath); err != nil {
		_ = file.Close()
		return nil, err
	}

	osFile, ok := file.(*os.File)
	if !ok {
		_ = file.Close()
		return nil, fmt.Errorf("%w: unexpected file type for %s", ErrInvalidFilePath, filePath)
	}
	return osFile, nil
}

func openNoFollow(fs FileSystem, filePath string, flag int, perm os.FileMode) (File, error) {
	if filePath == "" {
		return nil, ErrInvalidFilePath
	}
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilePath, err)
	}

	file, err := fs.OpenFile(absPath, flag|syscall.O_NOFOLLOW, perm)
	if err != nil {
		if isNoFollowError(err) {
			return nil, fmt.Errorf("%w: %s", ErrIsSymlink, filePath)
		}
		return nil, err
	}
	return file, nil
}

// validateFile uses the descriptor, not the path, so the check applies to
// the file that was actually opened.
func validateFile(file File, filePath string) (os.FileInfo, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, filePath)
	}
	return info, nil
}

// isNoFollowError reports whether err comes from opening a symlink with
// O_NOFOLLOW. Linux returns ELOOP, FreeBSD returns EMLINK.
func isNoFollowError(err error) bool {
	var e *os.PathError
	if !errors.As(err, &e) {
		return false
	}
	return errors.Is(e.Err, syscall.ELOOP) || errors.Is(e.Err, syscall.EMLINK)
}

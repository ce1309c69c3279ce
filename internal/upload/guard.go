// Package upload validates customer photos and stores them under generated names.
package upload

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/umalmyha/intake/internal/errors"
)

// MaxSize is the largest accepted upload in bytes
const MaxSize int64 = 5 * 1024 * 1024

// MaxPathLength is the longest stored path customer record can reference, in characters
const MaxPathLength = 255

// AcceptedMimeType is the only content type accepted after sniffing
const AcceptedMimeType = "image/jpeg"

const (
	mimeBytesNumber = 512
	nameRandomBytes = 8
	nameTimeLayout  = "20060102_150405"
)

var storedNameRegexp = regexp.MustCompile(`^customer_\d{8}_\d{6}_[0-9a-f]{16}\.(jpg|jpeg)$`)

var acceptedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
}

// ErrNoFile means user didn't choose any file, it is not a rejection
var ErrNoFile = errors.New("no file was uploaded")

// File is uploaded file as received from client
type File struct {
	// Name is client-supplied file name, it is used only to check extension
	Name string
	// Size is declared size in bytes
	Size    int64
	Content io.ReadSeeker
	// Err is set if transfer of the file failed
	Err error
}

// Guard validates uploaded files and puts them into storage
type Guard struct {
	storage Storage
	now     func() time.Time
	random  io.Reader
}

// NewGuard builds Guard on top of storage
func NewGuard(storage Storage) *Guard {
	return &Guard{
		storage: storage,
		now:     time.Now,
		random:  rand.Reader,
	}
}

// Validate checks that file was transferred, fits size limit, is jpeg by content and has jpeg extension.
// It returns lower-cased extension of accepted file.
func (g *Guard) Validate(f *File) (string, error) {
	if f == nil {
		return "", ErrNoFile
	}

	if f.Err != nil {
		if errors.Is(f.Err, http.ErrMissingFile) {
			return "", ErrNoFile
		}
		return "", reject(ReasonTransferFailed, f.Err.Error())
	}

	if f.Content == nil {
		return "", ErrNoFile
	}

	if f.Size > MaxSize {
		return "", reject(ReasonTooLarge, fmt.Sprintf("file has %d bytes, limit is %d bytes", f.Size, MaxSize))
	}

	mimeType, err := sniff(f.Content)
	if err != nil {
		return "", reject(ReasonTransferFailed, err.Error())
	}

	if mimeType != AcceptedMimeType {
		return "", reject(ReasonContentType, fmt.Sprintf("MIME type %s is not allowed", mimeType))
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Name), "."))
	if _, ok := acceptedExtensions[ext]; !ok {
		return "", reject(ReasonExtension, fmt.Sprintf("extension %q is not allowed", ext))
	}

	return ext, nil
}

// Store puts validated file into storage under generated name and returns path to reference it by
func (g *Guard) Store(ctx context.Context, f *File, ext string) (string, error) {
	name, err := g.generateName(ext)
	if err != nil {
		return "", apperrors.NewStorageErr("upload naming", err)
	}

	// declared size may lie, so never read more than the limit allows
	content := &countingReader{r: io.LimitReader(f.Content, MaxSize+1)}

	path, err := g.storage.Put(ctx, name, content, f.Size)
	if err != nil {
		return "", apperrors.NewStorageErr("upload store", err)
	}

	if content.n > MaxSize {
		if err := g.storage.Delete(ctx, name); err != nil {
			return "", apperrors.NewStorageErr("upload cleanup", err)
		}
		return "", reject(ReasonTooLarge, fmt.Sprintf("file exceeds limit of %d bytes", MaxSize))
	}

	// path depends on storage location only, so it is a configuration defect and not user input
	if utf8.RuneCountInString(path) > MaxPathLength {
		if err := g.storage.Delete(ctx, name); err != nil {
			return "", apperrors.NewStorageErr("upload cleanup", err)
		}
		return "", apperrors.NewMalformedQueryErr("upload store", fmt.Errorf("stored path %s exceeds %d characters", path, MaxPathLength))
	}

	return path, nil
}

// Open opens file stored previously, only generated names are accepted
func (g *Guard) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if !IsStoredName(name) {
		return nil, apperrors.NewEntryNotFoundErr(fmt.Sprintf("image %s doesn't exist", name))
	}

	rc, err := g.storage.Open(ctx, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewEntryNotFoundErr(fmt.Sprintf("image %s doesn't exist", name))
		}
		return nil, apperrors.NewStorageErr("upload open", err)
	}
	return rc, nil
}

// IsStoredName reports whether name follows stored file naming
func IsStoredName(name string) bool {
	return storedNameRegexp.MatchString(name)
}

func (g *Guard) generateName(ext string) (string, error) {
	b := make([]byte, nameRandomBytes)
	if _, err := io.ReadFull(g.random, b); err != nil {
		return "", fmt.Errorf("failed to read random bytes - %w", err)
	}
	return fmt.Sprintf("customer_%s_%s.%s", g.now().UTC().Format(nameTimeLayout), hex.EncodeToString(b), ext), nil
}

func sniff(content io.ReadSeeker) (string, error) {
	mimeBuff := make([]byte, mimeBytesNumber)
	n, err := io.ReadFull(content, mimeBuff)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("failed to read file content - %w", err)
	}

	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind file content - %w", err)
	}

	return http.DetectContentType(mimeBuff[:n]), nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Package storage removes the images referenced by posts. Images are
// uploaded elsewhere, posts only keep their path or URL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	a "bitwise74/blog-api/aws"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var ErrInvalidRef = errors.New("invalid image reference")

type ImageStore interface {
	Remove(ctx context.Context, ref string) error
}

// Local keeps images below BaseDir
type Local struct {
	BaseDir string
}

func NewLocal(baseDir string) *Local {
	return &Local{BaseDir: baseDir}
}

func (l *Local) Remove(_ context.Context, ref string) error {
	p, err := l.path(ref)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil {
		return fmt.Errorf("failed to remove image, %w", err)
	}

	return nil
}

// path joins ref onto the base dir. Refs escaping it, naming the base dir
// itself or passing through a hidden entry such as .env are refused.
func (l *Local) path(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrInvalidRef
	}

	base, err := filepath.Abs(l.BaseDir)
	if err != nil {
		return "", err
	}

	p := filepath.Join(base, filepath.FromSlash(ref))

	rel, ok := relative(base, p)
	if !ok || rel == "." {
		return "", ErrInvalidRef
	}

	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if hidden(part) {
			return "", ErrInvalidRef
		}
	}

	return p, nil
}

// Within reports whether path resolves to dir or somewhere below it
func Within(dir, path string) bool {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}

	path, err = filepath.Abs(path)
	if err != nil {
		return false
	}

	_, ok := relative(dir, path)
	return ok
}

// relative is filepath.Rel that fails for targets outside base. A name
// like "..cover.png" is a file, not a parent reference.
func relative(base, target string) (string, bool) {
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}

	return rel, true
}

// hidden matches dot files and dirs, leaving names that merely start
// with two dots alone
func hidden(name string) bool {
	return strings.HasPrefix(name, ".") && !strings.HasPrefix(name, "..")
}

// S3 keeps images in a bucket, the reference being the object key
type S3 struct {
	client *a.S3Client
}

func NewS3(c *a.S3Client) *S3 {
	return &S3{client: c}
}

func (s *S3) Remove(ctx context.Context, ref string) error {
	key := strings.TrimLeft(strings.TrimSpace(ref), "/")
	if key == "" {
		return ErrInvalidRef
	}

	_, err := s.client.C.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: s.client.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete image from S3, %w", err)
	}

	return nil
}

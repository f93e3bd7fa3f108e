// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// MaxUploadFiles is the backend's per-request limit for Images.
const MaxUploadFiles = 10

// AllowedImageExtensions mirrors the backend's upload filter.
var AllowedImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// File is one upload part.
type File struct {
	Name   string
	Reader io.Reader
}

// UploadService covers /upload.
type UploadService struct {
	c *Client
}

// CheckImageName rejects names the backend would refuse.
func CheckImageName(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range AllowedImageExtensions {
		if ext == allowed {
			return nil
		}
	}
	return ValidationErrors{{
		Field:   name,
		Message: "file type not allowed, use one of " + strings.Join(AllowedImageExtensions, ", "),
	}}
}

// Image uploads a single image as the "file" part.
func (s *UploadService) Image(ctx context.Context, f File) (*UploadResult, error) {
	if err := CheckImageName(f.Name); err != nil {
		return nil, err
	}
	body, contentType, err := multipartBody("file", []File{f})
	if err != nil {
		return nil, err
	}
	var out UploadResult
	err = s.c.do(ctx, request{method: http.MethodPost, path: "/upload/image", raw: body, contentType: contentType}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Images uploads up to MaxUploadFiles images as repeated "files" parts.
func (s *UploadService) Images(ctx context.Context, files []File) (*MultiUploadResult, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files given", ErrInvalid)
	}
	if len(files) > MaxUploadFiles {
		return nil, fmt.Errorf("%w: maximum %d files allowed", ErrInvalid, MaxUploadFiles)
	}
	var verrs ValidationErrors
	for _, f := range files {
		if err := CheckImageName(f.Name); err != nil {
			verrs = append(verrs, err.(ValidationErrors)...)
		}
	}
	if len(verrs) > 0 {
		return nil, verrs
	}

	body, contentType, err := multipartBody("files", files)
	if err != nil {
		return nil, err
	}
	var out MultiUploadResult
	err = s.c.do(ctx, request{method: http.MethodPost, path: "/upload/images", raw: body, contentType: contentType}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func multipartBody(field string, files []File) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := w.CreateFormFile(field, filepath.Base(f.Name))
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form part: %w", err)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

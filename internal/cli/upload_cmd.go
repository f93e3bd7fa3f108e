// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// upload_cmd.go - Image upload command.
//
// Command: upload [subcommand]
//
// Subcommands:
//   image <file>         Upload one image, print its URL
//   images <file>...     Upload up to 10 images in one request
//
// Allowed types: .jpg .jpeg .png .gif .webp. Uploading needs a moderator,
// the only role that can attach the URL to anything.

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jeranaias/ytnews-tui/internal/access"
	"github.com/jeranaias/ytnews-tui/internal/api"
)

// HandleUpload handles "ytnews upload".
func HandleUpload(rt *Runtime, args Args) error {
	p := NewArgParser(args.Raw)
	sub := p.Subcommand()
	if sub != "image" && sub != "images" {
		return ErrUnknownSubcommand("upload", sub, "image", "images")
	}

	paths := p.PositionalFrom(1)
	if len(paths) == 0 {
		return ErrMissingArgument("file", "ytnews upload image cover.png")
	}
	if sub == "image" && len(paths) > 1 {
		return NewValidationErrorWithExample("file", "", "image takes one file", "ytnews upload images a.png b.png")
	}
	if len(paths) > api.MaxUploadFiles {
		return NewValidationError("files", fmt.Sprint(len(paths)), fmt.Sprintf("at most %d files per upload", api.MaxUploadFiles))
	}
	// Reject bad names before opening anything or asking the server
	for _, path := range paths {
		if err := api.CheckImageName(path); err != nil {
			return err
		}
	}

	if _, err := rt.Gate(access.RouteAdminAnnouncementNew, "upload"); err != nil {
		return err
	}

	files := make([]api.File, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		files = append(files, api.File{Name: filepath.Base(path), Reader: f})
	}

	if sub == "image" {
		res, err := rt.Client.Upload.Image(rt.Context(), files[0])
		if err != nil {
			return NewCommandError("upload", "image", err)
		}
		if !rt.Text() {
			return rt.Print("upload image", res)
		}
		fmt.Fprintln(rt.Out, res.URL)
		return nil
	}

	res, err := rt.Client.Upload.Images(rt.Context(), files)
	if err != nil {
		return NewCommandError("upload", "images", err)
	}
	if !rt.Text() {
		return rt.Print("upload images", res)
	}
	for _, r := range res.Files {
		fmt.Fprintf(rt.Out, "%s\t%s\n", r.Filename, r.URL)
	}
	return nil
}

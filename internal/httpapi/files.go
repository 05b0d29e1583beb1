/*
DESCRIPTION
  files.go implements the /files and /thumbnail routes.

AUTHORS
  Resinforge Engineering <engineering@resinforge.dev>

LICENSE
  Copyright (C) 2026 Resinforge. All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of Resinforge.
*/

package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/resinforge/printctl/internal/archive"
	_ "github.com/resinforge/printctl/internal/archive/goo"
	_ "github.com/resinforge/printctl/internal/archive/sl1"
	"github.com/resinforge/printctl/internal/perr"
	"github.com/resinforge/printctl/internal/xattrmeta"
)

// fileEntry is one row of a GET /files listing.
type fileEntry struct {
	Name       string `json:"name"`
	SizeBytes  int64  `json:"size_bytes"`
	PrintCount uint32 `json:"print_count"`
	Rating     uint8  `json:"rating"`
	Favorite   bool   `json:"favorite"`
}

func (s *Server) handleFilesList(w http.ResponseWriter, r *http.Request) {
	dir := s.config().API.UploadPath
	entries, err := os.ReadDir(dir)
	if err != nil {
		writeError(w, perr.FileErr(fmt.Errorf("listing %s: %w", dir, err)))
		return
	}

	out := make([]fileEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(dir, e.Name())
		meta := xattrmeta.Read(path)
		out = append(out, fileEntry{
			Name:       e.Name(),
			SizeBytes:  info.Size(),
			PrintCount: meta.PrintCount,
			Rating:     meta.Rating,
			Favorite:   meta.Favorite,
		})
	}
	writeJSON(w, out)
}

// handleFilesUSB is left unimplemented: browsing removable media is
// out of scope for this daemon (see the USB open question).
func (s *Server) handleFilesUSB(w http.ResponseWriter, r *http.Request) {
	writeError(w, perr.FileErr(fmt.Errorf("USB archive browsing is not implemented")).WithStatus(http.StatusNotImplemented))
}

func (s *Server) archivePath(name string) string {
	return filepath.Join(s.config().API.UploadPath, filepath.Base(name))
}

func (s *Server) handleFileGet(w http.ResponseWriter, r *http.Request) {
	path := s.archivePath(r.PathValue("name"))
	f, err := os.Open(path)
	if err != nil {
		writeError(w, perr.FileErr(fmt.Errorf("opening %s: %w", path, err)).WithStatus(http.StatusNotFound))
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filepath.Base(path)+"\"")
	if _, err := io.Copy(w, f); err != nil {
		s.log.Error("failed streaming archive to client", "path", path, "error", err.Error())
	}
}

func (s *Server) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	path := s.archivePath(r.PathValue("name"))
	if !strings.EqualFold(filepath.Ext(path), ".sl1") && !strings.EqualFold(filepath.Ext(path), ".goo") {
		writeError(w, perr.ConfigurationErr(fmt.Errorf("unsupported archive extension %q", filepath.Ext(path))).WithStatus(400))
		return
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		writeError(w, perr.FileErr(fmt.Errorf("creating %s: %w", path, err)))
		return
	}
	defer f.Close()

	if _, err := io.Copy(f, r.Body); err != nil {
		writeError(w, perr.FileErr(fmt.Errorf("writing %s: %w", path, err)))
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleFileDelete(w http.ResponseWriter, r *http.Request) {
	path := s.archivePath(r.PathValue("name"))
	if err := os.Remove(path); err != nil {
		writeError(w, perr.FileErr(fmt.Errorf("removing %s: %w", path, err)).WithStatus(http.StatusNotFound))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	path := s.archivePath(r.PathValue("name"))
	pf, err := archive.Open(path)
	if err != nil {
		writeError(w, err)
		return
	}
	defer pf.Close()

	size := archive.ThumbnailSmall
	if r.URL.Query().Get("size") == "large" {
		size = archive.ThumbnailLarge
	}
	data, err := pf.Thumbnail(size)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}

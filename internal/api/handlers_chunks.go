package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/docseg/docseg/internal/chunker"
	"github.com/docseg/docseg/internal/parser"
	"github.com/docseg/docseg/internal/serialize"
)

// handleChunkPreview parses and chunks an uploaded file synchronously,
// returning the chunks without extraction or storage. Useful for inspecting
// how a document will segment before ingesting it.
func (s *Server) handleChunkPreview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	p, err := parser.ForFile(filename)
	if err != nil {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	doc, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		jsonError(w, "parse failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	keepFurniture := s.cfg.KeepFurniture
	if v := r.FormValue("keep_furniture"); v != "" {
		keepFurniture = v == "true"
	}
	delim := s.cfg.ChunkDelim
	if v := r.FormValue("delim"); v != "" {
		delim = v
	}

	ch := chunker.NewHierarchical(chunker.Options{
		Delim:      delim,
		Serializer: serialize.NewMarkdownFactory(serialize.Options{KeepFurniture: keepFurniture}),
	})
	chunks, err := ch.ChunkAll(doc)
	if err != nil {
		jsonError(w, "chunk failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	type previewChunk struct {
		chunker.Chunk
		Contextualized string `json:"contextualized"`
	}
	out := make([]previewChunk, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, previewChunk{Chunk: c, Contextualized: ch.Contextualize(c)})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"title":  doc.Name,
		"chunks": out,
		"text":   chunker.JoinText(chunks),
	})
}

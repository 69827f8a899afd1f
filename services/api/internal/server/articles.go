package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"articlehub/internal/util"
	"articlehub/services/api/internal/app"
)

const multipartMemory = 1 << 20

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := s.articles.List(r.Context())
	if err != nil {
		writeAppError(w, r, "list articles", err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	article, err := s.articles.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAppError(w, r, "get article", err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}
	upload, cleanup, err := s.spoolImage(r)
	if err != nil {
		writeSpoolError(w, r, err)
		return
	}
	defer cleanup()

	article, err := s.articles.Create(r.Context(), app.ArticleInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Content:     r.FormValue("content"),
		SourceURL:   r.FormValue("sourceUrl"),
	}, upload)
	if err != nil {
		writeAppError(w, r, "create article", err)
		return
	}
	writeSuccess(w, http.StatusCreated, "article created", article)
}

func (s *Server) handleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}
	upload, cleanup, err := s.spoolImage(r)
	if err != nil {
		writeSpoolError(w, r, err)
		return
	}
	defer cleanup()

	article, err := s.articles.Update(r.Context(), r.PathValue("id"), app.ArticleUpdate{
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
	}, upload)
	if err != nil {
		writeAppError(w, r, "update article", err)
		return
	}
	writeSuccess(w, http.StatusOK, "article updated", article)
}

func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	if err := s.articles.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeAppError(w, r, "delete article", err)
		return
	}
	writeSuccess(w, http.StatusOK, "article deleted", nil)
}

// parseForm accepts multipart or urlencoded bodies.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) bool {
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid form body")
	return false
}

// spoolImage copies the optional "image" part to a temp file. cleanup removes
// the temp file and any multipart spill files.
func (s *Server) spoolImage(r *http.Request) (*app.Upload, func(), error) {
	cleanup := func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}
	if r.MultipartForm == nil {
		return nil, cleanup, nil
	}
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, cleanup, nil
	}
	if err != nil {
		return nil, cleanup, fmt.Errorf("read image part: %w", err)
	}
	defer file.Close()

	localPath, err := s.writeTemp(file, header)
	if err != nil {
		return nil, cleanup, err
	}
	upload := &app.Upload{
		LocalPath:   localPath,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}
	return upload, func() {
		_ = os.Remove(localPath)
		cleanup()
	}, nil
}

func (s *Server) writeTemp(src multipart.File, header *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	tmp, err := os.CreateTemp(s.uploadDir, "articlehub-upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("spool image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return tmp.Name(), nil
}

func writeSpoolError(w http.ResponseWriter, r *http.Request, err error) {
	util.LoggerFromContext(r.Context()).Error("spool upload failed", "err", err)
	writeError(w, http.StatusInternalServerError, "failed to read uploaded image")
}

package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/koustreak/s3gate/internal/errs"
	"github.com/koustreak/s3gate/internal/gateway"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temporary file.
const multipartMemory = 32 << 20

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.gw.List(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		HandleError(s.requestLog(r), w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, entries)
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	entry, err := s.gw.Metadata(r.Context(), r.URL.Query().Get("key"))
	if err != nil {
		HandleError(s.requestLog(r), w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	log := s.requestLog(r)

	dl, err := s.gw.Download(r.Context(), r.URL.Query().Get("key"))
	if err != nil {
		HandleError(log, w, err)
		return
	}
	defer func() { _ = dl.Close() }()

	contentType := dl.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", contentDisposition(dl.Key))
	if dl.Size >= 0 {
		h.Set("Content-Length", strconv.FormatInt(dl.Size, 10))
	}
	if dl.ETag != "" {
		h.Set("ETag", `"`+strings.Trim(dl.ETag, `"`)+`"`)
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, dl); err != nil {
		// Headers are gone; all that is left is to record the broken stream.
		log.ErrorWith("download interrupted", err, map[string]interface{}{"key": dl.Key})
	}
}

// contentDisposition names the attachment after the last path segment of key.
func contentDisposition(key string) string {
	name := path.Base(strings.TrimRight(key, gateway.Delimiter))
	if name == "." || name == gateway.Delimiter {
		name = "download"
	}
	return `attachment; filename="` + url.PathEscape(name) + `"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	log := s.requestLog(r)

	if s.opts.MaxUploadSize > 0 {
		if r.ContentLength > s.opts.MaxUploadSize {
			WriteError(w, http.StatusRequestEntityTooLarge, errs.ErrKindInvalidInput.String(), "upload exceeds maximum size", "file")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadSize)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, errs.ErrKindInvalidInput.String(), "upload exceeds maximum size", "file")
			return
		}
		HandleError(log, w, errs.Wrap(errs.ErrKindInvalidInput, "expected a multipart form", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	key := r.URL.Query().Get("key")
	if key == "" {
		key = r.FormValue("key")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		HandleError(log, w, errs.InvalidInput("file", "multipart field \"file\" is required"))
		return
	}
	defer func() { _ = file.Close() }()

	if err := s.gw.Upload(r.Context(), key, file, header.Size, partContentType(header)); err != nil {
		HandleError(log, w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, MessageResponse{Message: "File uploaded successfully", Key: key})
}

func partContentType(h *multipart.FileHeader) string {
	ct := h.Header.Get("Content-Type")
	if ct == "application/octet-stream" {
		return ""
	}
	return ct
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.gw.Delete(r.Context(), r.URL.Query().Get("key")); err != nil {
		HandleError(s.requestLog(r), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBuckets(w http.ResponseWriter, r *http.Request) {
	names, err := s.gw.ListBuckets(r.Context())
	if err != nil {
		HandleError(s.requestLog(r), w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, names)
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	key, err := s.gw.CreateFolder(r.Context(), r.URL.Query().Get("folderPath"))
	if err != nil {
		HandleError(s.requestLog(r), w, err)
		return
	}
	_ = WriteJSON(w, http.StatusCreated, MessageResponse{Message: "Folder created successfully", Key: key})
}

func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	if err := s.gw.TestConnection(r.Context()); err != nil {
		HandleError(s.requestLog(r), w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, MessageResponse{Message: "Connection successful"})
}

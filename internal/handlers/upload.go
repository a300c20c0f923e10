package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/adoptly/apiserver/internal/services"
)

const (
	formFieldImage     = "image"
	maxMultipartMemory = 8 << 20
	// multipart framing on top of the image itself
	uploadOverhead = 1 << 20
)

var errUploadTooLarge = errors.New("image exceeds 5 MiB")

// readImageUpload pulls the image part out of a multipart form. The content
// type is sniffed from the bytes rather than trusted from the client.
func readImageUpload(w http.ResponseWriter, r *http.Request) (services.Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxImageBytes+uploadOverhead)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return services.Image{}, errUploadTooLarge
		}
		return services.Image{}, errors.New("invalid multipart form")
	}

	file, _, err := r.FormFile(formFieldImage)
	if err != nil {
		return services.Image{}, errors.New("image is required")
	}
	defer file.Close()

	data, err := readFileLimited(file, services.MaxImageBytes)
	if err != nil {
		return services.Image{}, err
	}
	if len(data) == 0 {
		return services.Image{}, errors.New("image is empty")
	}

	contentType := http.DetectContentType(data)
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return services.Image{
		Body:        bytes.NewReader(data),
		Size:        int64(len(data)),
		ContentType: contentType,
	}, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errUploadTooLarge
	}
	return data, nil
}

// writeUploadError answers 413 for oversized images and 400 otherwise.
func writeUploadError(w http.ResponseWriter, err error) {
	if errors.Is(err, errUploadTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

// streamImage copies an opened image to the response.
func streamImage(w http.ResponseWriter, body io.ReadCloser, contentType string) {
	defer body.Close()
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}

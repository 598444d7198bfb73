package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/Skryldev/photo-editor/core"
	apperrors "github.com/Skryldev/photo-editor/errors"
	"github.com/Skryldev/photo-editor/utils"
)

// RemoteConfig holds connection parameters for the HTTP blob service.
type RemoteConfig struct {
	BaseURL       string        // e.g. https://files.example.com
	APIKey        string        // optional bearer token
	Timeout       time.Duration // per-request; 0 = 30s
	MaxFetchBytes int64         // cap on fetched blob size; 0 = unlimited
}

// Remote is a BlobStore backed by an HTTP file service.
// Upload is a multipart POST to {base}/files, Fetch is a plain GET on the
// blob URL, DeleteByID is a DELETE on {base}/files/{id}.
type Remote struct {
	cfg    RemoteConfig
	client *http.Client
}

// NewRemote creates a Remote blob store.  Pass a nil client to use a default
// one with the configured timeout.
func NewRemote(cfg RemoteConfig, client *http.Client) (*Remote, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote storage: base URL must not be empty")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Remote{cfg: cfg, client: client}, nil
}

type uploadResponse struct {
	URL    string `json:"url"`
	ID     string `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (r *Remote) Upload(ctx context.Context, data []byte, filename string) (core.BlobRef, error) {
	if err := ctx.Err(); err != nil {
		return core.BlobRef{}, apperrors.Wrap(apperrors.CategoryStorage, "remote.upload", err)
	}

	body := utils.AcquireBuffer()
	defer utils.ReleaseBuffer(body)

	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return core.BlobRef{}, apperrors.Wrap(apperrors.CategoryStorage, "remote.upload.multipart", err)
	}
	if _, err := part.Write(data); err != nil {
		return core.BlobRef{}, apperrors.Wrap(apperrors.CategoryStorage, "remote.upload.multipart", err)
	}
	if err := mw.Close(); err != nil {
		return core.BlobRef{}, apperrors.Wrap(apperrors.CategoryStorage, "remote.upload.multipart", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/files", bytes.NewReader(body.Bytes()))
	if err != nil {
		return core.BlobRef{}, apperrors.Wrap(apperrors.CategoryStorage, "remote.upload", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.auth(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return core.BlobRef{}, apperrors.Transient("remote.upload", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return core.BlobRef{}, r.statusError("remote.upload", resp)
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return core.BlobRef{}, apperrors.Wrap(apperrors.CategoryStorage, "remote.upload.decode", err)
	}
	if out.URL == "" {
		return core.BlobRef{}, apperrors.New(apperrors.CategoryStorage, "remote.upload", apperrors.ErrEmptyResult)
	}
	return core.BlobRef{URL: out.URL, ID: out.ID, Width: out.Width, Height: out.Height}, nil
}

func (r *Remote) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryStorage, "remote.fetch", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryStorage, "remote.fetch", err)
	}
	r.auth(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, apperrors.Transient("remote.fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, r.statusError("remote.fetch", resp)
	}

	var src io.Reader = resp.Body
	if r.cfg.MaxFetchBytes > 0 {
		src = &utils.LimitedReader{R: resp.Body, Max: r.cfg.MaxFetchBytes}
	}
	buf, err := utils.DrainReader(ctx, src, 32*1024)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryStorage, "remote.fetch.read", err)
	}
	data := utils.CloneBytes(buf.Bytes())
	utils.ReleaseBuffer(buf)
	return data, nil
}

func (r *Remote) DeleteByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "remote.delete", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, r.cfg.BaseURL+"/files/"+id, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "remote.delete", err)
	}
	r.auth(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return apperrors.Transient("remote.delete", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return r.statusError("remote.delete", resp)
	}
}

func (r *Remote) auth(req *http.Request) {
	if r.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	}
}

func (r *Remote) statusError(op string, resp *http.Response) error {
	err := fmt.Errorf("unexpected status %d", resp.StatusCode)
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return apperrors.Transient(op, err)
	}
	return apperrors.New(apperrors.CategoryStorage, op, err)
}

var _ core.BlobStore = (*Remote)(nil)

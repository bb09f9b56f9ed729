package gofile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"subtitler/pkg/retry"
)

const DefaultBaseURL = "https://api.gofile.io"

// UploadResult describes a file stored on the remote host.
type UploadResult struct {
	FileID       string
	FileName     string
	DownloadPage string
}

// apiResponse is the envelope every gofile endpoint answers with.
// Anything that does not decode into this shape is treated as a
// transient failure, same as a transport error.
type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type serverData struct {
	Server string `json:"server"`
}

type uploadData struct {
	FileID       string `json:"fileId"`
	FileName     string `json:"fileName"`
	DownloadPage string `json:"downloadPage"`
}

type Client struct {
	baseURL   string
	uploadURL string
	httpc     *http.Client
	retrier   *retry.Retrier
	logger    *zap.Logger
}

func NewClient(baseURL string, retrier *retry.Retrier, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 5 * time.Minute},
		retrier: retrier,
		logger:  logger,
	}
}

// Server resolves the best upload server, retrying transient failures.
func (c *Client) Server(ctx context.Context) (string, error) {
	var server string

	attempt := 0
	err := c.retrier.Do(ctx, func() error {
		attempt++
		s, err := c.fetchServer(ctx)
		if err != nil {
			c.logger.Warn("Failed to resolve upload server",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		server = s
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("resolve upload server: %w", err)
	}

	return server, nil
}

func (c *Client) fetchServer(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/getServer", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var data serverData
	if err := decodeEnvelope(resp, &data); err != nil {
		return "", err
	}
	if data.Server == "" {
		return "", fmt.Errorf("gofile: empty server in response")
	}
	return data.Server, nil
}

// Download fetches link into dest, retrying transient failures. Each
// attempt truncates dest so a partial body is never left behind.
func (c *Client) Download(ctx context.Context, link, dest string) error {
	attempt := 0
	err := c.retrier.Do(ctx, func() error {
		attempt++
		if err := c.fetchFile(ctx, link, dest); err != nil {
			c.logger.Warn("Download failed",
				zap.String("link", link),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("download %s: %w", link, err)
	}

	c.logger.Info("File downloaded", zap.String("link", link), zap.String("dest", dest))
	return nil
}

func (c *Client) fetchFile(ctx context.Context, link, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gofile: unexpected status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}

	return out.Close()
}

// Upload stores the file at path under filename on the remote host.
// Server resolution runs first under its own retry policy; the upload
// itself is then retried independently.
func (c *Client) Upload(ctx context.Context, path, filename string) (*UploadResult, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("upload source missing: %w", err)
	}
	if filename == "" {
		filename = filepath.Base(path)
	}

	server, err := c.Server(ctx)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Using upload server", zap.String("server", server))

	var result *UploadResult
	attempt := 0
	err = c.retrier.Do(ctx, func() error {
		attempt++
		r, err := c.postFile(ctx, c.uploadEndpoint(server), path, filename)
		if err != nil {
			c.logger.Warn("Upload failed",
				zap.String("filename", filename),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", filename, err)
	}

	c.logger.Info("File uploaded",
		zap.String("filename", filename),
		zap.String("download_page", result.DownloadPage),
	)
	return result, nil
}

func (c *Client) uploadEndpoint(server string) string {
	if c.uploadURL != "" {
		return c.uploadURL
	}
	return fmt.Sprintf("https://%s.gofile.io/uploadFile", server)
}

func (c *Client) postFile(ctx context.Context, url, path, filename string) (*UploadResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		part, err := form.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(form.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var data uploadData
	if err := decodeEnvelope(resp, &data); err != nil {
		return nil, err
	}
	if data.FileID == "" || data.DownloadPage == "" {
		return nil, fmt.Errorf("gofile: incomplete upload response")
	}

	return &UploadResult{
		FileID:       data.FileID,
		FileName:     data.FileName,
		DownloadPage: data.DownloadPage,
	}, nil
}

func decodeEnvelope(resp *http.Response, data interface{}) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gofile: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("gofile: malformed response: %w", err)
	}
	if envelope.Status != "ok" {
		msg := envelope.Message
		if msg == "" {
			msg = "unknown error"
		}
		return fmt.Errorf("gofile: %s", msg)
	}
	if err := json.Unmarshal(envelope.Data, data); err != nil {
		return fmt.Errorf("gofile: malformed response data: %w", err)
	}

	return nil
}

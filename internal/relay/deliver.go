package relay

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

const (
	defaultSendTimeout = 30 * time.Second

	// Response bodies are captured for diagnostics only; cap the read.
	maxErrorBody = 64 * 1024
)

// DeliveryError reports a webhook response outside the accepted set,
// with the status and body captured for diagnostics.
type DeliveryError struct {
	Status int
	Body   string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("webhook returned status %d: %s", e.Status, e.Body)
}

// Deliverer performs the outbound HTTP transmission. Each Send opens a
// short-lived client; no connection pooling across calls.
type Deliverer struct {
	timeout time.Duration
}

// NewDeliverer creates a delivery engine. A non-positive timeout falls
// back to the default.
func NewDeliverer(timeout time.Duration) *Deliverer {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Deliverer{timeout: timeout}
}

// Send posts a wire request to its destination. Success is exactly
// status 200 or 204; every other status, 2xx included, is a
// DeliveryError. No retry: a failure is terminal for this
// message/destination pair.
func (d *Deliverer) Send(ctx context.Context, wire WireRequest) error {
	var (
		body        io.Reader
		contentType string
	)
	if wire.AttachmentPath != "" {
		pr, ct, err := multipartBody(wire)
		if err != nil {
			return err
		}
		body, contentType = pr, ct
	} else {
		body = bytes.NewReader(wire.Body)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wire.URL, body)
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	client := &http.Client{Timeout: d.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &DeliveryError{Status: resp.StatusCode, Body: string(data)}
	}
	return nil
}

// multipartBody streams the JSON payload and the attachment file as a
// multipart form. The file handle is released on every path, including
// mid-stream failures.
func multipartBody(wire WireRequest) (io.Reader, string, error) {
	f, err := os.Open(wire.AttachmentPath)
	if err != nil {
		return nil, "", fmt.Errorf("open attachment: %w", err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		defer f.Close()
		part, err := mw.CreateFormField(payloadJSONField)
		if err == nil {
			_, err = part.Write(wire.Body)
		}
		if err == nil {
			var file io.Writer
			file, err = mw.CreateFormFile(attachmentField, attachmentFilename)
			if err == nil {
				_, err = io.Copy(file, f)
			}
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()
	return pr, mw.FormDataContentType(), nil
}

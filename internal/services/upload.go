package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"viralib-backend/internal/models"
)

// UploadSession drives the file service's resumable-upload protocol: declare
// the payload, transfer it in one shot, then poll until the remote side
// finishes processing. The SDK's one-call upload hides the session phases,
// so the protocol is spoken directly here to keep start and transfer
// failures distinguishable.
type UploadSession struct {
	httpClient   *http.Client
	apiKey       string
	baseURL      string
	pollInterval time.Duration
	maxAttempts  int
}

func NewUploadSession(apiKey, baseURL string, pollInterval time.Duration, maxAttempts int) *UploadSession {
	return &UploadSession{
		httpClient:   &http.Client{Timeout: 2 * time.Minute},
		apiKey:       apiKey,
		baseURL:      baseURL,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
	}
}

type fileEnvelope struct {
	File models.RemoteFile `json:"file"`
}

// Upload pushes the payload and blocks until the remote file is ACTIVE.
// It either returns an ACTIVE handle or fails with one of the upload error
// kinds; the poll cap bounds the worst case at pollInterval × maxAttempts.
func (u *UploadSession) Upload(ctx context.Context, data []byte, mimeType, displayName string) (*models.RemoteFile, error) {
	sessionURL, err := u.start(ctx, len(data), mimeType, displayName)
	if err != nil {
		return nil, err
	}

	file, err := u.transfer(ctx, sessionURL, data)
	if err != nil {
		return nil, err
	}

	return u.awaitActive(ctx, file)
}

// start declares length and MIME type; the service answers with a session URL.
func (u *UploadSession) start(ctx context.Context, length int, mimeType, displayName string) (string, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"file": map[string]string{"display_name": displayName},
	})

	url := fmt.Sprintf("%s/upload/v1beta/files?key=%s", u.baseURL, u.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", pipelineErr(ErrKindUploadStart, err)
	}
	req.Header.Set("X-Goog-Upload-Protocol", "resumable")
	req.Header.Set("X-Goog-Upload-Command", "start")
	req.Header.Set("X-Goog-Upload-Header-Content-Length", strconv.Itoa(length))
	req.Header.Set("X-Goog-Upload-Header-Content-Type", mimeType)
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", pipelineErr(ErrKindUploadStart, fmt.Errorf("failed to open upload session: %w", err))
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", pipelineStatusErr(ErrKindUploadStart, resp.StatusCode,
			fmt.Errorf("upload session rejected with HTTP %d", resp.StatusCode))
	}

	sessionURL := resp.Header.Get("X-Goog-Upload-URL")
	if sessionURL == "" {
		return "", pipelineErr(ErrKindUploadStart, fmt.Errorf("upload session response missing session URL"))
	}

	return sessionURL, nil
}

// transfer PUTs the whole buffer with an upload+finalize directive at offset 0.
func (u *UploadSession) transfer(ctx context.Context, sessionURL string, data []byte) (*models.RemoteFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, sessionURL, bytes.NewReader(data))
	if err != nil {
		return nil, pipelineErr(ErrKindUploadTransfer, err)
	}
	req.Header.Set("X-Goog-Upload-Command", "upload, finalize")
	req.Header.Set("X-Goog-Upload-Offset", "0")
	req.ContentLength = int64(len(data))

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, pipelineErr(ErrKindUploadTransfer, fmt.Errorf("failed to transfer video bytes: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, pipelineStatusErr(ErrKindUploadTransfer, resp.StatusCode,
			fmt.Errorf("upload transfer rejected with HTTP %d", resp.StatusCode))
	}

	var envelope fileEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, pipelineErr(ErrKindUploadTransfer, fmt.Errorf("failed to decode upload response: %w", err))
	}
	if envelope.File.Name == "" {
		return nil, pipelineErr(ErrKindUploadTransfer, fmt.Errorf("upload response missing file name"))
	}

	return &envelope.File, nil
}

// errStillProcessing keeps the poll loop going; it never escapes awaitActive.
var errStillProcessing = fmt.Errorf("remote file still processing")

// classifyFileState decides what a polled state means for the session:
// done, keep waiting, or a fatal processing failure.
func classifyFileState(state string) (done bool, err error) {
	switch state {
	case models.RemoteFileActive:
		return true, nil
	case models.RemoteFileFailed:
		return false, pipelineErr(ErrKindRemoteProcessing, fmt.Errorf("remote service failed to process the video"))
	default:
		return false, errStillProcessing
	}
}

// awaitActive polls the file resource at a fixed interval up to the attempt
// cap. Transport or status errors during a poll are fatal immediately.
func (u *UploadSession) awaitActive(ctx context.Context, file *models.RemoteFile) (*models.RemoteFile, error) {
	if done, err := classifyFileState(file.State); done {
		return file, nil
	} else if err != errStillProcessing {
		return nil, err
	}

	current := file
	operation := func() error {
		polled, err := u.getFile(ctx, file.Name)
		if err != nil {
			return backoff.Permanent(err)
		}
		current = polled

		done, stateErr := classifyFileState(polled.State)
		if done {
			return nil
		}
		if stateErr != errStillProcessing {
			return backoff.Permanent(stateErr)
		}
		return errStillProcessing
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(u.pollInterval), uint64(u.maxAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(operation, bo); err != nil {
		if err == errStillProcessing {
			return nil, pipelineErr(ErrKindUploadTimeout,
				fmt.Errorf("remote file not active after %d polls", u.maxAttempts))
		}
		if ctx.Err() != nil {
			return nil, pipelineErr(ErrKindUploadTimeout, ctx.Err())
		}
		return nil, err
	}

	return current, nil
}

func (u *UploadSession) getFile(ctx context.Context, name string) (*models.RemoteFile, error) {
	url := fmt.Sprintf("%s/v1beta/%s?key=%s", u.baseURL, name, u.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pipelineErr(ErrKindRemoteProcessing, err)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, pipelineErr(ErrKindRemoteProcessing, fmt.Errorf("failed to poll file status: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, pipelineStatusErr(ErrKindRemoteProcessing, resp.StatusCode,
			fmt.Errorf("file status poll returned HTTP %d", resp.StatusCode))
	}

	var file models.RemoteFile
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return nil, pipelineErr(ErrKindRemoteProcessing, fmt.Errorf("failed to decode file status: %w", err))
	}

	return &file, nil
}

// Delete removes the remote file. Best-effort; the orchestrator logs and
// swallows failures.
func (u *UploadSession) Delete(ctx context.Context, name string) error {
	url := fmt.Sprintf("%s/v1beta/%s?key=%s", u.baseURL, name, u.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return pipelineErr(ErrKindCleanup, err)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return pipelineErr(ErrKindCleanup, fmt.Errorf("failed to delete remote file: %w", err))
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return pipelineStatusErr(ErrKindCleanup, resp.StatusCode,
			fmt.Errorf("remote file delete returned HTTP %d", resp.StatusCode))
	}

	return nil
}

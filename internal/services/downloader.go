package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	yt "github.com/kkdai/youtube/v2"
)

// browserUserAgent identifies the client as a browser; TikTok's CDN rejects
// unidentified clients.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var youtubeURLRegex = regexp.MustCompile(`(?:youtube\.com/(?:watch\?v=|embed/|shorts/)|youtu\.be/)([\w-]{11})`)

// Downloader fetches a video by URL into memory. Stateless; one attempt per
// call, no retries — the poll cap elsewhere bounds the pipeline, and the
// download relies on the CDN being reliable.
type Downloader struct {
	httpClient *http.Client
	ytClient   *yt.Client
	maxBytes   int64
}

func NewDownloader(timeout time.Duration, maxBytes int64) *Downloader {
	return &Downloader{
		httpClient: &http.Client{Timeout: timeout},
		ytClient:   &yt.Client{},
		maxBytes:   maxBytes,
	}
}

// Fetch returns the full video body and its MIME type. YouTube links go
// through the stream client; everything else is a plain GET.
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	if youtubeURLRegex.MatchString(url) {
		return d.fetchYouTube(ctx, url)
	}
	return d.fetchDirect(ctx, url)
}

func (d *Downloader) fetchDirect(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", pipelineErr(ErrKindDownload, fmt.Errorf("invalid video URL: %w", err))
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, "", pipelineErr(ErrKindDownload, fmt.Errorf("failed to download video: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", pipelineStatusErr(ErrKindDownload, resp.StatusCode,
			fmt.Errorf("video host returned HTTP %d", resp.StatusCode))
	}

	data, err := d.readCapped(resp.Body)
	if err != nil {
		return nil, "", err
	}

	mimeType := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = "video/mp4"
	}

	return data, mimeType, nil
}

func (d *Downloader) fetchYouTube(ctx context.Context, url string) ([]byte, string, error) {
	video, err := d.ytClient.GetVideoContext(ctx, url)
	if err != nil {
		return nil, "", pipelineErr(ErrKindDownload, fmt.Errorf("failed to fetch YouTube metadata: %w", err))
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return nil, "", pipelineErr(ErrKindDownload, fmt.Errorf("no playable formats for video"))
	}

	best := formats[0]
	for _, f := range formats {
		if f.Bitrate > best.Bitrate {
			best = f
		}
	}

	stream, _, err := d.ytClient.GetStreamContext(ctx, video, &best)
	if err != nil {
		return nil, "", pipelineErr(ErrKindDownload, fmt.Errorf("failed to open video stream: %w", err))
	}
	defer stream.Close()

	data, err := d.readCapped(stream)
	if err != nil {
		return nil, "", err
	}

	mimeType := strings.TrimSpace(strings.Split(best.MimeType, ";")[0])
	if mimeType == "" {
		mimeType = "video/mp4"
	}

	return data, mimeType, nil
}

func (d *Downloader) readCapped(r io.Reader) ([]byte, error) {
	limited := io.LimitReader(r, d.maxBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, pipelineErr(ErrKindDownload, fmt.Errorf("failed to read video body: %w", err))
	}
	if int64(len(data)) > d.maxBytes {
		return nil, pipelineErr(ErrKindDownload, fmt.Errorf("video exceeds %d MB limit", d.maxBytes/(1024*1024)))
	}
	return data, nil
}

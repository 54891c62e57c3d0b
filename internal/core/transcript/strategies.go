package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"code.sajari.com/docconv"
)

// CaptionAPI fetches the caption track from a transcript API endpoint that
// returns either plain text or a JSON body with transcript segments.
type CaptionAPI struct {
	BaseURL string
	Client  *http.Client
}

func NewCaptionAPI(baseURL string) *CaptionAPI {
	return &CaptionAPI{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *CaptionAPI) Name() string { return "caption-api" }

func (s *CaptionAPI) TryFetch(ctx context.Context, sourceRef string) (string, bool) {
	endpoint := fmt.Sprintf("%s?ref=%s", strings.TrimRight(s.BaseURL, "/"), url.QueryEscape(sourceRef))
	body, contentType, ok := get(ctx, s.Client, endpoint)
	if !ok {
		return "", false
	}

	if strings.Contains(contentType, "application/json") {
		var payload struct {
			Transcript string `json:"transcript"`
			Segments   []struct {
				Text string `json:"text"`
			} `json:"segments"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			log.Printf("Transcript: caption-api returned malformed JSON: %v", err)
			return "", false
		}
		if payload.Transcript != "" {
			return payload.Transcript, true
		}
		var b strings.Builder
		for _, seg := range payload.Segments {
			b.WriteString(seg.Text)
			b.WriteString("\n")
		}
		return b.String(), b.Len() > 0
	}
	return string(body), true
}

// WatchPage scrapes the public watch page and extracts its text content
// with docconv. A last resort: noisier than captions but better than no
// grounding at all.
type WatchPage struct {
	BaseURL string
	Client  *http.Client
}

func NewWatchPage(baseURL string) *WatchPage {
	return &WatchPage{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *WatchPage) Name() string { return "watch-page" }

func (s *WatchPage) TryFetch(ctx context.Context, sourceRef string) (string, bool) {
	endpoint := fmt.Sprintf("%s?v=%s", strings.TrimRight(s.BaseURL, "/"), url.QueryEscape(sourceRef))
	body, _, ok := get(ctx, s.Client, endpoint)
	if !ok {
		return "", false
	}

	res, err := docconv.Convert(strings.NewReader(string(body)), "text/html", true)
	if err != nil {
		log.Printf("Transcript: watch-page extraction failed: %v", err)
		return "", false
	}
	return res.Body, res.Body != ""
}

// get performs one GET and returns the body and content type. Any transport
// or status failure reports ok=false so the caller falls through the chain.
func get(ctx context.Context, client *http.Client, endpoint string) ([]byte, string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", false
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("Transcript: GET %s: %v", endpoint, err)
		return nil, "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Transcript: GET %s returned %d", endpoint, resp.StatusCode)
		return nil, "", false
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", false
	}
	return body, resp.Header.Get("Content-Type"), true
}

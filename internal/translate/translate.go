// Package translate turns free text into a sign description.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
)

// Descriptions shown in the sign description label.
const (
	DefaultDescription  = "김수화님! 무엇을 도와드릴까요?"
	CameraOnDescription = "카메라가 켜졌습니다. 수어를 시작하세요."
	FallbackDescription = "AI가 잠시 응답하지 않아요. 다시 시도해 주세요."
)

// SimulatedDelay is how long the simulated translator pretends to think.
const SimulatedDelay = 800 * time.Millisecond

// ErrEmptyText is returned when there is nothing to translate.
var ErrEmptyText = errors.New("translate: empty text")

// Translator describes how text is expressed in sign language.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Describe runs tr and maps its answer onto the description label. Errors
// and answers starting with "error" yield FallbackDescription. Answers
// starting with "to sign" leave current unchanged.
func Describe(ctx context.Context, tr Translator, text, current string) string {
	answer, err := tr.Translate(ctx, text)
	if err != nil {
		return FallbackDescription
	}
	lower := strings.ToLower(answer)
	switch {
	case answer == "" || strings.HasPrefix(lower, "error"):
		return FallbackDescription
	case strings.HasPrefix(lower, "to sign"):
		return current
	}
	return answer
}

// Simulated answers without any backend.
type Simulated struct {
	Clock clock.Clock
	Delay time.Duration
}

// NewSimulated returns a Simulated translator using the wall clock.
func NewSimulated() *Simulated {
	return &Simulated{Clock: clock.New(), Delay: SimulatedDelay}
}

// Translate implements Translator.
func (s *Simulated) Translate(ctx context.Context, text string) (string, error) {
	if s.Delay > 0 {
		clk := s.Clock
		if clk == nil {
			clk = clock.New()
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-clk.After(s.Delay):
		}
	}

	switch {
	case strings.Contains(text, "안녕하세요"):
		return "안녕하세요 (수어 영상 재생)", nil
	case strings.Contains(text, "반갑습니다"):
		return "만나서 반갑습니다 (수어 설명)", nil
	}
	return "\"" + text + "\"에 대한 수어 표현입니다. (시뮬레이션)", nil
}

// HTTP posts {"text": ...} to a translation endpoint and reads {"text": ...}
// back.
type HTTP struct {
	URL    string
	Client *http.Client
}

// NewHTTP returns an HTTP translator for url.
func NewHTTP(url string) *HTTP {
	return &HTTP{URL: url, Client: &http.Client{Timeout: 10 * time.Second}}
}

type payload struct {
	Text string `json:"text"`
}

// Translate implements Translator.
func (h *HTTP) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	body, err := json.Marshal(payload{Text: text})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("translate: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("translate: status %d", resp.StatusCode)
	}
	var out payload
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("translate: decode response: %w", err)
	}
	return out.Text, nil
}

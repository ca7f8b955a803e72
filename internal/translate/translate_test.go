package translate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixed struct {
	answer string
	err    error
}

func (f fixed) Translate(context.Context, string) (string, error) { return f.answer, f.err }

func TestSimulated(t *testing.T) {
	s := &Simulated{}
	tests := []struct {
		in, want string
	}{
		{"안녕하세요 선생님", "안녕하세요 (수어 영상 재생)"},
		{"만나서 반갑습니다", "만나서 반갑습니다 (수어 설명)"},
		{"기타 검사 받으러 왔어요.", `"기타 검사 받으러 왔어요."에 대한 수어 표현입니다. (시뮬레이션)`},
	}
	for _, tt := range tests {
		got, err := s.Translate(context.Background(), tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestSimulated_DelayUsesClock(t *testing.T) {
	mock := clock.NewMock()
	s := &Simulated{Clock: mock, Delay: SimulatedDelay}

	done := make(chan string, 1)
	go func() {
		got, _ := s.Translate(context.Background(), "안녕하세요")
		done <- got
	}()

	require.Eventually(t, func() bool {
		mock.Add(100 * time.Millisecond)
		select {
		case got := <-done:
			assert.Equal(t, "안녕하세요 (수어 영상 재생)", got)
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}

func TestSimulated_Cancelled(t *testing.T) {
	s := &Simulated{Clock: clock.NewMock(), Delay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Translate(ctx, "안녕하세요")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDescribe(t *testing.T) {
	const current = "카메라가 켜졌습니다. 수어를 시작하세요."
	tests := []struct {
		name string
		tr   Translator
		want string
	}{
		{"answer", fixed{answer: "만나서 반갑습니다 (수어 설명)"}, "만나서 반갑습니다 (수어 설명)"},
		{"error prefix", fixed{answer: "Error: quota exceeded"}, FallbackDescription},
		{"failure", fixed{err: errors.New("dial tcp: refused")}, FallbackDescription},
		{"empty", fixed{}, FallbackDescription},
		{"to sign prefix", fixed{answer: "To sign this, raise both hands"}, current},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(context.Background(), tt.tr, "text", current))
		})
	}
}

func TestHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in payload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		json.NewEncoder(w).Encode(payload{Text: in.Text + " (수어)"})
	}))
	defer srv.Close()

	got, err := NewHTTP(srv.URL).Translate(context.Background(), "고마워")
	require.NoError(t, err)
	assert.Equal(t, "고마워 (수어)", got)
}

func TestHTTP_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tr := NewHTTP(srv.URL)
	_, err := tr.Translate(context.Background(), "고마워")
	assert.Error(t, err)

	_, err = tr.Translate(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyText)

	assert.Equal(t, FallbackDescription, Describe(context.Background(), tr, "고마워", DefaultDescription))
}

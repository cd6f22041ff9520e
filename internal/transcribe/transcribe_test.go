package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/linuxmatters/speakscore/internal/audio"
)

// writeToneWAV writes a short 8 kHz mono sine so the Google backend has to resample
func writeToneWAV(t *testing.T) string {
	t.Helper()

	const rate = 8000
	frames := make([][2]float64, rate/2)
	for i := range frames {
		s := 0.5 * math.Sin(2*math.Pi*440*float64(i)/rate)
		frames[i] = [2]float64{s, s}
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := audio.WriteWAV(path, &audio.Clip{Frames: frames, SampleRate: rate, Channels: 1}); err != nil {
		t.Fatalf("failed to write test audio: %v", err)
	}
	return path
}

func TestResultTranscript(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{"ok", OK("The cat sat"), "The cat sat"},
		{"unintelligible", Unintelligible(nil), UnintelligibleText},
		{"unavailable", Unavailable(errors.New("boom")), UnavailableText},
		{"zero value", Result{}, UnavailableText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Transcript(); got != tt.want {
				t.Errorf("Transcript() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFailureResultsCarryErrors(t *testing.T) {
	if r := Unintelligible(nil); !errors.Is(r.Err, ErrNoSpeech) {
		t.Errorf("Unintelligible(nil).Err = %v, want ErrNoSpeech", r.Err)
	}
	if r := Unavailable(nil); !errors.Is(r.Err, ErrUnavailable) {
		t.Errorf("Unavailable(nil).Err = %v, want ErrUnavailable", r.Err)
	}
	if r := OK("x"); r.Err != nil {
		t.Errorf("OK().Err = %v, want nil", r.Err)
	}
}

func TestStatic(t *testing.T) {
	ctx := context.Background()

	if r := Static("the cat sat on the mat").Transcribe(ctx, "ignored.wav"); r.Status != StatusOK || r.Text != "the cat sat on the mat" {
		t.Errorf("Static text = %+v", r)
	}
	if r := Static("   ").Transcribe(ctx, "ignored.wav"); r.Status != StatusUnintelligible {
		t.Errorf("blank Static status = %s, want %s", r.Status, StatusUnintelligible)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if r := Static("hello").Transcribe(cancelled, "ignored.wav"); r.Status != StatusUnavailable {
		t.Errorf("cancelled Static status = %s, want %s", r.Status, StatusUnavailable)
	}
}

func TestParseGoogleResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{
			name: "empty first line then result",
			body: `{"result":[]}` + "\n" +
				`{"result":[{"alternative":[{"transcript":"the cat sat","confidence":0.91},{"transcript":"the cat set"}],"final":true}],"result_index":0}` + "\n",
			want: "the cat sat",
		},
		{
			name: "highest confidence wins",
			body: `{"result":[{"alternative":[{"transcript":"the hat sat"},{"transcript":"the cat sat","confidence":0.8},{"transcript":"a cat sat","confidence":0.3}]}]}`,
			want: "the cat sat",
		},
		{
			name: "only empty results",
			body: `{"result":[]}` + "\n",
			want: "",
		},
		{
			name: "no alternatives",
			body: `{"result":[{"alternative":[],"final":true}]}`,
			want: "",
		},
		{
			name: "alternative without transcript",
			body: `{"result":[{"alternative":[{"confidence":0.2}]}]}`,
			want: "",
		},
		{
			name: "empty body",
			body: "",
			want: "",
		},
		{
			name:    "malformed",
			body:    "<html>",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseGoogleResponse(strings.NewReader(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseGoogleResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseGoogleResponse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGoogleTranscribe(t *testing.T) {
	path := writeToneWAV(t)

	var gotLang, gotKey, gotType string
	var gotBytes int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLang = r.URL.Query().Get("lang")
		gotKey = r.URL.Query().Get("key")
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBytes = len(b)
		io.WriteString(w, `{"result":[]}`+"\n"+`{"result":[{"alternative":[{"transcript":"The Cat Sat"}],"final":true}],"result_index":0}`+"\n")
	}))
	defer srv.Close()

	g, err := NewGoogle(GoogleConfig{URL: srv.URL, Key: "k123", Language: "en-GB"})
	if err != nil {
		t.Fatalf("NewGoogle() error = %v", err)
	}

	r := g.Transcribe(context.Background(), path)
	if r.Status != StatusOK {
		t.Fatalf("status = %s (%v), want ok", r.Status, r.Err)
	}
	if r.Text != "The Cat Sat" {
		t.Errorf("text = %q, want %q", r.Text, "The Cat Sat")
	}
	if gotLang != "en-GB" || gotKey != "k123" {
		t.Errorf("query lang=%q key=%q", gotLang, gotKey)
	}
	if gotType != "audio/l16; rate=16000" {
		t.Errorf("content type = %q", gotType)
	}
	// 0.5s resampled to 16 kHz mono 16-bit is about 16000 bytes
	if gotBytes < 15000 || gotBytes > 17000 {
		t.Errorf("uploaded %d bytes, want about 16000", gotBytes)
	}
}

func TestGoogleFailures(t *testing.T) {
	path := writeToneWAV(t)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    Status
	}{
		{
			name: "nothing recognised",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"result":[]}`+"\n")
			},
			want: StatusUnintelligible,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "quota", http.StatusForbidden)
			},
			want: StatusUnavailable,
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, "not json\n")
			},
			want: StatusUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			g, err := NewGoogle(GoogleConfig{URL: srv.URL})
			if err != nil {
				t.Fatalf("NewGoogle() error = %v", err)
			}
			if r := g.Transcribe(context.Background(), path); r.Status != tt.want {
				t.Errorf("status = %s (%v), want %s", r.Status, r.Err, tt.want)
			}
		})
	}
}

func TestGoogleUnreachable(t *testing.T) {
	path := writeToneWAV(t)

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	g, _ := NewGoogle(GoogleConfig{URL: url})
	r := g.Transcribe(context.Background(), path)
	if r.Status != StatusUnavailable {
		t.Errorf("status = %s, want %s", r.Status, StatusUnavailable)
	}
	if r.Transcript() != UnavailableText {
		t.Errorf("transcript = %q", r.Transcript())
	}
}

func TestLocalAudioFailuresNotRetried(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "unexpected", http.StatusInternalServerError)
	}))
	defer srv.Close()

	missing := filepath.Join(t.TempDir(), "missing.wav")
	g, _ := NewGoogle(GoogleConfig{URL: srv.URL})
	w, _ := NewWhisper(WhisperConfig{BaseURL: srv.URL})

	for name, backend := range map[string]Transcriber{"google": g, "whisper": w} {
		t.Run(name, func(t *testing.T) {
			calls := 0
			counted := Func(func(ctx context.Context, path string) Result {
				calls++
				return backend.Transcribe(ctx, path)
			})

			r := fastRetrying(counted, 3).Transcribe(context.Background(), missing)
			if r.Status != StatusUnavailable {
				t.Errorf("status = %s, want %s", r.Status, StatusUnavailable)
			}
			if !errors.Is(r.Err, ErrAudioInput) {
				t.Errorf("err = %v, want ErrAudioInput", r.Err)
			}
			if calls != 1 {
				t.Errorf("calls = %d, want 1", calls)
			}
		})
	}
	if hits != 0 {
		t.Errorf("server hit %d times for a missing file", hits)
	}
}

func TestWhisperTranscribe(t *testing.T) {
	path := writeToneWAV(t)
	want, _ := os.ReadFile(path)

	var gotAuth, gotModel, gotLang, gotName string
	var gotFile []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotModel = r.FormValue("model")
		gotLang = r.FormValue("language")
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		gotName = hdr.Filename
		gotFile, _ = io.ReadAll(f)
		io.WriteString(w, `{"text":"  the cat sat on the mat \n"}`)
	}))
	defer srv.Close()

	wh, err := NewWhisper(WhisperConfig{BaseURL: srv.URL + "/v1/", APIKey: "sk-test", Language: "en"})
	if err != nil {
		t.Fatalf("NewWhisper() error = %v", err)
	}

	r := wh.Transcribe(context.Background(), path)
	if r.Status != StatusOK {
		t.Fatalf("status = %s (%v), want ok", r.Status, r.Err)
	}
	if r.Text != "the cat sat on the mat" {
		t.Errorf("text = %q", r.Text)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotModel != DefaultWhisperModel || gotLang != "en" {
		t.Errorf("model=%q language=%q", gotModel, gotLang)
	}
	if gotName != "tone.wav" {
		t.Errorf("filename = %q", gotName)
	}
	if string(gotFile) != string(want) {
		t.Errorf("uploaded %d bytes, want %d", len(gotFile), len(want))
	}
}

func TestWhisperFailures(t *testing.T) {
	path := writeToneWAV(t)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    Status
	}{
		{
			name: "blank text",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"text":"   "}`)
			},
			want: StatusUnintelligible,
		},
		{
			name: "unauthorised",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
			},
			want: StatusUnavailable,
		},
		{
			name: "bad json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"text":`)
			},
			want: StatusUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			wh, _ := NewWhisper(WhisperConfig{BaseURL: srv.URL})
			if r := wh.Transcribe(context.Background(), path); r.Status != tt.want {
				t.Errorf("status = %s (%v), want %s", r.Status, r.Err, tt.want)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		wh, _ := NewWhisper(WhisperConfig{BaseURL: "http://127.0.0.1:1"})
		if r := wh.Transcribe(context.Background(), filepath.Join(t.TempDir(), "nope.wav")); r.Status != StatusUnavailable {
			t.Errorf("status = %s, want %s", r.Status, StatusUnavailable)
		}
	})
}

// sequence returns the scripted results in order, then repeats the last one
func sequence(calls *int, results ...Result) Transcriber {
	return Func(func(ctx context.Context, _ string) Result {
		i := *calls
		*calls++
		if i >= len(results) {
			i = len(results) - 1
		}
		return results[i]
	})
}

func fastRetrying(next Transcriber, retries uint64) *Retrying {
	r := NewRetrying(next, retries)
	r.newBackOff = func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }
	return r
}

func TestRetrying(t *testing.T) {
	down := Unavailable(errors.New("503"))

	tests := []struct {
		name      string
		retries   uint64
		results   []Result
		want      Status
		wantCalls int
	}{
		{"zero retries single call", 0, []Result{down, OK("late")}, StatusUnavailable, 1},
		{"recovers", 3, []Result{down, down, OK("hello")}, StatusOK, 3},
		{"budget exhausted", 2, []Result{down}, StatusUnavailable, 3},
		{"unintelligible is final", 5, []Result{Unintelligible(nil), OK("never")}, StatusUnintelligible, 1},
		{"ok first time", 5, []Result{OK("hi")}, StatusOK, 1},
		{"unavailable without error still retried", 1, []Result{{Status: StatusUnavailable}, OK("hi")}, StatusOK, 2},
		{"local audio failure is final", 5, []Result{Unavailable(fmt.Errorf("google: %w: eof", ErrAudioInput)), OK("never")}, StatusUnavailable, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			r := fastRetrying(sequence(&calls, tt.results...), tt.retries).Transcribe(context.Background(), "x.wav")
			if r.Status != tt.want {
				t.Errorf("status = %s, want %s", r.Status, tt.want)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryingStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	next := Func(func(context.Context, string) Result {
		calls++
		cancel()
		return Unavailable(errors.New("down"))
	})

	r := fastRetrying(next, 10).Transcribe(ctx, "x.wav")
	if r.Status != StatusUnavailable {
		t.Errorf("status = %s, want %s", r.Status, StatusUnavailable)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

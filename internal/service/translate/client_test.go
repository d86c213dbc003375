package translate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTranslate(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var payload struct {
			From string `json:"from"`
			To   string `json:"to"`
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode err: %v", err)
		}
		if payload.From != "English" || payload.To != "French" || payload.Text != "Hello" {
			t.Fatalf("unexpected payload: %+v", payload)
		}
		json.NewEncoder(w).Encode(map[string]string{"translatedText": "Bonjour"})
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, time.Second)
	got, err := client.Translate(context.Background(), "English", "French", "Hello")
	if err != nil {
		t.Fatalf("Translate err: %v", err)
	}
	if got != "Bonjour" {
		t.Fatalf("expected Bonjour, got %q", got)
	}
}

func TestTranslateUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, time.Second)
	if _, err := client.Translate(context.Background(), "English", "French", "Hello"); err == nil {
		t.Fatal("expected error for upstream failure")
	}
}

func TestAudioStreamsBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate/audio" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("text") != "Bonjour" || r.URL.Query().Get("lang") != "French" {
			t.Fatalf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "audio/wav")
		w.Write([]byte("RIFFaudio"))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, time.Second)
	body, contentType, err := client.Audio(context.Background(), "Bonjour", "French")
	if err != nil {
		t.Fatalf("Audio err: %v", err)
	}
	defer body.Close()

	if contentType != "audio/wav" {
		t.Fatalf("expected audio/wav, got %s", contentType)
	}
	data, _ := io.ReadAll(body)
	if string(data) != "RIFFaudio" {
		t.Fatalf("unexpected audio body: %q", data)
	}
}

func TestTranslateAudioMultipart(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart err: %v", err)
		}
		if r.FormValue("from") != "French" || r.FormValue("to") != "English" {
			t.Fatalf("unexpected form values: %v", r.MultipartForm.Value)
		}
		file, header, err := r.FormFile("audio")
		if err != nil {
			t.Fatalf("form file err: %v", err)
		}
		defer file.Close()
		if header.Filename != "recording.webm" {
			t.Fatalf("unexpected filename: %s", header.Filename)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"originalText":          "Bonjour",
			"translatedText":        "Hello",
			"translatedAudioBase64": "QUJD",
		})
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, time.Second)
	result, err := client.TranslateAudio(context.Background(), "French", "English", "recording.webm", strings.NewReader("webm-bytes"))
	if err != nil {
		t.Fatalf("TranslateAudio err: %v", err)
	}
	if result.Transcript() != "Bonjour" {
		t.Fatalf("expected transcript Bonjour, got %q", result.Transcript())
	}
	if result.TranslatedText != "Hello" {
		t.Fatalf("expected translation Hello, got %q", result.TranslatedText)
	}
	if result.TranslatedAudioBase64 != "QUJD" {
		t.Fatalf("expected inline audio, got %q", result.TranslatedAudioBase64)
	}
}

func TestTranscriptFallsBackToTranscription(t *testing.T) {
	result := &AudioTranslation{Transcription: "fallback"}
	if result.Transcript() != "fallback" {
		t.Fatalf("expected fallback transcript, got %q", result.Transcript())
	}
}

package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client 封装上游翻译服务的HTTP接口
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient 创建上游翻译客户端
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type translateRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Translate 调用文本翻译接口
func (c *Client) Translate(ctx context.Context, from, to, text string) (string, error) {
	body, err := json.Marshal(translateRequest{From: from, To: to, Text: text})
	if err != nil {
		return "", fmt.Errorf("encode translate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate upstream returned %d", resp.StatusCode)
	}

	var decoded translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode translate response: %w", err)
	}
	return decoded.TranslatedText, nil
}

// Audio 获取翻译文本的合成语音，调用方负责关闭返回的流
func (c *Client) Audio(ctx context.Context, text, lang string) (io.ReadCloser, string, error) {
	query := url.Values{}
	query.Set("text", text)
	query.Set("lang", lang)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/translate/audio?"+query.Encode(), nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("audio request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, "", fmt.Errorf("audio upstream returned %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	return resp.Body, contentType, nil
}

// AudioTranslation 语音翻译的上游响应
type AudioTranslation struct {
	OriginalText          string `json:"originalText,omitempty"`
	Transcription         string `json:"transcription,omitempty"`
	TranslatedText        string `json:"translatedText"`
	TranslatedAudioURL    string `json:"translatedAudioUrl,omitempty"`
	TranslatedAudioBase64 string `json:"translatedAudioBase64,omitempty"`
}

// Transcript 返回识别出的原文，兼容两种字段命名
func (a *AudioTranslation) Transcript() string {
	if a.OriginalText != "" {
		return a.OriginalText
	}
	return a.Transcription
}

// TranslateAudio 上传录音并获取转写与翻译结果
func (c *Client) TranslateAudio(ctx context.Context, from, to, filename string, audio io.Reader) (*AudioTranslation, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("from", from); err != nil {
		return nil, err
	}
	if err := writer.WriteField("to", to); err != nil {
		return nil, err
	}

	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, fmt.Errorf("buffer audio payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/translate-audio", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("audio translate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audio translate upstream returned %d", resp.StatusCode)
	}

	var decoded AudioTranslation
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode audio translate response: %w", err)
	}
	return &decoded, nil
}

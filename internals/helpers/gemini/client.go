// file: internals/helpers/gemini/client.go
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"nilaiku_backend/internals/configs"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client membungkus REST API Gemini (generateContent + embedContent).
// Timeout panggilan diserahkan ke caller lewat context.
type Client struct {
	apiKey     string
	model      string
	embedModel string
	baseURL    string
	httpc      *http.Client
}

func NewClient() *Client {
	return &Client{
		apiKey:     configs.GeminiAPIKey,
		model:      configs.GeminiModel,
		embedModel: configs.GeminiEmbedModel,
		baseURL:    defaultBaseURL,
		httpc:      &http.Client{Timeout: 5 * time.Minute},
	}
}

// NewClientWith dipakai test / konfigurasi khusus.
func NewClientWith(apiKey, model, embedModel, baseURL string, httpc *http.Client) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpc == nil {
		httpc = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Client{apiKey: apiKey, model: model, embedModel: embedModel, baseURL: baseURL, httpc: httpc}
}

/* ===============================
   Request/response wire shapes
=================================*/

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type embedRequest struct {
	Model   string  `json:"model"`
	Content content `json:"content"`
}

type embedResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

/* ===============================
   Calls
=================================*/

// GenerateVision mengirim prompt + halaman jawaban (gambar) ke model vision
// dan mengembalikan teks mentah apa adanya.
func (c *Client) GenerateVision(ctx context.Context, prompt string, imageURLs []string) (string, error) {
	parts := []part{{Text: prompt}}
	for _, u := range imageURLs {
		data, mime, err := FetchPageImage(ctx, c.httpc, u)
		if err != nil {
			return "", fmt.Errorf("gemini: fetch page %s: %w", u, err)
		}
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: mime,
			Data:     base64.StdEncoding.EncodeToString(data),
		}})
	}

	body := generateRequest{Contents: []content{{Role: "user", Parts: parts}}}
	var resp generateResponse
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	if err := c.post(ctx, url, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: empty candidates")
	}

	var buf bytes.Buffer
	for _, p := range resp.Candidates[0].Content.Parts {
		buf.WriteString(p.Text)
	}
	return buf.String(), nil
}

// EmbedText menghasilkan vektor embedding untuk teks jawaban.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float64, error) {
	body := embedRequest{
		Model:   "models/" + c.embedModel,
		Content: content{Parts: []part{{Text: text}}},
	}
	var resp embedResponse
	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", c.baseURL, c.embedModel, c.apiKey)
	if err := c.post(ctx, url, body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini: empty embedding")
	}
	return resp.Embedding.Values, nil
}

func (c *Client) post(ctx context.Context, url string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("gemini: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("gemini: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("gemini: do request: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("gemini: read response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("gemini: status %d: %s", res.StatusCode, truncateForLog(raw, 512))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("gemini: decode response: %w", err)
	}
	return nil
}

func truncateForLog(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/smallbiznis/revbox/internal/extraction"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	maxErrorBody   = 512
)

var ErrEmptyResponse = errors.New("llm_empty_response")

// StandardFields are the canonical names offered to the model when suggesting mappings.
var StandardFields = []struct {
	Name        string
	Description string
}{
	{"policy_number", "The policy identifier"},
	{"agent_code", "The agent/producer identifier"},
	{"agent_name", "The agent's name"},
	{"amount", "The payout/premium amount"},
	{"commission", "Commission amount"},
	{"effective_date", "Policy effective date"},
	{"insured_name", "Name of the insured party"},
	{"carrier_name", "Insurance carrier name"},
}

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Client talks to a chat-completions style API. It never retries: a failed
// call is reported to the caller as-is.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	log     *zap.Logger
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type string    `json:"type"`
	Text string    `json:"text,omitempty"`
	File *filePart `json:"file,omitempty"`
}

type filePart struct {
	Filename string `json:"filename"`
	FileData string `json:"file_data"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func NewClient(cfg Config, httpClient *http.Client, log *zap.Logger) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   model,
		http:    httpClient,
		log:     log.Named("llm.client"),
	}
}

// Extract sends the document with an extraction prompt built from hints and
// parses the first JSON array found in the reply. A reply without one is
// logged and yields no rows.
func (c *Client) Extract(ctx context.Context, doc extraction.Document, hints map[string]string) ([]map[string]any, error) {
	prompt := extraction.BuildExtractionPrompt(hints)

	mimeType := doc.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(doc.Content)
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(doc.Content)

	text, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: prompt.System},
		{Role: "user", Content: []contentPart{
			{Type: "text", Text: prompt.User},
			{Type: "file", File: &filePart{Filename: doc.Name, FileData: dataURL}},
		}},
	})
	if err != nil {
		return nil, err
	}

	rows, ok := extraction.ParseRows(text)
	if !ok {
		c.log.Warn("extraction response carried no JSON array",
			zap.String("document", doc.Name),
			zap.Int("response_length", len(text)),
		)
	}
	return rows, nil
}

// Suggestion is a proposed carrier mapping.
type Suggestion struct {
	Mappings    map[string]string `json:"mappings"`
	PrimaryKeys []string          `json:"primary_keys"`
	RawResponse string            `json:"raw_response,omitempty"`
}

// SuggestMappings asks the model to map sampleFields onto StandardFields.
// An unparsable reply returns an empty suggestion carrying the raw text.
func (c *Client) SuggestMappings(ctx context.Context, carrierName string, sampleFields []string) (Suggestion, error) {
	var system strings.Builder
	system.WriteString("You are an expert at mapping insurance document fields to standard CRM fields.\n")
	system.WriteString("Given a list of source fields from an insurance carrier document, suggest mappings to these standard fields:\n")
	for _, f := range StandardFields {
		fmt.Fprintf(&system, "- %s: %s\n", f.Name, f.Description)
	}
	system.WriteString("\nReturn a JSON object with source fields as keys and suggested standard fields as values.\n")
	system.WriteString("Also identify which fields should be used as primary keys for duplicate detection.\n\n")
	system.WriteString(`Format: {"mappings": {"source_field": "standard_field"}, "primary_keys": ["field1"]}`)

	if sampleFields == nil {
		sampleFields = []string{}
	}
	fields, err := json.Marshal(sampleFields)
	if err != nil {
		return Suggestion{}, err
	}
	user := fmt.Sprintf("These are the fields from the %s carrier document: %s\n\nSuggest mappings to standard CRM fields.", carrierName, fields)

	text, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: system.String()},
		{Role: "user", Content: user},
	})
	if err != nil {
		return Suggestion{}, err
	}

	return parseSuggestion(text), nil
}

func parseSuggestion(text string) Suggestion {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		var s Suggestion
		if err := json.Unmarshal([]byte(text[start:end+1]), &s); err == nil {
			if s.Mappings == nil {
				s.Mappings = map[string]string{}
			}
			if s.PrimaryKeys == nil {
				s.PrimaryKeys = []string{}
			}
			return s
		}
	}
	return Suggestion{
		Mappings:    map[string]string{},
		PrimaryKeys: []string{},
		RawResponse: text,
	}
}

func (c *Client) complete(ctx context.Context, messages []chatMessage) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("llm api error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		if len(respBody) > maxErrorBody {
			respBody = respBody[:maxErrorBody]
		}
		return "", fmt.Errorf("llm api error (%d): %s", resp.StatusCode, string(respBody))
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return out.Choices[0].Message.Content, nil
}

package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIAnalyzer implements Analyzer against the OpenAI API: Whisper for
// transcription, a chat model for the clinical note and a second chat pass
// for sentiment scoring.
type OpenAIAnalyzer struct {
	client     openai.Client
	clientOpts []option.RequestOption
	model      string
}

type OpenAIOption func(*OpenAIAnalyzer)

// WithModel overrides the chat model used for note and sentiment generation.
func WithModel(model string) OpenAIOption {
	return func(a *OpenAIAnalyzer) {
		a.model = model
	}
}

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(a *OpenAIAnalyzer) {
		a.clientOpts = append(a.clientOpts, option.WithHTTPClient(client))
	}
}

func NewOpenAIAnalyzer(apiKey string, opts ...OpenAIOption) *OpenAIAnalyzer {
	a := &OpenAIAnalyzer{
		clientOpts: []option.RequestOption{option.WithAPIKey(apiKey)},
		model:      "gpt-4.1-mini",
	}
	for _, opt := range opts {
		opt(a)
	}
	a.client = openai.NewClient(a.clientOpts...)
	return a
}

func (a *OpenAIAnalyzer) Analyze(ctx context.Context, audio []byte, req Request) (*Result, error) {
	transcript, err := a.transcribe(ctx, audio, req.FileName)
	if err != nil {
		return nil, fmt.Errorf("transcription: %w", err)
	}

	note, err := a.clinicalNote(ctx, transcript, req)
	if err != nil {
		return nil, fmt.Errorf("note generation: %w", err)
	}

	result := &Result{
		Transcript:      transcript,
		Note:            note,
		ConfidenceScore: 0.85,
		Model:           a.model,
	}

	// Sentiment is a second, independent pass. Losing it degrades the record
	// to note-only; it does not fail the analysis.
	sentiment, err := a.sentiment(ctx, transcript)
	if err != nil {
		log.Printf("WARN [analysis.Analyze] sentiment pass failed: %v", err)
	} else {
		result.Sentiment = sentiment
	}

	return result, nil
}

func (a *OpenAIAnalyzer) transcribe(ctx context.Context, audio []byte, fileName string) (string, error) {
	// The multipart filename carries the extension the endpoint uses for
	// format detection; a bare reader would be sent without one.
	resp, err := a.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModelWhisper1,
		File:  openai.File(bytes.NewReader(audio), fileName, ""),
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (a *OpenAIAnalyzer) clinicalNote(ctx context.Context, transcript string, req Request) (string, error) {
	prompt := fmt.Sprintf(`You are an expert clinical psychologist analyzing a therapy session transcript.

Client ID: %s
Therapy Type: %s
Output Format: %s

Session Transcript:
%s

Provide a comprehensive clinical analysis in %s format, including notes,
clinical observations, therapeutic interventions, treatment recommendations
and a risk assessment.`, req.PatientCode, req.TherapyType, req.SummaryFormat, transcript, req.SummaryFormat)

	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are an expert clinical psychologist providing professional therapy session analysis."),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (a *OpenAIAnalyzer) sentiment(ctx context.Context, transcript string) (*SentimentScores, error) {
	prompt := fmt.Sprintf(`Analyze this therapy session transcript for emotional tone.
Respond with a single JSON object: {"mood": string, "confidence": number between 0 and 1, "indicators": [string]}.

Transcript:
%s`, transcript)

	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty sentiment response")
	}

	return parseSentiment(resp.Choices[0].Message.Content), nil
}

// parseSentiment extracts the JSON object from a model reply. Replies that
// contain no parseable JSON are kept verbatim in Raw.
func parseSentiment(text string) *SentimentScores {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		var scores SentimentScores
		if err := json.Unmarshal([]byte(text[start:end+1]), &scores); err == nil {
			return &scores
		}
	}
	return &SentimentScores{Raw: text}
}

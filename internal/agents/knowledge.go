// Package agents holds the downstream handlers the dispatcher routes to: the
// knowledge agent for document Q&A and the dealflow agent for lead, proposal,
// scheduling and status actions. Both call external services and may fail;
// the dispatcher owns turning those failures into user-facing replies.
package agents

import (
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/yourusername/revenue-copilot/internal/retriever"
	"github.com/yourusername/revenue-copilot/models"
)

const knowledgeSystemPrompt = `You are a helpful assistant answering questions strictly from the provided context.
Cite the source document for every claim. If the context does not contain the answer, say you don't know.`

// Retriever is the slice of the vector store the knowledge agent needs.
type Retriever interface {
	Search(ctx context.Context, query string, limit int) ([]retriever.Hit, error)
	Index(ctx context.Context, doc retriever.Document) error
}

// Knowledge answers questions from ingested documents.
type Knowledge struct {
	llm       *openai.Client
	model     string
	retriever Retriever
	chunkSize int
	logger    *zap.Logger
}

// NewKnowledge creates the knowledge agent. llm may be nil, in which case
// answers are stitched from raw snippets instead of generated.
func NewKnowledge(llm *openai.Client, model string, ret Retriever, chunkSize int, logger *zap.Logger) *Knowledge {
	if logger == nil {
		logger = zap.NewNop()
	}
	if model == "" {
		model = openai.GPT4TurboPreview
	}
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	return &Knowledge{llm: llm, model: model, retriever: ret, chunkSize: chunkSize, logger: logger}
}

// Answer retrieves the closest chunks and composes a grounded reply.
func (k *Knowledge) Answer(ctx context.Context, question string) (*models.KnowledgeAnswer, error) {
	if k.retriever == nil {
		return &models.KnowledgeAnswer{
			Text: "My knowledge base isn't connected right now, so I can't look that up.",
		}, nil
	}

	hits, err := k.retriever.Search(ctx, question, 3)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}
	if len(hits) == 0 {
		return &models.KnowledgeAnswer{
			Text: "I don't have anything in my knowledge base about that yet. Send me a document and I'll learn it!",
		}, nil
	}

	citations := make([]models.Citation, 0, len(hits))
	var contextBlock strings.Builder
	for _, hit := range hits {
		citations = append(citations, models.Citation{
			Source:  hit.Source,
			Snippet: truncate(hit.Snippet, 200),
			Score:   hit.Score,
		})
		fmt.Fprintf(&contextBlock, "[%s]\n%s\n\n", hit.Source, hit.Snippet)
	}

	if k.llm == nil {
		return &models.KnowledgeAnswer{
			Text:      fmt.Sprintf("Based on %s: %s", hits[0].Source, truncate(hits[0].Snippet, 500)),
			Citations: citations,
		}, nil
	}

	resp, err := k.llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: k.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: knowledgeSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Context:\n%s\nQuestion: %s", contextBlock.String(), question)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no completion choices returned")
	}

	return &models.KnowledgeAnswer{
		Text:      resp.Choices[0].Message.Content,
		Citations: citations,
	}, nil
}

// Ingest reads a document from disk, splits it into chunks and indexes them.
// Returns the number of chunks stored.
func (k *Knowledge) Ingest(ctx context.Context, att models.Attachment) (int, error) {
	if k.retriever == nil {
		return 0, fmt.Errorf("no retriever configured")
	}

	content, err := os.ReadFile(att.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", att.Path, err)
	}

	chunks := splitChunks(string(content), k.chunkSize)
	for i, chunk := range chunks {
		doc := retriever.Document{
			ID:      fmt.Sprintf("%s#%d", att.FileName, i),
			Source:  att.FileName,
			Content: chunk,
		}
		if err := k.retriever.Index(ctx, doc); err != nil {
			return i, fmt.Errorf("failed to index chunk %d of %s: %w", i, att.FileName, err)
		}
	}

	k.logger.Info("document ingested",
		zap.String("file", att.FileName), zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}

// splitChunks breaks text on paragraph boundaries, packing paragraphs into
// chunks of roughly maxLen characters.
func splitChunks(text string, maxLen int) []string {
	paragraphs := strings.Split(text, "\n\n")
	var chunks []string
	var current strings.Builder

	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(p) > maxLen {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)

		// A single oversized paragraph is hard-split.
		for current.Len() > maxLen {
			s := current.String()
			chunks = append(chunks, s[:maxLen])
			current.Reset()
			current.WriteString(s[maxLen:])
		}
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

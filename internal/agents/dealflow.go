package agents

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/yourusername/revenue-copilot/models"
	"github.com/yourusername/revenue-copilot/storage"
)

const proposalSystemPrompt = `You draft short, friendly business proposals. Keep it under 200 words,
lead with the client's goal, include scope, timeline and budget when known, and end with a clear next step.`

// Dealflow executes the business-intent actions against storage and,
// optionally, the LLM for proposal copy.
type Dealflow struct {
	store  *storage.SQLiteDB
	llm    *openai.Client
	model  string
	logger *zap.Logger
}

// NewDealflow creates the dealflow agent. llm may be nil; proposals then use
// the built-in template.
func NewDealflow(store *storage.SQLiteDB, llm *openai.Client, model string, logger *zap.Logger) *Dealflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	if model == "" {
		model = openai.GPT4TurboPreview
	}
	return &Dealflow{store: store, llm: llm, model: model, logger: logger}
}

// CaptureLead persists (or re-persists with fresher entities) a lead record.
func (d *Dealflow) CaptureLead(ctx context.Context, lead *models.Lead) error {
	if err := d.store.SaveLead(lead); err != nil {
		return fmt.Errorf("lead persistence failed: %w", err)
	}
	d.logger.Info("lead captured",
		zap.String("lead_id", lead.ID),
		zap.String("company", lead.Company),
		zap.Int("quality_score", lead.QualityScore))
	return nil
}

// DraftProposal produces proposal copy for a lead and stores it.
func (d *Dealflow) DraftProposal(ctx context.Context, lead *models.Lead) (*models.ProposalContent, error) {
	proposal := &models.ProposalContent{
		LeadID:    lead.ID,
		Title:     proposalTitle(lead),
		CreatedAt: time.Now(),
	}

	body, err := d.proposalBody(ctx, lead)
	if err != nil {
		return nil, err
	}
	proposal.Body = body

	if err := d.store.SaveProposal(proposal); err != nil {
		// The draft is already composed; losing the copy over a storage
		// hiccup would be worse than a missing row.
		d.logger.Warn("failed to persist proposal", zap.String("lead_id", lead.ID), zap.Error(err))
	}
	return proposal, nil
}

func (d *Dealflow) proposalBody(ctx context.Context, lead *models.Lead) (string, error) {
	if d.llm == nil {
		return templateProposal(lead), nil
	}

	resp, err := d.llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: proposalSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(
				"Draft a proposal for:\nContact: %s\nCompany: %s\nBudget: %d\nTimeline: %s",
				orUnknown(lead.Name), orUnknown(lead.Company), lead.Budget, orUnknown(lead.Timeline))},
		},
	})
	if err != nil {
		d.logger.Warn("proposal generation failed, using template", zap.Error(err))
		return templateProposal(lead), nil
	}
	if len(resp.Choices) == 0 {
		return templateProposal(lead), nil
	}
	return resp.Choices[0].Message.Content, nil
}

// ScheduleEvent records a calendar event and confirms it.
func (d *Dealflow) ScheduleEvent(ctx context.Context, userID, title string, start, end time.Time) (*models.CalendarConfirmation, error) {
	confirmation := &models.CalendarConfirmation{
		Title:   title,
		StartAt: start,
		EndAt:   end,
	}
	if err := d.store.SaveEvent(userID, confirmation); err != nil {
		return nil, fmt.Errorf("event persistence failed: %w", err)
	}
	d.logger.Info("event scheduled",
		zap.String("user_id", userID),
		zap.String("title", title),
		zap.Time("start", start))
	return confirmation, nil
}

// RecordStatus appends a deal status note.
func (d *Dealflow) RecordStatus(ctx context.Context, userID, note string) error {
	if err := d.store.SaveStatus(userID, note); err != nil {
		return fmt.Errorf("status persistence failed: %w", err)
	}
	return nil
}

func proposalTitle(lead *models.Lead) string {
	if lead.Company != "" {
		return fmt.Sprintf("Proposal for %s", lead.Company)
	}
	return "Proposal"
}

func templateProposal(lead *models.Lead) string {
	budget := "to be discussed"
	if lead.Budget > 0 {
		budget = fmt.Sprintf("%d", lead.Budget)
	}
	return fmt.Sprintf(
		"Dear %s,\n\nThank you for your interest. Based on our conversation we propose a "+
			"proof of concept tailored to %s.\n\nBudget: %s\nTimeline: %s\n\n"+
			"Next step: a short call to confirm scope. Looking forward to it!",
		orUnknown(lead.Name), orUnknown(lead.Company), budget, orUnknown(lead.Timeline))
}

func orUnknown(s string) string {
	if s == "" {
		return "your team"
	}
	return s
}

// Package dispatch is the session-aware routing engine: it classifies each
// inbound message, extracts entities, updates the user's session and hands
// the message to the right downstream handler. It is the only component that
// mutates sessions.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/revenue-copilot/internal/classifier"
	"github.com/yourusername/revenue-copilot/internal/extractor"
	"github.com/yourusername/revenue-copilot/internal/leadscore"
	"github.com/yourusername/revenue-copilot/internal/schedule"
	"github.com/yourusername/revenue-copilot/internal/session"
	"github.com/yourusername/revenue-copilot/models"
)

const apologyReply = "Sorry, something went wrong on my side while handling that. Please try again in a moment."

// KnowledgeAgent answers questions and ingests documents. Implementations
// talk to external services and may fail; the dispatcher converts failures
// into a generic apology.
type KnowledgeAgent interface {
	Answer(ctx context.Context, question string) (*models.KnowledgeAnswer, error)
	Ingest(ctx context.Context, att models.Attachment) (chunks int, err error)
}

// DealflowAgent executes the business-intent actions.
type DealflowAgent interface {
	CaptureLead(ctx context.Context, lead *models.Lead) error
	DraftProposal(ctx context.Context, lead *models.Lead) (*models.ProposalContent, error)
	ScheduleEvent(ctx context.Context, userID, title string, start, end time.Time) (*models.CalendarConfirmation, error)
	RecordStatus(ctx context.Context, userID, note string) error
}

// ConversationSink receives the fire-and-forget dispatch log.
type ConversationSink interface {
	LogConversation(rec *models.ConversationRecord) error
}

// Config tunes the dispatcher. The threshold and weights are a starting
// calibration, not a contract; both are config-overridable.
type Config struct {
	ConfidenceThreshold float64           `mapstructure:"confidence_threshold"`
	EventDuration       time.Duration     `mapstructure:"event_duration"`
	ScoreWeights        leadscore.Weights `mapstructure:"-"`
}

// DefaultConfig returns the default dispatcher calibration.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.35,
		EventDuration:       time.Hour,
		ScoreWeights:        leadscore.DefaultWeights(),
	}
}

// Dispatcher routes messages. Safe for concurrent use: per-user serialization
// is delegated to the session store's per-key locks.
type Dispatcher struct {
	classifier *classifier.Classifier
	sessions   *session.Store
	knowledge  KnowledgeAgent
	dealflow   DealflowAgent
	sink       ConversationSink
	logger     *zap.Logger
	cfg        Config
	now        func() time.Time
}

// New creates a dispatcher. sink may be nil to disable conversation logging.
func New(sessions *session.Store, knowledge KnowledgeAgent, dealflow DealflowAgent,
	sink ConversationSink, logger *zap.Logger, cfg Config) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = DefaultConfig().ConfidenceThreshold
	}
	if cfg.EventDuration <= 0 {
		cfg.EventDuration = DefaultConfig().EventDuration
	}
	if cfg.ScoreWeights.IntentBase == nil {
		cfg.ScoreWeights = leadscore.DefaultWeights()
	}
	return &Dispatcher{
		classifier: classifier.New(),
		sessions:   sessions,
		knowledge:  knowledge,
		dealflow:   dealflow,
		sink:       sink,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// SetClock overrides the dispatcher's clock, used as the schedule parser's
// reference time. Intended for tests.
func (d *Dispatcher) SetClock(now func() time.Time) { d.now = now }

// HandleMessage is the single entry point for the transport layer. It always
// returns a response for well-formed input; no failure below it is fatal.
func (d *Dispatcher) HandleMessage(ctx context.Context, userID, text string, att *models.Attachment) *models.RouteResponse {
	classification := d.classifier.Classify(text)
	extraction := extractor.Extract(text)

	var resp *models.RouteResponse
	d.sessions.WithSession(userID, func(sess *models.Session) {
		resp = d.dispatch(ctx, sess, text, att, classification, extraction)
	})

	d.logger.Info("dispatched message",
		zap.String("user_id", userID),
		zap.String("intent", string(resp.Intent)),
		zap.Float64("confidence", resp.Confidence),
		zap.String("route", string(resp.RouteTaken)))

	if d.sink != nil {
		rec := &models.ConversationRecord{
			UserID:     userID,
			Text:       text,
			Intent:     resp.Intent,
			Confidence: resp.Confidence,
			Route:      resp.RouteTaken,
			RequestID:  uuid.NewString(),
			Timestamp:  d.now(),
		}
		go func() {
			if err := d.sink.LogConversation(rec); err != nil {
				d.logger.Warn("conversation log write failed", zap.Error(err))
			}
		}()
	}
	return resp
}

// dispatch runs under the session's per-key lock.
func (d *Dispatcher) dispatch(ctx context.Context, sess *models.Session, text string,
	att *models.Attachment, classification models.ClassificationResult,
	extraction models.ExtractionResult) *models.RouteResponse {

	// An attachment always means knowledge-base ingestion, whatever the text
	// and whatever exchange was pending.
	if att != nil {
		sess.CurrentFlow = ""
		sess.PendingText = ""
		classification = models.ClassificationResult{Intent: models.IntentKnowledgeQA, Confidence: 1.0}
	}

	routeText := text
	scheduleRetry := false
	switch sess.CurrentFlow {
	case models.FlowAwaitingClarification:
		// One clarification round only: re-classify with the combined
		// context and route whatever comes out, falling back to smalltalk.
		routeText = strings.TrimSpace(sess.PendingText + " " + text)
		classification = d.classifier.Classify(routeText)
		extraction = extractor.Extract(routeText)
		sess.CurrentFlow = ""
		sess.PendingText = ""
		if classification.Confidence < d.cfg.ConfidenceThreshold {
			classification.Intent = models.IntentSmalltalk
		}

	case models.FlowAwaitingScheduleTime:
		// The prior turn established a scheduling request without a usable
		// time; treat this message as completing it.
		routeText = strings.TrimSpace(sess.PendingText + " " + text)
		extraction = extractor.Extract(routeText)
		sess.CurrentFlow = ""
		sess.PendingText = ""
		scheduleRetry = true
		classification = models.ClassificationResult{Intent: models.IntentNextStep, Confidence: 1.0}

	default:
		if att == nil && strings.TrimSpace(text) != "" &&
			classification.Confidence > 0 && classification.Confidence < d.cfg.ConfidenceThreshold {
			return d.clarify(sess, text, classification)
		}
	}

	// Confident dispatch: merge entities, append the turn, then route.
	sess.Entities.Merge(extraction)
	sess.AppendTurn(models.Turn{
		Text:       text,
		Intent:     classification.Intent,
		Confidence: classification.Confidence,
		Timestamp:  d.now(),
	}, d.sessions.MaxHistory())

	resp := &models.RouteResponse{
		Intent:           classification.Intent,
		Confidence:       classification.Confidence,
		EntitiesCaptured: extraction,
	}

	switch classification.Intent {
	case models.IntentKnowledgeQA:
		resp.RouteTaken = models.HandlerKnowledge
		d.routeKnowledge(ctx, resp, routeText, att)
	case models.IntentLeadCapture:
		resp.RouteTaken = models.HandlerDealflow
		d.routeLeadCapture(ctx, sess, resp, extraction)
	case models.IntentProposalRequest:
		resp.RouteTaken = models.HandlerDealflow
		d.routeProposal(ctx, sess, resp, extraction)
	case models.IntentNextStep:
		resp.RouteTaken = models.HandlerDealflow
		d.routeNextStep(ctx, sess, resp, routeText, scheduleRetry)
	case models.IntentStatusUpdate:
		resp.RouteTaken = models.HandlerDealflow
		d.routeStatus(ctx, sess, resp, routeText)
	default:
		resp.RouteTaken = models.HandlerSmalltalk
		resp.ReplyText = smalltalkReply(text)
	}

	resp.LeadID = sess.LeadID
	return resp
}

// clarify records the low-confidence turn and asks the user to disambiguate
// between the top two candidate intents.
func (d *Dispatcher) clarify(sess *models.Session, text string, classification models.ClassificationResult) *models.RouteResponse {
	sess.CurrentFlow = models.FlowAwaitingClarification
	sess.PendingText = text
	sess.AppendTurn(models.Turn{
		Text:       text,
		Intent:     classification.Intent,
		Confidence: classification.Confidence,
		Timestamp:  d.now(),
	}, d.sessions.MaxHistory())

	candidates := d.classifier.TopCandidates(text, 2)
	var names []string
	for _, c := range candidates {
		names = append(names, intentLabel(c))
	}
	reply := fmt.Sprintf("Just to be sure — are you asking about %s?", strings.Join(names, " or "))

	return &models.RouteResponse{
		ReplyText:        reply,
		RouteTaken:       models.HandlerClarify,
		Intent:           classification.Intent,
		Confidence:       classification.Confidence,
		EntitiesCaptured: models.ExtractionResult{},
		LeadID:           sess.LeadID,
	}
}

func (d *Dispatcher) routeKnowledge(ctx context.Context, resp *models.RouteResponse, text string, att *models.Attachment) {
	if att != nil {
		chunks, err := d.knowledge.Ingest(ctx, *att)
		if err != nil {
			d.logger.Error("document ingestion failed",
				zap.String("file", att.FileName), zap.Error(err))
			resp.ReplyText = apologyReply
			return
		}
		resp.ReplyText = fmt.Sprintf("Got it — I've added %s to my knowledge base (%d chunks). Ask me anything about it!",
			att.FileName, chunks)
		return
	}

	answer, err := d.knowledge.Answer(ctx, text)
	if err != nil {
		d.logger.Error("knowledge agent failed", zap.Error(err))
		resp.ReplyText = apologyReply
		return
	}
	resp.ReplyText = answer.Text
	resp.Citations = answer.Citations
}

func (d *Dispatcher) routeLeadCapture(ctx context.Context, sess *models.Session, resp *models.RouteResponse, extraction models.ExtractionResult) {
	// lead_id is assigned exactly once per session, on the first confirmed
	// lead-capture dispatch.
	if sess.LeadID == "" {
		sess.LeadID = uuid.NewString()
	}

	score := leadscore.Score(sess, extraction, models.IntentLeadCapture, d.cfg.ScoreWeights)
	lead := d.leadFromSession(sess, score)

	if err := d.dealflow.CaptureLead(ctx, lead); err != nil {
		d.logger.Error("lead capture failed", zap.String("lead_id", lead.ID), zap.Error(err))
		resp.ReplyText = apologyReply
		return
	}

	var b strings.Builder
	b.WriteString("Lead captured!")
	if lead.Name != "" {
		fmt.Fprintf(&b, " Contact: %s", lead.Name)
		if lead.Company != "" {
			fmt.Fprintf(&b, " (%s)", lead.Company)
		}
		b.WriteString(".")
	}
	if lead.Budget > 0 {
		fmt.Fprintf(&b, " Budget: %d.", lead.Budget)
	}
	if lead.Timeline != "" {
		fmt.Fprintf(&b, " Timeline: %s.", lead.Timeline)
	}
	fmt.Fprintf(&b, " Quality score: %d/100.", score)
	resp.ReplyText = b.String()
}

func (d *Dispatcher) routeProposal(ctx context.Context, sess *models.Session, resp *models.RouteResponse, extraction models.ExtractionResult) {
	// A proposal needs a lead; create one implicitly from whatever the
	// session has accumulated so far.
	if sess.LeadID == "" {
		sess.LeadID = uuid.NewString()
		score := leadscore.Score(sess, extraction, models.IntentProposalRequest, d.cfg.ScoreWeights)
		if err := d.dealflow.CaptureLead(ctx, d.leadFromSession(sess, score)); err != nil {
			d.logger.Error("implicit lead capture failed", zap.Error(err))
			resp.ReplyText = apologyReply
			return
		}
	}

	proposal, err := d.dealflow.DraftProposal(ctx, d.leadFromSession(sess, 0))
	if err != nil {
		d.logger.Error("proposal draft failed", zap.String("lead_id", sess.LeadID), zap.Error(err))
		resp.ReplyText = apologyReply
		return
	}
	resp.ReplyText = fmt.Sprintf("Here's a draft proposal:\n\n%s\n\n%s", proposal.Title, proposal.Body)
}

func (d *Dispatcher) routeNextStep(ctx context.Context, sess *models.Session, resp *models.RouteResponse, text string, retry bool) {
	parsed := schedule.Parse(text, d.now())

	switch parsed.Kind {
	case schedule.Ambiguous:
		if retry {
			resp.ReplyText = "I still can't pin that down to a single date and time. Please give me one, like \"Wed at 11\"."
			return
		}
		sess.CurrentFlow = models.FlowAwaitingScheduleTime
		sess.PendingText = "schedule"
		resp.ReplyText = fmt.Sprintf("I see more than one option there (%s). Which date and time did you mean?", parsed.Reason)
		return
	case schedule.NotFound:
		if retry {
			resp.ReplyText = "I couldn't find a date or time in that, so I've left the calendar alone for now."
			return
		}
		sess.CurrentFlow = models.FlowAwaitingScheduleTime
		sess.PendingText = text
		resp.ReplyText = "Sure — when should I schedule it?"
		return
	}

	if !parsed.HasTime {
		if retry {
			resp.ReplyText = fmt.Sprintf("I have the day (%s) but still no time, so nothing is booked yet.", parsed.Start.Format("Monday, Jan 2"))
			return
		}
		// Date resolved but no clock time; keep the request pending so the
		// next message ("at 11") completes it instead of starting over.
		sess.CurrentFlow = models.FlowAwaitingScheduleTime
		sess.PendingText = text
		resp.ReplyText = fmt.Sprintf("%s works — what time?", parsed.Start.Format("Monday, Jan 2"))
		return
	}

	title := "Meeting"
	if strings.Contains(strings.ToLower(text), "demo") {
		title = "Demo Call"
	} else if strings.Contains(strings.ToLower(text), "follow") {
		title = "Follow-up Call"
	}

	confirmation, err := d.dealflow.ScheduleEvent(ctx, sess.UserID, title,
		parsed.Start, parsed.Start.Add(d.cfg.EventDuration))
	if err != nil {
		d.logger.Error("event scheduling failed", zap.Error(err))
		resp.ReplyText = apologyReply
		return
	}
	resp.ReplyText = fmt.Sprintf("Scheduled: %s on %s.",
		confirmation.Title, confirmation.StartAt.Format("Monday, Jan 2 at 15:04"))
}

func (d *Dispatcher) routeStatus(ctx context.Context, sess *models.Session, resp *models.RouteResponse, text string) {
	if err := d.dealflow.RecordStatus(ctx, sess.UserID, text); err != nil {
		d.logger.Error("status update failed", zap.Error(err))
		resp.ReplyText = apologyReply
		return
	}
	resp.ReplyText = "Noted — I've updated the deal status."
}

func (d *Dispatcher) leadFromSession(sess *models.Session, score int) *models.Lead {
	return &models.Lead{
		ID:           sess.LeadID,
		UserID:       sess.UserID,
		Name:         sess.Entities.Name,
		Company:      sess.Entities.Company,
		Budget:       sess.Entities.Budget,
		Timeline:     sess.Entities.Timeline,
		Email:        sess.Entities.Email,
		Phone:        sess.Entities.Phone,
		QualityScore: score,
		CreatedAt:    d.now(),
	}
}

func intentLabel(i models.Intent) string {
	switch i {
	case models.IntentKnowledgeQA:
		return "a question for the knowledge base"
	case models.IntentLeadCapture:
		return "a new lead"
	case models.IntentProposalRequest:
		return "a proposal"
	case models.IntentNextStep:
		return "scheduling a meeting"
	case models.IntentStatusUpdate:
		return "a deal status update"
	default:
		return "just chatting"
	}
}

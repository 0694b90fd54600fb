// Package suggestion drafts messages a company can send to a candidate.
// Drafting is advisory: when the text service fails, a fixed message for the
// context is returned instead.
package suggestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"anti-ghosting/internal/infrastructure/textgen"
	"anti-ghosting/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrUnknownContext = errors.New("unknown communication context")

type Context string

const (
	ContextStatusUpdate    Context = "status_update"
	ContextRejection       Context = "rejection"
	ContextInterviewInvite Context = "interview_invite"
)

func ParseContext(raw string) (Context, error) {
	c := Context(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := fallbacks[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownContext, raw)
	}
	return c, nil
}

const systemInstruction = "You are an HR communication assistant. Write short, warm, professional messages " +
	"to job candidates. Never invent dates, salaries, or names that are not given. Reply with the message only."

var fallbacks = map[Context]string{
	ContextStatusUpdate: "Thank you for your patience. We wanted to let you know that your application is still " +
		"being reviewed, and we will share an update with you as soon as we can.",
	ContextRejection: "Thank you for your interest and the time you invested in applying. After careful " +
		"consideration, we have decided to move forward with other candidates. We wish you the best in your search.",
	ContextInterviewInvite: "Thank you for your application. We were impressed with your background and would " +
		"like to invite you to an interview. Please let us know your availability over the coming days.",
}

// Fallback returns the fixed message for c.
func Fallback(c Context) string {
	return fallbacks[c]
}

type Suggestion struct {
	ApplicationID uuid.UUID `json:"application_id"`
	Context       Context   `json:"context"`
	Message       string    `json:"message"`
	Fallback      bool      `json:"fallback"`
}

type Generator struct {
	apps    repository.ApplicationRepository
	text    textgen.Generator
	timeout time.Duration
	logger  logrus.FieldLogger
}

// NewGenerator builds a generator. A nil text service always yields the
// fallback message.
func NewGenerator(apps repository.ApplicationRepository, text textgen.Generator, timeout time.Duration, logger logrus.FieldLogger) *Generator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Generator{apps: apps, text: text, timeout: timeout, logger: logger.WithField("component", "suggestion")}
}

// GenerateCommunicationSuggestion drafts a message for the application in
// the given context. Only an unknown context or application is an error.
func (g *Generator) GenerateCommunicationSuggestion(ctx context.Context, applicationID uuid.UUID, c Context) (Suggestion, error) {
	fallback, ok := fallbacks[c]
	if !ok {
		return Suggestion{}, fmt.Errorf("%w: %q", ErrUnknownContext, c)
	}

	info, err := g.apps.GetSuggestionContext(ctx, applicationID)
	if err != nil {
		return Suggestion{}, err
	}

	out := Suggestion{ApplicationID: applicationID, Context: c, Message: fallback, Fallback: true}
	if g.text == nil {
		return out, nil
	}

	genCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.text.Generate(genCtx, systemInstruction, buildPrompt(c, info.JobTitle, info.CandidateName, info.CompanyName))
	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		if err == nil {
			err = textgen.ErrEmptyResponse
		}
		g.logger.WithFields(logrus.Fields{
			"application_id": applicationID,
			"context":        c,
		}).WithError(err).Warn("generation failed, using fallback")
		return out, nil
	}

	out.Message = text
	out.Fallback = false
	return out, nil
}

func buildPrompt(c Context, jobTitle, candidateName, companyName string) string {
	if candidateName == "" {
		candidateName = "the candidate"
	}
	if companyName == "" {
		companyName = "our company"
	}
	switch c {
	case ContextRejection:
		return fmt.Sprintf("Write a respectful rejection message to %s, who applied for the %s position at %s. "+
			"Thank them, be clear that they were not selected, and encourage them to apply again.", candidateName, jobTitle, companyName)
	case ContextInterviewInvite:
		return fmt.Sprintf("Write an interview invitation to %s for the %s position at %s. "+
			"Express enthusiasm and ask for their availability.", candidateName, jobTitle, companyName)
	default:
		return fmt.Sprintf("Write a brief status update to %s about their application for the %s position at %s. "+
			"Let them know the application is still under review and that they have not been forgotten.", candidateName, jobTitle, companyName)
	}
}

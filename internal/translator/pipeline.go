package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"sasbridge/internal/domain"
)

// Pipeline runs the five translation steps for one task and reduces the
// result to a single terminal outcome. Run never returns an error: every
// failure path is folded into the outcome, so a claimed task always reaches
// exactly one terminal state.
type Pipeline struct {
	Client ChatClient
	Logger zerolog.Logger
}

// reviewPayload is the shape the review step is prompted to answer with.
// Approved is a pointer so a payload that omits the key is not read as a
// rejection.
type reviewPayload struct {
	Approved  *bool  `json:"approved"`
	Rationale string `json:"rationale"`
}

// Run executes the steps in order against the task's source code.
//
// A failed fallback-enabled step substitutes its placeholder artifact and
// marks the outcome completed-fallback. When the translation step itself
// falls back there is nothing real left to validate or review, so the
// remaining steps are skipped and the stub becomes the terminal content. A
// failed critical step without a fallback fails the task with the step error
// attached; a failed optional step is logged and skipped.
func (p *Pipeline) Run(ctx context.Context, task *domain.ConversionTask, target domain.TargetType) domain.TaskOutcome {
	in := StepInput{
		FileName:   task.FileName,
		SourceCode: task.SourceCode,
		Target:     target,
	}
	fellBack := false

	for _, step := range Steps {
		out, err := p.runStep(ctx, step, in)
		if err != nil {
			policy := PolicyFor(step)
			stepErr := &domain.PipelineError{Step: string(step), Err: err}
			switch {
			case policy.FallbackEnabled:
				p.Logger.Warn().Err(err).Str("step", string(step)).Str("task_id", task.ID).
					Msg("step failed, substituting fallback artifact")
				fellBack = true
				if step == StepTranslateCode {
					stub := FallbackArtifact(target)
					rationale := fmt.Sprintf("Fallback stub substituted: %v. Manual review required.", err)
					return domain.TaskOutcome{
						Status:     domain.TaskStatusCompletedFallback,
						TargetCode: &stub,
						Rationale:  rationale,
					}
				}
				in.Validation = FallbackValidationReport()
				continue
			case policy.Critical:
				p.Logger.Error().Err(err).Str("step", string(step)).Str("task_id", task.ID).
					Msg("critical step failed")
				msg := stepErr.Error()
				return domain.TaskOutcome{
					Status:       domain.TaskStatusFailed,
					ErrorMessage: &msg,
				}
			default:
				p.Logger.Warn().Err(err).Str("step", string(step)).Str("task_id", task.ID).
					Msg("optional step failed, continuing")
				continue
			}
		}

		switch step {
		case StepAnalyzeSAS:
			in.Analysis = out
		case StepDecidePlatform:
			in.Decision = out
		case StepTranslateCode:
			in.Translated = trimCodeFence(out)
		case StepTestAndValidate:
			in.Validation = out
		case StepReviewAndApprove:
			in.Review = out
		}
	}

	status := domain.TaskStatusCompleted
	if fellBack {
		status = domain.TaskStatusCompletedFallback
	}
	code := in.Translated
	return domain.TaskOutcome{
		Status:     status,
		TargetCode: &code,
		Rationale:  p.extractRationale(in, task.ID),
	}
}

func (p *Pipeline) runStep(ctx context.Context, step Step, in StepInput) (string, error) {
	out, err := p.Client.Chat(ctx, systemPrompt(step, in.Target), userPrompt(step, in))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("step produced no output")
	}
	return out, nil
}

func (p *Pipeline) extractRationale(in StepInput, taskID string) string {
	raw := strings.TrimSpace(in.Review)
	if raw == "" {
		return ""
	}
	var parsed reviewPayload
	if err := json.Unmarshal([]byte(trimCodeFence(raw)), &parsed); err != nil {
		p.Logger.Warn().Err(err).Str("task_id", taskID).Msg("review payload is not JSON, keeping raw text")
		return raw
	}
	rationale := parsed.Rationale
	if rationale == "" {
		rationale = raw
	}
	if parsed.Approved != nil && !*parsed.Approved {
		p.Logger.Warn().Str("task_id", taskID).Msg("review step did not approve the result")
		return "NOT APPROVED by review step: " + rationale
	}
	return rationale
}

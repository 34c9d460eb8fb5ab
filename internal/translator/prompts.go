package translator

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sasbridge/internal/domain"
)

// StepInput carries everything a step prompt can draw on: the source file
// plus the outputs of the steps before it.
type StepInput struct {
	FileName   string
	SourceCode string
	Target     domain.TargetType

	Analysis   string
	Decision   string
	Translated string
	Validation string
	Review     string
}

// displayName renders a step identifier as a human-readable title for use
// inside prompts ("translate_code" → "Translate Code").
func displayName(step Step) string {
	c := cases.Title(language.English)
	return c.String(strings.ReplaceAll(string(step), "_", " "))
}

func targetLabel(target domain.TargetType) string {
	if target == domain.TargetTypePySpark {
		return "PySpark"
	}
	return "SQL"
}

func systemPrompt(step Step, target domain.TargetType) string {
	return fmt.Sprintf(
		"You are a senior data engineer performing the %s stage of a SAS to %s migration. Respond with the requested artifact only, no commentary.",
		displayName(step), targetLabel(target))
}

func userPrompt(step Step, in StepInput) string {
	sb := &strings.Builder{}
	switch step {
	case StepAnalyzeSAS:
		fmt.Fprintf(sb, "Analyze the following SAS program %q. Summarize its data steps, procedures, inputs, outputs and any macro logic as a concise JSON object with keys \"summary\", \"inputs\", \"outputs\", \"complexity\".\n\n", in.FileName)
		writeBlock(sb, "SAS source", in.SourceCode)
	case StepDecidePlatform:
		fmt.Fprintf(sb, "The requested target platform is %s. Given the analysis below, confirm or refine the execution approach. Respond as JSON with keys \"platform_choice\" (%q) and \"reasoning\".\n\n", targetLabel(in.Target), targetLabel(in.Target))
		writeBlock(sb, "Analysis", in.Analysis)
	case StepTranslateCode:
		fmt.Fprintf(sb, "Translate the SAS program %q to %s. Preserve the original logic and column names. Output only the translated code.\n\n", in.FileName, targetLabel(in.Target))
		writeBlock(sb, "SAS source", in.SourceCode)
		writeBlock(sb, "Analysis", in.Analysis)
		writeBlock(sb, "Platform decision", in.Decision)
	case StepTestAndValidate:
		fmt.Fprintf(sb, "Review the translated %s below for syntactic validity and logical equivalence to the SAS source. Respond as JSON with keys \"verdict\" (PASS, FAIL or SKIPPED), \"test_summary\" and \"recommendations\".\n\n", targetLabel(in.Target))
		writeBlock(sb, "SAS source", in.SourceCode)
		writeBlock(sb, "Translated code", in.Translated)
	case StepReviewAndApprove:
		fmt.Fprintf(sb, "Give a final review of the %s translation below. Respond as JSON with keys \"approved\" (boolean) and \"rationale\" (one paragraph suitable for a human reviewer).\n\n", targetLabel(in.Target))
		writeBlock(sb, "Translated code", in.Translated)
		writeBlock(sb, "Validation report", in.Validation)
	}
	return sb.String()
}

func writeBlock(sb *strings.Builder, label, content string) {
	if strings.TrimSpace(content) == "" {
		return
	}
	fmt.Fprintf(sb, "%s:\n```\n%s\n```\n\n", label, content)
}

package translator

// Step names the five sequential stages of the translation pipeline.
type Step string

const (
	StepAnalyzeSAS       Step = "analyze_sas"
	StepDecidePlatform   Step = "decide_platform"
	StepTranslateCode    Step = "translate_code"
	StepTestAndValidate  Step = "test_and_validate"
	StepReviewAndApprove Step = "review_and_approve"
)

// Steps lists the pipeline stages in execution order.
var Steps = []Step{
	StepAnalyzeSAS,
	StepDecidePlatform,
	StepTranslateCode,
	StepTestAndValidate,
	StepReviewAndApprove,
}

// StepPolicy classifies one step. Critical means a failure without a
// fallback fails the whole task; a non-critical failure is logged and the
// pipeline continues. FallbackEnabled means a failure is replaced by a
// synthesized placeholder artifact instead of propagating.
type StepPolicy struct {
	Critical        bool
	FallbackEnabled bool
}

// stepPolicies is the full classification table. The four combinations
// behave as follows:
//
//	critical,  fallback: failure yields a marked stub, task ends
//	           completed-fallback (translate_code).
//	critical, !fallback: failure fails the task (analysis, platform
//	           decision, final review).
//	!critical,  fallback: failure yields a skipped-verdict report, pipeline
//	           continues (test_and_validate).
//	!critical, !fallback: failure is logged and skipped; no step currently
//	           uses this combination.
var stepPolicies = map[Step]StepPolicy{
	StepAnalyzeSAS:       {Critical: true},
	StepDecidePlatform:   {Critical: true},
	StepTranslateCode:    {Critical: true, FallbackEnabled: true},
	StepTestAndValidate:  {FallbackEnabled: true},
	StepReviewAndApprove: {Critical: true},
}

// PolicyFor returns the classification for a step. Unknown steps are treated
// as critical without fallback, the strictest combination.
func PolicyFor(step Step) StepPolicy {
	if p, ok := stepPolicies[step]; ok {
		return p
	}
	return StepPolicy{Critical: true}
}

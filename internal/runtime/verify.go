package runtime

import (
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// Verify decides pass/fail for a verification spec against raw tool output.
// All substring checks are case-insensitive. A nil spec always passes.
//
// file_exists and manual are always-pass placeholders: confirmation for
// those is delegated to an external confirmer.
func Verify(spec *domain.VerifySpec, output string) bool {
	if spec == nil {
		return true
	}
	lower := strings.ToLower(output)
	switch spec.Type {
	case domain.VerifyOutputContains:
		return strings.Contains(lower, strings.ToLower(spec.Value))
	case domain.VerifyOutputNotContains:
		return !strings.Contains(lower, strings.ToLower(spec.Value))
	case domain.VerifyExitCodeZero:
		// Heuristic: the raw output stands in for a real exit code.
		return !strings.Contains(lower, "error") && !strings.Contains(lower, "exit code")
	case domain.VerifyAnyOutput:
		return strings.TrimSpace(output) != ""
	case domain.VerifyFileExists, domain.VerifyManual:
		return true
	}
	return true
}

// VerifyDescription renders a spec for the status block, e.g.
// "output_contains: done". Manual specs render empty; there is nothing for
// the agent to check.
func VerifyDescription(spec *domain.VerifySpec) string {
	if spec == nil || spec.Type == "" || spec.Type == domain.VerifyManual {
		return ""
	}
	if spec.Value == "" {
		return string(spec.Type)
	}
	return string(spec.Type) + ": " + spec.Value
}

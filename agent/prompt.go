package agent

import (
	"fmt"
	"os"
	"strings"
)

// DefaultSystemPrompt instructs the model to execute a test case with the
// helpdesk tools and finish with a status sentinel.
const DefaultSystemPrompt = `You are a QA engineer executing API test cases against a helpdesk tenant.

You are given a test case as a list of natural-language steps. Use the provided tools to perform each step in order.
Tool results are JSON. A result containing an "error" field means the call failed with the HTTP status in "code".

Rules:
1. Use values returned by earlier steps (ids, emails) in later steps.
2. Never invent ids. Create or look up the entity first.
3. Verify every expectation stated in the steps.
4. Clean up entities you created when the steps ask for it.

End your reply with a short report of each step and exactly one of these lines:
TESTCASE_STATUS: PASSED
TESTCASE_STATUS: FAILED`

// LoadSystemPrompt reads a prompt file, falling back to DefaultSystemPrompt
// when path is empty.
func LoadSystemPrompt(path string) (string, error) {
	if path == "" {
		return DefaultSystemPrompt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read system prompt: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("system prompt file %s is empty", path)
	}
	return prompt, nil
}

// buildInstruction wraps test steps so they are clearly delimited from the
// surrounding instructions.
func buildInstruction(steps string) string {
	return fmt.Sprintf("Execute the following test case.\n\n<test_steps>\n%s\n</test_steps>", strings.TrimSpace(steps))
}

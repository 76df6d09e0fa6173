package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Closing codes the interviewer model emits to end a session.
const (
	CodeProblematic = "5j3k"
	CodeEnd         = "x7y8"
)

// CancelMessage is appended when the respondent quits.
const CancelMessage = "You have cancelled the interview."

// ClosingMessages replace a model turn that carries a closing code.
var ClosingMessages = map[string]string{
	CodeProblematic: "Thank you for participating. You raised some ethically or legally problematic content. The interview concludes here.",
	CodeEnd:         "Thank you for participating in the interview, this was the last question. Please continue with the remaining sections in the survey part. Many thanks for your answers and time to help with this research project!",
}

const generalInstructions = `General Instructions:
- Guide the interview in a non-directive and non-leading way, letting the respondent bring up relevant topics. Ask follow-up questions to address unclear points and to gain a deeper understanding of the respondent.
- Collect palpable evidence: ask the respondent to describe relevant events, situations, practices, or other experiences, and elicit specific details.
- Display cognitive empathy: find out how the respondent sees the world and why.
- Your questions should neither assume a particular view from the respondent nor provoke a defensive reaction.
- Ask only one question per message.
- Do not engage in conversations that are unrelated to the purpose of this interview; redirect the focus back to the interview.`

const codes = `Codes: There are specific codes that must be used exclusively in designated situations.
Problematic content: If the respondent writes legally or ethically problematic content, reply with exactly the code '5j3k' and no other text.
End of the interview: When you have asked all questions, or when the respondent does not want to continue the interview, write a concluding message and add the trigger code 'x7y8' to the very end of your message.`

const defaultOutline = `You are a professor at one of the world's leading research universities, specializing in qualitative research methods with a focus on conducting interviews. In the following, you will conduct an interview with a human respondent about their experience of work and how it has been impacted by AI. Begin the interview with a short greeting and ask the respondent what they do for work.`

// InterviewConfig is the YAML form of a prompt file. Empty sections use the built-in text.
type InterviewConfig struct {
	Outline             string `yaml:"outline"`
	GeneralInstructions string `yaml:"general_instructions"`
	Codes               string `yaml:"codes"`
}

// SystemPrompt joins an interview outline with the general instructions and codes.
func SystemPrompt(outline string) string {
	return InterviewConfig{Outline: outline}.SystemPrompt()
}

func (c InterviewConfig) SystemPrompt() string {
	return strings.Join([]string{
		orDefault(c.Outline, defaultOutline),
		orDefault(c.GeneralInstructions, generalInstructions),
		orDefault(c.Codes, codes),
	}, "\n\n\n")
}

// LoadSystemPrompt reads a prompt file: .yaml/.yml as InterviewConfig, anything
// else as a plain-text outline. An empty path uses the built-in interview.
func LoadSystemPrompt(path string) (string, error) {
	if path == "" {
		return SystemPrompt(""), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var cfg InterviewConfig
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return "", fmt.Errorf("parse %s: %w", path, err)
		}
		return cfg.SystemPrompt(), nil
	default:
		return SystemPrompt(string(b)), nil
	}
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return strings.TrimSpace(s)
}

// DetectClosing returns the closing message for the first code found in reply.
func DetectClosing(reply string) (code, message string, ok bool) {
	for _, c := range []string{CodeProblematic, CodeEnd} {
		if strings.Contains(reply, c) {
			return c, ClosingMessages[c], true
		}
	}
	return "", "", false
}

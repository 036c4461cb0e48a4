// Package assist calls the text-generation sidecar that drafts emails for
// the phisher and leader roles.
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"infobattle.org/internal/game"
)

const (
	defaultModel   = "qwen3:latest"
	defaultTimeout = 60 * time.Second

	maxDraftHTMLChars = 800
)

// ErrUnavailable indicates the generation backend could not be reached or
// returned an unusable response.
var ErrUnavailable = errors.New("assistant backend unavailable")

// Draft carries the author's work in progress plus free-form instructions.
type Draft struct {
	Subject      string `json:"subject"`
	Body         string `json:"body"`
	ContentHTML  string `json:"contentHtml"`
	Instructions string `json:"instructions"`
}

// Suggestion is the structured payload the model is asked to produce.
type Suggestion struct {
	Strategy       []string `json:"strategy"`
	SubjectIdeas   []string `json:"subjectIdeas"`
	FromAliasIdeas []string `json:"fromAliasIdeas"`
	ReplyToIdeas   []string `json:"replyToIdeas"`
	HTMLBody       string   `json:"htmlBody"`
	TextBody       string   `json:"textBody"`
}

// Result pairs the raw model output with its parsed form. Suggestion is nil
// when the output was not valid JSON; callers fall back to the raw text.
type Result struct {
	Raw        string
	Suggestion *Suggestion
}

// Client talks to an Ollama-compatible /api/generate endpoint.
type Client struct {
	endpoint string
	model    string
	http     *http.Client
}

// NewClient constructs a Client. An empty model selects the default.
func NewClient(endpoint, model string) *Client {
	if model == "" {
		model = defaultModel
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		http:     &http.Client{Timeout: defaultTimeout},
	}
}

// Enabled reports whether a backend endpoint is configured.
func (c *Client) Enabled() bool { return c != nil && c.endpoint != "" }

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"top_p"`
	PresencePenalty float64 `json:"presence_penalty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Message  string `json:"message"`
}

// Suggest builds the role prompt from the round context and asks the backend
// for email content.
func (c *Client) Suggest(ctx context.Context, role game.Role, view *game.RoundView, draft Draft) (*Result, error) {
	if !c.Enabled() {
		return nil, ErrUnavailable
	}
	system, user := buildPrompt(role, view, draft)

	payload, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: user,
		System: system,
		Stream: false,
		Options: generateOptions{
			Temperature:     0.6,
			TopP:            0.9,
			PresencePenalty: 0.2,
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	output := decoded.Response
	if output == "" {
		output = decoded.Message
	}
	if output == "" {
		return nil, fmt.Errorf("%w: empty response", ErrUnavailable)
	}

	result := &Result{Raw: output}
	var suggestion Suggestion
	if err := json.Unmarshal([]byte(output), &suggestion); err == nil {
		result.Suggestion = &suggestion
	}
	return result, nil
}

func buildPrompt(role game.Role, view *game.RoundView, draft Draft) (system, user string) {
	roleLabel := "City Leader (InfoLeader)"
	if role == game.RolePhisher {
		roleLabel = "Phishing Master (InfoPhisher)"
	}

	var guidelines []string
	if role == game.RolePhisher {
		guidelines = []string{
			"Impersonate a cross-department or authority sender and apply urgency, reward or penalty pressure to extract sensitive data or payment.",
			"Keep the tone natural and credible. Never mention strategy, phishing or an AI identity. Aim for 400 to 600 words.",
			"HTML may use <p>, <ol>, <strong> and inline color spans for emphasis. Also provide a copyable plain-text version.",
			"Suggest plausible attachment names, domains and aliases. Reply-To addresses in gov/city/inspector style raise credibility.",
		}
	} else {
		guidelines = []string{
			"Publish an authoritative official notice. Cite regulations, channels and privacy commitments, helping citizens spot phishing and finish the task.",
			"Keep the tone steady, 350 to 550 words. Use lists, FAQs and reminder callouts. Name the verification channel, hotline and abuse mailbox.",
			"HTML may use <p>, <ol> and <table> elements for steps or penalty notes. Provide a plain-text version for pasting into scripts.",
			"Offer credible From alias and Reply-To suggestions and avoid invented rewards.",
		}
	}

	systemLines := []string{
		fmt.Sprintf("You are a writing assistant embedded in the InfoBattle platform, currently playing: %s.", roleLabel),
		"Generate ready-to-send email content from the scenario, challenge card and draft. Never produce teaching notes or self-description.",
		"The final output must be a single JSON string matching this structure exactly:",
		`{
"strategy": ["string", "..."],
"subjectIdeas": ["string", "..."],
"fromAliasIdeas": ["string", "..."],
"replyToIdeas": ["string", "..."],
"htmlBody": "embeddable HTML fragment",
"textBody": "plain text version"
}`,
		"Requirements:",
		"- strategy: 2 to 4 one-sentence tactical notes, plain text.",
		"- subjectIdeas: 2 to 3 subject lines. fromAliasIdeas and replyToIdeas: at least 2 each, fitting the scenario.",
		"- htmlBody: an embeddable fragment only, no <html>/<body>/<script>. Inline styles are allowed, scripts are not.",
		"- textBody: the HTML content converted to plain text with paragraph breaks preserved.",
	}
	if role == game.RolePhisher {
		systemLines = append(systemLines,
			"- The phishing mail must stay in character. Never use the words scam or phishing and never warn the recipient.")
	} else {
		systemLines = append(systemLines,
			"- The official mail must cite regulations or named channels and spell out the steps and verification method in the HTML.")
	}
	systemLines = append(systemLines,
		"If the user only asks for an HTML or plain-text conversion, convert faithfully with improved layout. If the task is impossible, return empty fields but keep the JSON valid.")
	system = strings.Join(systemLines, "\n")

	var parts []string
	if view.Scenario != nil {
		parts = append(parts,
			fmt.Sprintf("[Scenario] %s\nBackground: %s", view.Scenario.Name, view.Scenario.Background),
			fmt.Sprintf("[Role tasks]\n- Phisher: %s\n- City leader: %s", view.Scenario.PhisherTask, view.Scenario.CityLeaderTask),
			fmt.Sprintf("[Citizen alert points] %s", view.Scenario.RiskHints),
		)
	}
	if card := view.ChallengeCard; card != nil {
		parts = append(parts,
			fmt.Sprintf("[Challenge card] %s (difficulty: %s)\nPressure rule: %s", card.Name, card.Difficulty, card.Pressure),
			fmt.Sprintf("Phisher hints: %s", strings.Join(card.PhisherObjectives, "; ")),
			fmt.Sprintf("Leader hints: %s", strings.Join(card.LeaderObjectives, "; ")),
			fmt.Sprintf("Citizen intel: %s", strings.Join(card.CitizenHints, "; ")),
		)
	}
	parts = append(parts, "[Role writing directives]\n- "+strings.Join(guidelines, "\n- "))

	if draft.Subject != "" || draft.Body != "" || draft.ContentHTML != "" {
		html := strings.Join(strings.Fields(draft.ContentHTML), " ")
		if len(html) > maxDraftHTMLChars {
			html = html[:maxDraftHTMLChars]
		}
		parts = append(parts, fmt.Sprintf("[Current draft] Subject: %s\nPlain text: %s\nHTML: %s",
			orPlaceholder(draft.Subject), orPlaceholder(draft.Body), orPlaceholder(html)))
	}
	if draft.Instructions != "" {
		parts = append(parts, "[Author request] "+draft.Instructions)
	}
	user = strings.Join(parts, "\n\n")
	return system, user
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(empty)"
	}
	return s
}

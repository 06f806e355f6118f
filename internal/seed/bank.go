// Package seed holds the bundled question bank and loads it into Postgres.
package seed

import (
	"fmt"
	"sort"

	"ttx-deepfake/internal/domain"
)

// TeamRoles are the audiences the bank is written for.
var TeamRoles = []string{"executive", "it", "communications", "finance", "legal"}

type template struct {
	question    string
	options     []string
	correct     int
	explanation string
	hints       [2]string
}

var roleFocus = map[string]string{
	"executive":      "As a member of the executive team",
	"it":             "As the IT and security lead",
	"communications": "As head of communications",
	"finance":        "As the finance controller",
	"legal":          "As general counsel",
}

var roleScenario = map[string]string{
	"executive":      "<p>A video of the <strong>CEO</strong> announcing layoffs is trending. The CEO never recorded it.</p>",
	"it":             "<p>The service desk reports a call from someone who <em>sounds exactly like</em> the CIO asking for an MFA reset.</p>",
	"communications": "<p>Journalists are asking for comment on a synthetic audio clip of the chair making offensive remarks.</p>",
	"finance":        "<p>Treasury receives a video call from the <strong>CFO</strong> approving an urgent transfer to a new supplier.</p>",
	"legal":          "<p>A deepfake of a board member is being used to pressure a regulator. Counsel is pulled into the war room.</p>",
}

var cardTemplates = map[string][]template{
	"ransom": {
		{"Attackers threaten to publish a fabricated video unless paid. What is the first move?", []string{"Pay quickly to limit exposure", "Convene the incident team and preserve evidence", "Ignore the message", "Reply to negotiate"}, 1, "Payment rewards extortion and does not remove the fake. Start the response process.", [2]string{"Think about process, not payment.", "Evidence matters for law enforcement."}},
		{"Who should be told about the extortion demand first?", []string{"All staff", "Social media followers", "Incident response lead and legal", "The attackers' bank"}, 2, "A tight circle limits leaks while decisions are made.", [2]string{"Keep the circle small.", "Legal advice shapes every next step."}},
		{"Should law enforcement be involved?", []string{"Yes, report the extortion", "Only after paying", "Never, it adds publicity", "Only if the video goes viral"}, 0, "Extortion is a crime and reporting supports takedowns.", [2]string{"It is a crime.", "Police have takedown channels."}},
		{"How do you prove the video is fake?", []string{"Ask the attackers", "Commission forensic analysis and gather alibi evidence", "Post a denial only", "Delete the email"}, 1, "Forensics plus independent evidence builds a credible rebuttal.", [2]string{"Independent experts help.", "Where was the person really?"}},
		{"The deadline passes and the video is published. What now?", []string{"Stay silent", "Execute the prepared response with verified facts", "Pay double", "Threaten the platforms"}, 1, "A prepared, factual response limits the damage.", [2]string{"You planned for this.", "Lead with facts."}},
	},
	"operational": {
		{"A cloned executive voice orders a plant shutdown by phone. What should staff do?", []string{"Comply immediately", "Verify through a known channel before acting", "Ignore all calls from executives", "Forward the call to IT"}, 1, "Out-of-band verification defeats voice cloning.", [2]string{"Call back.", "Use a number you already have."}},
		{"Which control most reduces impact from spoofed instructions?", []string{"Longer passwords", "Dual authorization for critical actions", "More phone lines", "Open office plans"}, 1, "Two-person rules stop a single spoofed request.", [2]string{"No single point of failure.", "Two people, one decision."}},
		{"Operations are disrupted by false instructions. What is the priority?", []string{"Blame the caller", "Restore safe operations and document the timeline", "Publish a press release", "Fire the operator"}, 1, "Safety and recovery first, with a record for later review.", [2]string{"Safety first.", "Write things down."}},
		{"How should teams be alerted that deepfake calls are in play?", []string{"Through the same phone system", "A pre-agreed secondary channel", "Not at all", "Public social media"}, 1, "Assume the primary channel may be compromised.", [2]string{"Trust the backup channel.", "It should already be agreed."}},
		{"After recovery, what prevents a repeat?", []string{"Nothing, it was bad luck", "Update playbooks and run drills", "Ban phones", "Hire more staff"}, 1, "Lessons learned only stick when practiced.", [2]string{"Practice.", "Playbooks."}},
	},
	"financial": {
		{"A video call from the CFO approves an urgent transfer to a new account. What do you do?", []string{"Process it, the CFO was on camera", "Hold and verify via a known number", "Split the payment", "Ask the caller to email"}, 1, "Video can be faked; verification must use a channel the attacker does not control.", [2]string{"Seeing is not believing.", "Call back on a known number."}},
		{"Which red flag is most telling?", []string{"Friendly tone", "Urgency combined with secrecy and new bank details", "A Monday request", "A short call"}, 1, "Urgency, secrecy and changed details are classic fraud markers.", [2]string{"Pressure.", "New bank details."}},
		{"Funds were sent. What is the first step?", []string{"Wait for the month end", "Contact the bank to recall the transfer immediately", "Post on social media", "Delete the call log"}, 1, "Recall windows are short; speed matters.", [2]string{"Time is money.", "Banks can recall transfers."}},
		{"Which process change helps most?", []string{"Callback verification for payment changes", "Larger transfer limits", "Fewer approvers", "Phone-only approvals"}, 0, "Callbacks to verified numbers break the attack chain.", [2]string{"Verify changes.", "Known numbers."}},
		{"Who must be notified after a confirmed fraud?", []string{"Nobody", "Bank, insurer, auditors and law enforcement", "Only the CEO", "Only the supplier"}, 1, "Notifications enable recovery and meet obligations.", [2]string{"Insurance.", "Auditors."}},
	},
	"reputational": {
		{"A deepfake of your CEO goes viral. What comes first?", []string{"Deny everything on every channel", "Confirm facts quickly and prepare a holding statement", "Wait for it to blow over", "Sue everyone who shared it"}, 1, "A fast, factual holding statement fills the vacuum.", [2]string{"Silence gets filled.", "Facts first."}},
		{"What makes a rebuttal credible?", []string{"Anger", "Independent verification and evidence", "Length", "Celebrity endorsements"}, 1, "Third-party evidence carries weight.", [2]string{"Independent voices.", "Evidence."}},
		{"Which audience is most often forgotten?", []string{"Employees", "Competitors", "Attackers", "Vendors' competitors"}, 0, "Staff are ambassadors and need to hear it first.", [2]string{"Inside the building.", "They talk to friends."}},
		{"How do you get the fake taken down?", []string{"Report through platform deepfake policies", "Hack the host", "Post more content", "Nothing works"}, 0, "Platforms have synthetic media policies and trusted reporter routes.", [2]string{"Platform policies.", "Trusted reporters."}},
		{"How should recovery be measured?", []string{"Not at all", "Track sentiment and stakeholder trust over time", "Count deleted posts only", "Ask the attackers"}, 1, "Recovery is about trust, which needs measuring.", [2]string{"Sentiment.", "Over time."}},
	},
	"legal": {
		{"What should legal secure first?", []string{"Evidence with chain of custody", "A press release", "New logos", "The attackers' apology"}, 0, "Admissible evidence underpins every legal option.", [2]string{"Preserve.", "Chain of custody."}},
		{"Are there notification obligations?", []string{"Never", "Possibly, depending on data and regulators involved", "Only for public companies", "Only if paid"}, 1, "Regulatory duties depend on what was affected.", [2]string{"It depends.", "Check data protection duties."}},
		{"Which remedy removes content fastest?", []string{"A full trial", "Platform notices and injunctive relief", "A letter to shareholders", "Waiting"}, 1, "Notices and urgent injunctions act fastest.", [2]string{"Urgent relief.", "Platforms first."}},
		{"How should internal communications be handled?", []string{"Freely on chat", "Under privilege where appropriate", "Only by SMS", "Publicly"}, 1, "Privilege protects candid assessment.", [2]string{"Privilege.", "Careful wording."}},
		{"What should the contract review look for?", []string{"Nothing", "Vendor and insurance clauses covering synthetic media fraud", "Font sizes", "Office leases"}, 1, "Coverage and liability clauses shape recovery.", [2]string{"Insurance.", "Vendors."}},
	},
	"communication": {
		{"What belongs in the first public statement?", []string{"Speculation", "What is known, what is being done and when you will update", "Blame", "Technical jargon"}, 1, "Clarity and a promise of updates build trust.", [2]string{"Known facts.", "Next update time."}},
		{"Who should speak for the company?", []string{"Anyone available", "A trained, designated spokesperson", "The impersonated executive only", "An anonymous account"}, 1, "One trained voice avoids contradictions.", [2]string{"Trained.", "Designated."}},
		{"How do you authenticate future messages from leadership?", []string{"You cannot", "Use verified channels and publish how to check them", "Switch to fax", "Stop communicating"}, 1, "Tell audiences where genuine messages come from.", [2]string{"Verified channels.", "Tell people how to check."}},
		{"Social media is amplifying the fake. What is best?", []string{"Argue with each post", "Post a pinned, factual correction and engage platforms", "Delete your accounts", "Buy ads with the fake"}, 1, "One clear correction plus platform engagement scales.", [2]string{"Pin it.", "Platforms."}},
		{"When does crisis communication end?", []string{"After the first statement", "When stakeholders have closure and lessons are shared", "Never", "When the press stops calling"}, 1, "Closing the loop restores confidence.", [2]string{"Closure.", "Lessons learned."}},
	},
	"technical": {
		{"Which signal helps detect a deepfake video?", []string{"High resolution", "Inconsistent lighting, blinking and lip sync", "Good audio", "A short duration"}, 1, "Artifacts in lighting and sync are common tells.", [2]string{"Look at the eyes.", "Watch the lips."}},
		{"What should be captured for forensics?", []string{"A screenshot only", "Original files, metadata and source URLs", "Comments", "Nothing"}, 1, "Originals with metadata enable analysis.", [2]string{"Originals.", "Metadata."}},
		{"How can future executive media be protected?", []string{"Content provenance and signing", "Lower video quality", "Avoid cameras", "Watermark with emojis"}, 0, "Provenance standards let audiences verify authenticity.", [2]string{"Provenance.", "Signing."}},
		{"A help desk reset was requested by a cloned voice. What control fails safely?", []string{"Knowledge questions", "Callback plus manager approval", "Faster resets", "Voice recognition"}, 1, "Out-of-band approval resists voice cloning.", [2]string{"Voice can be cloned.", "Approval from a second person."}},
		{"What should monitoring watch for after the incident?", []string{"Nothing", "New impersonations and suspicious account activity", "Only email volume", "CPU usage"}, 1, "Attackers often return with variations.", [2]string{"They come back.", "Impersonation."}},
	},
}

// Bank returns a question set for every team role and risk card, ordered by
// role then card.
func Bank() []domain.QuestionSet {
	out := make([]domain.QuestionSet, 0, len(TeamRoles)*len(cardTemplates))
	for _, role := range TeamRoles {
		for _, card := range domain.RiskCards() {
			out = append(out, questionSet(role, card.ID))
		}
	}
	return out
}

// CardIDs lists the cards the bank covers, sorted.
func CardIDs() []string {
	ids := make([]string, 0, len(cardTemplates))
	for id := range cardTemplates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func questionSet(role, cardID string) domain.QuestionSet {
	templates := cardTemplates[cardID]
	set := domain.QuestionSet{TeamRole: role, CardID: cardID, Questions: make([]domain.QuestionSnapshot, 0, len(templates))}
	for _, tpl := range templates {
		set.Questions = append(set.Questions, domain.QuestionSnapshot{
			Question:      fmt.Sprintf("%s: %s", roleFocus[role], lowerFirst(tpl.question)),
			Scenario:      roleScenario[role],
			Options:       append([]string(nil), tpl.options...),
			CorrectAnswer: tpl.correct,
			Explanation:   tpl.explanation,
			Hints:         []string{tpl.hints[0], tpl.hints[1]},
		})
	}
	return set
}

func lowerFirst(s string) string {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return s
	}
	// Keep acronyms such as "CFO" intact.
	if len(s) > 1 && s[1] >= 'A' && s[1] <= 'Z' {
		return s
	}
	return string(s[0]+('a'-'A')) + s[1:]
}

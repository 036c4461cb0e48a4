package game

// Static content catalog. Scenarios and email templates are seeded into the
// store on startup; challenge cards live in process memory only and rounds
// reference them by id.

var seedScenarios = []Scenario{
	{
		ID:   "health-subsidy",
		Name: "Cyber City Health Atlas Study",
		Background: "Cyber City University is running a city-wide health study. Residents who " +
			"submit medical check-up reports and genetic test data receive a 500 credit " +
			"subsidy, collected exclusively through official channels.",
		CityLeaderTask: "As the city leader, publish a formal notice explaining the study goals, " +
			"how the data will be used, the collection channel and the legal basis, so " +
			"citizens feel safe submitting genuine information.",
		PhisherTask: "Impersonate the city leader or a research institute and lure citizens into " +
			"uploading sensitive genetic data through a fake link, paying a fabricated " +
			"processing fee, or handing over bank card details.",
		RiskHints: "Watch for requests to upload complete genetic or financial records in one go, " +
			"pressuring deadlines, and domains that are not on the official government list.",
	},
	{
		ID:   "facial-database",
		Name: "Smart City Facial Database Rollout",
		Background: "Cyber City is upgrading its public security systems and asks residents to " +
			"submit facial images for a smart-city database, stressing the data is used " +
			"for safety purposes only.",
		CityLeaderTask: "Speak with official authority: describe the collection process, how data " +
			"is anonymised, the legal grounds, and the only valid submission channels, " +
			"calming residents' privacy concerns.",
		PhisherTask: "Collect facial data and home addresses under the cover of the security " +
			"project, attaching malicious links or QR codes and charging a fake review fee.",
		RiskHints: "Be wary of transfer or QR-payment requests, domains that differ from the " +
			"official ones, excessive questions about your household, and promised cash rewards.",
	},
	{
		ID:   "epidemic-tracing",
		Name: "Epidemic Contact Tracing Notice",
		Background: "A new virus outbreak hits Cyber City. Close contacts must be traced within " +
			"24 hours and residents asked to backfill their travel history.",
		CityLeaderTask: "Cite the Public Health Emergency Ordinance, ask citizens to report their " +
			"last 7 days of travel through the official portal, and explain encryption and " +
			"the consequences of a red health code.",
		PhisherTask: "Forge an official SMS claiming the first 10,000 reporters earn phone credit, " +
			"steering citizens to a phishing page that harvests ID and bank card numbers.",
		RiskHints: "Official tracing never pays cash rewards. Check whether links use the " +
			"government domain and whether payment details are requested at all.",
	},
}

var seedChallengeCards = []ChallengeCard{
	{
		ID:         "reward-pressure",
		Name:       "Reward Pressure",
		Difficulty: "hard",
		Summary: "The attacker dangles a first-10,000 reward while the official side can only " +
			"point at the real channel. Deadlines and prize money amplify everyone's nerves.",
		Pressure: "Benefits are docked for anyone who fails to report within 24 hours; the first " +
			"100 reporters receive 300 credits of phone balance.",
		PhisherObjectives: []string{
			"Put the reward in the subject or opening line to reinforce the limited-time, limited-slots mindset.",
			"Attach a QR code or short link and hint the official channel is congested, steering victims onto yours.",
		},
		LeaderObjectives: []string{
			"Explain that official rewards exist only on the designated portal and give a verifiable government link.",
			"Offer a callback and complaints channel, dismantle the phishing pitch, and invite citizens to report suspicious links.",
		},
		CitizenHints: []string{
			"Subsidy policies can be verified on the public affairs board; stay sceptical of phone-credit or cash rewards.",
			"For widely forwarded QR codes, check the domain, the certificate and the issuing authority's seal.",
		},
	},
	{
		ID:         "compliance-audit",
		Name:       "Compliance Audit",
		Difficulty: "medium",
		Summary: "A compliance audit is underway. The phishing crew forges a cross-department " +
			"inspection and pressures citizens into handing over private files; the official " +
			"side can only answer with procedure.",
		Pressure: "Anyone who fails to upload documents within 4 hours is threatened with the " +
			"defaulters list.",
		PhisherObjectives: []string{
			"Invoke a cross-department task force or an order from above to project unverifiable authority.",
			"Attach a stamped PDF to add realism and entice a download of the payload or a credential hand-over.",
		},
		LeaderObjectives: []string{
			"Explain that real audits are announced in advance with a document number and answered only from official mailboxes.",
			"Publish the data-minimisation principle and coach citizens to refuse anything unrelated to the audit.",
		},
		CitizenHints: []string{
			"Cross-check the document number, the issuing seal and whether the reply mailbox domain matches.",
			"Any defaulter-list or four-hour-deadline threat deserves a second opinion via the hotline or a service desk.",
		},
	},
	{
		ID:         "insider-distraction",
		Name:       "Insider Smokescreen",
		Difficulty: "high",
		Summary: "The simulation stages an insider leak. The phisher may pose as an internal " +
			"employee while the official side has to clarify the facts and issue safety orders.",
		Pressure: "Rumour says data of 200+ residents has already leaked; emotions run high.",
		PhisherObjectives: []string{
			"Pose as an inside friend or classmate sharing leak screenshots to bait clicks on a cloud drive.",
			"Mix in real jargon such as project codenames or building numbers to earn extra trust.",
		},
		LeaderObjectives: []string{
			"Publish an incident bulletin plus containment orders; passwords change only through the safe channel.",
			"Stress identity verification for social-engineering attempts and provide a checklist for spotting genuine internal notices.",
		},
		CitizenHints: []string{
			"Any link waving the internal-channel flag must appear in the official address list before you touch it.",
			"Ask a self-declared colleague for a video or phone check; never trust a shared drive on its own.",
		},
	},
}

var seedTemplates = []EmailTemplate{
	{
		ID:         "health-official-brief",
		ScenarioID: "health-subsidy",
		Role:       RoleLeader,
		Title:      "Official subsidy briefing",
		Subject:    "[Cyber City Health Commission] Health Atlas subsidy guidance",
		ContentHTML: "<p>Dear citizens:</p>" +
			"<p>Under Article 12 of the Public Health Emergency Ordinance, the Health Commission " +
			"has opened the Health Atlas subsidy. Complete your records at " +
			"<strong>https://gov.cyber/health-map</strong>.</p>" +
			"<ol><li>Submit only through the official domain; do not forward third-party links.</li>" +
			"<li>Uploading your check-up report and genetic test number completes the review; no fee is ever charged.</li>" +
			"<li>Questions: call 12345 or write to report@cyber.gov.</li></ol>" +
			"<p>Cyber City Health Commission</p>",
		Difficulty: "normal",
		Keywords:   "official, subsidy, gov domain",
	},
	{
		ID:         "health-phish-fastcash",
		ScenarioID: "health-subsidy",
		Role:       RolePhisher,
		Title:      "Expedite-fee scam",
		Subject:    "Urgent: your subsidy quota expires, pay the expedite fee now",
		ContentHTML: "<p>Cyber City University reminds you: your 500 credit Health Atlas subsidy " +
			"expires in 30 minutes.</p>" +
			"<p>To speed up review, upload via <a href=\"http://health-fastbonus.example\">health-fastbonus.example</a>:</p>" +
			"<ul><li>ID number and last eight digits of your bank card</li>" +
			"<li>Raw genetic test data (ZIP)</li>" +
			"<li>200 credit expedite fee (transfer or QR)</li></ul>" +
			"<p>The first 100 submissions earn an extra 188 credits of phone balance.</p>",
		Difficulty: "hard",
		Keywords:   "expedite fee, unofficial domain, reward",
	},
	{
		ID:         "trace-official-alert",
		ScenarioID: "epidemic-tracing",
		Role:       RoleLeader,
		Title:      "Official tracing bulletin",
		Subject:    "[Cyber City CDC] 24-hour travel history reminder",
		ContentHTML: "<p>Per Article 12 of the Public Health Emergency Ordinance, please log into " +
			"<strong>https://health.cyber.gov/trace</strong> within 24 hours and backfill your " +
			"last 7 days of travel.</p>" +
			"<p>Official channels never ask for verification codes or cash packets; report any " +
			"reward message immediately.</p>",
		Difficulty: "normal",
		Keywords:   "tracing, gov domain, report mailbox",
	},
	{
		ID:         "trace-phish-reward",
		ScenarioID: "epidemic-tracing",
		Role:       RolePhisher,
		Title:      "Phone-credit bait",
		Subject:    "Tracing lottery: backfill your travel and claim 100 credits",
		ContentHTML: "<p>Cyber City CDC urgent notice: to thank residents for their cooperation, " +
			"the first 10,000 to backfill travel history receive <strong>100 credits</strong> of " +
			"phone balance.</p>" +
			"<p>Visit <a href=\"http://trace.cyberreward.example\">trace.cyberreward.example</a> now " +
			"and upload a payment screenshot so the reward can be issued.</p>",
		Difficulty: "medium",
		Keywords:   "reward, third-party domain, payment screenshot",
	},
	{
		ID:         "face-official-brief",
		ScenarioID: "facial-database",
		Role:       RoleLeader,
		Title:      "Facial database notice",
		Subject:    "[Public Security] Smart facial database collection notes",
		ContentHTML: "<p>The Cyber City Police Department is upgrading public security. Upload facial " +
			"data at <strong>https://secure.cyber.gov/face</strong>; the system anonymises it " +
			"automatically.</p>" +
			"<p>The police portal and designated offline desks are the only channels; any " +
			"scan-to-win message is a scam.</p>",
		Difficulty: "normal",
		Keywords:   "police, anonymisation, gov domain",
	},
	{
		ID:         "face-phish-scan",
		ScenarioID: "facial-database",
		Role:       RolePhisher,
		Title:      "Scan-to-claim phishing",
		Subject:    "Camera upgrade: scan the code, register and claim 300 credits",
		ContentHTML: "<p>The smart security project is paying 300 credits to priority districts. Scan " +
			"the QR code below, upload a facial photo and your home address, and the money " +
			"arrives within 24 hours.</p>" +
			"<p><em>QR code: {{attachment: qrcode.png}}</em></p>",
		Difficulty: "hard",
		Keywords:   "QR code, home address, cash subsidy",
	},
}

// SeedScenarios returns the built-in scenario catalog.
func SeedScenarios() []Scenario {
	out := make([]Scenario, len(seedScenarios))
	copy(out, seedScenarios)
	return out
}

// SeedChallengeCards returns the built-in challenge card catalog.
func SeedChallengeCards() []ChallengeCard {
	out := make([]ChallengeCard, len(seedChallengeCards))
	copy(out, seedChallengeCards)
	return out
}

// SeedEmailTemplates returns the built-in template catalog.
func SeedEmailTemplates() []EmailTemplate {
	out := make([]EmailTemplate, len(seedTemplates))
	copy(out, seedTemplates)
	return out
}

package sim

// Scenario is one failure template, possibly after per-learner
// personalization. Created once per session and read-only afterward.
//
// ID identifies the underlying template, not the personalized skin:
// two learners with differently skinned text can share an ID.
type Scenario struct {
	// ID is the stable template identifier. Immutable under skinning.
	ID string `json:"id"`

	// Name is a human-readable title.
	Name string `json:"name"`

	// Requirement is the bait: a seemingly simple development task.
	Requirement string `json:"requirement"`

	// Incident is the trap: the production failure after deployment.
	Incident string `json:"incident"`

	// FixConcept is the ground-truth resolution category. Immutable under
	// skinning and never exposed verbatim to the learner.
	FixConcept string `json:"fix_concept"`

	// SuccessCriteria are the validator's high-level success conditions.
	SuccessCriteria string `json:"success_criteria"`

	// Checklist is the ordered list of named sub-requirements the
	// validator enforces.
	Checklist []string `json:"checklist"`

	// RiskLevel indicates production impact severity. Immutable under
	// skinning.
	RiskLevel string `json:"risk_level"`
}

// Clone returns a deep copy of the scenario.
func (s Scenario) Clone() Scenario {
	out := s
	out.Checklist = make([]string, len(s.Checklist))
	copy(out.Checklist, s.Checklist)
	return out
}

// Templates returns the fixed failure template library. Each entry pairs a
// plausible task with a production failure whose remediation requires one
// specific engineering concept.
func Templates() []Scenario {
	return []Scenario{
		{
			ID:          "legacy_token",
			Name:        "Token Validation vs Legacy",
			Requirement: "Add a security token validation middleware to all API calls.",
			Incident: "CRITICAL INCIDENT: Legacy reporting system cannot authenticate!\n" +
				"The CEO and other legacy users are reporting 401 Unauthorized errors.",
			FixConcept:      "backward_compatibility",
			SuccessCriteria: "Middleware must enforce token validation but allow exceptions for legacy clients.",
			Checklist: []string{
				"validate_authorization_header",
				"exclude_legacy_clients",
				"return_401_on_missing_token",
			},
			RiskLevel: "high",
		},
		{
			ID:          "db_lock",
			Name:        "Online Migration",
			Requirement: "Add a 'last_login' column to the 'Users' table.",
			Incident: "OUTAGE ALERT: Users cannot log in!\n" +
				"The database is unresponsive because the 'Users' table was locked.",
			FixConcept:      "online_migration",
			SuccessCriteria: "Migration must use batching or non-blocking syntax to avoid downtime.",
			Checklist: []string{
				"add_column_last_login",
				"batch_updates_or_nonblocking",
				"preserve_user_access",
			},
			RiskLevel: "high",
		},
		{
			ID:   "rate_limit",
			Name: "Global Weather Integration",
			Requirement: "Implement a service called 'WeatherProvider' with a function 'fetch_city_stats(city_id)'. " +
				"The function must call the external 'OpenSky_Weather_API' to get live temperature " +
				"for each member on the landing page.",
			Incident: "SERVICE UNAVAILABLE: 'OpenSky_Weather_API' returned Error 429 (Too Many Requests).\n" +
				"Our system is attempting 50,000 calls per minute, causing a global IP ban.",
			FixConcept: "caching",
			SuccessCriteria: "Introduce a caching layer within 'WeatherProvider' to ensure " +
				"'OpenSky_Weather_API' is only called once per city.",
			Checklist: []string{
				"implement_weather_provider_class",
				"integrate_opensky_api_call",
				"add_caching_logic_with_expiry",
			},
			RiskLevel: "medium",
		},
	}
}

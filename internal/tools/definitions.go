package tools

// Tool names
const (
	SearchDrugShortages        = "search_drug_shortages"
	GetMedicationProfile       = "get_medication_profile"
	SearchDrugRecalls          = "search_drug_recalls"
	AnalyzeDrugMarketTrends    = "analyze_drug_market_trends"
	BatchDrugAnalysis          = "batch_drug_analysis"
	SearchAdverseEvents        = "search_adverse_events"
	SearchSeriousAdverseEvents = "search_serious_adverse_events"
)

// Property describes one tool argument in JSON-schema form
type Property struct {
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Default     any       `json:"default,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Minimum     *int      `json:"minimum,omitempty"`
	Maximum     *int      `json:"maximum,omitempty"`
	MinItems    *int      `json:"minItems,omitempty"`
	MaxItems    *int      `json:"maxItems,omitempty"`
	Items       *Property `json:"items,omitempty"`
}

// InputSchema is the argument descriptor of a tool
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// Definition is a tool as advertised by tools/list
type Definition struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	InputSchema InputSchema      `json:"inputSchema"`
	Examples    []map[string]any `json:"-"`
	Guidance    string           `json:"-"`
}

func intPtr(n int) *int { return &n }

func drugNameProperty(description string) Property {
	return Property{Type: "string", Description: description}
}

func limitProperty(def, upper int) Property {
	return Property{
		Type:        "integer",
		Description: "Maximum number of results to return",
		Default:     def,
		Minimum:     intPtr(1),
		Maximum:     intPtr(upper),
	}
}

var definitions = []Definition{
	{
		Name:        SearchDrugShortages,
		Description: "Search the FDA drug shortage database for a drug. Tries generic, brand and normalized name variants and ranks matches by relevance.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"drug_name": drugNameProperty("Generic or brand name of the drug, e.g. 'amoxicillin' or 'Adderall'"),
				"limit":     limitProperty(10, 50),
			},
			Required: []string{"drug_name"},
		},
		Examples: []map[string]any{
			{"drug_name": "amoxicillin"},
			{"drug_name": "insulin glargine", "limit": 5},
		},
		Guidance: "Provide the drug name as plain text; generic names give the best coverage.",
	},
	{
		Name:        GetMedicationProfile,
		Description: "Fetch the FDA label for a drug and summarize indications, dosing, warnings, interactions and other sections.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"drug_identifier": drugNameProperty("Generic or brand name of the drug"),
				"identifier_type": {
					Type:        "string",
					Description: "Which name field to search first",
					Default:     "any",
					Enum:        []string{"any", "generic", "brand"},
				},
			},
			Required: []string{"drug_identifier"},
		},
		Examples: []map[string]any{
			{"drug_identifier": "ibuprofen"},
			{"drug_identifier": "Advil", "identifier_type": "brand"},
		},
		Guidance: "Use identifier_type 'brand' for trade names and 'generic' for active ingredients.",
	},
	{
		Name:        SearchDrugRecalls,
		Description: "Search FDA enforcement reports for recalls of a drug. Always reflects the latest upstream data.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"drug_name": drugNameProperty("Generic or brand name of the drug"),
				"limit":     limitProperty(10, 50),
				"classification": {
					Type:        "string",
					Description: "Only return recalls of this class (Class I is the most serious)",
					Enum:        []string{"Class I", "Class II", "Class III"},
				},
			},
			Required: []string{"drug_name"},
		},
		Examples: []map[string]any{
			{"drug_name": "valsartan"},
			{"drug_name": "metformin", "classification": "Class II", "limit": 20},
		},
		Guidance: "Recall classifications are 'Class I', 'Class II' or 'Class III'.",
	},
	{
		Name:        AnalyzeDrugMarketTrends,
		Description: "Analyze the shortage history of a drug over a number of months: posting activity, status counts, common reasons and a supply risk level.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"drug_name": drugNameProperty("Generic or brand name of the drug"),
				"months_back": {
					Type:        "integer",
					Description: "Length of the analysis window in months",
					Default:     12,
					Minimum:     intPtr(1),
					Maximum:     intPtr(60),
				},
			},
			Required: []string{"drug_name"},
		},
		Examples: []map[string]any{
			{"drug_name": "amoxicillin"},
			{"drug_name": "methylphenidate", "months_back": 24},
		},
		Guidance: "months_back must be between 1 and 60.",
	},
	{
		Name:        BatchDrugAnalysis,
		Description: "Check the shortage status of up to 25 drugs at once, with an optional supply risk assessment per drug.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"drug_list": {
					Type:        "array",
					Description: "Drug names to analyze",
					Items:       &Property{Type: "string"},
					MinItems:    intPtr(1),
					MaxItems:    intPtr(25),
				},
				"include_risk_assessment": {
					Type:        "boolean",
					Description: "Add a risk level and contributing factors for each drug",
					Default:     true,
				},
			},
			Required: []string{"drug_list"},
		},
		Examples: []map[string]any{
			{"drug_list": []string{"amoxicillin", "insulin", "heparin"}},
			{"drug_list": []string{"cisplatin", "carboplatin"}, "include_risk_assessment": false},
		},
		Guidance: "Send between 1 and 25 drug names; split larger lists into several calls.",
	},
	{
		Name:        SearchAdverseEvents,
		Description: "Summarize FDA Adverse Event Reporting System (FAERS) reports for a drug: most frequent reactions and seriousness counts.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"drug_name": drugNameProperty("Generic or brand name of the drug"),
				"limit":     limitProperty(5, 50),
				"detailed": {
					Type:        "boolean",
					Description: "Include the individual reports in the result",
					Default:     false,
				},
			},
			Required: []string{"drug_name"},
		},
		Examples: []map[string]any{
			{"drug_name": "warfarin"},
			{"drug_name": "atorvastatin", "limit": 20, "detailed": true},
		},
		Guidance: "Adverse event reports do not prove causation; use detailed=true to see individual reports.",
	},
	{
		Name:        SearchSeriousAdverseEvents,
		Description: "Search serious FAERS reports for a drug, optionally limited to deaths, hospitalizations, disabilities or life-threatening events.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"drug_name": drugNameProperty("Generic or brand name of the drug"),
				"limit":     limitProperty(5, 50),
				"serious_type": {
					Type:        "string",
					Description: "Seriousness outcome to filter on",
					Default:     "any",
					Enum:        []string{"any", "death", "hospitalization", "disability", "life_threatening"},
				},
			},
			Required: []string{"drug_name"},
		},
		Examples: []map[string]any{
			{"drug_name": "warfarin"},
			{"drug_name": "fentanyl", "serious_type": "death", "limit": 10},
		},
		Guidance: "serious_type is one of any, death, hospitalization, disability, life_threatening.",
	},
}

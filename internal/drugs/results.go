package drugs

// Data source labels
const (
	SourceShortages = "FDA Drug Shortages Database (openFDA /drug/shortages)"
	SourceLabels    = "FDA Structured Product Labeling (openFDA /drug/label)"
	SourceRecalls   = "FDA Enforcement Reports (openFDA /drug/enforcement)"
	SourceEvents    = "FDA Adverse Event Reporting System (openFDA /drug/event)"
)

// Meta holds the fields common to every operation result
type Meta struct {
	Status              string   `json:"status"`
	StrategyUsed        string   `json:"strategy_used,omitempty"`
	StrategiesAttempted []string `json:"strategies_attempted"`
	TotalFound          int      `json:"total_found"`
	DataSource          string   `json:"data_source"`
	Timestamp           string   `json:"timestamp"`
	Suggestions         []string `json:"suggestions,omitempty"`
}

func (m Meta) found() bool {
	return m.Status == StatusOK
}

// ShortageArgs are the arguments of SearchShortages
type ShortageArgs struct {
	DrugName string `json:"drug_name"`
	Limit    int    `json:"limit"`
}

// ShortageItem is one ranked shortage record
type ShortageItem struct {
	GenericName         string   `json:"generic_name,omitempty"`
	ProprietaryName     string   `json:"proprietary_name,omitempty"`
	CompanyName         string   `json:"company_name,omitempty"`
	Status              string   `json:"status,omitempty"`
	ShortageReason      string   `json:"shortage_reason,omitempty"`
	Availability        string   `json:"availability,omitempty"`
	DosageForm          string   `json:"dosage_form,omitempty"`
	Presentation        string   `json:"presentation,omitempty"`
	TherapeuticCategory []string `json:"therapeutic_category,omitempty"`
	InitialPostingDate  string   `json:"initial_posting_date,omitempty"`
	UpdateDate          string   `json:"update_date,omitempty"`
	RelevanceScore      int      `json:"relevance_score"`
}

// ShortageResult is the result of SearchShortages
type ShortageResult struct {
	Meta
	DrugName        string         `json:"drug_name"`
	Returned        int            `json:"returned"`
	StatusBreakdown map[string]int `json:"status_breakdown,omitempty"`
	Shortages       []ShortageItem `json:"shortages"`
}

// ProfileArgs are the arguments of GetMedicationProfile
type ProfileArgs struct {
	DrugIdentifier string `json:"drug_identifier"`
	IdentifierType string `json:"identifier_type"`
}

// LabelSections holds truncated label text
type LabelSections struct {
	BoxedWarning             string `json:"boxed_warning,omitempty"`
	IndicationsAndUsage      string `json:"indications_and_usage,omitempty"`
	DosageAndAdministration  string `json:"dosage_and_administration,omitempty"`
	DosageFormsAndStrengths  string `json:"dosage_forms_and_strengths,omitempty"`
	Contraindications        string `json:"contraindications,omitempty"`
	Warnings                 string `json:"warnings,omitempty"`
	AdverseReactions         string `json:"adverse_reactions,omitempty"`
	DrugInteractions         string `json:"drug_interactions,omitempty"`
	UseInSpecificPopulations string `json:"use_in_specific_populations,omitempty"`
	MechanismOfAction        string `json:"mechanism_of_action,omitempty"`
	StorageAndHandling       string `json:"storage_and_handling,omitempty"`
}

// Profile is a summarized drug label
type Profile struct {
	BrandNames      []string      `json:"brand_names,omitempty"`
	GenericNames    []string      `json:"generic_names,omitempty"`
	SubstanceNames  []string      `json:"substance_names,omitempty"`
	Manufacturers   []string      `json:"manufacturers,omitempty"`
	Routes          []string      `json:"routes,omitempty"`
	ProductTypes    []string      `json:"product_types,omitempty"`
	PharmClasses    []string      `json:"pharmacologic_classes,omitempty"`
	EffectiveTime   string        `json:"effective_time,omitempty"`
	SetID           string        `json:"set_id,omitempty"`
	HasBoxedWarning bool          `json:"has_boxed_warning"`
	Sections        LabelSections `json:"sections"`
}

// ProfileResult is the result of GetMedicationProfile
type ProfileResult struct {
	Meta
	DrugIdentifier string   `json:"drug_identifier"`
	IdentifierType string   `json:"identifier_type"`
	Profile        *Profile `json:"profile,omitempty"`
}

// RecallArgs are the arguments of SearchRecalls
type RecallArgs struct {
	DrugName       string `json:"drug_name"`
	Limit          int    `json:"limit"`
	Classification string `json:"classification,omitempty"`
}

// RecallItem is one enforcement report
type RecallItem struct {
	RecallNumber         string `json:"recall_number,omitempty"`
	Classification       string `json:"classification,omitempty"`
	Status               string `json:"status,omitempty"`
	ProductDescription   string `json:"product_description,omitempty"`
	ReasonForRecall      string `json:"reason_for_recall,omitempty"`
	RecallingFirm        string `json:"recalling_firm,omitempty"`
	RecallInitiationDate string `json:"recall_initiation_date,omitempty"`
	ReportDate           string `json:"report_date,omitempty"`
	DistributionPattern  string `json:"distribution_pattern,omitempty"`
	VoluntaryMandated    string `json:"voluntary_mandated,omitempty"`
}

// RecallResult is the result of SearchRecalls
type RecallResult struct {
	Meta
	DrugName                string         `json:"drug_name"`
	ClassificationFilter    string         `json:"classification_filter,omitempty"`
	Returned                int            `json:"returned"`
	ClassificationBreakdown map[string]int `json:"classification_breakdown,omitempty"`
	OngoingRecalls          int            `json:"ongoing_recalls"`
	Recalls                 []RecallItem   `json:"recalls"`
}

// TrendArgs are the arguments of AnalyzeTrends
type TrendArgs struct {
	DrugName   string `json:"drug_name"`
	MonthsBack int    `json:"months_back"`
}

// ReasonCount is a shortage reason with its frequency
type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// TrendAnalysis summarizes shortage history over a window
type TrendAnalysis struct {
	WindowStart       string         `json:"window_start"`
	WindowEnd         string         `json:"window_end"`
	RecordsAnalyzed   int            `json:"records_analyzed"`
	PostingsInWindow  int            `json:"postings_in_window"`
	ActiveShortages   int            `json:"active_shortages"`
	ResolvedShortages int            `json:"resolved_shortages"`
	StatusCounts      map[string]int `json:"status_counts"`
	TopReasons        []ReasonCount  `json:"top_reasons,omitempty"`
	Trend             string         `json:"trend"`
	RiskLevel         string         `json:"risk_level"`
	MostRecentPosting string         `json:"most_recent_posting,omitempty"`
	UndatedRecords    int            `json:"undated_records"`
}

// TrendResult is the result of AnalyzeTrends
type TrendResult struct {
	Meta
	DrugName   string         `json:"drug_name"`
	MonthsBack int            `json:"months_back"`
	Analysis   *TrendAnalysis `json:"analysis,omitempty"`
}

// BatchArgs are the arguments of BatchAnalyze
type BatchArgs struct {
	DrugList              []string `json:"drug_list"`
	IncludeRiskAssessment bool     `json:"include_risk_assessment"`
}

// RiskAssessment rates the supply risk of one drug
type RiskAssessment struct {
	Level   string   `json:"level"`
	Score   int      `json:"score"`
	Factors []string `json:"factors,omitempty"`
}

// BatchItem is the analysis of one drug in a batch
type BatchItem struct {
	DrugName        string          `json:"drug_name"`
	Status          string          `json:"status"`
	StrategyUsed    string          `json:"strategy_used,omitempty"`
	ShortageCount   int             `json:"shortage_count"`
	ActiveShortages int             `json:"active_shortages"`
	TopMatch        *ShortageItem   `json:"top_match,omitempty"`
	Risk            *RiskAssessment `json:"risk_assessment,omitempty"`
	Error           string          `json:"error,omitempty"`
	ErrorCategory   string          `json:"error_category,omitempty"`
}

// BatchSummary aggregates a batch
type BatchSummary struct {
	TotalDrugs       int            `json:"total_drugs"`
	WithShortages    int            `json:"with_shortages"`
	WithoutShortages int            `json:"without_shortages"`
	Failed           int            `json:"failed"`
	RiskLevels       map[string]int `json:"risk_levels,omitempty"`
}

// BatchResult is the result of BatchAnalyze
type BatchResult struct {
	Status     string       `json:"status"`
	Summary    BatchSummary `json:"summary"`
	Results    []BatchItem  `json:"results"`
	DataSource string       `json:"data_source"`
	Timestamp  string       `json:"timestamp"`
}

// AdverseArgs are the arguments of SearchAdverseEvents
type AdverseArgs struct {
	DrugName string `json:"drug_name"`
	Limit    int    `json:"limit"`
	Detailed bool   `json:"detailed"`
}

// SeriousArgs are the arguments of SearchSeriousAdverseEvents
type SeriousArgs struct {
	DrugName    string `json:"drug_name"`
	Limit       int    `json:"limit"`
	SeriousType string `json:"serious_type"`
}

// TermCount is a reaction term with its frequency
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// SeriousnessCounts counts seriousness outcomes among sampled reports
type SeriousnessCounts struct {
	Serious         int `json:"serious"`
	Death           int `json:"death"`
	Hospitalization int `json:"hospitalization"`
	Disability      int `json:"disability"`
	LifeThreatening int `json:"life_threatening"`
	Congenital      int `json:"congenital_anomaly"`
	Other           int `json:"other"`
}

// EventReport is a condensed adverse event report
type EventReport struct {
	SafetyReportID  string   `json:"safety_report_id,omitempty"`
	ReceiveDate     string   `json:"receive_date,omitempty"`
	Serious         bool     `json:"serious"`
	Outcomes        []string `json:"outcomes,omitempty"`
	Reactions       []string `json:"reactions,omitempty"`
	PatientAge      string   `json:"patient_age,omitempty"`
	PatientSex      string   `json:"patient_sex,omitempty"`
	ReporterCountry string   `json:"reporter_country,omitempty"`
	SuspectDrugs    []string `json:"suspect_drugs,omitempty"`
}

// AdverseResult is the result of SearchAdverseEvents and SearchSeriousAdverseEvents
type AdverseResult struct {
	Meta
	DrugName       string            `json:"drug_name"`
	SeriousType    string            `json:"serious_type,omitempty"`
	ReportsSampled int               `json:"reports_sampled"`
	Seriousness    SeriousnessCounts `json:"seriousness"`
	TopReactions   []TermCount       `json:"top_reactions,omitempty"`
	Reports        []EventReport     `json:"reports,omitempty"`
	Disclaimer     string            `json:"disclaimer"`
}

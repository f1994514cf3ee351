package upstream

import (
	json "github.com/goccy/go-json"
)

// Endpoint is an openFDA resource path
type Endpoint string

// openFDA drug endpoints
const (
	EndpointLabel       Endpoint = "/drug/label.json"
	EndpointShortages   Endpoint = "/drug/shortages.json"
	EndpointEnforcement Endpoint = "/drug/enforcement.json"
	EndpointEvent       Endpoint = "/drug/event.json"
)

// Query is one openFDA search request
type Query struct {
	Search string
	Limit  int
	Skip   int
	Sort   string
}

// Page is a decoded openFDA response page. Results are left raw and decoded
// into record types by the caller.
type Page struct {
	Total   int
	Results []json.RawMessage
}

// Empty returns true when the page holds no records
func (p *Page) Empty() bool {
	return p == nil || len(p.Results) == 0
}

// Decode unmarshals every result into T, skipping records that fail to decode
func Decode[T any](p *Page) []T {
	if p == nil {
		return nil
	}
	out := make([]T, 0, len(p.Results))
	for _, raw := range p.Results {
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out
}

type envelope struct {
	Meta struct {
		Results struct {
			Skip  int `json:"skip"`
			Limit int `json:"limit"`
			Total int `json:"total"`
		} `json:"results"`
	} `json:"meta"`
	Results []json.RawMessage `json:"results"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// OpenFDA is the harmonized identifier block attached to most records
type OpenFDA struct {
	GenericName      []string `json:"generic_name,omitempty"`
	BrandName        []string `json:"brand_name,omitempty"`
	SubstanceName    []string `json:"substance_name,omitempty"`
	ManufacturerName []string `json:"manufacturer_name,omitempty"`
	ProductType      []string `json:"product_type,omitempty"`
	Route            []string `json:"route,omitempty"`
	PharmClassEPC    []string `json:"pharm_class_epc,omitempty"`
	ProductNDC       []string `json:"product_ndc,omitempty"`
	RxCUI            []string `json:"rxcui,omitempty"`
}

// ShortageRecord is a /drug/shortages.json result
type ShortageRecord struct {
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
	DiscontinuedDate    string   `json:"discontinued_date,omitempty"`
	OpenFDA             *OpenFDA `json:"openfda,omitempty"`
}

// RecallRecord is a /drug/enforcement.json result
type RecallRecord struct {
	RecallNumber         string   `json:"recall_number,omitempty"`
	Status               string   `json:"status,omitempty"`
	Classification       string   `json:"classification,omitempty"`
	ProductDescription   string   `json:"product_description,omitempty"`
	ReasonForRecall      string   `json:"reason_for_recall,omitempty"`
	RecallingFirm        string   `json:"recalling_firm,omitempty"`
	RecallInitiationDate string   `json:"recall_initiation_date,omitempty"`
	ReportDate           string   `json:"report_date,omitempty"`
	DistributionPattern  string   `json:"distribution_pattern,omitempty"`
	ProductQuantity      string   `json:"product_quantity,omitempty"`
	VoluntaryMandated    string   `json:"voluntary_mandated,omitempty"`
	State                string   `json:"state,omitempty"`
	Country              string   `json:"country,omitempty"`
	OpenFDA              *OpenFDA `json:"openfda,omitempty"`
}

// LabelRecord is a /drug/label.json result. Section fields are arrays of paragraphs.
type LabelRecord struct {
	ID                       string   `json:"id,omitempty"`
	SetID                    string   `json:"set_id,omitempty"`
	EffectiveTime            string   `json:"effective_time,omitempty"`
	Version                  string   `json:"version,omitempty"`
	BoxedWarning             []string `json:"boxed_warning,omitempty"`
	IndicationsAndUsage      []string `json:"indications_and_usage,omitempty"`
	DosageAndAdministration  []string `json:"dosage_and_administration,omitempty"`
	DosageFormsAndStrengths  []string `json:"dosage_forms_and_strengths,omitempty"`
	Contraindications        []string `json:"contraindications,omitempty"`
	WarningsAndCautions      []string `json:"warnings_and_cautions,omitempty"`
	Warnings                 []string `json:"warnings,omitempty"`
	AdverseReactions         []string `json:"adverse_reactions,omitempty"`
	DrugInteractions         []string `json:"drug_interactions,omitempty"`
	UseInSpecificPopulations []string `json:"use_in_specific_populations,omitempty"`
	Pregnancy                []string `json:"pregnancy,omitempty"`
	MechanismOfAction        []string `json:"mechanism_of_action,omitempty"`
	Description              []string `json:"description,omitempty"`
	StorageAndHandling       []string `json:"storage_and_handling,omitempty"`
	OpenFDA                  *OpenFDA `json:"openfda,omitempty"`
}

// EventRecord is a /drug/event.json (FAERS) result
type EventRecord struct {
	SafetyReportID             string        `json:"safetyreportid,omitempty"`
	ReceiveDate                string        `json:"receivedate,omitempty"`
	Serious                    string        `json:"serious,omitempty"`
	SeriousnessDeath           string        `json:"seriousnessdeath,omitempty"`
	SeriousnessHospitalization string        `json:"seriousnesshospitalization,omitempty"`
	SeriousnessDisabling       string        `json:"seriousnessdisabling,omitempty"`
	SeriousnessLifeThreatening string        `json:"seriousnesslifethreatening,omitempty"`
	SeriousnessCongenital      string        `json:"seriousnesscongenitalanomali,omitempty"`
	SeriousnessOther           string        `json:"seriousnessother,omitempty"`
	PrimarySource              *EventSource  `json:"primarysource,omitempty"`
	Patient                    *EventPatient `json:"patient,omitempty"`
}

// EventSource describes the reporter of an adverse event
type EventSource struct {
	Qualification   string `json:"qualification,omitempty"`
	ReporterCountry string `json:"reportercountry,omitempty"`
}

// EventPatient holds the patient section of an adverse event report
type EventPatient struct {
	OnsetAge     string          `json:"patientonsetage,omitempty"`
	OnsetAgeUnit string          `json:"patientonsetageunit,omitempty"`
	Sex          string          `json:"patientsex,omitempty"`
	Reactions    []EventReaction `json:"reaction,omitempty"`
	Drugs        []EventDrug     `json:"drug,omitempty"`
}

// EventReaction is one MedDRA reaction term
type EventReaction struct {
	Term    string `json:"reactionmeddrapt,omitempty"`
	Outcome string `json:"reactionoutcome,omitempty"`
}

// EventDrug is one drug listed on an adverse event report
type EventDrug struct {
	MedicinalProduct    string   `json:"medicinalproduct,omitempty"`
	Characterization    string   `json:"drugcharacterization,omitempty"`
	Indication          string   `json:"drugindication,omitempty"`
	DosageText          string   `json:"drugdosagetext,omitempty"`
	AdministrationRoute string   `json:"drugadministrationroute,omitempty"`
	ActionDrug          string   `json:"actiondrug,omitempty"`
	OpenFDA             *OpenFDA `json:"openfda,omitempty"`
}

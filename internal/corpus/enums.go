package corpus

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownEnum marks a value outside one of the closed vocabularies below.
// It signals schema drift and is always fatal to an export run.
var ErrUnknownEnum = errors.New("unrecognized enum value")

// EnumError names the offending field and value.
type EnumError struct {
	Field string
	Value string
}

func (e *EnumError) Error() string {
	return fmt.Sprintf("%s: %s %q", ErrUnknownEnum, e.Field, e.Value)
}

func (e *EnumError) Is(target error) bool {
	return target == ErrUnknownEnum
}

// Language is a FLORES-style language tag.
type Language string

const (
	LangEnglish Language = "eng_Latn"
	LangCreole  Language = "hat_Latn"
)

var languages = []Language{LangEnglish, LangCreole}

// ISO returns the ISO 639-1 code used by external translation services.
func (l Language) ISO() string {
	switch l {
	case LangEnglish:
		return "en"
	case LangCreole:
		return "ht"
	}
	return ""
}

type Domain string

const (
	DomainMedical      Domain = "medical"
	DomainPublicHealth Domain = "public_health"
	DomainGeneral      Domain = "general"
	DomainLegal        Domain = "legal"
	DomainOther        Domain = "other"
)

var domains = []Domain{DomainMedical, DomainPublicHealth, DomainGeneral, DomainLegal, DomainOther}

// Status is the curation lifecycle stage. The order draft < reviewed < approved
// gates export eligibility and only ever moves forward.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusReviewed Status = "reviewed"
	StatusApproved Status = "approved"
)

var statuses = []Status{StatusDraft, StatusReviewed, StatusApproved}

// Rank returns the lifecycle position, or -1 for an unknown status.
func (s Status) Rank() int {
	for i, v := range statuses {
		if v == s {
			return i
		}
	}
	return -1
}

// AtLeast reports whether s has reached min.
func (s Status) AtLeast(min Status) bool {
	return s.Rank() >= 0 && s.Rank() >= min.Rank()
}

// CanAdvanceTo reports whether moving from s to next is a forward step.
func (s Status) CanAdvanceTo(next Status) bool {
	return s.Rank() >= 0 && next.Rank() > s.Rank()
}

type Audience string

const (
	AudiencePatient   Audience = "patient"
	AudienceClinician Audience = "clinician"
	AudienceCaregiver Audience = "caregiver"
	AudienceGeneral   Audience = "general"
)

var audiences = []Audience{AudiencePatient, AudienceClinician, AudienceCaregiver, AudienceGeneral}

type SpeakerRole string

const (
	SpeakerDoctor      SpeakerRole = "doctor"
	SpeakerNurse       SpeakerRole = "nurse"
	SpeakerPharmacist  SpeakerRole = "pharmacist"
	SpeakerPatient     SpeakerRole = "patient"
	SpeakerCaregiver   SpeakerRole = "caregiver"
	SpeakerInterpreter SpeakerRole = "interpreter"
	SpeakerOther       SpeakerRole = "other"
)

var speakerRoles = []SpeakerRole{SpeakerDoctor, SpeakerNurse, SpeakerPharmacist, SpeakerPatient, SpeakerCaregiver, SpeakerInterpreter, SpeakerOther}

type Register string

const (
	RegisterFormal   Register = "formal"
	RegisterNeutral  Register = "neutral"
	RegisterInformal Register = "informal"
	RegisterSpoken   Register = "spoken"
	RegisterSlang    Register = "slang"
	RegisterGeneral  Register = "general"
)

var registers = []Register{RegisterFormal, RegisterNeutral, RegisterInformal, RegisterSpoken, RegisterSlang, RegisterGeneral}

type Region string

const (
	RegionGeneral        Region = "general"
	RegionNorth          Region = "haiti_north"
	RegionSouth          Region = "haiti_south"
	RegionWest           Region = "haiti_west"
	RegionPortAuPrince   Region = "port_au_prince"
	RegionUrban          Region = "urban"
	RegionRural          Region = "rural"
	RegionDiasporaUS     Region = "diaspora_us"
	RegionDiasporaCanada Region = "diaspora_canada"
	RegionDiasporaFrance Region = "diaspora_france"
)

var regions = []Region{RegionGeneral, RegionNorth, RegionSouth, RegionWest, RegionPortAuPrince, RegionUrban, RegionRural, RegionDiasporaUS, RegionDiasporaCanada, RegionDiasporaFrance}

type Formality string

const (
	FormalityProfessional Formality = "professional"
	FormalityCasual       Formality = "casual"
	FormalityFormal       Formality = "formal"
	FormalityInformal     Formality = "informal"
	FormalityNeutral      Formality = "neutral"
)

var formalities = []Formality{FormalityProfessional, FormalityCasual, FormalityFormal, FormalityInformal, FormalityNeutral}

type Sensitivity string

const (
	SensitivityLow    Sensitivity = "low"
	SensitivityMedium Sensitivity = "medium"
	SensitivityHigh   Sensitivity = "high"
)

var sensitivities = []Sensitivity{SensitivityLow, SensitivityMedium, SensitivityHigh}

type CulturalWeight string

const (
	WeightNeutral  CulturalWeight = "neutral"
	WeightNegative CulturalWeight = "negative"
	WeightPositive CulturalWeight = "positive"
	WeightTaboo    CulturalWeight = "taboo"
)

var culturalWeights = []CulturalWeight{WeightNeutral, WeightNegative, WeightPositive, WeightTaboo}

// Severity orders harsh-language terms from mild to extreme.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeverityStrong   Severity = "strong"
	SeverityExtreme  Severity = "extreme"
)

var severities = []Severity{SeverityMild, SeverityModerate, SeverityStrong, SeverityExtreme}

type ProfanityCategory string

const (
	CategoryProfanity ProfanityCategory = "profanity"
	CategoryInsult    ProfanityCategory = "insult"
	CategoryVulgarity ProfanityCategory = "vulgarity"
	CategorySexual    ProfanityCategory = "sexual"
	CategoryBody      ProfanityCategory = "body"
	CategoryExpletive ProfanityCategory = "expletive"
	CategorySlur      ProfanityCategory = "slur"
)

var profanityCategories = []ProfanityCategory{CategoryProfanity, CategoryInsult, CategoryVulgarity, CategorySexual, CategoryBody, CategoryExpletive, CategorySlur}

type InstructionType string

const (
	InstructionDosage    InstructionType = "dosage"
	InstructionTriage    InstructionType = "triage"
	InstructionSymptom   InstructionType = "symptom"
	InstructionProcedure InstructionType = "procedure"
)

var instructionTypes = []InstructionType{InstructionDosage, InstructionTriage, InstructionSymptom, InstructionProcedure}

type RiskLevel string

const (
	RiskCritical RiskLevel = "critical"
	RiskHigh     RiskLevel = "high"
	RiskMedium   RiskLevel = "medium"
)

var riskLevels = []RiskLevel{RiskCritical, RiskHigh, RiskMedium}

type SafetyFlag string

const (
	FlagVerifyDose      SafetyFlag = "verify_dose"
	FlagMaxDose         SafetyFlag = "max_dose"
	FlagWithFood        SafetyFlag = "with_food"
	FlagAllergyCheck    SafetyFlag = "allergy_check"
	FlagPediatric       SafetyFlag = "pediatric"
	FlagPregnancy       SafetyFlag = "pregnancy"
	FlagEmergency       SafetyFlag = "emergency"
	FlagNarrowTherapy   SafetyFlag = "narrow_therapeutic_index"
	FlagDoNotExceed     SafetyFlag = "do_not_exceed"
	FlagRouteSpecific   SafetyFlag = "route_specific"
	FlagTimingCritical  SafetyFlag = "timing_critical"
	FlagSeekCareIfWorse SafetyFlag = "seek_care_if_worse"
)

var safetyFlags = []SafetyFlag{FlagVerifyDose, FlagMaxDose, FlagWithFood, FlagAllergyCheck, FlagPediatric, FlagPregnancy, FlagEmergency, FlagNarrowTherapy, FlagDoNotExceed, FlagRouteSpecific, FlagTimingCritical, FlagSeekCareIfWorse}

type CorrectionType string

const (
	CorrectionTerminology CorrectionType = "terminology"
	CorrectionGrammar     CorrectionType = "grammar"
	CorrectionCultural    CorrectionType = "cultural"
	CorrectionSafety      CorrectionType = "safety"
	CorrectionFluency     CorrectionType = "fluency"
	CorrectionOther       CorrectionType = "other"
)

var correctionTypes = []CorrectionType{CorrectionTerminology, CorrectionGrammar, CorrectionCultural, CorrectionSafety, CorrectionFluency, CorrectionOther}

type CorrectionSeverity string

const (
	CorrectionMinor    CorrectionSeverity = "minor"
	CorrectionMajor    CorrectionSeverity = "major"
	CorrectionCritical CorrectionSeverity = "critical"
)

var correctionSeverities = []CorrectionSeverity{CorrectionMinor, CorrectionMajor, CorrectionCritical}

// Origin identifies the collection a bilingual record was read from.
type Origin string

const (
	OriginCorpus     Origin = "corpus"
	OriginHighRisk   Origin = "high_risk"
	OriginProfanity  Origin = "profanity"
	OriginCorrection Origin = "correction"
)

var origins = []Origin{OriginCorpus, OriginHighRisk, OriginProfanity, OriginCorrection}

// Mode selects which target rendering a training example uses.
type Mode string

const (
	ModeLiteral   Mode = "literal"
	ModeLocalized Mode = "localized"
)

var modes = []Mode{ModeLiteral, ModeLocalized}

func parseEnum[T ~string](field, raw string, allowed []T, fold bool) (T, error) {
	v := strings.TrimSpace(raw)
	if fold {
		v = strings.ToLower(v)
	}
	for _, a := range allowed {
		if string(a) == v {
			return a, nil
		}
	}
	return "", &EnumError{Field: field, Value: raw}
}

// parseOptional treats an empty value as "not set".
func parseOptional[T ~string](field, raw string, allowed []T) (T, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	return parseEnum(field, raw, allowed, true)
}

func ParseLanguage(s string) (Language, error) { return parseEnum("language", s, languages, false) }
func ParseDomain(s string) (Domain, error)     { return parseEnum("domain", s, domains, true) }
func ParseStatus(s string) (Status, error)     { return parseEnum("curation_status", s, statuses, true) }
func ParseAudience(s string) (Audience, error) { return parseEnum("audience", s, audiences, true) }
func ParseMode(s string) (Mode, error)         { return parseEnum("mode", s, modes, true) }
func ParseOrigin(s string) (Origin, error)     { return parseEnum("origin", s, origins, true) }

func ParseRegister(s string) (Register, error) { return parseOptional("register", s, registers) }
func ParseRegion(s string) (Region, error)     { return parseOptional("region", s, regions) }

func ParseCulturalWeight(s string) (CulturalWeight, error) {
	return parseEnum("cultural_weight", s, culturalWeights, true)
}

func ParseSeverity(s string) (Severity, error) { return parseEnum("severity", s, severities, true) }

func ParseProfanityCategory(s string) (ProfanityCategory, error) {
	return parseEnum("category", s, profanityCategories, true)
}

func ParseInstructionType(s string) (InstructionType, error) {
	return parseEnum("instruction_type", s, instructionTypes, true)
}

func ParseRiskLevel(s string) (RiskLevel, error) { return parseEnum("risk_level", s, riskLevels, true) }

func ParseSafetyFlag(s string) (SafetyFlag, error) {
	return parseEnum("safety_flag", s, safetyFlags, true)
}

func ParseCorrectionType(s string) (CorrectionType, error) {
	return parseEnum("correction_type", s, correctionTypes, true)
}

func ParseCorrectionSeverity(s string) (CorrectionSeverity, error) {
	return parseEnum("correction_severity", s, correctionSeverities, true)
}

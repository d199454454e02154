package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kalimax/kalimax/internal/corpus"
	"github.com/kalimax/kalimax/internal/store"
)

type inserter func(context.Context, *store.Tx) error

// build turns a normalized row into an insert. Errors wrapping
// corpus.ErrUnknownEnum abort the file; any other error skips the row.
func (im *Importer) build(kind Kind, rw row, id, source string, res *Result, log *zap.Logger) (inserter, error) {
	switch kind {
	case KindCorpus:
		r, err := im.record(rw, id, source, corpus.OriginCorpus, res, log)
		if err != nil {
			return nil, err
		}
		if a := im.risk.Assess(r.SourceText, r.TargetLiteral, r.TargetLocalized); a.RequiresReview() {
			res.RiskFlagged++
			level := zap.DebugLevel
			if a.Level == corpus.RiskCritical {
				level = zap.WarnLevel
			}
			log.Log(level, "high-risk content in general corpus",
				zap.String("id", id),
				zap.String("risk_level", string(a.Level)),
				zap.Strings("terms", a.Terms()))
		}
		dataset := rw.get("dataset_name", source)
		return func(ctx context.Context, tx *store.Tx) error { return tx.InsertRecord(ctx, r, dataset) }, nil
	case KindHighRisk:
		h, err := im.highRisk(rw, id, source, res, log)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, tx *store.Tx) error { return tx.InsertHighRisk(ctx, h) }, nil
	case KindProfanity:
		p, err := im.profanity(rw, id, source)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, tx *store.Tx) error { return tx.InsertProfanity(ctx, p) }, nil
	case KindChallenge:
		c, err := challenge(rw, id, source)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, tx *store.Tx) error { return tx.InsertChallenge(ctx, c) }, nil
	case KindExpressions:
		e, err := expression(rw, id, source)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, tx *store.Tx) error { return tx.InsertExpression(ctx, e) }, nil
	case KindGlossary:
		g, err := glossary(rw, id)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, tx *store.Tx) error { return tx.InsertGlossary(ctx, g) }, nil
	case KindRules:
		r, err := rule(rw, id)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, tx *store.Tx) error { return tx.UpsertRule(ctx, r) }, nil
	case KindMonolingualHT, KindMonolingualEN:
		lang := corpus.LangCreole
		if kind == KindMonolingualEN {
			lang = corpus.LangEnglish
		}
		m, err := monolingual(rw, id, source, lang)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, tx *store.Tx) error { return tx.InsertMonolingual(ctx, m) }, nil
	}
	return nil, fmt.Errorf("unknown ingest kind %q", kind)
}

func (im *Importer) record(rw row, id, source string, origin corpus.Origin, res *Result, log *zap.Logger) (*corpus.Record, error) {
	srcLang, err := corpus.ParseLanguage(rw.get("src_lang", string(corpus.LangEnglish)))
	if err != nil {
		return nil, err
	}
	tgtLang, err := corpus.ParseLanguage(rw.get("tgt_lang", string(corpus.LangCreole)))
	if err != nil {
		return nil, err
	}
	domain, err := corpus.ParseDomain(rw.get("domain", string(corpus.DomainGeneral)))
	if err != nil {
		return nil, err
	}
	status, err := corpus.ParseStatus(rw.get("curation_status", string(corpus.StatusDraft)))
	if err != nil {
		return nil, err
	}
	ctxInfo, err := rw.context()
	if err != nil {
		return nil, err
	}
	isIdiom, err := rw.bool("is_idiom", false)
	if err != nil {
		return nil, err
	}
	dosage, err := rw.bool("contains_dosage", false)
	if err != nil {
		return nil, err
	}
	confidence, err := rw.float("confidence", 0.8)
	if err != nil {
		return nil, err
	}
	aliases, err := rw.list("aliases")
	if err != nil {
		return nil, err
	}

	r := &corpus.Record{
		ID:              id,
		Origin:          origin,
		SourceText:      rw.get("src_text", ""),
		SourceLang:      srcLang,
		TargetLiteral:   rw.get("tgt_text_literal", ""),
		TargetLocalized: rw.get("tgt_text_localized", ""),
		TargetLang:      tgtLang,
		Domain:          domain,
		IsIdiom:         isIdiom,
		ExpressionID:    rw.get("expression_id", ""),
		Aliases:         aliases,
		Context:         ctxInfo,
		CulturalNote:    rw.get("cultural_note", ""),
		Provenance:      rw.get("provenance", source),
		Confidence:      confidence,
		Status:          status,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	detected := im.detectDosage(r.SourceText, r.TargetLiteral, r.TargetLocalized)
	if detected && !dosage {
		res.DosageFlagged++
		log.Debug("dosage pattern detected", zap.String("id", id))
	}
	r.ContainsDosage = dosage || detected

	im.checkLanguage(log, res, id, "src_text", r.SourceText, r.SourceLang)
	return r, nil
}

func (im *Importer) highRisk(rw row, id, source string, res *Result, log *zap.Logger) (*corpus.HighRiskRecord, error) {
	base, err := im.record(rw, id, source, corpus.OriginHighRisk, res, log)
	if err != nil {
		return nil, err
	}
	h := corpus.NewHighRiskRecord(*base)

	if h.InstructionType, err = corpus.ParseInstructionType(rw.get("instruction_type", string(corpus.InstructionDosage))); err != nil {
		return nil, err
	}
	if v := rw.get("risk_level", ""); v != "" {
		if h.RiskLevel, err = corpus.ParseRiskLevel(v); err != nil {
			return nil, err
		}
	}
	flags, err := rw.list("safety_flags")
	if err != nil {
		return nil, err
	}
	if h.SafetyFlags, err = corpus.ParseSafetyFlags(flags); err != nil {
		return nil, err
	}
	if h.RequireReview, err = rw.bool("require_human_review", true); err != nil {
		return nil, err
	}
	im.assessRisk(h, res, log)
	if h.Dosage, err = dosageFields(rw); err != nil {
		return nil, err
	}
	if h.Dosage != nil {
		h.ContainsDosage = true
	}
	h.Notes = rw.get("notes", "")

	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// assessRisk raises the curated risk level and adds safety flags from the
// terms found in the texts. A row with no level and no finding is high risk.
func (im *Importer) assessRisk(h *corpus.HighRiskRecord, res *Result, log *zap.Logger) {
	a := im.risk.Assess(h.SourceText, h.TargetLiteral, h.TargetLocalized)
	level, flags, changed := a.Merge(h.RiskLevel, h.SafetyFlags)
	if changed {
		res.RiskFlagged++
		log.Debug("risk raised",
			zap.String("id", h.ID),
			zap.String("from", string(h.RiskLevel)),
			zap.String("to", string(level)),
			zap.Strings("terms", a.Terms()))
	}
	if level == "" {
		level = corpus.RiskHigh
	}
	h.RiskLevel, h.SafetyFlags = level, flags
	if a.RequiresReview() {
		h.RequireReview = true
	}
}

// dosageFields reads the structured dose columns. A row without a drug has
// no structured dosage.
func dosageFields(rw row) (*corpus.Dosage, error) {
	drug := rw.get("drug", "")
	if drug == "" {
		return nil, nil
	}
	d := &corpus.Dosage{
		Drug:          drug,
		Unit:          rw.get("dose_unit", ""),
		Route:         rw.get("route", ""),
		FrequencyText: rw.get("frequency_text", ""),
	}
	var err error
	if d.Quantity, err = rw.float("dose_qty", 0); err != nil {
		return nil, err
	}
	if d.FrequencyHours, err = rw.float("frequency_hours", 0); err != nil {
		return nil, err
	}
	if d.MaxDailyDose, err = rw.float("max_daily_dose", 0); err != nil {
		return nil, err
	}
	if v := rw.get("duration_days", ""); v != "" {
		if d.DurationDays, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("column duration_days: %w", err)
		}
	}
	return d, nil
}

func (im *Importer) profanity(rw row, id, source string) (*corpus.ProfanityRecord, error) {
	severity, err := corpus.ParseSeverity(rw.get("severity", string(corpus.SeverityModerate)))
	if err != nil {
		return nil, err
	}
	category, err := corpus.ParseProfanityCategory(rw.get("category", string(corpus.CategoryProfanity)))
	if err != nil {
		return nil, err
	}
	status, err := corpus.ParseStatus(rw.get("curation_status", string(corpus.StatusDraft)))
	if err != nil {
		return nil, err
	}
	altHT, err := rw.list("safe_alternatives_ht")
	if err != nil {
		return nil, err
	}
	for i, alt := range altHT {
		altHT[i] = im.norm.Normalize(alt)
	}
	altEN, err := rw.list("safe_alternatives_en")
	if err != nil {
		return nil, err
	}
	flag, err := rw.bool("should_flag", true)
	if err != nil {
		return nil, err
	}
	block, err := rw.bool("should_block", false)
	if err != nil {
		return nil, err
	}

	p := &corpus.ProfanityRecord{
		ID:                id,
		TermCreole:        rw.get("term_creole", ""),
		TermEnglish:       rw.get("term_english", ""),
		Severity:          severity,
		Category:          category,
		SafeAlternativeHT: altHT,
		SafeAlternativeEN: altEN,
		CulturalNote:      rw.get("cultural_note", ""),
		ShouldFlag:        flag,
		ShouldBlock:       block,
		Provenance:        rw.get("provenance", source),
		Status:            status,
	}
	if p.TermCreole == "" {
		return nil, fmt.Errorf("profanity %s: term_creole is required", id)
	}
	return p, nil
}

func challenge(rw row, id, source string) (*corpus.ChallengeRecord, error) {
	domain, err := corpus.ParseDomain(rw.get("domain", string(corpus.DomainGeneral)))
	if err != nil {
		return nil, err
	}
	c := &corpus.ChallengeRecord{
		ID:               id,
		SourceEN:         rw.get("src_en", ""),
		SourceHT:         rw.get("src_ht", ""),
		TargetEN:         rw.get("tgt_en", ""),
		TargetHT:         rw.get("tgt_ht", ""),
		Category:         strings.ToLower(rw.get("category", "cultural")),
		Domain:           domain,
		Difficulty:       rw.get("difficulty", "medium"),
		Phenomenon:       rw.get("phenomenon", ""),
		ExpectedBehavior: rw.get("expected_behavior", ""),
		Notes:            rw.get("notes", ""),
		Provenance:       rw.get("provenance", source),
	}
	if c.SourceEN == "" && c.SourceHT == "" {
		return nil, fmt.Errorf("challenge %s: src_en or src_ht is required", id)
	}
	return c, nil
}

func expression(rw row, id, source string) (*corpus.Expression, error) {
	register, err := corpus.ParseRegister(rw.get("register", ""))
	if err != nil {
		return nil, err
	}
	region, err := corpus.ParseRegion(rw.get("region", ""))
	if err != nil {
		return nil, err
	}
	e := &corpus.Expression{
		ID:           id,
		Creole:       rw.get("creole", ""),
		LiteralGloss: rw.get("literal_gloss_en", ""),
		IdiomaticEN:  rw.get("idiomatic_en", ""),
		LocalizedHT:  rw.get("localized_ht", ""),
		Register:     register,
		Region:       region,
		CulturalNote: rw.get("cultural_note", ""),
		Provenance:   rw.get("provenance", source),
	}
	if e.Creole == "" {
		return nil, fmt.Errorf("expression %s: creole is required", id)
	}
	return e, nil
}

func glossary(rw row, id string) (*corpus.GlossaryEntry, error) {
	domain, err := corpus.ParseDomain(rw.get("domain", string(corpus.DomainGeneral)))
	if err != nil {
		return nil, err
	}
	weight, err := corpus.ParseCulturalWeight(rw.get("cultural_weight", string(corpus.WeightNeutral)))
	if err != nil {
		return nil, err
	}
	english, err := rw.list("english_equivalents")
	if err != nil {
		return nil, err
	}
	aliases, err := rw.list("aliases")
	if err != nil {
		return nil, err
	}
	preferred, err := rw.bool("preferred_for_patients", true)
	if err != nil {
		return nil, err
	}
	g := &corpus.GlossaryEntry{
		ID:                   id,
		CreoleCanonical:      rw.get("creole_canonical", ""),
		EnglishEquivalents:   english,
		Aliases:              aliases,
		Domain:               domain,
		CulturalWeight:       weight,
		PreferredForPatients: preferred,
		RecommendedAlt:       rw.get("recommended_alt", ""),
		Notes:                rw.get("notes", ""),
	}
	if g.CreoleCanonical == "" {
		return nil, fmt.Errorf("glossary %s: creole_canonical is required", id)
	}
	return g, nil
}

func rule(rw row, id string) (*corpus.NormalizationRule, error) {
	register, err := corpus.ParseRegister(rw.get("register", ""))
	if err != nil {
		return nil, err
	}
	region, err := corpus.ParseRegion(rw.get("region", ""))
	if err != nil {
		return nil, err
	}
	r := &corpus.NormalizationRule{
		ID:                id,
		Variant:           rw.get("variant", ""),
		Canonical:         rw.get("canonical", ""),
		EnglishEquivalent: rw.get("english_equivalent", ""),
		Register:          register,
		Region:            region,
		Notes:             rw.get("notes", ""),
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func monolingual(rw row, id, source string, lang corpus.Language) (*corpus.MonolingualRecord, error) {
	domain, err := parseOptionalDomain(rw.get("domain", ""))
	if err != nil {
		return nil, err
	}
	register, err := corpus.ParseRegister(rw.get("register", ""))
	if err != nil {
		return nil, err
	}
	region, err := corpus.ParseRegion(rw.get("region", ""))
	if err != nil {
		return nil, err
	}
	m := &corpus.MonolingualRecord{
		ID:         id,
		Lang:       lang,
		Text:       rw.get("text", ""),
		Domain:     domain,
		Register:   register,
		Region:     region,
		Provenance: rw.get("provenance", source),
	}
	if m.Text == "" {
		return nil, fmt.Errorf("monolingual %s: text is required", id)
	}
	return m, nil
}

func parseOptionalDomain(s string) (corpus.Domain, error) {
	if s == "" {
		return "", nil
	}
	return corpus.ParseDomain(s)
}

package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/kalimax/kalimax/internal/corpus"
	"github.com/kalimax/kalimax/internal/normalizer"
	"github.com/kalimax/kalimax/internal/store"
)

func newTestImporter(t *testing.T) (*Importer, *store.Store) {
	t.Helper()
	log := zaptest.NewLogger(t)
	st, err := store.New(context.Background(), store.Options{Path: filepath.Join(t.TempDir(), "ingest.db")}, log)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	norm, err := normalizer.New(normalizer.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("failed to create normalizer: %v", err)
	}
	return New(st, norm, nil, log, Options{Workers: 4}), st
}

func bilingual(t *testing.T, st *store.Store) map[string]*corpus.Record {
	t.Helper()
	out := make(map[string]*corpus.Record)
	for r, err := range st.Bilingual(context.Background()) {
		if err != nil {
			t.Fatalf("Bilingual failed: %v", err)
		}
		out[r.ID] = r
	}
	return out
}

const corpusCSV = `id,src_text,tgt_text_literal,tgt_text_localized,domain,audience,curation_status
c_1,Take 2 tablets every 6 hours,,M’ap  pran 2 grenn chak 6 èdtan,medical,patient,reviewed
c_2,I have a headache,Mwen gen tèt fè mal,Tèt mwen ap fè m mal,medical,,draft
c_3,Missing target,,,general,,draft
`

func TestImport_Corpus(t *testing.T) {
	im, st := newTestImporter(t)

	res, err := im.Import(context.Background(), KindCorpus, strings.NewReader(corpusCSV), "test:corpus.csv")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Read != 3 || res.Imported != 2 || res.Skipped != 1 {
		t.Errorf("unexpected result: %+v", res)
	}

	records := bilingual(t, st)
	c1, ok := records["c_1"]
	if !ok {
		t.Fatal("c_1 not imported")
	}
	if c1.TargetLocalized != "Mwen ap pran 2 grenn chak 6 èdtan" {
		t.Errorf("localized target not normalized: %q", c1.TargetLocalized)
	}
	if !c1.ContainsDosage {
		t.Error("expected dosage flag to be detected")
	}
	if c1.Context.Audience != corpus.AudiencePatient {
		t.Errorf("expected audience patient, got %q", c1.Context.Audience)
	}
	if c1.Provenance != "test:corpus.csv" {
		t.Errorf("expected default provenance, got %q", c1.Provenance)
	}
	if records["c_2"].ContainsDosage {
		t.Error("c_2 should not carry the dosage flag")
	}
}

func TestImport_UnknownEnumAbortsFile(t *testing.T) {
	im, st := newTestImporter(t)

	csv := `src_text,tgt_text_localized,domain
Drink water,Bwè dlo,general
Rest now,Repoze kounye a,astrology
`
	_, err := im.Import(context.Background(), KindCorpus, strings.NewReader(csv), "test")
	if !errors.Is(err, corpus.ErrUnknownEnum) {
		t.Fatalf("expected ErrUnknownEnum, got %v", err)
	}

	counts, err := st.TableCounts(context.Background())
	if err != nil {
		t.Fatalf("TableCounts failed: %v", err)
	}
	if counts["corpus"] != 0 {
		t.Errorf("expected nothing committed, got %d rows", counts["corpus"])
	}
}

func TestImport_DuplicatesSkipped(t *testing.T) {
	im, _ := newTestImporter(t)

	csv := `src_text,tgt_text_localized,domain
Drink water,Bwè dlo,general
Drink  water,Bwè dlo,general
`
	res, err := im.Import(context.Background(), KindCorpus, strings.NewReader(csv), "test")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Imported != 1 || res.Duplicates != 1 {
		t.Errorf("expected 1 imported and 1 duplicate, got %+v", res)
	}
}

func TestImport_GeneratedIDs(t *testing.T) {
	im, st := newTestImporter(t)

	csv := "src_text,tgt_text_localized\nGood morning,Bonjou\n"
	if _, err := im.Import(context.Background(), KindCorpus, strings.NewReader(csv), "test"); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	for id := range bilingual(t, st) {
		if !strings.HasPrefix(id, "c_") || len(id) != len("c_")+8 {
			t.Errorf("unexpected generated id %q", id)
		}
	}
}

func TestImport_SuppliedIDsArePrefixedByKind(t *testing.T) {
	im, st := newTestImporter(t)
	ctx := context.Background()

	imports := []struct {
		kind Kind
		csv  string
	}{
		{KindCorpus, "id,src_text,tgt_text_localized\n1,Good morning,Bonjou\n"},
		{KindHighRisk, "id,src_text,tgt_text_localized\n1,Take 1 tablet,Pran 1 grenn\n"},
		{KindChallenge, "id,src_en,src_ht\n1,Where does it hurt?,Ki kote li fè w mal?\n"},
	}
	for _, in := range imports {
		if _, err := im.Import(ctx, in.kind, strings.NewReader(in.csv), "test"); err != nil {
			t.Fatalf("Import %s failed: %v", in.kind, err)
		}
	}

	records := bilingual(t, st)
	for _, id := range []string{"c_1", "hr_1"} {
		if _, ok := records[id]; !ok {
			t.Errorf("expected record %s among %d records", id, len(records))
		}
	}
	challenges, err := st.Challenges(ctx)
	if err != nil {
		t.Fatalf("Challenges failed: %v", err)
	}
	if len(challenges) != 1 || challenges[0].ID != "chal_1" {
		t.Errorf("unexpected challenge ids: %+v", challenges)
	}
	if _, err := st.AdvanceStatus(ctx, "c_1", corpus.StatusReviewed); err != nil {
		t.Errorf("AdvanceStatus(c_1) failed: %v", err)
	}
}

func TestImport_HighRisk(t *testing.T) {
	im, st := newTestImporter(t)

	csv := `id,src_text,tgt_text_localized,domain,instruction_type,risk_level,drug,dose_qty,dose_unit,frequency_hours,max_daily_dose,safety_flags
hr_1,Give 5 ml every 8 hours,Bay 5 ml chak 8 èdtan,medical,dosage,critical,paracetamol,5,ml,8,20,"verify_dose,with_food"
`
	res, err := im.Import(context.Background(), KindHighRisk, strings.NewReader(csv), "test")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Imported != 1 {
		t.Fatalf("expected 1 imported, got %+v", res)
	}
	r := bilingual(t, st)["hr_1"]
	if r == nil || r.Origin != corpus.OriginHighRisk || !r.ContainsDosage {
		t.Errorf("unexpected high-risk record: %+v", r)
	}
}

func TestImport_HighRiskAssessesRisk(t *testing.T) {
	im, st := newTestImporter(t)

	csv := `id,src_text,tgt_text_localized,domain,instruction_type,risk_level,safety_flags,require_human_review
1,Call for help if the baby stops breathing,Rele èd si ti bebe a sispann respire,medical,triage,,,
2,Give insulin before meals,Bay ensilin avan manje,medical,procedure,medium,verify_dose,no
3,Signs of a stroke,Siy yon atak serebral,medical,symptom,critical,emergency,yes
4,Rest at home,Repoze lakay ou,medical,procedure,medium,,no
`
	res, err := im.Import(context.Background(), KindHighRisk, strings.NewReader(csv), "test")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Imported != 4 {
		t.Fatalf("expected 4 imported, got %+v", res)
	}
	if res.RiskFlagged != 1 {
		t.Errorf("RiskFlagged = %d, want 1", res.RiskFlagged)
	}

	rows, err := st.DraftRiskRows(context.Background())
	if err != nil {
		t.Fatalf("DraftRiskRows failed: %v", err)
	}
	got := make(map[string]store.RiskRow)
	for _, r := range rows {
		got[r.ID] = r
	}

	tests := []struct {
		id    string
		level corpus.RiskLevel
		flags int
	}{
		{"hr_1", corpus.RiskHigh, 0},
		{"hr_2", corpus.RiskHigh, 4},
		{"hr_3", corpus.RiskCritical, 1},
		{"hr_4", corpus.RiskMedium, 0},
	}
	for _, tt := range tests {
		r, ok := got[tt.id]
		if !ok {
			t.Errorf("%s missing", tt.id)
			continue
		}
		if r.Level != tt.level || len(r.Flags) != tt.flags {
			t.Errorf("%s: level %q flags %v, want %q with %d flags", tt.id, r.Level, r.Flags, tt.level, tt.flags)
		}
	}
}

func TestImport_CorpusRiskCounted(t *testing.T) {
	im, _ := newTestImporter(t)

	csv := `src_text,tgt_text_localized,domain
He had a stroke,Li fè yon atak serebral,medical
Take 2 tablets,Pran 2 grenn,medical
Good morning,Bonjou,general
`
	res, err := im.Import(context.Background(), KindCorpus, strings.NewReader(csv), "test")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Imported != 3 || res.RiskFlagged != 2 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestImport_HighRiskDoseOverMax(t *testing.T) {
	im, _ := newTestImporter(t)

	csv := `src_text,tgt_text_localized,drug,dose_qty,dose_unit,frequency_hours,max_daily_dose
Give 10 ml every 4 hours,Bay 10 ml chak 4 èdtan,syrup,10,ml,4,20
`
	res, err := im.Import(context.Background(), KindHighRisk, strings.NewReader(csv), "test")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Skipped != 1 || res.Imported != 0 {
		t.Errorf("expected the unsafe dose to be skipped, got %+v", res)
	}
}

func TestImport_ProfanityAlternatives(t *testing.T) {
	im, st := newTestImporter(t)

	csv := `id,term_creole,term_english,severity,category,safe_alternatives_ht,should_block
prof_1,kaka,crap,mild,vulgarity,"poupou, salte",0
prof_2,blocked,blocked,extreme,slur,,1
`
	if _, err := im.Import(context.Background(), KindProfanity, strings.NewReader(csv), "test"); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	records := bilingual(t, st)
	p1, ok := records["prof_1"]
	if !ok {
		t.Fatal("prof_1 missing from bilingual view")
	}
	if p1.TargetLocalized != "poupou" {
		t.Errorf("expected first safe alternative, got %q", p1.TargetLocalized)
	}
	if _, ok := records["prof_2"]; ok {
		t.Error("blocked term must not reach the bilingual view")
	}
}

func TestImport_OtherKinds(t *testing.T) {
	tests := []struct {
		kind  Kind
		csv   string
		table string
	}{
		{KindChallenge, "src_en,src_ht,domain\nI feel blue,Mwen santi m ble,general\n", "challenge"},
		{KindExpressions, "creole,literal_gloss_en,idiomatic_en\nDèyè mòn gen mòn,Behind mountains there are mountains,Problems never end\n", "expressions"},
		{KindGlossary, "creole_canonical,english_equivalents,domain\nlafyèv,\"[\"\"fever\"\"]\",medical\n", "glossary"},
		{KindRules, "variant,canonical\nmenm,menm\n", "normalization_rules"},
		{KindMonolingualHT, "text\nBonjou tout moun\n", "monolingual_ht"},
		{KindMonolingualEN, "text,domain\nGood morning everyone,general\n", "monolingual_en"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			im, st := newTestImporter(t)
			res, err := im.Import(context.Background(), tt.kind, strings.NewReader(tt.csv), "test")
			if err != nil {
				t.Fatalf("Import failed: %v", err)
			}
			if res.Imported != 1 {
				t.Errorf("expected 1 imported, got %+v", res)
			}
			counts, err := st.TableCounts(context.Background())
			if err != nil {
				t.Fatalf("TableCounts failed: %v", err)
			}
			if counts[tt.table] != 1 {
				t.Errorf("expected 1 row in %s, got %d", tt.table, counts[tt.table])
			}
		})
	}
}

func TestNormalizeRows_KeepsOrder(t *testing.T) {
	im, _ := newTestImporter(t)

	var rows []row
	for i := 0; i < 200; i++ {
		rows = append(rows, row{"id": fmt.Sprint(i), "text": fmt.Sprintf("  m’ap   %d ", i)})
	}
	out, err := im.normalizeRows(context.Background(), rows, []string{"text"})
	if err != nil {
		t.Fatalf("normalizeRows failed: %v", err)
	}
	for i, rw := range out {
		if rw["id"] != fmt.Sprint(i) {
			t.Fatalf("row %d out of order: id %s", i, rw["id"])
		}
		if want := fmt.Sprintf("mwen ap %d", i); rw["text"] != want {
			t.Errorf("row %d: got %q, want %q", i, rw["text"], want)
		}
	}
	if rows[0]["text"] != "  m’ap   0 " {
		t.Error("input rows must not be modified")
	}
}

func TestReadRows(t *testing.T) {
	rows, err := readRows(strings.NewReader("\ufeffID, Text\n1,a\n,\n2,b\n"))
	if err != nil {
		t.Fatalf("readRows failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1]["id"] != "2" || rows[1]["text"] != "b" {
		t.Errorf("unexpected row: %v", rows[1])
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("High_Risk"); err != nil || k != KindHighRisk {
		t.Errorf("ParseKind(High_Risk) = %q, %v", k, err)
	}
	if _, err := ParseKind("tweets"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

/*
Copyright © 2025 The Kalimax Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/kalimax/kalimax/internal/corpus"
	"github.com/kalimax/kalimax/internal/metrics"
	"github.com/kalimax/kalimax/internal/normalizer"
	"github.com/kalimax/kalimax/internal/store"
	"github.com/kalimax/kalimax/internal/translator"
)

// bindFlag ties a flag to a config key. A missing flag is a programming
// error.
func bindFlag(key string, flag *pflag.Flag) {
	if flag == nil {
		panic("bindFlag: no flag for " + key)
	}
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

func openStore(ctx context.Context) (*store.Store, error) {
	st, err := store.New(ctx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return st, nil
}

// buildNormalizer compiles the stored rule table. Rules from the configured
// rules file replace stored rules with the same variant.
func buildNormalizer(ctx context.Context, st *store.Store) (*normalizer.Normalizer, error) {
	rules, err := st.Rules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	if cfg.Normalize.RulesFile != "" {
		extra, err := normalizer.LoadRulesFile(cfg.Normalize.RulesFile)
		if err != nil {
			return nil, err
		}
		rules = mergeRules(rules, extra)
	}
	return compileRules(rules)
}

func compileRules(rules []corpus.NormalizationRule) (*normalizer.Normalizer, error) {
	n, err := normalizer.New(cfg.Normalize.Config, rules)
	if err != nil {
		return nil, fmt.Errorf("failed to compile rules: %w", err)
	}
	for _, id := range n.Dropped() {
		log.Warn("cyclic normalization rule dropped", zap.String("rule", id))
	}
	log.Debug("normalizer ready", zap.Int("rules", n.RuleCount()))
	return n, nil
}

// mergeRules overlays override on base by variant, the same key the store
// upserts on.
func mergeRules(base, override []corpus.NormalizationRule) []corpus.NormalizationRule {
	key := func(r corpus.NormalizationRule) string { return strings.TrimSpace(r.Variant) }
	index := make(map[string]int, len(base))
	out := append([]corpus.NormalizationRule(nil), base...)
	for i, r := range out {
		index[key(r)] = i
	}
	for _, r := range override {
		if i, ok := index[key(r)]; ok {
			out[i] = r
			continue
		}
		index[key(r)] = len(out)
		out = append(out, r)
	}
	return out
}

func buildTranslator(norm *normalizer.Normalizer, memory translator.Memory) (*translator.Service, error) {
	inf := cfg.Inference
	backend, err := translator.NewBackend(inf.Provider, inf.ServiceConfig)
	if err != nil {
		return nil, err
	}
	return translator.NewService(backend, inf.ServiceConfig, norm, memory, log), nil
}

// finishMetrics records the run duration and writes the textfile when one
// is configured.
func finishMetrics(m *metrics.Run) {
	m.Finish()
	if cfg.Metrics.Textfile == "" {
		return
	}
	if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		log.Warn("failed to write metrics", zap.String("path", cfg.Metrics.Textfile), zap.Error(err))
	}
}

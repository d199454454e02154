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
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kalimax/kalimax/internal/chunker"
	"github.com/kalimax/kalimax/internal/corpus"
	"github.com/kalimax/kalimax/internal/detector"
	"github.com/kalimax/kalimax/internal/translator"
)

var (
	translateInput       string
	translateOutput      string
	translateSource      string
	translateTarget      string
	translateDomain      string
	translateAudience    string
	translateNoCache     bool
	translateNoGlossary  bool
	translateConcurrency int
	translateMaxChars    int
)

var translateCmd = &cobra.Command{
	Use:   "translate [text...]",
	Short: "Translate normalized text with the configured model",
	Long: `Translate text with the configured inference provider.

The text is normalized first. Numbers and dose quantities are replaced by
placeholders for the model call and restored afterwards; a response that
drops any of them is rejected. Results are cached in the translation memory
keyed by the normalized text, languages and audience.

Providers (inference.provider):
  - ollama   local Ollama server (default)
  - openai   any OpenAI-compatible endpoint, including OpenRouter
  - google   Google Cloud Translation

With --input, each non-empty line of the file is translated. Lines longer
than --max-chars are split at paragraph or sentence ends, translated piece
by piece and rejoined.

Example:
  kalimax translate "Take 2 tablets every 6 hours" --audience patient --domain medical`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		segments, err := translateSegments(args)
		if err != nil {
			return err
		}

		src, err := languageFlag(translateSource, segments)
		if err != nil {
			return err
		}
		tgt, err := languageFlag(translateTarget, nil)
		if err != nil {
			return err
		}
		if tgt == "" {
			tgt = otherLanguage(src)
		}
		domain, err := corpus.ParseDomain(translateDomain)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		norm, err := buildNormalizer(ctx, st)
		if err != nil {
			return err
		}
		var memory translator.Memory = st
		if translateNoCache {
			memory = nil
		}
		svc, err := buildTranslator(norm, memory)
		if err != nil {
			return err
		}

		var glossary map[string]string
		if !translateNoGlossary && src == corpus.LangEnglish {
			if glossary, err = st.GlossaryTerms(ctx, domain); err != nil {
				return fmt.Errorf("failed to load glossary: %w", err)
			}
		}

		type job struct {
			line, piece int
			text        string
		}
		var jobs []job
		pieces := make([][]string, len(segments))
		for i, text := range segments {
			chunks := chunker.Chunk(text, translateMaxChars)
			pieces[i] = make([]string, len(chunks))
			for j, c := range chunks {
				jobs = append(jobs, job{line: i, piece: j, text: c})
			}
		}
		if len(jobs) == 0 {
			return translator.ErrEmptyText
		}

		var cached atomic.Int64
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(max(translateConcurrency, 1))
		for _, jb := range jobs {
			g.Go(func() error {
				res, err := svc.Translate(gctx, translator.TranslateRequest{
					Text:       jb.text,
					SourceLang: src,
					TargetLang: tgt,
					Domain:     domain,
					Audience:   corpus.Audience(translateAudience),
					Glossary:   glossary,
				})
				if err != nil {
					return fmt.Errorf("segment %d: %w", jb.line+1, err)
				}
				if res.Cached {
					cached.Add(1)
				}
				pieces[jb.line][jb.piece] = res.Text
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("translation failed: %w", err)
		}

		out := cmd.OutOrStdout()
		if translateOutput != "" {
			f, err := os.Create(translateOutput)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			out = f
		}
		bw := bufio.NewWriter(out)
		for _, p := range pieces {
			fmt.Fprintln(bw, strings.Join(p, " "))
		}
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}

		log.Info("translation complete",
			zap.String("service", svc.Name()),
			zap.String("source", string(src)),
			zap.String("target", string(tgt)),
			zap.Int("segments", len(segments)),
			zap.Int("pieces", len(jobs)),
			zap.Int64("cached", cached.Load()))
		return nil
	},
}

func translateSegments(args []string) ([]string, error) {
	if translateInput == "" {
		if len(args) == 0 {
			return nil, fmt.Errorf("nothing to translate: pass text or --input")
		}
		return []string{strings.Join(args, " ")}, nil
	}
	if len(args) > 0 {
		return nil, fmt.Errorf("pass either text arguments or --input, not both")
	}

	f, err := os.Open(translateInput)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	defer f.Close()
	return readLines(f)
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("input has no text")
	}
	return lines, nil
}

// languageFlag accepts a language tag (eng_Latn), an ISO code (en, ht) or,
// when sample is given, "auto".
func languageFlag(value string, sample []string) (corpus.Language, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return "", nil
	case "en", "eng":
		return corpus.LangEnglish, nil
	case "ht", "hat":
		return corpus.LangCreole, nil
	case "auto":
		if sample == nil {
			return "", fmt.Errorf("auto detection is only supported for the source language")
		}
		lang, ok := detector.New().Detect(strings.Join(sample, "\n"))
		if !ok {
			return "", fmt.Errorf("could not detect the source language; pass --source")
		}
		log.Info("detected source language", zap.String("lang", string(lang)))
		return lang, nil
	}
	return corpus.ParseLanguage(value)
}

func otherLanguage(l corpus.Language) corpus.Language {
	if l == corpus.LangCreole {
		return corpus.LangEnglish
	}
	return corpus.LangCreole
}

func init() {
	rootCmd.AddCommand(translateCmd)

	flags := translateCmd.Flags()
	flags.StringVarP(&translateInput, "input", "i", "", "File with one segment per line")
	flags.StringVarP(&translateOutput, "output", "o", "", "Output file (default stdout)")
	flags.StringVarP(&translateSource, "source", "s", string(corpus.LangEnglish), "Source language: eng_Latn, hat_Latn, en, ht or auto")
	flags.StringVarP(&translateTarget, "target", "t", "", "Target language (default: the other corpus language)")
	flags.StringVar(&translateDomain, "domain", string(corpus.DomainMedical), "Domain control token")
	flags.StringVar(&translateAudience, "audience", "", "Audience control token (default patient)")
	flags.BoolVar(&translateNoCache, "no-cache", false, "Bypass the translation memory")
	flags.BoolVar(&translateNoGlossary, "no-glossary", false, "Do not send glossary terms to the model")
	flags.IntVar(&translateConcurrency, "concurrency", 4, "Segments translated in parallel")
	flags.IntVar(&translateMaxChars, "max-chars", chunker.DefaultMaxRunes, "Split longer segments into pieces (0 disables)")

	flags.String("provider", "", "Inference provider: ollama, openai, google")
	flags.String("model", "", "Model name")
	flags.String("base-url", "", "Provider base URL")
	flags.String("api-key", "", "Provider API key")
	flags.String("credentials", "", "Path to Google Cloud credentials")
	flags.Int("retries", 0, "Extra attempts after a failed call")

	bindFlag("inference.provider", flags.Lookup("provider"))
	bindFlag("inference.model", flags.Lookup("model"))
	bindFlag("inference.base_url", flags.Lookup("base-url"))
	bindFlag("inference.api_key", flags.Lookup("api-key"))
	bindFlag("inference.credentials", flags.Lookup("credentials"))
	bindFlag("inference.retries", flags.Lookup("retries"))
}

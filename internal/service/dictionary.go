package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/niramoy/health-assistant/internal/gateway"
	"github.com/niramoy/health-assistant/internal/locale"
	"github.com/niramoy/health-assistant/internal/lookup"
	"github.com/niramoy/health-assistant/internal/model"
	"github.com/niramoy/health-assistant/pkg/logger"
)

const maxParallelTranslations = 4

// DictionaryService looks up medical terms and translates their definitions.
type DictionaryService struct {
	dict    lookup.Dictionary
	gateway gateway.Gateway
	lang    locale.Language
	log     *logger.Logger
}

// NewDictionaryService creates a dictionary service.
func NewDictionaryService(dict lookup.Dictionary, gw gateway.Gateway, lang locale.Language, log *logger.Logger) *DictionaryService {
	return &DictionaryService{
		dict:    dict,
		gateway: gw,
		lang:    lang,
		log:     log.Component("dictionary"),
	}
}

// Define looks up term. A definition that fails to translate is returned in
// English in its translated slot.
func (s *DictionaryService) Define(ctx context.Context, term string) (*model.DictionaryResponse, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: term is required", ErrInvalidInput)
	}

	found, err := s.dict.Define(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %q: %w", term, err)
	}

	resp := &model.DictionaryResponse{
		Suggestions: found.Suggestions,
		Results:     make([]model.DictionaryEntry, len(found.Results)),
	}
	copy(resp.Results, found.Results)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelTranslations)

	for i := range resp.Results {
		entry := &resp.Results[i]
		entry.TranslatedDefinitions = make([]string, len(entry.Definitions))

		for j, def := range entry.Definitions {
			slot := &entry.TranslatedDefinitions[j]
			if s.lang == locale.English {
				*slot = def
				continue
			}
			g.Go(func() error {
				*slot = s.translate(gctx, def)
				return nil
			})
		}
	}
	_ = g.Wait()

	return resp, nil
}

func (s *DictionaryService) translate(ctx context.Context, text string) string {
	var out gateway.TranslateOutput
	err := s.gateway.Invoke(ctx, gateway.PromptTranslate, &gateway.TranslateInput{
		Language: s.lang,
		Text:     text,
	}, &out)
	if err != nil {
		s.log.Warn("Definition translation failed", zap.Error(err))
		return text
	}
	return out.TranslatedText
}

package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/niramoy/health-assistant/internal/gateway"
	"github.com/niramoy/health-assistant/internal/locale"
	"github.com/niramoy/health-assistant/internal/lookup"
	"github.com/niramoy/health-assistant/internal/model"
	"github.com/niramoy/health-assistant/pkg/logger"
)

// DrugQuery restricts a web search to the Bangladeshi drug indexes.
func DrugQuery(drugName string) string {
	return drugName + " site:medex.com.bd OR site:medeasy.health"
}

// DrugService summarizes a drug brand from web search results.
type DrugService struct {
	search   lookup.Searcher
	gateway  gateway.Gateway
	recorder *Recorder
	lang     locale.Language
	log      *logger.Logger
}

// NewDrugService creates a drug information service.
func NewDrugService(search lookup.Searcher, gw gateway.Gateway, recorder *Recorder, lang locale.Language, log *logger.Logger) *DrugService {
	return &DrugService{
		search:   search,
		gateway:  gw,
		recorder: recorder,
		lang:     lang,
		log:      log.Component("drugs"),
	}
}

// Info looks up a drug. Search failures are tolerated; the model then answers
// from its own knowledge.
func (s *DrugService) Info(ctx context.Context, userID, drugName string) (*model.DrugInformation, error) {
	drugName = strings.TrimSpace(drugName)
	if drugName == "" {
		return nil, fmt.Errorf("%w: drug name is required", ErrInvalidInput)
	}

	results, err := s.search.Search(ctx, DrugQuery(drugName))
	if err != nil {
		s.log.Warn("Drug search failed", zap.String("drug", drugName), zap.Error(err))
		results = nil
	}

	var out gateway.DrugInformationOutput
	err = s.gateway.Invoke(ctx, gateway.PromptDrugInformation, &gateway.DrugInformationInput{
		Language:      s.lang,
		DrugName:      drugName,
		SearchResults: results,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize drug: %w", err)
	}

	info := &model.DrugInformation{
		DrugName:                drugName,
		GenericName:             out.GenericName,
		Overview:                out.Overview,
		DosageAndAdministration: out.DosageAndAdministration,
		SideEffects:             out.SideEffects,
		Pharmacology:            out.Pharmacology,
		PriceInBangladesh:       out.PriceInBangladesh,
	}

	info.SessionID, err = s.recorder.Record(ctx, userID, "", model.SessionDrugInformation, drugName, formatDrug(info))
	if err != nil {
		s.log.Warn("Failed to record drug lookup", zap.Error(err))
	}
	return info, nil
}

func formatDrug(info *model.DrugInformation) string {
	var b strings.Builder
	for _, section := range []struct{ title, body string }{
		{"Generic Name", info.GenericName},
		{"Overview", info.Overview},
		{"Dosage and Administration", info.DosageAndAdministration},
		{"Side Effects", info.SideEffects},
		{"Pharmacology", info.Pharmacology},
		{"Price in Bangladesh", info.PriceInBangladesh},
	} {
		if section.body == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(section.title + ": " + section.body)
	}
	return b.String()
}

package pipeline

import (
	"haidetect.com/hai/annotator"
	"haidetect.com/hai/classifier"
	"haidetect.com/hai/logger"
	"haidetect.com/hai/markup"
	"haidetect.com/hai/nlp"
	"haidetect.com/hai/types"
	"haidetect.com/hai/utils"
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

const (
	TargetsLexiconFile   = "targets.tsv"
	ModifiersLexiconFile = "modifiers.tsv"
)

var ErrSchemaNotFound = errors.New("schema configuration not found")

// Observer receives one call per processed document.
type Observer interface {
	ObserveDocument(doc types.Document, failures int, elapsed time.Duration)
}

type HAIParams struct {
	ConfigPath string `json:"config_path"`
	SchemaName string `json:"schema_name"`
	// directory with targets.tsv and modifiers.tsv, overrides the schema's lexicon section
	LexiconPath string             `json:"lexicon_path"`
	Detector    nlp.DetectorConfig `json:"detector"`
	Observer    Observer           `json:"-"`
}

func GetHAIParams(configPath string, schemaName string, lexiconPath string) HAIParams {
	if schemaName == "" {
		schemaName = types.DefaultConfigurationName
	}
	return HAIParams{
		ConfigPath:  configPath,
		SchemaName:  schemaName,
		LexiconPath: lexiconPath,
		Detector:    nlp.DefaultDetectorConfig(),
	}
}

// LoadSchema builds the schema named in params. Without a config path the built-in tables are used.
func LoadSchema(params HAIParams) (*classifier.Schema, types.Configuration, error) {
	if params.ConfigPath == "" {
		return classifier.DefaultSchema(), types.Configuration{Name: types.DefaultConfigurationName}, nil
	}

	cfgs, err := types.LoadConfigurations(params.ConfigPath)
	if err != nil {
		return nil, types.Configuration{}, err
	}
	cfg, ok := types.FindConfiguration(cfgs, params.SchemaName)
	if !ok {
		return nil, types.Configuration{}, fmt.Errorf("%w: %q in %s", ErrSchemaNotFound, params.SchemaName, params.ConfigPath)
	}
	schema, err := classifier.NewSchema(cfg)
	if err != nil {
		return nil, cfg, err
	}
	return schema, cfg, nil
}

func loadLexicons(params HAIParams, cfg types.Configuration) (markup.Lexicon, markup.Lexicon, error) {
	targetsPath, modifiersPath := cfg.LexiconPaths()
	if params.LexiconPath != "" {
		targetsPath = filepath.Join(params.LexiconPath, TargetsLexiconFile)
		modifiersPath = filepath.Join(params.LexiconPath, ModifiersLexiconFile)
	}
	if targetsPath == "" || modifiersPath == "" {
		return nil, nil, errors.New("no lexicon configured")
	}

	targets, err := markup.LoadLexicon(targetsPath)
	if err != nil {
		return nil, nil, err
	}
	modifiers, err := markup.LoadLexicon(modifiersPath)
	if err != nil {
		return nil, nil, err
	}
	return targets, modifiers, nil
}

func HAIDetect(params HAIParams) (Pipeline, error) {
	haiLogger := logger.NewLogger("HAI detect pipeline")
	errLogger := haiLogger.With().Caller().Logger()
	haiLogger.Info().
		Interface("params", params).
		Msg("Starting HAI detect pipeline (see parameters in 'params' field)")

	schema, cfg, err := LoadSchema(params)
	if err != nil {
		errLogger.Err(err).
			Str("config_path", params.ConfigPath).
			Str("schema_name", params.SchemaName).
			Msg("Failed to load classification schema")
		return nil, err
	}

	targets, modifiers, err := loadLexicons(params, cfg)
	if err != nil {
		errLogger.Err(err).
			Str("lexicon_path", params.LexiconPath).
			Interface("lexicon", cfg.Lexicon).
			Msg("Failed to load lexicons")
		return nil, err
	}
	haiLogger.Info().
		Int("targets", len(targets)).
		Int("modifiers", len(modifiers)).
		Strs("exclusions", schema.Exclusions()).
		Msg("Lexicons loaded")

	return NewPipeline(cfg.Name, params.Detector, markup.NewTagger(targets, modifiers), schema, params.Observer), nil
}

// NewPipeline wires the stages: sentence detection, markup, classification and document assembly.
func NewPipeline(schemaName string, detectorCfg nlp.DetectorConfig, tagger markup.Tagger, schema *classifier.Schema, observer Observer) Pipeline {
	haiLogger := logger.NewLogger("HAI detect pipeline")

	sentenceDetector := nlp.NewSentenceDetector(detectorCfg)
	annotateSentence := annotator.NewSentenceAnnotator(classifier.NewClassifier(schema), schema.Exclusions())
	annotateDocument := annotator.NewDocumentAnnotator(tagger, annotateSentence)

	return func(request Request) <-chan Result {
		pplnLog := haiLogger.With().Str("tid", request.Tid).Logger()
		resultChan := make(chan Result, 1)

		go func() {
			defer close(resultChan)
			var err error
			defer func() {
				if err != nil {
					pplnLog.Err(err).Msg("HAI detect pipeline failed, no result sent")
				}
			}()
			defer utils.RecoverWithError(&err)
			start := time.Now()

			in := make(chan string, 1)
			sentences := sentenceDetector(in)
			in <- request.Text
			close(in)

			doc := types.Document{ID: request.Tid, Text: request.Text}
			for sent := range sentences {
				doc.Sentences = append(doc.Sentences, sent)
			}

			doc, failures := annotateDocument(doc)
			for _, failure := range failures {
				pplnLog.Warn().
					Err(failure.Err).
					Int("sentence_index", failure.SentenceIndex).
					Str("target_category", failure.TargetCategory).
					Msg("Failed to classify mention")
			}

			elapsed := time.Since(start)
			if observer != nil {
				observer.ObserveDocument(doc, len(failures), elapsed)
			}
			pplnLog.Info().
				Int("sentences", doc.SentenceCount()).
				Int("annotations", len(doc.Annotations)).
				Dur("elapsed", elapsed).
				Msg("Finished HAI detect pipeline")

			resultChan <- Result{
				Tid:      request.Tid,
				Schema:   schemaName,
				Document: doc,
				Failures: failures,
			}
		}()

		return resultChan
	}
}

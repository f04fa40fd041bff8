package pipeline

import (
	"iter"

	"github.com/pkg/errors"

	"github.com/krew-solutions/bloc-go/bloc/filter/domain/query"
	"github.com/krew-solutions/bloc-go/bloc/filter/domain/validation"
	"github.com/krew-solutions/bloc-go/bloc/stream"
)

// stage transforms a record sequence lazily.
type stage func(iter.Seq[Record]) iter.Seq[Record]

func chain(records iter.Seq[Record], stages []stage) iter.Seq[Record] {
	for _, s := range stages {
		records = s(records)
	}
	return records
}

func (e *Engine) matchStage(f query.Filter) stage {
	return func(records iter.Seq[Record]) iter.Seq[Record] {
		if f.IsEmpty() {
			return records
		}
		return e.evaluator.Apply(f, records)
	}
}

func skipStage(n int) stage {
	return func(records iter.Seq[Record]) iter.Seq[Record] {
		return stream.Skip(records, n)
	}
}

func limitStage(n int) stage {
	return func(records iter.Seq[Record]) iter.Seq[Record] {
		return stream.Limit(records, n)
	}
}

// compileStage builds one stage from an already validated key and operand.
func (e *Engine) compileStage(key string, operand any) (stage, error) {
	switch key {
	case validation.StageMatch:
		doc, _ := validation.AsDocument(operand)
		f, err := query.ParseFilter(doc, e.profile)
		if err != nil {
			return nil, err
		}
		return e.matchStage(f), nil
	case validation.StageSkip:
		n, _ := validation.AsCount(operand)
		return skipStage(n), nil
	case validation.StageLimit:
		n, _ := validation.AsCount(operand)
		return limitStage(n), nil
	}
	return nil, errors.Errorf("unknown stage %q", key)
}

// compileStages orders a stage document as $match, $skip, $limit.
func (e *Engine) compileStages(doc Document) ([]stage, error) {
	if err := validation.ValidateStages(doc, e.profile); err != nil {
		return nil, err
	}
	var stages []stage
	for _, key := range validation.Stages {
		operand, ok := doc[key]
		if !ok {
			continue
		}
		s, err := e.compileStage(key, operand)
		if err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	return stages, nil
}

func (e *Engine) compilePipeline(docs []Document) ([]stage, error) {
	if err := validation.ValidatePipeline(docs, e.profile); err != nil {
		return nil, err
	}
	stages := make([]stage, 0, len(docs))
	for _, doc := range docs {
		for key, operand := range doc {
			s, err := e.compileStage(key, operand)
			if err != nil {
				return nil, err
			}
			stages = append(stages, s)
		}
	}
	return stages, nil
}

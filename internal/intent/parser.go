// Package intent turns a free-text workflow description into a structured
// schema.Intent using keyword heuristics. It performs no I/O.
package intent

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rendis/flowkit/pkg/schema"
)

// minSentenceLen is the shortest trimmed sentence, in characters, that
// becomes an entity.
const minSentenceLen = 3

// typePattern pairs a workflow type with the phrases that signal it.
type typePattern struct {
	workflowType schema.WorkflowType
	re           *regexp.Regexp
}

// typePatterns are tested in priority order; the first match wins.
var typePatterns = []typePattern{
	{schema.WorkflowConditional, regexp.MustCompile(`(?i)if.*then.*else|when.*do.*otherwise|check.*if.*then`)},
	{schema.WorkflowParallel, regexp.MustCompile(`(?i)simultaneously|parallel|at the same time|concurrently`)},
	{schema.WorkflowLoop, regexp.MustCompile(`(?i)repeat|loop|until|while|iterate|for each`)},
	{schema.WorkflowDataFlow, regexp.MustCompile(`(?i)input.*process.*output|transform.*data|extract.*load`)},
}

// kindPattern pairs a node kind with its keywords.
type kindPattern struct {
	kind schema.NodeKind
	re   *regexp.Regexp
}

// kindPatterns are tested in priority order; the first match wins.
var kindPatterns = []kindPattern{
	{schema.NodeKindTerminal, regexp.MustCompile(`(?i)start|begin|initiate|end|finish|complete`)},
	{schema.NodeKindDecision, regexp.MustCompile(`(?i)check|validate|verify|if|when`)},
	{schema.NodeKindData, regexp.MustCompile(`(?i)data|input|output|file|database`)},
}

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)

	// Each clause stops at the next clause keyword or at a sentence terminator.
	conditionPattern = regexp.MustCompile(`(?i)\bif\s+([^.!?]+?)\s+then\s+([^.!?]+?)(?:\s+else\s+([^.!?]+?))?\s*(?:[.!?]|$)`)
)

// Parse extracts an Intent from description. It never fails: empty or
// whitespace-only input yields a sequential intent with no entities.
func Parse(description string) schema.Intent {
	entities := extractEntities(description)
	return schema.Intent{
		WorkflowType:  detectWorkflowType(description),
		Entities:      entities,
		Relationships: extractRelationships(entities),
		Conditions:    extractConditions(description),
	}
}

// detectWorkflowType classifies the description by the first matching family.
func detectWorkflowType(description string) schema.WorkflowType {
	for _, p := range typePatterns {
		if p.re.MatchString(description) {
			return p.workflowType
		}
	}
	return schema.WorkflowSequential
}

// extractEntities makes one entity per sentence. Sentences too short to
// carry meaning are skipped but keep their position in the numbering.
func extractEntities(description string) []schema.IntentEntity {
	entities := []schema.IntentEntity{}

	index := 0
	for _, raw := range sentenceSplit.Split(description, -1) {
		sentence := strings.TrimSpace(raw)
		if sentence == "" {
			continue
		}
		index++
		if utf8.RuneCountInString(sentence) < minSentenceLen {
			continue
		}
		entities = append(entities, schema.IntentEntity{
			Name:        fmt.Sprintf("Step %d", index),
			Kind:        entityKind(sentence),
			Description: sentence,
		})
	}
	return entities
}

// entityKind infers a node kind from keywords in a sentence.
func entityKind(sentence string) schema.NodeKind {
	for _, p := range kindPatterns {
		if p.re.MatchString(sentence) {
			return p.kind
		}
	}
	return schema.NodeKindProcess
}

// extractRelationships chains consecutive entities sequentially.
func extractRelationships(entities []schema.IntentEntity) []schema.IntentRelationship {
	rels := []schema.IntentRelationship{}
	for i := 0; i+1 < len(entities); i++ {
		rels = append(rels, schema.IntentRelationship{
			From: entities[i].Name,
			To:   entities[i+1].Name,
			Kind: schema.EdgeKindSequential,
		})
	}
	return rels
}

// extractConditions collects every if/then[/else] clause in the description.
func extractConditions(description string) []schema.IntentCondition {
	conditions := []schema.IntentCondition{}
	for i, m := range conditionPattern.FindAllStringSubmatch(description, -1) {
		conditions = append(conditions, schema.IntentCondition{
			SourceEntity: fmt.Sprintf("condition_%d", i),
			Condition:    strings.TrimSpace(m[1]),
			TruePath:     strings.TrimSpace(m[2]),
			FalsePath:    strings.TrimSpace(m[3]),
		})
	}
	return conditions
}

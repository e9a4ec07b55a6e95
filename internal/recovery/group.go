package recovery

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/canvass-labs/survey-cli/internal/model"
)

var titleCaser = cases.Title(language.English)

// groupSections organizes a flat reconstructed question list into topical
// sections. Small inputs stay in a single section; larger inputs are
// classified into the configured buckets, and buckets too small to stand
// alone are merged into at most two catch-all sections so the output never
// degenerates into one-question sections.
func groupSections(questions []model.Question, opts Options) []model.Section {
	if len(questions) == 0 {
		return nil
	}

	if len(questions) <= opts.SingleSectionMax {
		return []model.Section{{
			ID:          1,
			Title:       "Survey Questions",
			Description: "Recovered survey questions",
			Questions:   questions,
		}}
	}

	topics := opts.Topics
	if topics == nil {
		topics = DefaultTopics()
	}

	buckets := make(map[string][]model.Question, len(topics))
	for _, q := range questions {
		key := classify(q.Text, topics)
		q.Category = key
		buckets[key] = append(buckets[key], q)
	}

	var sections []model.Section
	var overflow []model.Question

	for _, t := range topics {
		qs := buckets[t.Key]
		if len(qs) == 0 {
			continue
		}
		if len(qs) < opts.MinSectionSize {
			overflow = append(overflow, qs...)
			continue
		}
		sections = append(sections, model.Section{
			Title:       topicTitle(t),
			Description: t.Description,
			Questions:   qs,
		})
	}

	sections = append(sections, overflowSections(overflow)...)

	for i := range sections {
		sections[i].ID = i + 1
	}
	return sections
}

// classify returns the key of the first bucket whose keyword appears in the
// question text, or the last bucket's key when nothing matches.
func classify(text string, topics []TopicBucket) string {
	lower := strings.ToLower(text)
	for _, t := range topics {
		for _, kw := range t.Keywords {
			if strings.Contains(lower, kw) {
				return t.Key
			}
		}
	}
	return topics[len(topics)-1].Key
}

// topicTitle derives a section title from the bucket definition.
func topicTitle(t TopicBucket) string {
	if t.Title != "" {
		return t.Title
	}
	return titleCaser.String(strings.ReplaceAll(t.Key, "_", " "))
}

// overflowLimit is the largest catch-all section emitted before the
// remainder splits into a second part.
const overflowLimit = 8

// overflowSections wraps leftover questions in one or two catch-all
// sections.
func overflowSections(overflow []model.Question) []model.Section {
	if len(overflow) == 0 {
		return nil
	}
	if len(overflow) <= overflowLimit {
		return []model.Section{{
			Title:       "Additional Questions",
			Description: "Questions that did not fit an earlier topic",
			Questions:   overflow,
		}}
	}
	half := (len(overflow) + 1) / 2
	parts := [][]model.Question{overflow[:half], overflow[half:]}
	sections := make([]model.Section, 0, 2)
	for i, part := range parts {
		sections = append(sections, model.Section{
			Title:       fmt.Sprintf("Additional Questions (Part %d)", i+1),
			Description: "Questions that did not fit an earlier topic",
			Questions:   part,
		})
	}
	return sections
}

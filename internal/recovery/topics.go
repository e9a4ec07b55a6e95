package recovery

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// TopicBucket is one topical classification target for the section grouper.
// Buckets are matched in order; the first bucket with a keyword contained in
// the question text wins.
type TopicBucket struct {
	Key         string   `yaml:"key"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Keywords    []string `yaml:"keywords"`
}

// DefaultTopics returns the built-in bucket set. Questions matching no
// bucket fall through to the final "general" bucket, whose empty keyword
// list makes it match-nothing during classification.
func DefaultTopics() []TopicBucket {
	return []TopicBucket{
		{
			Key:         "demographics",
			Title:       "About You",
			Description: "Background and demographic questions",
			Keywords: []string{
				"age", "gender", "income", "education", "occupation",
				"location", "where do you live", "household", "employment",
			},
		},
		{
			Key:         "experience",
			Title:       "Your Experience",
			Description: "Questions about past usage and experience",
			Keywords: []string{
				"experience", "how long", "how often", "used", "tried",
				"familiar", "frequency",
			},
		},
		{
			Key:         "satisfaction",
			Title:       "Satisfaction",
			Description: "How satisfied you are today",
			Keywords: []string{
				"satisfied", "satisfaction", "happy", "rate", "rating",
				"recommend", "likely",
			},
		},
		{
			Key:         "preferences",
			Title:       "Preferences",
			Description: "What you prefer and why",
			Keywords: []string{
				"prefer", "favorite", "favourite", "like best", "choose",
				"rather", "ideal",
			},
		},
		{
			Key:         "feedback",
			Title:       "Feedback",
			Description: "Open feedback and suggestions",
			Keywords: []string{
				"feedback", "improve", "suggestion", "comment", "change",
				"wish", "frustrat",
			},
		},
		{
			Key:         "product",
			Title:       "Product",
			Description: "Questions about the product itself",
			Keywords: []string{
				"product", "feature", "price", "pricing", "cost", "quality",
				"purchase", "buy",
			},
		},
		{
			Key:         "concept",
			Title:       "Concept",
			Description: "Reactions to the proposed concept",
			Keywords: []string{
				"concept", "idea", "appeal", "interest you", "would you use",
				"would you try",
			},
		},
		{
			Key:         "general",
			Title:       "General Questions",
			Description: "General survey questions",
		},
	}
}

// LoadTopics reads a custom bucket set from a YAML file, for callers whose
// surveys use a different topical vocabulary.
func LoadTopics(path string) ([]TopicBucket, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "recovery: read topics %s", path)
	}
	var topics []TopicBucket
	if err := yaml.Unmarshal(data, &topics); err != nil {
		return nil, eris.Wrapf(err, "recovery: parse topics %s", path)
	}
	if len(topics) == 0 {
		return nil, eris.New("recovery: topics file defines no buckets")
	}
	return topics, nil
}

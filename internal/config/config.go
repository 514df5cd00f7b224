package config

import (
	"os"
	"time"

	"railprep/internal/domain"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr      string `yaml:"addr"`
		Password  string `yaml:"password"`
		DB        int    `yaml:"db"`
		KeyPrefix string `yaml:"key_prefix"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		QuestionsPerQuiz int                        `yaml:"questions_per_quiz"`
		PassScore        int                        `yaml:"pass_score"`
		PassThresholds   map[string]int             `yaml:"pass_thresholds"`
		Unlock           map[string]UnlockCondition `yaml:"unlock"`
		CorpusTTL        string                     `yaml:"corpus_ttl"`
		CorpusFile       string                     `yaml:"corpus_file"`
	} `yaml:"quiz"`
	Subjects struct {
		Groups []SubjectGroup `yaml:"groups"`
	} `yaml:"subjects"`
}

type UnlockCondition struct {
	MinAttempts int `yaml:"min_attempts"`
	MinAverage  int `yaml:"min_average"`
}

type SubjectGroup struct {
	Key        string   `yaml:"key"`
	Label      string   `yaml:"label"`
	Subjects   []string `yaml:"subjects"`
	MatchToken string   `yaml:"match_token"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Rules builds the engine's rule set, falling back to the defaults for
// anything the file leaves out.
func (c Config) Rules() domain.Rules {
	rules := domain.DefaultRules()
	if c.Quiz.QuestionsPerQuiz > 0 {
		rules.QuestionsPerQuiz = c.Quiz.QuestionsPerQuiz
	}
	if c.Quiz.PassScore > 0 {
		rules.PassScore = c.Quiz.PassScore
	}
	if len(c.Quiz.PassThresholds) > 0 {
		rules.PassThresholds = make(map[domain.Difficulty]int, len(c.Quiz.PassThresholds))
		for tier, score := range c.Quiz.PassThresholds {
			rules.PassThresholds[domain.Difficulty(tier)] = score
		}
	}
	if len(c.Quiz.Unlock) > 0 {
		rules.UnlockConditions = make(map[domain.Difficulty]domain.UnlockCondition, len(c.Quiz.Unlock))
		for tier, cond := range c.Quiz.Unlock {
			rules.UnlockConditions[domain.Difficulty(tier)] = domain.UnlockCondition{
				MinAttempts: cond.MinAttempts,
				MinAverage:  cond.MinAverage,
			}
		}
	}
	return rules
}

// SubjectGroups builds the alias table, defaulting to the built-in
// railway-law groups when the file supplies none.
func (c Config) SubjectGroups() domain.SubjectGroups {
	if len(c.Subjects.Groups) == 0 {
		return domain.DefaultSubjectGroups()
	}
	groups := make(domain.SubjectGroups, 0, len(c.Subjects.Groups))
	for _, g := range c.Subjects.Groups {
		groups = append(groups, domain.SubjectGroup{
			Key:        g.Key,
			Label:      g.Label,
			Subjects:   g.Subjects,
			MatchToken: g.MatchToken,
		})
	}
	return groups
}

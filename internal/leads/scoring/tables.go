package scoring

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var defaultTablesYAML []byte

// Tables holds the lookup data the engine scores against.
type Tables struct {
	Version      string         `yaml:"version"`
	SourcePoints map[string]int `yaml:"source_points"`
	StatusPoints map[string]int `yaml:"status_points"`
	EmailDomains struct {
		Disposable []string `yaml:"disposable"`
		Free       []string `yaml:"free"`
	} `yaml:"email_domains"`

	disposable map[string]struct{}
	free       map[string]struct{}
}

// DefaultTables parses the embedded tables. The embedded file is part of
// the binary, so a parse failure is a build defect.
func DefaultTables() *Tables {
	t, err := ParseTables(defaultTablesYAML)
	if err != nil {
		panic(fmt.Sprintf("scoring: embedded tables: %v", err))
	}
	return t
}

// ParseTables decodes YAML lookup tables.
func ParseTables(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode scoring tables: %w", err)
	}
	if t.Version == "" {
		return nil, fmt.Errorf("scoring tables: version is required")
	}
	t.disposable = toSet(t.EmailDomains.Disposable)
	t.free = toSet(t.EmailDomains.Free)
	return &t, nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
	return set
}

type emailClass int

const (
	emailMissing emailClass = iota
	emailDisposable
	emailFree
	emailProfessional
)

func (t *Tables) classifyEmail(email string) emailClass {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return emailMissing
	}
	domain := strings.ToLower(strings.TrimSpace(email[at+1:]))
	if _, ok := t.disposable[domain]; ok {
		return emailDisposable
	}
	if _, ok := t.free[domain]; ok {
		return emailFree
	}
	return emailProfessional
}

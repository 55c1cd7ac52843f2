package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/aaronwds/docusign-jwt/internal/signing"
)

const DefaultSubject = "Please sign this document set"

// Plan describes one envelope: its documents and recipients.
type Plan struct {
	Subject      string               `yaml:"subject"`
	Documents    []signing.Document   `yaml:"documents"`
	Signers      []signing.Signer     `yaml:"signers"`
	CarbonCopies []signing.CarbonCopy `yaml:"cc"`
}

// LoadPlan reads a YAML plan. Relative document paths are resolved against
// the plan's directory.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request plan: %w", err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse request plan %s: %w", path, err)
	}

	if p.Subject == "" {
		p.Subject = DefaultSubject
	}
	dir := filepath.Dir(path)
	for i, d := range p.Documents {
		if d.Path != "" && !filepath.IsAbs(d.Path) {
			p.Documents[i].Path = filepath.Join(dir, d.Path)
		}
	}

	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("invalid request plan %s: %w", path, err)
	}
	return &p, nil
}

func (p *Plan) validate() error {
	for i, d := range p.Documents {
		if d.Path == "" {
			return fmt.Errorf("document %d has no path", i+1)
		}
		if d.Name == "" {
			return fmt.Errorf("document %d has no name", i+1)
		}
	}
	for i, s := range p.Signers {
		if s.Email == "" || s.Name == "" {
			return fmt.Errorf("signer %d needs an email and a name", i+1)
		}
		if s.SignAnchor == "" {
			return fmt.Errorf("signer %s has no sign_anchor", s.Email)
		}
	}
	for i, c := range p.CarbonCopies {
		if c.Email == "" || c.Name == "" {
			return fmt.Errorf("cc %d needs an email and a name", i+1)
		}
	}
	return nil
}

// Envelope converts the plan into the input of signing.Run.
func (p *Plan) Envelope() signing.Envelope {
	return signing.Envelope{
		Subject:      p.Subject,
		Documents:    p.Documents,
		Signers:      p.Signers,
		CarbonCopies: p.CarbonCopies,
	}
}

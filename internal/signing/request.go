// Package signing assembles a signing request and sends it as a DocuSign
// envelope.
//
// A Request belongs to one signing flow: it holds the session, the documents
// and the recipients, and is sent once. Documents are replaced on every
// AddDocuments call while signers and carbon copies accumulate across calls.
package signing

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/aaronwds/docusign-jwt/internal/auth"
	"github.com/aaronwds/docusign-jwt/internal/esign"
)

const (
	documentExtension = "pdf"

	anchorUnits   = "pixels"
	anchorXOffset = "20"
	anchorYOffset = "10"
)

// Document is a file to attach, shown to recipients as Name.
type Document struct {
	Path string `yaml:"path" json:"path"`
	Name string `yaml:"name" json:"name"`
}

// Signer signs at the text marker SignAnchor inside the documents.
type Signer struct {
	Email      string `yaml:"email" json:"email"`
	Name       string `yaml:"name" json:"name"`
	SignAnchor string `yaml:"sign_anchor" json:"sign_anchor"`
}

// CarbonCopy receives a copy of the completed envelope.
type CarbonCopy struct {
	Email string `yaml:"email" json:"email"`
	Name  string `yaml:"name" json:"name"`
}

// DocumentReadError reports a document that could not be read.
type DocumentReadError struct {
	Path string
	Err  error
}

func (e *DocumentReadError) Error() string {
	return fmt.Sprintf("signing: read document %s: %v", e.Path, e.Err)
}

func (e *DocumentReadError) Unwrap() error {
	return e.Err
}

// Request is a signing request under construction.
type Request struct {
	session    *auth.Session
	basePath   string
	httpClient *http.Client
	readFile   func(string) ([]byte, error)

	subject   string
	documents []esign.Document
	signers   []esign.Signer
	ccs       []esign.CarbonCopy
	sent      bool
}

type Option func(*Request)

// WithBasePath points the request at another eSignature host.
func WithBasePath(basePath string) Option {
	return func(r *Request) {
		if basePath != "" {
			r.basePath = basePath
		}
	}
}

// WithHTTPClient sets the client used to submit the envelope.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Request) {
		r.httpClient = c
	}
}

// NewRequest starts a request that will be sent with sess under subject.
func NewRequest(sess *auth.Session, subject string, opts ...Option) *Request {
	r := &Request{
		session:  sess,
		basePath: esign.DemoBasePath,
		readFile: os.ReadFile,
		subject:  subject,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddDocuments replaces the request's documents with docs. Ids follow the
// input order starting at 1. If any file cannot be read the previous
// documents are kept and a *DocumentReadError is returned.
func (r *Request) AddDocuments(docs []Document) error {
	documents := make([]esign.Document, 0, len(docs))
	for i, d := range docs {
		content, err := r.readFile(d.Path)
		if err != nil {
			return &DocumentReadError{Path: d.Path, Err: err}
		}
		documents = append(documents, esign.Document{
			DocumentBase64: base64.StdEncoding.EncodeToString(content),
			DocumentID:     strconv.Itoa(i + 1),
			FileExtension:  documentExtension,
			Name:           d.Name,
		})
	}
	r.documents = documents
	return nil
}

// SetSigners appends signers, each with one signature tab anchored on its
// SignAnchor. Recipient ids are assigned by Send.
func (r *Request) SetSigners(signers []Signer) {
	for _, s := range signers {
		r.signers = append(r.signers, esign.Signer{
			Email: s.Email,
			Name:  s.Name,
			Tabs: &esign.Tabs{SignHereTabs: []esign.SignHere{{
				AnchorString:  s.SignAnchor,
				AnchorUnits:   anchorUnits,
				AnchorXOffset: anchorXOffset,
				AnchorYOffset: anchorYOffset,
			}}},
		})
	}
}

// SetCC appends carbon copy recipients.
func (r *Request) SetCC(ccs []CarbonCopy) {
	for _, c := range ccs {
		r.ccs = append(r.ccs, esign.CarbonCopy{Email: c.Email, Name: c.Name})
	}
}

// Documents returns the documents that Send would attach.
func (r *Request) Documents() []esign.Document {
	docs := make([]esign.Document, len(r.documents))
	copy(docs, r.documents)
	return docs
}

// Package report persists discovery outcomes as per-company JSON
// record lists, and drives the idempotent re-run guard.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"finscout/internal/core/domain"
	"finscout/internal/platform/errors"
	"finscout/internal/platform/logx"
)

const reportFileName = "report_data.json"

// maxRecordsPerCompany is the re-run guard: a company whose report
// already holds more records than this is considered done.
const maxRecordsPerCompany = 5

// Store appends discovery results under <dir>/<company>/report_data.json.
// One writer per company by construction (a company is one task), the
// mutex covers re-runs racing on the same file.
type Store struct {
	mu     sync.Mutex
	dir    string
	logger logx.Logger
}

// NewStore creates a store rooted at dir.
func NewStore(dir string, logger logx.Logger) *Store {
	return &Store{
		dir:    dir,
		logger: logger.With("component", "report-store"),
	}
}

// Append adds one result to the company's record list.
func (s *Store) Append(result *domain.CandidateResult) error {
	if result == nil || result.Company == "" {
		return errors.Wrap(errors.ErrInvalidInput, "result has no company")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(result.Company)
	if err != nil {
		return err
	}
	records = append(records, *result)

	dir := s.companyDir(result.Company)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create report dir for %s", result.Company)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode report records")
	}

	path := filepath.Join(dir, reportFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}

	s.logger.Debug("report appended", "company", result.Company, "records", len(records))
	return nil
}

// Load returns the company's record list; empty when none exists yet.
func (s *Store) Load(company string) ([]domain.CandidateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(company)
}

// ShouldSkip reports whether a company already has enough records that
// another run adds nothing. Unreadable reports do not skip: rerunning
// is cheaper than silently dropping a company.
func (s *Store) ShouldSkip(company string) bool {
	records, err := s.Load(company)
	if err != nil {
		return false
	}
	return len(records) > maxRecordsPerCompany
}

func (s *Store) load(company string) ([]domain.CandidateResult, error) {
	path := filepath.Join(s.companyDir(company), reportFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	var records []domain.CandidateResult
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrapf(err, "corrupt report for %s", company)
	}
	return records, nil
}

func (s *Store) companyDir(company string) string {
	return filepath.Join(s.dir, sanitizeCompany(company))
}

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// sanitizeCompany makes a company name safe as a directory name.
func sanitizeCompany(company string) string {
	company = strings.TrimSpace(company)
	company = strings.ReplaceAll(company, " ", "_")
	return unsafePathChars.ReplaceAllString(company, "")
}

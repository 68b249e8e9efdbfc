// Package discovery implements the File-Discovery Service: a thin
// validation and pagination layer over the shallow index's lenient search.
package discovery

import (
	"github.com/codeindex-go/codeindex/internal/model"
	"github.com/codeindex-go/codeindex/internal/shallowindex"
	"github.com/codeindex-go/codeindex/internal/validate"
)

// Service wraps a shallowindex.Manager with validation and result
// truncation.
type Service struct {
	shallow *shallowindex.Manager
}

// NewService requires an initialized shallow manager; callers must call
// SetProjectPath (build or load the shallow index) before constructing a
// Service.
func NewService(shallow *shallowindex.Manager) (*Service, error) {
	if shallow == nil {
		return nil, &validate.Error{Message: "project is not initialized: no shallow index loaded"}
	}
	return &Service{shallow: shallow}, nil
}

// FindFiles validates pattern is non-empty after trimming, delegates to the
// shallow manager, and truncates Files to maxResults when positive,
// preserving MatchType.
func (s *Service) FindFiles(pattern string, maxResults *int) (model.FileSearchResult, error) {
	if err := validate.NonEmptyPattern(pattern); err != nil {
		return model.FileSearchResult{}, err
	}
	if maxResults != nil {
		if err := validate.Pagination(0, maxResults); err != nil {
			return model.FileSearchResult{}, err
		}
	}

	result := s.shallow.FindFiles(pattern)
	if maxResults != nil && *maxResults > 0 && len(result.Files) > *maxResults {
		result.Files = result.Files[:*maxResults]
	}
	return result, nil
}

// GetFileList returns the full shallow file list, in stored order.
func (s *Service) GetFileList() []string {
	return s.shallow.Files()
}

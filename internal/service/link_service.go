package service

import (
	"fmt"
	"net/url"
	"time"

	"adgate-server/internal/domain"
	"adgate-server/internal/repository"

	"github.com/sirupsen/logrus"
)

// systemDeviceID identifies tokens minted by the daily link job rather than a
// real client installation.
const systemDeviceID = "SYSTEM_DAILY_JOB"

// LinkService maintains the public verification link handed to the ad
// network, and resolves redirect targets for tokens arriving through it.
type LinkService struct {
	tokens        *TokenService
	links         repository.LinkRepository
	publicBaseURL string
	verifyPageURL string

	now func() time.Time
}

func NewLinkService(tokens *TokenService, links repository.LinkRepository, publicBaseURL, verifyPageURL string) *LinkService {
	return &LinkService{
		tokens:        tokens,
		links:         links,
		publicBaseURL: publicBaseURL,
		verifyPageURL: verifyPageURL,
		now:           time.Now,
	}
}

// UpdateDailyLink mints a system token, builds the public verification URL
// from it, and stores it as the current daily link.
func (s *LinkService) UpdateDailyLink() (*domain.DailyLink, error) {
	tok, err := s.tokens.Issue(systemDeviceID)
	if err != nil {
		return nil, err
	}

	link := &domain.DailyLink{
		CurrentLink: fmt.Sprintf("%s/redirect?token=%s", s.publicBaseURL, url.QueryEscape(tok)),
		UpdatedAt:   s.now(),
	}

	if err := s.links.Set(link); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	logrus.Info("Daily link updated")
	return link, nil
}

// RedirectTarget builds the verification page URL for a token carried in a
// redirect request.
func (s *LinkService) RedirectTarget(tokenString string) (string, error) {
	if tokenString == "" {
		return "", fmt.Errorf("%w: verification token is missing", ErrValidation)
	}
	return fmt.Sprintf("%s?token=%s", s.verifyPageURL, url.QueryEscape(tokenString)), nil
}

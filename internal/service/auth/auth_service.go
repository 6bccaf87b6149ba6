// Package auth issues and checks the admin tokens guarding the cache
// maintenance endpoints of the proxy API.
package auth

import (
	"context"
	"time"

	"github.com/ougirez/cancensus/internal/pkg/constants"
	"github.com/ougirez/cancensus/internal/pkg/logger"
	"github.com/ougirez/cancensus/internal/pkg/utils"
)

const DefaultTokenTTL = 24 * time.Hour

type Service struct {
	secret func() string
}

func NewService(secret func() string) *Service {
	return &Service{secret: secret}
}

// IssueAdminToken signs a token with the admin secret.
func (svc *Service) IssueAdminToken(ctx context.Context, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	token, err := utils.GenerateAuthToken(svc.secret(), ttl)
	if err != nil {
		return "", err
	}

	logger.Debugf(ctx, "issued admin token valid for %s", ttl)
	return token, nil
}

// Authorize accepts only unexpired admin tokens signed with the current
// secret. With no secret configured every token is refused.
func (svc *Service) Authorize(ctx context.Context, token string) error {
	claims, err := utils.ParseAuthToken(token, svc.secret())
	if err != nil {
		logger.Debugf(ctx, "admin token rejected: %s", err.Error())
		return err
	}
	if claims.Role != utils.RoleAdmin {
		return constants.ErrUnauthorized
	}
	return nil
}

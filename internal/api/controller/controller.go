package controller

import (
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/ougirez/cancensus/internal/service"
)

type Controller struct {
	service *service.Service
	// flight collapses concurrent identical census retrievals.
	flight singleflight.Group
}

func NewController(service *service.Service) *Controller {
	return &Controller{service: service}
}

// splitList accepts repeated and comma separated query values alike.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

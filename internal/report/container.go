package report

import (
	"github.com/fieldreach/goalsync-lambda/internal/goal"
	"github.com/fieldreach/goalsync-lambda/internal/grant"
	"github.com/fieldreach/goalsync-lambda/internal/objective"
	"github.com/fieldreach/goalsync-lambda/internal/reportcache"
	"gorm.io/gorm"
)

type ReportContainer struct {
	Handler *Handler
	Service Service
}

func NewReportContainer(
	db *gorm.DB,
	goals goal.Repository,
	grants grant.Repository,
	objectives objective.Repository,
	links reportcache.Repository,
	cache reportcache.Service,
) *ReportContainer {
	service := NewService(db, goals, grants, objectives, links, cache)
	handler := NewHandler(service)

	return &ReportContainer{
		Handler: handler,
		Service: service,
	}
}

package goal

import (
	"github.com/fieldreach/goalsync-lambda/internal/course"
	"github.com/fieldreach/goalsync-lambda/internal/file"
	"github.com/fieldreach/goalsync-lambda/internal/grant"
	"github.com/fieldreach/goalsync-lambda/internal/objective"
	"github.com/fieldreach/goalsync-lambda/internal/reportcache"
	"github.com/fieldreach/goalsync-lambda/internal/resource"
	"github.com/fieldreach/goalsync-lambda/internal/topic"
	"gorm.io/gorm"
)

type GoalContainer struct {
	Handler    *Handler
	Service    Service
	Repository Repository
	Matcher    *Matcher
}

func NewGoalContainer(
	db *gorm.DB,
	grants grant.Repository,
	objectives objective.Repository,
	topics topic.Repository,
	resources resource.Repository,
	files file.Repository,
	courses course.Repository,
	links reportcache.Repository,
) *GoalContainer {
	repo := NewRepository(db)
	service := NewService(db, repo, objectives, topics, resources, files, courses, links)
	handler := NewHandler(service)

	return &GoalContainer{
		Handler:    handler,
		Service:    service,
		Repository: repo,
		Matcher:    NewMatcher(repo, grants),
	}
}

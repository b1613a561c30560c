package container

import (
	"context"
	"log"
	"os"

	"github.com/fieldreach/goalsync-lambda/internal/auth"
	"github.com/fieldreach/goalsync-lambda/internal/config"
	"github.com/fieldreach/goalsync-lambda/internal/course"
	"github.com/fieldreach/goalsync-lambda/internal/file"
	"github.com/fieldreach/goalsync-lambda/internal/goal"
	"github.com/fieldreach/goalsync-lambda/internal/grant"
	"github.com/fieldreach/goalsync-lambda/internal/objective"
	"github.com/fieldreach/goalsync-lambda/internal/report"
	"github.com/fieldreach/goalsync-lambda/internal/reportcache"
	"github.com/fieldreach/goalsync-lambda/internal/resource"
	"github.com/fieldreach/goalsync-lambda/internal/topic"
)

type Container struct {
	GoalContainer   *goal.GoalContainer
	ReportContainer *report.ReportContainer
}

func New() *Container {
	config.Init()
	auth.Init()

	dsn := os.Getenv("DATABASE_DSN")
	if err := config.Connect(context.Background(), dsn); err != nil {
		log.Fatalf("failed to connect to DB: %v", err)
	}

	if err := migrate(); err != nil {
		log.Fatalf("failed to migrate DB: %v", err)
	}

	grants := grant.NewRepository(config.DB)
	topics := topic.NewRepository(config.DB)
	resources := resource.NewRepository(config.DB)
	files := file.NewRepository(config.DB)
	courses := course.NewRepository(config.DB)
	objectives := objective.NewRepository(config.DB)
	links := reportcache.NewRepository(config.DB)
	cache := reportcache.NewService(links, topics, resources, objectives)

	goalContainer := goal.NewGoalContainer(
		config.DB,
		grants,
		objectives,
		topics,
		resources,
		files,
		courses,
		links,
	)

	reportContainer := report.NewReportContainer(
		config.DB,
		goalContainer.Repository,
		grants,
		objectives,
		links,
		cache,
	)

	return &Container{
		GoalContainer:   goalContainer,
		ReportContainer: reportContainer,
	}
}

func migrate() error {
	return config.DB.AutoMigrate(
		&grant.Grant{},
		&topic.Topic{},
		&resource.Resource{},
		&file.File{},
		&course.Course{},
		&goal.GoalTemplate{},
		&goal.Goal{},
		&objective.Objective{},
		&objective.ObjectiveTopic{},
		&objective.ObjectiveResource{},
		&objective.ObjectiveFile{},
		&objective.ObjectiveCourse{},
		&reportcache.ReportGoal{},
		&reportcache.ReportObjective{},
		&reportcache.ReportObjectiveTopic{},
		&reportcache.ReportObjectiveResource{},
		&reportcache.ReportObjectiveFile{},
		&reportcache.ReportObjectiveCourse{},
		&reportcache.ReportObjectiveCitation{},
	)
}

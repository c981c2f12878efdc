// Maintenance command: recalculates the trending score of every post from
// its current counters. Run from cron; the API keeps scores fresh on writes,
// this repairs drift and scores imported data.
package main

import (
	"go-blog-api/config"
	"go-blog-api/db"
	"go-blog-api/logger"
	"go-blog-api/repository"
	"go-blog-api/service"
)

func main() {
	config.LoadConfig(".")
	logger.Init()

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	postRepo := repository.NewPostRepository(database)

	engagements, err := postRepo.ListEngagements()
	if err != nil {
		logger.Log.Fatalf("Failed to list posts: %v", err)
	}

	logger.Log.Infof("Recalculating %d posts...", len(engagements))

	for _, e := range engagements {
		score := service.FlatTrendingScore(e.Likes, e.CommentCount, e.Views)
		if err := postRepo.UpdateTrendingScore(e.PostID, score); err != nil {
			logger.Log.WithError(err).WithField("post_id", e.PostID).Error("Failed to update trending score")
		}
	}

	logger.Log.Info("Trending scores recalculated")
}

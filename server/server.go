package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/uhwar/reddit-tik-tok-generator/config"
	"github.com/uhwar/reddit-tik-tok-generator/story"
	"github.com/uhwar/reddit-tik-tok-generator/types"
)

// StoryFinder is the slice of the story source the API needs
type StoryFinder interface {
	Fetch(ctx context.Context, subreddit string) (*types.Story, error)
	FetchByTag(ctx context.Context, tag string, limit int) ([]*types.Story, error)
}

// Server exposes the story-browsing API
type Server struct {
	cfg    *config.Config
	subs   config.Subreddits
	source StoryFinder
	router *gin.Engine
}

// New wires up routes on a gin router
func New(cfg *config.Config, subs config.Subreddits, source StoryFinder) *Server {
	s := &Server{
		cfg:    cfg,
		subs:   subs,
		source: source,
		router: gin.Default(),
	}

	api := s.router.Group("/api")
	api.GET("/tags", s.getTags)
	api.GET("/subreddits", s.getSubreddits)
	api.GET("/stories/by-tag/:tag", s.getStoriesByTag)
	api.GET("/story/random", s.getRandomStory)
	api.POST("/virality/analyze", s.analyzeVirality)

	return s
}

// Run blocks serving HTTP on the configured address
func (s *Server) Run() error {
	return s.router.Run(s.cfg.Server.Addr)
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) getTags(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tags": s.subs.AllTags()})
}

func (s *Server) getSubreddits(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"subreddits": s.subs})
}

func (s *Server) getStoriesByTag(c *gin.Context) {
	tag := c.Param("tag")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	minVirality, _ := strconv.Atoi(c.DefaultQuery("min_virality", "0"))
	topOnly := c.DefaultQuery("top_only", "false") == "true"

	stories, err := s.source.FetchByTag(c.Request.Context(), tag, limit)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, story.ErrSourceUnavailable) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	filtered := make([]*types.Story, 0, len(stories))
	for _, st := range stories {
		if st.Virality >= minVirality {
			filtered = append(filtered, st)
		}
	}
	if topOnly && len(filtered) > 1 {
		filtered = filtered[:1]
	}

	c.JSON(http.StatusOK, gin.H{
		"tag":     tag,
		"count":   len(filtered),
		"stories": filtered,
	})
}

func (s *Server) getRandomStory(c *gin.Context) {
	if tag := c.Query("tag"); tag != "" {
		stories, err := s.source.FetchByTag(c.Request.Context(), tag, 0)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stories[0])
		return
	}

	subreddit := c.DefaultQuery("subreddit", s.cfg.Reddit.DefaultSubreddit)
	st, err := s.source.Fetch(c.Request.Context(), subreddit)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

type analyzeRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (s *Server) analyzeVirality(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, story.EstimateFromText(req.Title, req.Body))
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourname/sleepcoach/internal/service"
)

// PostSubmitSleep accepts one sleep entry, stores it, and runs the analyze →
// coach pipeline over it. The 200 payload is the submission response itself,
// not the usual envelope, so that analysis and suggestions sit at the top
// level for the client.
func PostSubmitSleep(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body service.SleepEntryRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
			return
		}

		if err := service.ValidateSleepEntryRequest(&body); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Validation failed")
			return
		}

		resp, status, err := app.Submission().Submit(c.Request.Context(), &body)
		if err != nil {
			HandleError(c, app.Logger(), err, status, "Failed to process sleep entry")
			return
		}

		c.JSON(status, resp)
	}
}

// GetSleepData lists stored entries, newest first.
func GetSleepData(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := app.SleepRepo().ListSleepEntries(c.Request.Context())
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch entries")
			return
		}
		HandleSuccess(c, app.Logger(), entries, nil)
	}
}

func GetHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// NewRouter builds the gin engine with middleware and routes. Shared by main
// and the handler tests.
func NewRouter(app App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(CORSMiddleware())

	r.GET("/healthz", GetHealth())
	r.POST("/submit-sleep", PostSubmitSleep(app))
	r.GET("/sleep-data", GetSleepData(app))

	return r
}

package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// The HTTP mode is a bare ingest surface for upstream upload handlers: rows
// in, AnalysisResult out. No sessions, no storage, no dashboard.

type analyzeRequest struct {
	Orders        []RawRecord `json:"orders"`
	ReferenceDate string      `json:"reference_date"`
}

func newRouter() *gin.Engine {
	router := gin.Default()

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/api/analyze", handleAnalyze)

	return router
}

func handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := runAnalysis(req.Orders, req.ReferenceDate)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func runServer(port int) error {
	gin.SetMode(gin.ReleaseMode)
	router := newRouter()
	fmt.Printf("Listening on :%d\n", port)
	return router.Run(fmt.Sprintf(":%d", port))
}

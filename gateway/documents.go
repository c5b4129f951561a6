package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/brokerit/core"
	"github.com/poiesic/brokerit/ingestion"
	"github.com/poiesic/brokerit/storage"
)

// addDocumentRequest is the JSON body of POST /documents.
type addDocumentRequest struct {
	BrokerId   core.ID `json:"broker_id" binding:"required"`
	PropertyId core.ID `json:"property_id"`
	Title      string  `json:"title" binding:"required"`
	FileType   string  `json:"file_type"`
	Content    string  `json:"content" binding:"required"`
}

// handleAddDocument stores a knowledge document and schedules its embedding.
func (s *Server) handleAddDocument(c *gin.Context) {
	var req addDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if _, err := s.brokers.GetBroker(ctx, req.BrokerId); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "broker not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	fileType := req.FileType
	if fileType == "" {
		fileType = "txt"
	}

	document, err := s.pipeline.AddDocument(ctx, &core.KnowledgeDocument{
		BrokerId:   req.BrokerId,
		PropertyId: req.PropertyId,
		Title:      req.Title,
		FileType:   fileType,
		FileSize:   int64(len(req.Content)),
		Content:    req.Content,
	})
	if err != nil {
		if errors.Is(err, ingestion.ErrEmptyDocument) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":        document.Id,
		"processed": len(document.Vector) > 0,
	})
}

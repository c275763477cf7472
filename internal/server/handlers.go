package server

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docparse/internal/async"
	"docparse/internal/entity"
)

// ParseRequest is the body of POST /v1/parse. Fragments come from whatever
// OCR provider the caller uses; boxes and image dimensions are optional and
// gate the positional path.
type ParseRequest struct {
	Fragments []entity.TextFragment `json:"fragments" binding:"required"`
	Image     entity.ImageSize      `json:"image"`
	Owner     entity.OwnerIdentity  `json:"owner"`
}

type ParseResponse struct {
	Fields       entity.ParsedFieldSet        `json:"fields"`
	Counterparty entity.CounterpartyCandidate `json:"counterparty"`
}

func (s *Server) parse(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	owner := req.Owner
	if owner == (entity.OwnerIdentity{}) {
		owner = s.owner
	}
	fields, cand, err := s.parser.Parse(c.Request.Context(), req.Fragments, owner, req.Image)
	if err != nil {
		s.logger.Error("parse failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "parse failed"})
		return
	}
	c.JSON(http.StatusOK, ParseResponse{Fields: fields, Counterparty: cand})
}

// parseImage accepts a raw image upload, runs the configured OCR engine to
// produce fragments, then parses them. Returns 503 when the daemon was
// started without a local OCR engine.
func (s *Server) parseImage(c *gin.Context) {
	if s.source == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no OCR engine configured"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fragments, size, err := s.source.Fragments(c.Request.Context(), data)
	if err != nil {
		s.logger.Error("ocr failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ocr failed"})
		return
	}
	owner := entity.OwnerIdentity{
		RegistrationID: c.PostForm("owner_registration_id"),
		TaxID:          c.PostForm("owner_tax_id"),
	}
	if owner == (entity.OwnerIdentity{}) {
		owner = s.owner
	}
	fields, cand, err := s.parser.Parse(c.Request.Context(), fragments, owner, size)
	if err != nil {
		s.logger.Error("parse failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "parse failed"})
		return
	}
	c.JSON(http.StatusOK, ParseResponse{Fields: fields, Counterparty: cand})
}

// LearnRequest is the body of POST /v1/learn, sent after a reviewer confirms
// or edits a parsed field set.
type LearnRequest struct {
	Fragments []entity.TextFragment `json:"fragments" binding:"required"`
	Confirmed entity.ParsedFieldSet `json:"confirmed" binding:"required"`
	Keys      []string              `json:"keys" binding:"required"`
	Image     entity.ImageSize      `json:"image"`
}

func (s *Server) learn(c *gin.Context) {
	var req LearnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	job := async.Job{
		ID:          uuid.New(),
		Fragments:   req.Fragments,
		Confirmed:   req.Confirmed,
		Keys:        req.Keys,
		ImageSize:   req.Image,
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.learnQ.Enqueue(c.Request.Context(), job); err != nil {
		s.logger.Error("enqueue learn failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue failed"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID})
}

func (s *Server) getTemplate(c *gin.Context) {
	key := c.Param("key")
	tpl, err := s.store.Get(c.Request.Context(), key)
	if err != nil {
		s.logger.Error("template lookup failed", "key", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if tpl.Empty() {
		c.JSON(http.StatusNotFound, gin.H{"error": "no template for key"})
		return
	}
	c.JSON(http.StatusOK, tpl)
}

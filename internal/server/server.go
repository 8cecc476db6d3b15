package server

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/flowlink/internal/catalog"
	"github.com/agenthands/flowlink/internal/config"
	"github.com/agenthands/flowlink/internal/core"
	"github.com/agenthands/flowlink/internal/core/arbiter"
	"github.com/agenthands/flowlink/internal/ledger"
	"github.com/agenthands/flowlink/internal/llm"
)

type Server struct {
	Config  *config.Config
	Catalog *catalog.Client
	Arbiter *arbiter.Arbitrator
	Ledger  *ledger.Store
}

func NewServer() *Server {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("Warning: could not load %s: %v. Using defaults", cfgPath, err)
		cfg = &config.Config{}
		cfg.ApplyDefaults()
	}

	// Override config with env vars if present (simple override logic)
	if envEndpoint := os.Getenv("CATALOG_ENDPOINT"); envEndpoint != "" {
		cfg.Catalog.Endpoint = envEndpoint
	}
	if envProvider := os.Getenv("LLM_PROVIDER"); envProvider != "" {
		cfg.LLM.Provider = envProvider
	}
	if envModel := os.Getenv("LLM_MODEL"); envModel != "" {
		cfg.LLM.Model = envModel
	}
	if envAPIKey := os.Getenv("LLM_API_KEY"); envAPIKey != "" {
		cfg.LLM.APIKey = envAPIKey
	}
	if envBaseURL := os.Getenv("LLM_BASE_URL"); envBaseURL != "" {
		cfg.LLM.BaseURL = envBaseURL
	}
	if envLedger := os.Getenv("LEDGER_PATH"); envLedger != "" {
		cfg.Ledger.Path = envLedger
	}

	if cfg.Catalog.Endpoint == "" {
		log.Fatal("No catalog endpoint configured (set catalog.endpoint or CATALOG_ENDPOINT)")
	}

	llmClient, err := llm.NewClient(context.Background(), cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}
	var judge arbiter.Judge
	if llmClient != nil {
		judge = arbiter.NewLLMJudge(llmClient)
	} else {
		log.Println("No LLM provider configured, running heuristic-only arbitration")
	}

	store, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		log.Fatalf("Failed to open ledger at %s: %v", cfg.Ledger.Path, err)
	}

	normalizer := catalog.NewNormalizer(cfg.Resolution.PrimaryLanguage)

	return &Server{
		Config:  cfg,
		Catalog: catalog.NewClient(cfg.Catalog, normalizer),
		Arbiter: arbiter.NewArbitrator(judge, cfg.Resolution.SimilarityThreshold, cfg.Resolution.CandidateCap),
		Ledger:  store,
	}
}

func (s *Server) Close() {
	s.Catalog.Close()
	if err := s.Ledger.Close(); err != nil {
		log.Printf("Failed to close ledger: %v", err)
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.POST("/resolve", s.Resolve)
	r.GET("/substitutions", s.Substitutions)
	r.GET("/mappings", s.Mappings)
	r.GET("/healthz", s.Healthz)

	return r
}

type ResolveRequest struct {
	Exchanges []core.Exchange  `json:"exchanges"`
	Documents []map[string]any `json:"documents,omitempty"`
}

func (s *Server) Resolve(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// A fresh resolver per request scopes the search cache to one batch.
	resolver := core.NewResolver(s.Catalog, s.Arbiter, s.Ledger)
	outcomes, err := resolver.ResolveBatch(c.Request.Context(), req.Exchanges)
	if err != nil {
		log.Printf("Failed to resolve batch: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve batch"})
		return
	}

	updated := 0
	if len(req.Documents) > 0 {
		updated = core.RewriteDocuments(req.Documents, outcomes)
	}

	c.JSON(http.StatusOK, gin.H{
		"outcomes":  outcomes,
		"documents": req.Documents,
		"updated":   updated,
	})
}

func (s *Server) Substitutions(c *gin.Context) {
	records, err := s.Ledger.Substitutions(c.Request.Context())
	if err != nil {
		log.Printf("Failed to list substitutions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list substitutions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"substitutions": records})
}

func (s *Server) Mappings(c *gin.Context) {
	mapping, err := s.Ledger.Mappings(c.Request.Context())
	if err != nil {
		log.Printf("Failed to list mappings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list mappings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mappings": mapping})
}

func (s *Server) Healthz(c *gin.Context) {
	if err := s.Ledger.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

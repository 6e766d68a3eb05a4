package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/xhad/tier0/internal/models"
	"github.com/xhad/tier0/internal/types"
	"github.com/xhad/tier0/pkg/cache"
	cfgPkg "github.com/xhad/tier0/pkg/config"
	"github.com/xhad/tier0/pkg/docsource"
	"github.com/xhad/tier0/pkg/engine"
	"github.com/xhad/tier0/pkg/imagestore"
	"github.com/xhad/tier0/pkg/llm"
	"github.com/xhad/tier0/pkg/logstore"
	"github.com/xhad/tier0/pkg/router"
	"github.com/xhad/tier0/server"
)

func main() {
	var (
		configPath string
		docsDir    string
		port       int
		logFile    string
	)
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&docsDir, "docs-dir", "", "Directory of documents to index")
	flag.IntVar(&port, "port", 0, "HTTP listen port")
	flag.StringVar(&logFile, "ingest-logs", "", "Access log file to ingest at startup")
	flag.Parse()

	config, err := cfgPkg.LoadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if docsDir != "" {
		config.Docs.Dir = docsDir
	}
	if port != 0 {
		config.Server.Port = port
	}

	if errs := config.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config error: %v", e)
		}
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(config, logFile, logger); err != nil {
		logger.Fatal("fatal", zap.Error(err))
	}
}

func run(config *cfgPkg.Config, logFile string, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider := selectProvider(config, logger)

	var docs []models.Document
	source, err := docsource.NewDirSource(docsource.DirSourceConfig{Path: config.Docs.Dir}, logger)
	if err != nil {
		logger.Warn("document source unavailable, serving without a corpus", zap.Error(err))
	} else if docs, err = source.Load(ctx); err != nil {
		logger.Warn("document load failed, serving without a corpus", zap.Error(err))
	}
	color.Green("✓ Loaded %d documents from %s\n", len(docs), config.Docs.Dir)

	store, err := selectCacheStore(config)
	if err != nil {
		logger.Warn("index cache unavailable, index will rebuild every start", zap.Error(err))
		store = nil
	}

	var buildBar *progressbar.ProgressBar
	e, err := engine.NewWithConfig(engine.EngineConfig{
		ChunkSize: config.Index.ChunkSize,
		Overlap:   config.Index.Overlap,
		OnProgress: func(done, total int) {
			if buildBar == nil {
				buildBar = getProgressBar(total, "Embedding document chunks...")
			}
			buildBar.Set(done)
		},
	}, provider, store, docs, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize retrieval engine: %v", err)
	}

	// Index construction can take a long time behind a rate-limited
	// embedding provider. The server comes up immediately; document
	// queries fall back to pattern and keyword retrieval until ready.
	if provider != nil {
		go func() {
			if err := e.LoadOrBuild(ctx); err != nil {
				logger.Error("index build failed", zap.Error(err))
				return
			}
			if buildBar != nil {
				buildBar.Finish()
			}
			color.Green("✓ Vector index ready (%d chunks)\n", e.IndexSize())
		}()
	} else {
		color.Yellow("No embedding provider configured, vector search disabled\n")
	}

	logs := buildLogDomain(ctx, config, logFile, provider, logger)
	images := buildImageDomain(config, provider, logger)

	r := router.New(provider, e, logs, images, logger)

	providerName := "none"
	if provider != nil {
		providerName = provider.Name()
	}
	cacheBackend := "none"
	if store != nil {
		cacheBackend = config.Cache.Backend
	}

	srv := server.New(server.Config{
		Host:         config.Server.Host,
		Port:         config.Server.Port,
		Provider:     providerName,
		CacheBackend: cacheBackend,
	}, r, e, server.Domains{
		Documents: func(ctx context.Context, q string) interface{} { return e.Query(ctx, q) },
		Logs:      func(ctx context.Context, q string) interface{} { return logs.Query(ctx, q) },
		Images:    func(ctx context.Context, q string) interface{} { return images.Query(ctx, q) },
	}, logger)

	color.Cyan("Serving on %s:%d\n", config.Server.Host, config.Server.Port)
	return srv.ListenAndServe(ctx)
}

// selectProvider prefers OpenAI when a key is configured, then Ollama,
// else no provider at all. The engine and router degrade accordingly.
func selectProvider(config *cfgPkg.Config, logger *zap.Logger) types.Provider {
	if config.LLM.OpenAIAPIKey != "" {
		p, err := llm.NewOpenAI(llm.OpenAIConfig{
			Token:             config.LLM.OpenAIAPIKey,
			Model:             config.LLM.OpenAIModel,
			EmbeddingModel:    config.LLM.OpenAIEmbeddingModel,
			Temperature:       config.LLM.Temperature,
			RequestsPerMinute: config.LLM.RequestsPerMinute,
		})
		if err == nil {
			logger.Info("using openai provider", zap.String("model", config.LLM.OpenAIModel))
			return p
		}
		logger.Warn("openai init failed", zap.Error(err))
	}

	if config.LLM.OllamaBaseURL != "" {
		p, err := llm.NewOllama(llm.OllamaConfig{
			BaseURL:           config.LLM.OllamaBaseURL,
			Model:             config.LLM.OllamaModel,
			EmbeddingModel:    config.LLM.OllamaEmbedding,
			Temperature:       config.LLM.Temperature,
			RequestsPerMinute: config.LLM.RequestsPerMinute,
		})
		if err == nil {
			logger.Info("using ollama provider", zap.String("model", config.LLM.OllamaModel))
			return p
		}
		logger.Warn("ollama init failed", zap.Error(err))
	}

	return nil
}

func selectCacheStore(config *cfgPkg.Config) (cache.Store, error) {
	if config.Cache.Backend == "redis" {
		return cache.NewRedis(cache.RedisConfig{
			Addr:   config.Cache.RedisAddr,
			DB:     config.Cache.RedisDB,
			Prefix: config.Cache.Prefix,
		})
	}
	return cache.NewDir(cache.DirConfig{Path: config.Cache.Dir})
}

func buildLogDomain(ctx context.Context, config *cfgPkg.Config, logFile string,
	provider types.Provider, logger *zap.Logger) types.DomainSearcher {

	if config.Database.URL == "" {
		logger.Warn("no database configured, log queries disabled")
		return &unavailableDomain{name: "search_logs", answer: "Log analysis is not available: no database configured."}
	}

	store, err := logstore.NewWithConfig(logstore.StoreConfig{
		ConnString: config.Database.URL,
		TableName:  config.Database.TableName,
	}, logger)
	if err != nil {
		logger.Warn("log store init failed, log queries disabled", zap.Error(err))
		return &unavailableDomain{name: "search_logs", answer: "Log analysis is not available: database unreachable."}
	}

	if logFile != "" {
		f, err := os.Open(logFile)
		if err != nil {
			logger.Warn("could not open log file", zap.String("path", logFile), zap.Error(err))
		} else {
			defer f.Close()
			if n, err := store.Ingest(ctx, f); err != nil {
				logger.Warn("log ingest failed", zap.Error(err))
			} else {
				color.Green("✓ Ingested %d log entries\n", n)
			}
		}
	}

	return logstore.NewService(store, provider, logger)
}

func buildImageDomain(config *cfgPkg.Config, provider types.Provider, logger *zap.Logger) types.DomainSearcher {
	if config.Mongo.URL == "" {
		logger.Warn("no mongodb configured, image queries disabled")
		return &unavailableDomain{name: "search_images", answer: "Image analysis is not available: no image store configured."}
	}

	store, err := imagestore.NewWithConfig(imagestore.StoreConfig{
		URI:        config.Mongo.URL,
		Database:   config.Mongo.Database,
		Collection: config.Mongo.Collection,
	}, logger)
	if err != nil {
		logger.Warn("image store init failed, image queries disabled", zap.Error(err))
		return &unavailableDomain{name: "search_images", answer: "Image analysis is not available: image store unreachable."}
	}

	return imagestore.NewService(store, provider, logger)
}

// unavailableDomain stands in for a domain whose backing store is not
// configured, keeping the router total over all questions.
type unavailableDomain struct {
	name   string
	answer string
}

func (u *unavailableDomain) Name() string { return u.name }

func (u *unavailableDomain) Query(context.Context, string) *models.Result {
	return &models.Result{Answer: u.answer, Type: models.TypeNoMatch, Synthesized: false}
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("chunks"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

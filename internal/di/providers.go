package di

import (
	"fmt"
	"strconv"
	"strings"

	"TradePilot/internal/domain/models"
	"TradePilot/internal/domain/repository"
	domsvc "TradePilot/internal/domain/service"
	"TradePilot/internal/handler/api"
	internalrepo "TradePilot/internal/repository"
	"TradePilot/internal/service/ratelimit"
	"TradePilot/internal/service/tracker"
	"TradePilot/internal/services/fallback"
	"TradePilot/internal/services/inference"
	"TradePilot/internal/services/risk"
	"TradePilot/internal/usecase"
	ws "TradePilot/internal/websocket"
	"TradePilot/pkg/cache"
	"TradePilot/pkg/config"
	xhttp "TradePilot/pkg/http"
	pkgkafka "TradePilot/pkg/kafka"
	"TradePilot/pkg/logger"
	"TradePilot/pkg/metrics"
	"TradePilot/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	level := "info"
	format := "json"
	if cfg.Environment == "development" {
		level = "debug"
		format = "console"
	}
	return logger.New(&logger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideTracker creates the performance tracker.
func ProvideTracker() *tracker.Tracker {
	return tracker.New(tracker.DefaultCapacity)
}

// ProvideThresholds maps configured heuristic constants, falling back to the
// documented defaults for unset fields.
func ProvideThresholds(cfg *config.Config) risk.Thresholds {
	t := risk.DefaultThresholds()
	if cfg.Thresholds.Overbought > 0 {
		t.Overbought = cfg.Thresholds.Overbought
	}
	if cfg.Thresholds.Oversold > 0 {
		t.Oversold = cfg.Thresholds.Oversold
	}
	if cfg.Thresholds.ConservativeRisk > 0 {
		t.ConservativeRisk = cfg.Thresholds.ConservativeRisk
	}
	if cfg.Thresholds.BullishRisk > 0 {
		t.BullishRisk = cfg.Thresholds.BullishRisk
	}
	if cfg.Thresholds.HighVolume > 0 {
		t.HighVolume = cfg.Thresholds.HighVolume
	}
	return t
}

// ProvideScorer creates the risk scorer.
func ProvideScorer(t risk.Thresholds) *risk.Scorer {
	return risk.NewScorer(t)
}

// ProvideInferenceClient creates the remote inference client with the
// tracker attached as its monitor.
func ProvideInferenceClient(cfg *config.Config, trk *tracker.Tracker, m repository.Metrics, l *logger.Logger) *inference.Client {
	return inference.NewClient(cfg.Inference.BaseURL, cfg.Inference.APIKey, l,
		inference.WithTimeout(cfg.Inference.Timeout),
		inference.WithMonitor(trk),
		inference.WithMetrics(m),
	)
}

// ProvideCacheService creates the analysis result cache: Redis when enabled,
// in-process otherwise.
func ProvideCacheService(cfg *config.Config, l *logger.Logger) cache.Service {
	if cfg.Cache.Redis.Enabled {
		host, port := splitAddr(cfg.Cache.Redis.Addr)
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(host),
			cache.WithRedisPort(port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix("tradepilot"),
		)
		if err == nil {
			return cache.NewLayeredCache(rc)
		}
		l.Warn("redis cache unavailable, using memory cache", logger.Error(err))
	}
	return cache.NewMemoryCache()
}

// ProvidePipeline assembles the four-stage cascade: remote capability
// adapters first, local heuristics as the terminal attempt of each stage.
func ProvidePipeline(
	cfg *config.Config,
	client *inference.Client,
	scorer *risk.Scorer,
	t risk.Thresholds,
	m repository.Metrics,
	l *logger.Logger,
	c cache.Service,
) *usecase.SignalPipeline {
	tableRemotes := []domsvc.TableInterpreter{
		inference.NewTableInterpreter(client, cfg.Inference.Model),
	}
	for _, alt := range cfg.Inference.AlternateModels {
		tableRemotes = append(tableRemotes, inference.NewTableInterpreter(client, alt))
	}

	return usecase.NewSignalPipeline(
		tableRemotes,
		fallback.NewTableHeuristic(),
		inference.NewSentimentScorer(client, cfg.Inference.Model),
		fallback.NewSentimentHeuristic(),
		inference.NewDecisionSynthesizer(client, cfg.Inference.Model),
		fallback.NewDecisionHeuristic(t),
		inference.NewSummarizer(client, cfg.Inference.Model),
		fallback.NewSummaryHeuristic(),
		scorer,
		m,
		l,
		usecase.WithResultCache(c, cfg.Cache.AnalysisTTL),
	)
}

// ProvideRateLimiter creates the shared token-bucket limiter.
func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideExchangeHTTPClient creates the HTTP client shared by both exchange
// clients.
func ProvideExchangeHTTPClient() *xhttp.Client {
	return xhttp.NewClient()
}

// ProvideSpotExchange creates the spot exchange client.
func ProvideSpotExchange(cfg *config.Config, client *xhttp.Client, rl *ratelimit.Limiter, l *logger.Logger) repository.Exchange {
	return internalrepo.NewSpotClient(cfg.Exchange.SpotBaseURL, cfg.Exchange.APIKey, cfg.Exchange.Secret, client, rl, l)
}

// ProvideFuturesExchange creates the derivatives exchange client.
func ProvideFuturesExchange(cfg *config.Config, client *xhttp.Client, rl *ratelimit.Limiter, l *logger.Logger) repository.DerivativesExchange {
	return internalrepo.NewFuturesClient(cfg.Exchange.FuturesBaseURL, cfg.Exchange.APIKey, cfg.Exchange.Secret, client, rl, l)
}

// ProvidePolicy builds the initial trading policy from configuration.
func ProvidePolicy(cfg *config.Config) models.TradingPolicy {
	policy := models.TradingPolicy{
		Mode:           models.PolicyMode(cfg.Policy.Mode),
		Enabled:        cfg.Policy.Enabled,
		TestMode:       cfg.Policy.TestMode,
		AllowedSymbols: cfg.Policy.AllowedSymbols,
		Risk: models.RiskParameters{
			MaxPositionSize:    cfg.Policy.Risk.MaxPositionSize,
			MaxLeverage:        cfg.Policy.Risk.MaxLeverage,
			StopLossPercent:    cfg.Policy.Risk.StopLossPercent,
			TakeProfitPercent:  cfg.Policy.Risk.TakeProfitPercent,
			MaxDailyLoss:       cfg.Policy.Risk.MaxDailyLoss,
			MaxDrawdownPercent: cfg.Policy.Risk.MaxDrawdownPercent,
		},
	}
	if policy.IsDerivatives() {
		policy.Derivatives = &models.DerivativesParameters{
			MarginType:         models.MarginType(cfg.Policy.Derivatives.MarginType),
			DefaultLeverage:    cfg.Policy.Derivatives.DefaultLeverage,
			MaxOpenPositions:   cfg.Policy.Derivatives.MaxOpenPositions,
			MaxLossPerPosition: cfg.Policy.Derivatives.MaxLossPerPosition,
			HedgeMode:          cfg.Policy.Derivatives.HedgeMode,
		}
	}
	return policy
}

// ProvideGate creates the execution gate.
func ProvideGate(
	policy models.TradingPolicy,
	spot repository.Exchange,
	futures repository.DerivativesExchange,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.ExecutionGate {
	return usecase.NewExecutionGate(policy, spot, futures, m, l)
}

// ProvideEventPublisher creates the Kafka event publisher, or nil when the
// broker is not configured.
func ProvideEventPublisher(cfg *config.Config) (repository.EventPublisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideSession creates the process-wide trading session.
func ProvideSession(
	pipeline *usecase.SignalPipeline,
	gate *usecase.ExecutionGate,
	trk *tracker.Tracker,
	publisher repository.EventPublisher,
	l *logger.Logger,
) *usecase.TradingSession {
	return usecase.NewTradingSession(pipeline, gate, trk, publisher, l)
}

// ProvideHub creates the dashboard websocket hub.
func ProvideHub(l *logger.Logger) *ws.Hub {
	return ws.NewHub(l)
}

// ProvideHandler creates the HTTP API handler.
func ProvideHandler(l *logger.Logger, session *usecase.TradingSession) xhttp.Handler {
	return api.NewTradingEchoHandler(l, session)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	handler xhttp.Handler,
	hub *ws.Hub,
	session *usecase.TradingSession,
	publisher repository.EventPublisher,
) *server.App {
	return server.New(cfg, l, handler, hub, session, publisher)
}

func splitAddr(addr string) (string, int) {
	host, portStr, ok := strings.Cut(addr, ":")
	if !ok {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = 6379
	}
	return host, port
}

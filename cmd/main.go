package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
	"gorm.io/plugin/opentelemetry/tracing"

	plantsapi "github.com/squiala/plants-api"
	"github.com/squiala/plants-api/pkg/airtable"
	routing "github.com/squiala/plants-api/pkg/api"
	"github.com/squiala/plants-api/pkg/cache"
	"github.com/squiala/plants-api/pkg/plants"
)

func getLogLevelFromEnv() slog.Level {
	levelStr := os.Getenv("LOG_LEVEL")

	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadFieldMap parses AIRTABLE_FIELD_MAP, a JSON object mapping Airtable
// field ids to display keys.
func loadFieldMap() (plants.FieldMap, error) {
	raw := os.Getenv("AIRTABLE_FIELD_MAP")
	if raw == "" {
		return nil, fmt.Errorf("AIRTABLE_FIELD_MAP is not set")
	}
	var fm plants.FieldMap
	if err := json.Unmarshal([]byte(raw), &fm); err != nil {
		return nil, fmt.Errorf("invalid AIRTABLE_FIELD_MAP: %w", err)
	}
	return fm, nil
}

// buildCache selects the shared cache backend from CACHE_BACKEND.
func buildCache() (cache.Cache, error) {
	switch os.Getenv("CACHE_BACKEND") {
	case "", "memory":
		return cache.NewMemory(time.Minute), nil
	case "redis":
		db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
		return cache.NewRedis(os.Getenv("REDIS_ADDR"), os.Getenv("REDIS_PASSWORD"), db)
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			os.Getenv("POSTGRES_HOST"),
			os.Getenv("POSTGRES_USER"),
			os.Getenv("POSTGRES_PASSWORD"),
			os.Getenv("POSTGRES_DATABASE"),
			os.Getenv("POSTGRES_PORT"),
		)
		pg, err := cache.NewPostgres(dsn)
		if err != nil {
			return nil, err
		}
		if err := pg.DB().Use(tracing.NewPlugin()); err != nil {
			return nil, fmt.Errorf("failed to enable gorm tracing: %w", err)
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown CACHE_BACKEND: %s", os.Getenv("CACHE_BACKEND"))
	}
}

func cacheTTL() time.Duration {
	if raw := os.Getenv("CACHE_TTL_SECONDS"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return 60 * time.Second
}

func main() {
	ctx := context.Background()
	godotenv.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: getLogLevelFromEnv()})))

	exp, err := otlptracegrpc.New(ctx)
	if err != nil {
		panic(err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(
			resource.NewWithAttributes(
				semconv.SchemaURL,
				semconv.ServiceName("plants-api"),
			),
		),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	fieldMap, err := loadFieldMap()
	if err != nil {
		slog.Error("Failed to load field map", "error", err)
		os.Exit(1)
	}

	client := airtable.NewClient(
		os.Getenv("AIRTABLE_BASE"),
		os.Getenv("AIRTABLE_TABLE"),
		os.Getenv("AIRTABLE_TOKEN"),
	)
	if fields := os.Getenv("AIRTABLE_FIELDS"); fields != "" {
		client.Fields = strings.Split(fields, ",")
	}
	client.ReturnFieldsByID = os.Getenv("AIRTABLE_RETURN_FIELDS_BY_ID") == "true"

	sharedCache, err := buildCache()
	if err != nil {
		slog.Error("Failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer sharedCache.Close()

	mapper := plants.NewMapper(fieldMap)
	deps := &routing.Deps{
		Service:  plants.NewService(client, mapper),
		Resolver: plants.NewResolver(client, mapper, cacheTTL()),
		Cache:    sharedCache,
	}

	router := chi.NewRouter()

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "HEAD", "PUT", "PATCH", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Server"},
		AllowCredentials: false,
	}))

	addr := ":80"
	if port, hasPort := os.LookupEnv("API_PORT"); hasPort {
		addr = ":" + port
	}

	host := "http://localhost"
	if hostEnv, hasHost := os.LookupEnv("API_HOST"); hasHost {
		host = hostEnv
	} else {
		host += addr
	}

	config := huma.DefaultConfig("Plants API", "1.0.0")
	config.OpenAPI.Info.Description = plantsapi.Readme
	config.OpenAPI.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearerAuth": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	config.DocsPath = "/"
	config.Servers = []*huma.Server{
		{URL: host},
	}
	api := humachi.New(router, config)

	routing.Setup(api, deps)

	server := &http.Server{
		Addr:    addr,
		Handler: otelhttp.NewHandler(router, "api"),
	}

	slog.Info("Starting server", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

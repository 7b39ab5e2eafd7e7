package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/huddle-im/huddle/internal/conversation"
	"github.com/huddle-im/huddle/internal/handlers"
	"github.com/huddle-im/huddle/internal/metrics"
	"github.com/huddle-im/huddle/internal/presence"
	"github.com/huddle-im/huddle/internal/roster"
	"github.com/huddle-im/huddle/internal/seed"
	"github.com/huddle-im/huddle/internal/session"
	"github.com/huddle-im/huddle/internal/ws"
	"github.com/huddle-im/huddle/pkg/config"
)

func rateLimitMiddleware(limiterInstance *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		limiterContext, err := limiterInstance.Get(c.Request.Context(), c.ClientIP())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "rate limiter error"})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limiterContext.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", limiterContext.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", limiterContext.Reset))

		if limiterContext.Reached {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}

		c.Next()
	}
}

type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseBodyWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w responseBodyWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func serverErrorLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		blw := &responseBodyWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Printf(
				"HTTP %d %s %s ip=%s duration=%s errors=%q response=%q",
				c.Writer.Status(),
				c.Request.Method,
				c.Request.URL.Path,
				c.ClientIP(),
				time.Since(start).Truncate(time.Millisecond),
				c.Errors.ByType(gin.ErrorTypeAny).String(),
				strings.TrimSpace(blw.body.String()),
			)
		}
	}
}

func panicRecovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf(
			"panic recovered method=%s path=%s ip=%s error=%v\n%s",
			c.Request.Method,
			c.Request.URL.Path,
			c.ClientIP(),
			recovered,
			debug.Stack(),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}

func corsMiddleware(origins string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origins)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func main() {
	cfg := config.Load()

	if len(os.Args) > 1 {
		if err := runCommand(cfg, os.Args[1:]); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	if err := runServer(cfg); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func runCommand(cfg *config.Config, args []string) error {
	command := args[0]

	switch command {
	case "status":
		return runStatus(cfg, os.Stdout, args[1:])
	case "-h", "--help", "help":
		printUsage(os.Stdout)
		return nil
	default:
		printUsage(os.Stderr)
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(out *os.File) {
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  huddle           Start the demo server")
	fmt.Fprintln(out, "  huddle status    Show seed statistics")
	fmt.Fprintln(out, "  huddle status --json")
}

func loadSeed(cfg *config.Config) (seed.Data, error) {
	if cfg.SeedPath == "" {
		return seed.Default(), nil
	}
	data, err := seed.Load(cfg.SeedPath)
	if err != nil {
		return seed.Data{}, fmt.Errorf("failed to load seed %s: %w", cfg.SeedPath, err)
	}
	return data, nil
}

func runServer(cfg *config.Config) error {
	data, err := loadSeed(cfg)
	if err != nil {
		return err
	}
	if cfg.CurrentUserID != "" {
		data.CurrentUserID = cfg.CurrentUserID
	}
	if err := data.Validate(); err != nil {
		return fmt.Errorf("invalid seed: %w", err)
	}

	rs := roster.NewStore(data.Users)
	cs := conversation.NewStore(data.Messages)

	sess, err := session.New(rs, cs, data.CurrentUserID, session.Options{
		StatusOptions: data.StatusOptions,
		EmojiOptions:  data.EmojiOptions,
	})
	if err != nil {
		return fmt.Errorf("failed to build session: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := ws.NewHub()
	go hub.Run(ctx)

	// Every mutation feeds metrics and the render stream.
	sess.SetNotifier(func(ev session.Event) {
		metrics.ObserveEvent(string(ev.Kind))
		hub.BroadcastEvent(ev)
	})

	sim := presence.New(sess, data.CurrentUserID, presence.Config{
		TickInterval:   cfg.TypingTick,
		Threshold:      cfg.TypingThreshold,
		TypingDuration: cfg.TypingDuration,
	}, nil)
	go sim.Run(ctx)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(serverErrorLogger())
	router.Use(gin.Logger())
	router.Use(panicRecovery())
	router.Use(corsMiddleware(cfg.CORSOrigins))

	mutationLimiter := limiter.New(memory.NewStore(), limiter.Rate{
		Period: time.Minute,
		Limit:  cfg.MutationLimit,
	})

	api := router.Group("/api", rateLimitMiddleware(mutationLimiter))
	handlers.NewSessionHandler(sess).Register(api)

	router.GET("/ws", hub.HandleWebSocket)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	addr := fmt.Sprintf("0.0.0.0:%s", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigint
		log.Println("Shutting down gracefully...")
		cancel() // stops the simulator and drops websocket clients

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Starting server on %s (current user %s, %d roster users)",
		addr, data.CurrentUserID, len(data.Users))

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

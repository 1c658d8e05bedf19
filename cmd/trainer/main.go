package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/trainer/internal/content"
	"github.com/pavelanni/trainer/internal/handler"
	appI18n "github.com/pavelanni/trainer/internal/i18n"
	"github.com/pavelanni/trainer/internal/llm"
	"github.com/pavelanni/trainer/internal/model"
	"github.com/pavelanni/trainer/internal/progress"
	"github.com/pavelanni/trainer/internal/session"
	"github.com/pavelanni/trainer/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "trainer",
		Short: "PDF-based training assistant powered by LLMs",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd(), callsCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `trainer --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP training server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringP("training-dir", "t", "training", "Root directory of training modules")
	f.String("call-log", "trainer.db", "SQLite database path for the LLM call log (empty to disable)")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.StringP("lang", "l", "en", "UI language (en, ru)")
	f.IntP("num-questions", "n", 10, "Number of quiz questions per session")
	f.IntP("passing-score", "p", 7, "Correct answers needed to pass a quiz")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /ru)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export recorded quiz progress as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.StringP("training-dir", "t", "training", "Root directory of training modules")
	f.IntP("passing-score", "p", 7, "Passing score used for the per-module summary")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func callsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calls",
		Short: "Dump the recorded LLM call log as JSON",
		RunE:  runCalls,
	}
	f := cmd.Flags()
	f.String("call-log", "trainer.db", "SQLite database path for the LLM call log")
	f.String("session", "", "Only calls made by this session ID")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("TRAINER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("trainer")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/trainer")
	v.AddConfigPath("/etc/trainer")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	// Open the LLM call log database. An empty path disables call recording.
	var callLog llm.CallLog
	if dbPath := v.GetString("call-log"); dbPath != "" {
		db, err := store.New(dbPath)
		if err != nil {
			return fmt.Errorf("open call log database: %w", err)
		}
		defer db.Close()
		callLog = db
	}

	// Verify the training root before accepting sessions.
	trainingDir := v.GetString("training-dir")
	modules, err := content.ListModules(trainingDir)
	if err != nil {
		return fmt.Errorf("scan training dir: %w", err)
	}
	if len(modules) == 0 {
		return fmt.Errorf("no training modules found under %s", trainingDir)
	}
	slog.Info("training modules found", "dir", trainingDir, "count", len(modules))

	// Initialize i18n.
	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	// Create LLM client.
	llmClient := llm.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
		callLog,
	)
	if err := llmClient.Ping(context.Background()); err != nil {
		return fmt.Errorf("LLM health check: %w", err)
	}
	slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	cfg := model.Config{
		TrainingDir:         trainingDir,
		QuestionsPerSession: v.GetInt("num-questions"),
		PassingScore:        v.GetInt("passing-score"),
		BasePath:            basePath,
		SecureCookies:       v.GetBool("secure-cookies"),
	}

	recorder := progress.NewRecorder(filepath.Join(trainingDir, progress.FileName))
	sessions := session.NewManager()

	h, err := handler.New(sessions, llmClient, content.PDFExtractor{}, recorder, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			h.Routes(sub)
		})
	} else {
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"lang", lang,
		"training_dir", trainingDir,
		"num_questions", cfg.QuestionsPerSession,
		"passing_score", cfg.PassingScore,
		"base_path", basePath,
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	recorder := progress.NewRecorder(filepath.Join(v.GetString("training-dir"), progress.FileName))
	entries, err := recorder.List()
	if err != nil {
		return fmt.Errorf("read progress log: %w", err)
	}

	passingScore := v.GetInt("passing-score")
	export := model.ProgressExport{
		GeneratedAt:  time.Now(),
		PassingScore: passingScore,
		Entries:      entries,
		Modules:      progress.Summarize(entries, passingScore),
	}

	return writeJSONOutput(v.GetString("output"), export)
}

func runCalls(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("call-log"))
	if err != nil {
		return fmt.Errorf("open call log database: %w", err)
	}
	defer db.Close()

	calls, err := db.ListCalls(v.GetString("session"))
	if err != nil {
		return fmt.Errorf("list calls: %w", err)
	}
	total, err := db.CallCount()
	if err != nil {
		return fmt.Errorf("count calls: %w", err)
	}

	out := struct {
		Total int                `json:"total"`
		Calls []store.CallRecord `json:"calls"`
	}{Total: total, Calls: calls}

	return writeJSONOutput(v.GetString("output"), out)
}

// writeJSONOutput marshals out as indented JSON to the given path, or to
// stdout when the path is empty or "-".
func writeJSONOutput(outPath string, out any) error {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

package main

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Simplici0/tplt/internal/config"
	"github.com/Simplici0/tplt/internal/logger"
	"github.com/Simplici0/tplt/internal/master"
	"github.com/Simplici0/tplt/internal/metrics"
	"github.com/Simplici0/tplt/internal/seed"
	"github.com/Simplici0/tplt/internal/session"
	"github.com/Simplici0/tplt/web"
)

var pages = []string{"dashboard.html", "master.html"}

type server struct {
	sessions  *sessionService
	templates map[string]*template.Template
	logger    *zap.Logger
	now       func() time.Time
}

type baseViewData struct {
	ErrorMessage   string
	SuccessMessage string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	newLogger := logger.New
	if cfg.IsDev() {
		newLogger = logger.NewDevelopment
	}
	base := logger.Must(newLogger(cfg.LogLevel))
	defer func() { _ = base.Sync() }()

	for _, warning := range cfg.Warnings() {
		base.Warn(warning)
	}

	seedMaster := seed.Loader(cfg.MasterSeedPath, func(err error) {
		base.Error("failed to seed product master", zap.Error(err))
	})
	if cfg.MasterSeedPath != "" {
		stats := seedMaster(master.New())
		base.Info("product master seed",
			zap.String("path", cfg.MasterSeedPath),
			zap.Int("entries", stats.Inserts),
			zap.Int("skipped", stats.Skipped),
		)
	}

	store := session.NewStore(cfg.SessionTTL,
		session.WithLogger(logger.Named(base, "session")),
		session.WithInit(func(s *session.State) { seedMaster(s.Master) }),
	)
	sweeper, err := session.NewSweeper(store, cfg.SweepSchedule, logger.Named(base, "sweeper"))
	if err != nil {
		base.Fatal("failed to schedule session sweeper", zap.Error(err))
	}
	sweeper.Start()
	defer sweeper.Stop()

	sessions := newSessionService(store, cfg.SessionSecret, cfg.SessionTTL, logger.Named(base, "session"))
	sessions.secure = !cfg.IsDev()

	srv, err := newServer(sessions, base)
	if err != nil {
		base.Fatal("failed to load templates", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		base.Info("listening", zap.String("addr", httpServer.Addr), zap.String("env", cfg.Env))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			base.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		base.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newServer(sessions *sessionService, base *zap.Logger) (*server, error) {
	templates, err := loadTemplates(web.Templates)
	if err != nil {
		return nil, err
	}
	return &server{
		sessions:  sessions,
		templates: templates,
		logger:    logger.Named(base, "http"),
		now:       time.Now,
	}, nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.middleware)

		r.Get("/", s.handleDashboard)
		r.Post("/records", s.handleRecordCreate)
		r.Post("/records/cancel-edit", s.handleRecordCancelEdit)
		r.Post("/records/clear", s.handleRecordClear)
		r.Post("/records/import", s.handleRecordImport)
		r.Get("/records/export.csv", s.handleRecordExportCSV)
		r.Get("/records/export.xlsx", s.handleRecordExportXLSX)
		r.Post("/records/{index}", s.handleRecordUpdate)
		r.Post("/records/{index}/edit", s.handleRecordEdit)
		r.Post("/records/{index}/delete", s.handleRecordDelete)
		r.Post("/records/{index}/order", s.handleRecordOrder)

		r.Get("/master", s.handleMasterList)
		r.Post("/master", s.handleMasterCreate)
		r.Post("/master/import", s.handleMasterImport)
		r.Get("/master/export.csv", s.handleMasterExportCSV)

		r.Post("/session/reset", s.handleSessionReset)

		r.Get("/api/summary", s.handleAPISummary)
		r.Get("/api/chart", s.handleAPIChart)
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.sessions.store.Len()})
}

func loadTemplates(fsys fs.FS) (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"money": func(v float64) string {
			return humanize.CommafWithDigits(metrics.Round2(v), 2)
		},
		"optmoney": func(v *float64) string {
			if v == nil {
				return "-"
			}
			return humanize.CommafWithDigits(metrics.Round2(*v), 2)
		},
		"int": func(v int) string {
			return humanize.Comma(int64(v))
		},
		"date": func(t time.Time) string {
			return t.Format("2006-01-02")
		},
		"optdate": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format("2006-01-02")
		},
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.New(page).Funcs(funcs).ParseFS(fsys, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, err
		}
		templates[page] = t
	}
	return templates, nil
}

func (s *server) renderTemplate(w http.ResponseWriter, page string, data any) {
	t, ok := s.templates[page]
	if !ok {
		http.Error(w, "failed to parse template", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Error("render template", zap.String("page", page), zap.Error(err))
		http.Error(w, "failed to render template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// redirectWith sends the browser back to path with a flash message.
func redirectWith(w http.ResponseWriter, r *http.Request, path, key, message string) {
	http.Redirect(w, r, path+"?"+key+"="+url.QueryEscape(message), http.StatusSeeOther)
}

func flash(r *http.Request) baseViewData {
	return baseViewData{
		ErrorMessage:   r.URL.Query().Get("error"),
		SuccessMessage: r.URL.Query().Get("success"),
	}
}

func parseIndex(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "index"))
}

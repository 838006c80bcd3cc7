// main wires the verification pipeline behind an HTTP server. Models load
// once here; a model that fails to load aborts startup. Business logic lives
// in the internal packages.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"attest/internal/audit"
	"attest/internal/document"
	"attest/internal/facematch"
	"attest/internal/infra/ocr"
	"attest/internal/infra/vision"
	"attest/internal/liveness"
	"attest/internal/platform/config"
	"attest/internal/platform/httpserver"
	"attest/internal/platform/logger"
	httptransport "attest/internal/transport/http"
	"attest/internal/verification"
	verifhandler "attest/internal/verification/handler"
	verifmetrics "attest/internal/verification/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	// Model loading. Any failure here is fatal; there is no per-request
	// fallback for a missing model.
	detector, err := vision.NewRegionDetector(
		cfg.Models.DetectorModel, cfg.Models.DetectorConfig, cfg.Models.DetectorLabels)
	if err != nil {
		log.Error("load region detector", "error", err)
		os.Exit(1)
	}
	defer detector.Close()

	classifier, err := vision.NewSpoofClassifier(cfg.Models.LivenessModel)
	if err != nil {
		log.Error("load liveness classifier", "error", err)
		os.Exit(1)
	}
	defer classifier.Close()

	encoder, err := vision.NewFaceEncoder(cfg.Models.FaceCascade, cfg.Models.EncoderModel)
	if err != nil {
		log.Error("load face encoder", "error", err)
		os.Exit(1)
	}
	defer encoder.Close()

	engine := ocr.New(cfg.Models.OCRLanguage, cfg.Models.TessdataPrefix)

	extractor, err := document.NewExtractor(detector, engine,
		document.WithLogger(log),
		document.WithLanguage(cfg.Models.OCRLanguage),
		document.WithMinConfidence(cfg.Thresholds.DetectionMin))
	if err != nil {
		log.Error("build extractor", "error", err)
		os.Exit(1)
	}

	gate, err := liveness.NewDetector(classifier,
		liveness.WithLogger(log),
		liveness.WithThreshold(cfg.Thresholds.LivenessConfidence))
	if err != nil {
		log.Error("build liveness detector", "error", err)
		os.Exit(1)
	}

	matcher, err := facematch.NewMatcher(encoder, gate,
		facematch.WithLogger(log),
		facematch.WithThreshold(cfg.Thresholds.FaceDistance))
	if err != nil {
		log.Error("build face matcher", "error", err)
		os.Exit(1)
	}

	inbox := make(chan audit.Event, 256)
	auditStore := audit.NewMemoryStore(4096)
	auditWorker := audit.NewWorker(auditStore, inbox)

	pipeline, err := verification.New(extractor, matcher,
		verification.WithLogger(log),
		verification.WithMetrics(verifmetrics.New()),
		verification.WithAuditPublisher(audit.NewPublisher(inbox)),
		verification.WithRequiredFields(cfg.Extraction.RequiredFields))
	if err != nil {
		log.Error("build pipeline", "error", err)
		os.Exit(1)
	}

	handler := verifhandler.New(pipeline, log)
	router := httptransport.NewRouter(handler)
	srv := httpserver.New(cfg.Server.Addr, router)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	go func() {
		if err := auditWorker.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	log.Info("starting attest server", "addr", cfg.Server.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	stopWorker()
}

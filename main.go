package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"roomlister/api"
	"roomlister/compress"
	"roomlister/config"
	"roomlister/extract"
	"roomlister/httputil"
	"roomlister/logging"
	"roomlister/models"
	"roomlister/normalize"
	"roomlister/scheduler"
	"roomlister/services"
	"roomlister/storage"
	"roomlister/uploader"
	"roomlister/workers"
)

var (
	postMsg    = flag.String("post", "", "Post a listing from the given free-text message and exit")
	images     = flag.String("images", "", "Comma-separated image paths for -post")
	extractMsg = flag.String("extract", "", "Extract and validate a message without posting, then exit")
	retryNow   = flag.Bool("retry", false, "Requeue failed uploads, drain the queue once and exit")
	syncNow    = flag.Bool("sync", false, "Reconcile local drafts against the remote service and exit")
	loginToken = flag.String("login", "", "Store a session token and exit (use with -user)")
	loginUser  = flag.String("user", "", "User id for -login")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := logging.Setup(cfg.LogPath)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if *loginToken != "" {
		if err := store.SaveSession(models.Session{Token: *loginToken, UserID: *loginUser}); err != nil {
			log.Fatalf("Failed to store session: %v", err)
		}
		log.Println("Session stored")
		return
	}

	clients := httputil.NewClients()
	norm := normalize.New(cfg.Localities)

	var extractClient *extract.Client
	if cfg.Extractor.Endpoint != "" {
		extractClient = extract.NewClient(cfg.Extractor.Endpoint, cfg.Extractor.APIKey, clients.Extract, norm)
	}
	extractor := extract.NewExtractor(extractClient, norm)

	up, err := buildUploader(ctx, cfg, clients)
	if err != nil {
		log.Fatalf("Failed to configure image storage: %v", err)
	}

	compressCfg := compress.Config{
		MaxRawBytes: int64(cfg.Upload.MaxFileSizeMB) * 1024 * 1024,
	}
	apiClient := api.NewClient(cfg.API.BaseURL, clients.API, store)
	sched := uploader.NewScheduler(up, cfg.Upload.Concurrency, cfg.Upload.MaxAttempts)
	poster := services.NewPoster(store, extractor, apiClient, sched, compressCfg, cfg.Upload.MaxFiles)
	retryWorker := workers.NewRetryWorker(store, up, compressCfg)

	switch {
	case *extractMsg != "":
		runExtract(ctx, poster, *extractMsg)
		return
	case *postMsg != "":
		runPost(ctx, poster, *postMsg, *images)
		return
	case *retryNow:
		if n, err := store.RequeueFailedUploads(); err != nil {
			log.Fatalf("Requeue failed: %v", err)
		} else {
			log.Printf("Requeued %d failed uploads", n)
		}
		retryWorker.RunOnce(ctx, 50)
		return
	case *syncNow:
		remote, orphaned, err := poster.Sync(ctx)
		if err != nil {
			log.Fatalf("Sync failed: %v", err)
		}
		log.Printf("%d listings live", len(remote))
		for _, d := range orphaned {
			log.Printf("Listing %s (draft %s) is gone from the remote service", d.RemoteID, d.ID)
		}
		return
	}

	// Daemon mode
	daemon := scheduler.New(cfg, poster, store)
	daemon.SetWorkers(retryWorker)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := daemon.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	go retryWorker.Run(ctx, 10, 2*time.Minute)
	log.Println("Retry worker started")

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	daemon.Stop()
	log.Println("Goodbye!")
}

// buildUploader picks the storage backend: self-hosted S3 when a bucket is
// configured, otherwise the marketplace media host.
func buildUploader(ctx context.Context, cfg *config.Config, clients *httputil.Clients) (uploader.Uploader, error) {
	if cfg.S3.Bucket != "" {
		return uploader.NewS3Uploader(ctx, uploader.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKey,
			SecretAccessKey: cfg.S3.SecretKey,
			PublicURL:       cfg.S3.PublicURL,
		})
	}
	if cfg.MediaHost.Endpoint == "" {
		return nil, fmt.Errorf("no image storage configured: set MEDIA_HOST_URL or S3_BUCKET")
	}
	return uploader.NewMediaHostUploader(cfg.MediaHost.Endpoint, cfg.MediaHost.Namespace, cfg.MediaHost.Policy, clients.Upload), nil
}

func runExtract(ctx context.Context, poster *services.Poster, message string) {
	listing, problems := poster.Preview(ctx, message)
	fmt.Printf("Rent:        %d\n", listing.Rent)
	fmt.Printf("Deposit:     %d\n", listing.Deposit)
	fmt.Printf("Type:        %s\n", listing.Type)
	fmt.Printf("Area:        %s\n", listing.Area)
	fmt.Printf("Gender:      %s\n", listing.Gender)
	fmt.Printf("Furnishing:  %s\n", listing.Furnishing)
	fmt.Printf("Contact:     %s\n", listing.Contact)
	fmt.Printf("Amenities:   %s\n", strings.Join(listing.Amenities, ", "))
	if len(problems) > 0 {
		fmt.Println("\nNot ready to post:")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		os.Exit(1)
	}
	fmt.Println("\nReady to post.")
}

func runPost(ctx context.Context, poster *services.Poster, message, imageList string) {
	var paths []string
	for _, p := range strings.Split(imageList, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}

	result, err := poster.Post(ctx, message, paths)
	if err != nil {
		log.Fatalf("Post failed: %v", err)
	}
	for _, w := range result.Warnings {
		log.Printf("Warning: %s", w)
	}
	log.Printf("Posted listing %s with %d images", result.Remote.ID, len(result.Remote.Images))
}

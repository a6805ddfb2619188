package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/yourusername/revenue-copilot/config"
	"github.com/yourusername/revenue-copilot/internal/agents"
	"github.com/yourusername/revenue-copilot/internal/dispatch"
	"github.com/yourusername/revenue-copilot/internal/ingest"
	"github.com/yourusername/revenue-copilot/internal/logger"
	"github.com/yourusername/revenue-copilot/internal/retriever"
	"github.com/yourusername/revenue-copilot/internal/session"
	"github.com/yourusername/revenue-copilot/models"
	"github.com/yourusername/revenue-copilot/storage"
)

var version = "1.0.0"

// localUserID is the session key for the interactive CLI; a real transport
// (Telegram, webhook) supplies its own user ids.
const localUserID = "cli-local"

func main() {
	godotenv.Load()

	fmt.Printf("🤖 Revenue Copilot v%s\n", version)

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.LogDir)
	if err != nil {
		fmt.Printf("❌ Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := storage.NewSQLiteDB(cfg.Database.Path)
	if err != nil {
		fmt.Printf("❌ Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	var llm *openai.Client
	if cfg.AI.OpenAI.APIKey != "" {
		llm = openai.NewClient(cfg.AI.OpenAI.APIKey)
	} else {
		fmt.Println("🟡 OPENAI_API_KEY not set — knowledge answers and proposals run in template mode")
	}

	var ret agents.Retriever
	if llm != nil {
		embedder, err := retriever.NewOpenAIEmbedder(cfg.AI.OpenAI.APIKey, "")
		if err != nil {
			log.Warn("embedder unavailable, knowledge base disabled", zap.Error(err))
			fmt.Println("🟡 Embeddings unavailable — document Q&A disabled for this run")
		} else {
			qdrantRet, err := retriever.NewQdrant(retriever.Config{
				Host:       cfg.Vector.Host,
				Port:       cfg.Vector.Port,
				Collection: cfg.Vector.Collection,
				Dimension:  cfg.Vector.Dimension,
			}, embedder, log)
			if err != nil {
				log.Warn("qdrant unavailable, knowledge base disabled", zap.Error(err))
				fmt.Println("🟡 Qdrant unreachable — document Q&A disabled for this run")
			} else {
				ret = qdrantRet
				defer qdrantRet.Close()
			}
		}
	}

	knowledge := agents.NewKnowledge(llm, cfg.AI.OpenAI.Model, ret, cfg.Ingest.ChunkSize, log)
	dealflow := agents.NewDealflow(db, llm, cfg.AI.OpenAI.Model, log)

	sessions := session.NewStore(session.Config{
		MaxHistory:    cfg.Session.MaxHistory,
		MaxSessions:   cfg.Session.MaxSessions,
		TTL:           cfg.Session.TTL,
		SweepInterval: cfg.Session.SweepInterval,
	}, db, log)
	sessions.StartSweeper()
	defer sessions.Close()

	dispatcher := dispatch.New(sessions, knowledge, dealflow, db, log, dispatch.Config{
		ConfidenceThreshold: cfg.Dispatch.ConfidenceThreshold,
		EventDuration:       cfg.Dispatch.EventDuration,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher, err := ingest.NewWatcher(cfg.Ingest.DocsDir, cfg.Ingest.Extensions, knowledge, log)
	if err != nil {
		log.Warn("document watcher disabled", zap.Error(err))
	} else {
		watcher.Start(ctx)
		defer watcher.Close()
		fmt.Printf("📁 Watching %s/ for documents to ingest\n", cfg.Ingest.DocsDir)
	}

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		fmt.Println("\n👋 Shutting down Revenue Copilot...")
		cancel()
	}()

	fmt.Println("✅ Ready. Talk to me naturally — try \"John from Acme wants a PoC in September, budget around 10k\"")
	runInteractiveCLI(ctx, dispatcher, knowledge, db, sessions)
}

func runInteractiveCLI(ctx context.Context, dispatcher *dispatch.Dispatcher,
	knowledge *agents.Knowledge, db *storage.SQLiteDB, sessions *session.Store) {

	promptColor := color.New(color.FgCyan, color.Bold)
	replyColor := color.New(color.FgGreen)
	metaColor := color.New(color.FgHiBlack)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		promptColor.Print("copilot> ")
		if !scanner.Scan() {
			return
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch {
		case input == "quit" || input == "exit" || input == "q":
			fmt.Println("👋 Goodbye!")
			return
		case input == "metrics":
			showMetrics(db, sessions)
			continue
		case input == "health":
			fmt.Println("🟢 Dispatcher healthy, sessions:", sessions.Len())
			continue
		case strings.HasPrefix(input, "ingest "):
			runBulkIngest(ctx, knowledge, strings.TrimSpace(strings.TrimPrefix(input, "ingest ")))
			continue
		}

		resp := dispatcher.HandleMessage(ctx, localUserID, input, nil)
		replyColor.Println(resp.ReplyText)
		for _, c := range resp.Citations {
			metaColor.Printf("  📄 %s\n", c.Source)
		}
		metaColor.Printf("  [intent=%s confidence=%.2f route=%s]\n",
			resp.Intent, resp.Confidence, resp.RouteTaken)
	}
}

func showMetrics(db *storage.SQLiteDB, sessions *session.Store) {
	leads, err := db.CountLeads()
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}
	conversations, err := db.CountConversations()
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}
	fmt.Printf("📊 Leads captured: %d | Messages handled: %d | Live sessions: %d\n",
		leads, conversations, sessions.Len())
}

// runBulkIngest loads every matching file under dir into the knowledge base.
func runBulkIngest(ctx context.Context, knowledge *agents.Knowledge, dir string) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			switch strings.ToLower(filepath.Ext(path)) {
			case ".txt", ".md":
				files = append(files, path)
			}
		}
		return nil
	})
	if err != nil {
		fmt.Printf("❌ Failed to scan %s: %v\n", dir, err)
		return
	}
	if len(files) == 0 {
		fmt.Printf("No ingestable files found under %s\n", dir)
		return
	}

	bar := progressbar.Default(int64(len(files)), "ingesting")
	total := 0
	for _, path := range files {
		chunks, err := knowledge.Ingest(ctx, models.Attachment{
			FileName: filepath.Base(path),
			Path:     path,
		})
		if err != nil {
			fmt.Printf("\n⚠️  %s: %v\n", filepath.Base(path), err)
		}
		total += chunks
		bar.Add(1)
	}
	fmt.Printf("✅ Ingested %d files (%d chunks)\n", len(files), total)
}

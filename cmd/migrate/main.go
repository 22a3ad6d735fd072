package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/dropDatabas3/plazita/internal/config"
	migrations "github.com/dropDatabas3/plazita/migrations/postgres"
)

func main() {
	var (
		configPath = flag.String("config", "configs/config.example.yaml", "Path to YAML config")
		dir        = flag.String("dir", "", "Migrations directory override (default: embedded migrations)")
	)
	flag.Parse()

	_ = godotenv.Load()

	// Positional args: [action] [steps]
	action := "up"
	steps := 0
	args := flag.Args()
	if len(args) >= 1 && args[0] != "" {
		action = strings.ToLower(args[0])
	}
	if len(args) >= 2 {
		if n, err := strconv.Atoi(args[1]); err == nil && n > 0 {
			steps = n
		}
	}

	// Las migraciones van embebidas en el binario; -dir permite correr un
	// árbol suelto (ej: una migración todavía no commiteada).
	var src fs.FS = migrations.FS
	if *dir != "" {
		src = os.DirFS(*dir)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Storage.DSN)
	if err != nil {
		log.Fatalf("pgxpool: %v", err)
	}
	defer pool.Close()

	switch action {
	case "up":
		upFiles, err := listSQL(src, "_up.sql")
		if err != nil {
			log.Fatalf("list up: %v", err)
		}
		if len(upFiles) == 0 {
			log.Println("No *_up.sql migrations found. Nothing to do.")
			return
		}
		sort.Strings(upFiles) // apply in ascending order
		if steps > 0 && steps < len(upFiles) {
			upFiles = upFiles[:steps]
		}
		log.Printf("Applying %d up migration(s)...", len(upFiles))
		for _, f := range upFiles {
			if err := execSQLFile(ctx, pool, src, f); err != nil {
				log.Fatalf("exec %s: %v", f, err)
			}
		}
		log.Println("Up migrations completed.")

	case "down":
		downFiles, err := listSQL(src, "_down.sql")
		if err != nil {
			log.Fatalf("list down: %v", err)
		}
		if len(downFiles) == 0 {
			log.Println("No *_down.sql migrations found. Nothing to do.")
			return
		}
		sort.Strings(downFiles)   // ascending
		reverseInPlace(downFiles) // run in reverse
		if steps > 0 && steps < len(downFiles) {
			downFiles = downFiles[:steps] // only N most-recent downs
		}
		log.Printf("Applying %d down migration(s)...", len(downFiles))
		for _, f := range downFiles {
			if err := execSQLFile(ctx, pool, src, f); err != nil {
				log.Fatalf("exec %s: %v", f, err)
			}
		}
		log.Println("Down migrations completed.")

	default:
		log.Fatalf("unknown action %q. Use: up | down [steps]", action)
	}
}

func listSQL(src fs.FS, suffix string) ([]string, error) {
	entries, err := fs.ReadDir(src, ".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			name := e.Name()
			if strings.HasSuffix(strings.ToLower(name), strings.ToLower(suffix)) {
				out = append(out, name)
			}
		}
	}
	return out, nil
}

func reverseInPlace(ss []string) {
	for i, j := 0, len(ss)-1; i < j; i, j = i+1, j-1 {
		ss[i], ss[j] = ss[j], ss[i]
	}
}

func execSQLFile(ctx context.Context, pool *pgxpool.Pool, src fs.FS, name string) error {
	b, err := fs.ReadFile(src, name)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	sql := string(b)

	start := time.Now()
	_, err = pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	log.Printf("OK %s (%s)", name, time.Since(start).Truncate(time.Millisecond))
	return nil
}

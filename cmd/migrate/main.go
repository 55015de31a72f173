package main

import (
	"context"
	"flag"
	"log"
	"time"

	"careersite/internal/config"
	"careersite/internal/database"
)

func main() {
	status := flag.Bool("status", false, "只打印迁移状态，不执行迁移")
	timeout := flag.Duration("timeout", 2*time.Minute, "迁移超时时间")
	flag.Parse()

	dbCfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *status {
		if err := database.MigrationStatus(ctx, dbCfg); err != nil {
			log.Fatalf("migration status: %v", err)
		}
		return
	}

	if err := database.MigrateDSN(ctx, dbCfg); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Printf("migrations applied to %s@%s:%d/%s", dbCfg.User, dbCfg.Host, dbCfg.Port, dbCfg.Name)
}

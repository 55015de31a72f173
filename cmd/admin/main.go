package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"careersite/internal/auth"
	"careersite/internal/config"
	"careersite/internal/database"
)

// dbFlags 覆盖环境变量中的数据库配置，留空则沿用 config.LoadDatabase 的结果。
type dbFlags struct {
	host, name, user, password, sslmode string
	port                                int
}

func (f dbFlags) apply(cfg config.DatabaseConfig) config.DatabaseConfig {
	if v := strings.TrimSpace(f.host); v != "" {
		cfg.Host = v
	}
	if f.port > 0 {
		cfg.Port = f.port
	}
	if v := strings.TrimSpace(f.name); v != "" {
		cfg.Name = v
	}
	if v := strings.TrimSpace(f.user); v != "" {
		cfg.User = v
	}
	if f.password != "" {
		cfg.Password = f.password
	}
	if v := strings.TrimSpace(f.sslmode); v != "" {
		cfg.SSLMode = v
	}
	return cfg
}

func main() {
	var (
		email    = flag.String("email", "", "招聘方登录邮箱（必填）")
		password = flag.String("password", "", "初始密码（可选，留空则随机生成）")
		demo     = flag.String("demo-company", "", "同时创建的演示公司名称（可选）")
		db       dbFlags
	)
	flag.StringVar(&db.host, "db-host", "", "数据库 Host（默认读 DATABASE_HOST）")
	flag.IntVar(&db.port, "db-port", 0, "数据库 Port（默认读 DATABASE_PORT）")
	flag.StringVar(&db.name, "db-name", "", "数据库名（默认读 POSTGRES_DB）")
	flag.StringVar(&db.user, "db-user", "", "数据库用户（默认读 POSTGRES_USER）")
	flag.StringVar(&db.password, "db-password", "", "数据库密码（默认读 POSTGRES_PASSWORD）")
	flag.StringVar(&db.sslmode, "db-sslmode", "", "数据库 SSLMODE（默认读 DATABASE_SSLMODE）")
	flag.Parse()

	addr := strings.TrimSpace(*email)
	if addr == "" {
		log.Fatal("missing required flag: --email")
	}

	base, err := config.LoadDatabase()
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}
	dbCfg := db.apply(base)
	if err := dbCfg.Validate(); err != nil {
		log.Fatalf("database config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := database.MigrateDSN(ctx, dbCfg); err != nil {
		log.Fatalf("migrate database: %v", err)
	}
	conn, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	pass := *password
	generated := pass == ""
	if generated {
		if pass, err = randomPassword(18); err != nil {
			log.Fatalf("generate password: %v", err)
		}
	}

	recruiter, err := auth.NewAccounts(conn).Register(ctx, addr, pass)
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		log.Fatalf("recruiter %q already exists", addr)
	case err != nil:
		log.Fatalf("create recruiter: %v", err)
	}

	fmt.Printf("已创建招聘方账号：%s (id=%d)\n", recruiter.Email, recruiter.ID)
	if generated {
		fmt.Printf("初始密码: %s\n", pass)
		fmt.Println("提示：该密码仅显示一次，请登录后通过 /v1/auth/change-password 修改。")
	}

	if name := strings.TrimSpace(*demo); name != "" {
		if err := seedDemoCompany(ctx, conn, recruiter.ID, name); err != nil {
			log.Fatalf("seed demo company: %v", err)
		}
	}
}

// randomPassword 返回 n 字节随机数的 base64url 编码。
func randomPassword(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

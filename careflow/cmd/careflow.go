// Command-line chat client for the careflow core
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"careflow/careflow/config"
	"careflow/careflow/controllers"
	"careflow/careflow/services/intent"
	"careflow/careflow/services/llm"
	"careflow/careflow/services/notify"
	"careflow/careflow/services/router"
	"careflow/careflow/sources/psql"
	"careflow/careflow/sources/psql/dao"
	"careflow/careflow/types"
	"careflow/careflow/utils/logging"
)

func main() {
	logging.InitLogger()
	cfg := config.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	args := os.Args[1:]
	if len(args) < 1 || args[0] != "connect" {
		fmt.Println("Careflow CLI usage:")
		fmt.Println("  careflow connect   # Start a chat session with the assistant")
		os.Exit(1)
	}

	db, err := psql.NewDatabase(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("database connection error", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	userDAO := dao.NewUserDAO(db.DB)
	sessionDAO := dao.NewSessionDAO(db.DB)
	chatDAO := dao.NewChatMessageDAO(db.DB)
	notifDAO := dao.NewNotificationDAO(db.DB)

	user, err := userDAO.GetUserByUsername(ctx, "cli")
	if err != nil {
		logging.ErrorLogger.Error("user lookup error", zap.Error(err))
		os.Exit(1)
	}
	if user == nil {
		user, err = userDAO.CreateUser(ctx, "cli", "cli@localhost", nil)
		if err != nil {
			logging.ErrorLogger.Error("user create error", zap.Error(err))
			os.Exit(1)
		}
	}

	intentCfg := intent.LoadClassifierConfig(cfg.IntentConfigPath)
	intentModel := intent.NewLLMModel(llm.NewClient(cfg.IntentModelURL), cfg.IntentModel, intentCfg)
	classifier := intent.NewClassifier(intentCfg, intentModel, cfg.IntentThreshold, cfg.IntentTimeout)
	primary := router.NewIntakeEngine(llm.NewClient(cfg.PrimaryEngineURL), cfg.EngineModel)
	secondary := router.NewContinuationEngine(llm.NewClient(cfg.SecondaryEngineURL), cfg.EngineModel)
	chatRouter := router.NewRouter(primary, secondary, cfg.EngineTimeout)
	templates := notify.LoadTemplates(cfg.TemplatePath)

	chatCtrl := controllers.NewChatController(sessionDAO, chatDAO, notifDAO, classifier, chatRouter, templates, nil)

	fmt.Printf("\n🩺 Careflow assistant connected (user %s)\n\n", user.Username)
	fmt.Println("Describe a health concern, or type 'exit' to quit.")
	fmt.Println()

	sessionID := ""
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("careflow> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			fmt.Println("👋 Take care!")
			break
		}
		if line == "" {
			continue
		}

		resp, err := chatCtrl.Chat(context.Background(), user.ID, types.ChatRequest{
			SessionID: sessionID,
			Message:   line,
		})
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		sessionID = resp.SessionID

		if resp.Emergency != nil {
			fmt.Println("\n🚨 EMERGENCY —", resp.Emergency.Type)
			for _, s := range resp.ImmediateSteps {
				fmt.Println("  •", s)
			}
			for _, c := range resp.Emergency.Contacts {
				fmt.Println("  ☎", c)
			}
			fmt.Println()
			continue
		}

		fmt.Printf("\n%s\n", resp.Response)
		fmt.Printf("  [intent=%s conf=%.2f %dms]\n\n", resp.Intent, resp.Confidence, resp.ProcessingMs)
	}
}
